package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSensitiveKeyMatchesKnownNames(t *testing.T) {
	assert.True(t, IsSensitiveKey("Authorization"))
	assert.True(t, IsSensitiveKey("x-api-key"))
	assert.False(t, IsSensitiveKey("cursor"))
}

func TestRedactShowsOnlyTrailingChars(t *testing.T) {
	assert.Equal(t, "*****", Redact("short", 0))
	assert.Equal(t, "********cdef", Redact("abcdefghcdef", 4))
	assert.Equal(t, "", Redact("", 4))
}

func TestRedactFieldOnlyMasksSensitiveKeys(t *testing.T) {
	assert.Equal(t, "plain-value", RedactField("name", "plain-value"))
	assert.NotEqual(t, "super-secret-token", RedactField("api_key", "super-secret-token"))
}

func TestRedactDataMasksSensitiveFieldsRecursively(t *testing.T) {
	in := map[string]any{
		"tool":  "echo",
		"token": "super-secret-token",
		"nested": map[string]any{
			"password": "hunter2",
			"note":     "fine",
		},
		"headers": []any{
			map[string]any{"Authorization": "Bearer abc123xyz"},
		},
	}

	out := RedactData(in).(map[string]any)
	assert.Equal(t, "echo", out["tool"])
	assert.NotEqual(t, "super-secret-token", out["token"])

	nested := out["nested"].(map[string]any)
	assert.NotEqual(t, "hunter2", nested["password"])
	assert.Equal(t, "fine", nested["note"])

	headers := out["headers"].([]any)
	header := headers[0].(map[string]any)
	assert.NotEqual(t, "Bearer abc123xyz", header["Authorization"])
}

func TestRedactDataPassesThroughScalars(t *testing.T) {
	assert.Equal(t, "plain", RedactData("plain"))
	assert.Equal(t, float64(42), RedactData(float64(42)))
	assert.Nil(t, RedactData(nil))
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}
