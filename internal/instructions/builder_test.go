package instructions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReturnsEmptyWhenNothingConfigured(t *testing.T) {
	b := NewBuilder()
	assert.Equal(t, "", b.Build())
}

func TestLoadFromFilePopulatesInstructions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instructions.txt")
	require.NoError(t, os.WriteFile(path, []byte("be terse\n"), 0o600))

	b := NewBuilder()
	require.NoError(t, b.LoadFromFile(path, true))
	assert.Equal(t, "be terse", b.Build())
}

func TestMissingImplicitFileIsNotAnError(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.LoadFromFile(filepath.Join(t.TempDir(), "missing.txt"), false))
	assert.Equal(t, "", b.Build())
}

func TestMissingExplicitFileIsAnError(t *testing.T) {
	b := NewBuilder()
	err := b.LoadFromFile(filepath.Join(t.TempDir(), "missing.txt"), true)
	assert.Error(t, err)
}

func TestOverrideTakesPriorityOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instructions.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))

	b := NewBuilder()
	require.NoError(t, b.LoadFromFile(path, true))
	b.SetOverride("from override")
	assert.Equal(t, "from override", b.Build())
}
