// Package instructions builds the optional `instructions` string
// returned from `initialize` (spec.md §6). It is a direct, scoped-down
// descendant of the teacher's internal/hint.Manager: that package
// merged a JSON hints file with a CLI-supplied override to annotate
// OData tool descriptions; this one merges an instructions file with a
// CLI/config override into the single string `initialize` publishes.
package instructions

import (
	"fmt"
	"os"
	"strings"
)

// Builder accumulates an instructions file and an override, in
// ascending priority, and produces the final instructions text.
type Builder struct {
	fileText string
	override string
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// LoadFromFile reads path as the instructions file. A missing file at
// the default path is not an error; a missing file at an explicitly
// configured path is.
func (b *Builder) LoadFromFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("instructions: failed to read %q: %w", path, err)
	}
	b.fileText = strings.TrimRight(string(data), "\n")
	return nil
}

// SetOverride installs a CLI/config-supplied instructions string that
// takes priority over any file contents.
func (b *Builder) SetOverride(text string) {
	b.override = strings.TrimRight(text, "\n")
}

// Build returns the instructions string to publish, or "" if neither a
// file nor an override was supplied.
func (b *Builder) Build() string {
	if b.override != "" {
		return b.override
	}
	return b.fileText
}
