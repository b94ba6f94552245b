package manifest

import (
	"fmt"
	"strings"
)

// FieldError pins one validation failure to a dotted document path, for
// example "commands.2.name".
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationError carries the ordered list of field failures for one document.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "manifest: validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, field.String())
	}
	return "manifest: validation failed: " + strings.Join(parts, "; ")
}

// Messages renders every field failure as "<path>: <message>", preserving
// document order. This is the shape persisted on a ManifestRecord.
func (e *ValidationError) Messages() []string {
	if e == nil || len(e.Fields) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		out = append(out, field.String())
	}
	return out
}

func (e *ValidationError) add(path string, message string) {
	e.Fields = append(e.Fields, FieldError{Path: path, Message: message})
}
