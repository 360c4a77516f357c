package storage

import (
	"fmt"
	"strings"
)

// InputReadError reports an input file that could not be opened or parsed.
type InputReadError struct {
	Path string
	Err  error
}

func (e *InputReadError) Error() string {
	return fmt.Sprintf("input: read %q: %v", e.Path, e.Err)
}

func (e *InputReadError) Unwrap() error { return e.Err }

// SchemaError reports required columns absent from the input header.
type SchemaError struct {
	Missing []string
	Present []string
}

func (e *SchemaError) Error() string {
	present := "none"
	if len(e.Present) > 0 {
		present = strings.Join(e.Present, ", ")
	}
	return fmt.Sprintf("input: missing required columns: %s (present: %s)",
		strings.Join(e.Missing, ", "), present)
}
