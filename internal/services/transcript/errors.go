package transcript

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a transcript asset does not exist in the
// store and cannot be generated from a source.
var ErrNotFound = errors.New("transcript not found")

// GenerationError reports a failed transcript conversion. It wraps the
// underlying parse or encode error.
type GenerationError struct {
	Format Format
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("transcript generation failed for %s: %v", e.Format, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
