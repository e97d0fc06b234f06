package workbook

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCoordinate is returned for rows or columns below 1.
	ErrInvalidCoordinate = errors.New("invalid cell coordinate")

	// ErrInvalidRange is returned for empty or inverted ranges and negative widths.
	ErrInvalidRange = errors.New("invalid range")

	// ErrOverlappingMerge is returned when a merge intersects an existing one.
	ErrOverlappingMerge = errors.New("merge overlaps an existing merged range")

	// ErrMalformedDocument marks a document whose table is not rectangular.
	ErrMalformedDocument = errors.New("malformed document")
)

// CompositionError describes a document that was skipped during layout.
type CompositionError struct {
	// Index is the document's position in the request.
	Index int

	// Name is the uploaded file name, if known.
	Name string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CompositionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("workbook: document %d (%s) skipped: %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("workbook: document %d skipped: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *CompositionError) Unwrap() error {
	return e.Err
}

// Is matches ErrMalformedDocument as well as the wrapped error.
func (e *CompositionError) Is(target error) bool {
	return target == ErrMalformedDocument || errors.Is(e.Err, target)
}
