package workout

import "fmt"

// ShapeError reports a table whose rows do not match its set column count.
type ShapeError struct {
	// Row is the offending row index, or -1 when the count itself is invalid.
	Row  int
	Want int
	Got  int
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("workout: invalid set column count %d", e.Got)
	}
	return fmt.Sprintf("workout: row %d has %d sets, want %d", e.Row, e.Got, e.Want)
}
