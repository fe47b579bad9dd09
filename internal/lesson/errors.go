package lesson

import "fmt"

// StructureError reports that an expected page location is missing or has
// the wrong shape.
type StructureError struct {
	Msg string
}

func (e *StructureError) Error() string {
	return "lesson structure: " + e.Msg
}

// ParseError reports that the lesson identifier could not be read.
type ParseError struct {
	Title string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("lesson id: cannot parse number from title %q: %v", e.Title, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
