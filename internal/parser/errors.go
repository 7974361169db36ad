package parser

import "fmt"

// ParseError reports malformed feature-file text.
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}

// StructureError reports well-formed lines assembled in an invalid order,
// such as a table with no step before it.
type StructureError struct {
	File    string
	Line    int
	Message string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}

// PlaceholderError reports an outline step referencing a column that the
// Examples header does not define.
type PlaceholderError struct {
	Outline     string
	Line        int // line of the step holding the placeholder
	Placeholder string
}

func (e *PlaceholderError) Error() string {
	return fmt.Sprintf("line %d: outline %q: placeholder <%s> is not an Examples column", e.Line, e.Outline, e.Placeholder)
}
