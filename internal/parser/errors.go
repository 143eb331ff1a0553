package parser

import "fmt"

// ParseError reports that a parser could not extract records.
type ParseError struct {
	Parser string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parser '%s': %v", e.Parser, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
