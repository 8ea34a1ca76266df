package css

import "fmt"

// ParseError is the single error kind the selector parser raises
// (spec.md §7): a human-readable message plus enough context — the original
// query and the unread remainder at the point of failure — to locate the
// problem in the source selector.
type ParseError struct {
	Query     string
	Remainder string
	Msg       string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("selector parse error in %q: %s (at %q)", e.Query, e.Msg, e.Remainder)
}

func (q *tokenQueue) errorf(query, format string, args ...any) *ParseError {
	return &ParseError{
		Query:     query,
		Remainder: q.remainder(),
		Msg:       fmt.Sprintf(format, args...),
	}
}
