package leaderboarddomain

import "fmt"

// ParseError is returned when a leaderboard response body does not have the
// expected shape. It always aborts the render; there is no partial output.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed leaderboard response: %s: %s", e.Field, e.Reason)
}

// ValidationError is returned by Table.Validate when a body row's cell count
// does not match the header count.
type ValidationError struct {
	Row  int
	Got  int
	Want int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d has %d cells, want %d", e.Row, e.Got, e.Want)
}
