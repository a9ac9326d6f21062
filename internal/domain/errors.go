package domain

import "fmt"

// FetchError reports that the feed could not be retrieved or was not tabular.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("fetch feed: %v", e.Err)
	}
	return fmt.Sprintf("fetch feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SchemaError reports a feed whose shape or content does not match the
// expected columns. Line is the 1-based CSV line, or 0 when not tied to a row.
type SchemaError struct {
	Line   int
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("feed schema: line %d column %q: %s", e.Line, e.Column, e.Reason)
	case e.Column != "":
		return fmt.Sprintf("feed schema: column %q: %s", e.Column, e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("feed schema: line %d: %s", e.Line, e.Reason)
	default:
		return "feed schema: " + e.Reason
	}
}

// NotFoundError reports a trust name with no rows in the prepared table.
type NotFoundError struct {
	Trust string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("trust %q not found", e.Trust)
}
