package scraper

import (
	"fmt"
	"strings"
)

// ArgumentNotFoundError is returned when a lookup argument matches nothing
type ArgumentNotFoundError struct {
	Argument string
	Value    string
}

func (e *ArgumentNotFoundError) Error() string {
	return fmt.Sprintf("unable to find %s: %s", e.Argument, e.Value)
}

// ArgumentNotFoundWithSuggestionsError is returned when the house number or
// name matched no address at the postcode. Suggestions lists every address
// the council returned.
type ArgumentNotFoundWithSuggestionsError struct {
	Argument    string
	Value       string
	Suggestions []string
}

func (e *ArgumentNotFoundWithSuggestionsError) Error() string {
	return fmt.Sprintf("unable to find %s: %s. Did you mean one of: %s",
		e.Argument, e.Value, strings.Join(e.Suggestions, ", "))
}

// StatusError is returned for non-200 responses
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}
