package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/cornwall-collections/internal/calendar"
	"github.com/pfrederiksen/cornwall-collections/internal/collection"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt   time.Time                `json:"checked_at"`
	UPRN        string                   `json:"uprn,omitempty"`
	Postcode    string                   `json:"postcode,omitempty"`
	Filter      string                   `json:"filter,omitempty"`
	Collections []*collection.Collection `json:"collections"`
	Count       int                      `json:"count"`
	Filtered    int                      `json:"filtered,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	if result.Collections == nil {
		result.Collections = []*collection.Collection{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs one "YYYY-MM-DD - Type" line per collection
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	for _, c := range result.Collections {
		if _, err := fmt.Fprintf(w, "%s - %s\n", c.Day(), c.Type); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(w, "     UID: %s\n", calendar.UID(c))
			if c.Icon != "" {
				fmt.Fprintf(w, "     Icon: %s\n", c.Icon)
			}
		}
	}

	if verbose {
		fmt.Fprintf(w, "\nTotal: %d collections", result.Count)
		if result.Filtered > 0 {
			fmt.Fprintf(w, " (%d filtered out)", result.Filtered)
		}
		fmt.Fprintln(w)
	}

	return nil
}
