// Package filter narrows the fetched collections down to what the user wants
// in their calendar.
//
// Collections can be filtered by waste type (the INCLUDE_* settings or the
// --type flag) and by a date window. An empty filter matches everything.
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Exclude(collection.TypeGarden)
//	f.DateTo = &cutoff
//
//	kept, removed := f.Apply(collections)
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/cornwall-collections/internal/collection"
)

// Filter represents collection filtering criteria
type Filter struct {
	// Per-type switches keyed by friendly type name. Types not present are included.
	Include map[string]bool `json:"include,omitempty"`

	// Only is the explicit allow-list from --type; when set, other types are dropped
	Only []string `json:"only,omitempty"`

	// Date window, both inclusive
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria
func NewFilter() *Filter {
	return &Filter{
		Include: make(map[string]bool),
	}
}

// Exclude switches off a collection type
func (f *Filter) Exclude(collectionType string) {
	if f.Include == nil {
		f.Include = make(map[string]bool)
	}
	f.Include[collectionType] = false
}

// IsEmpty checks if the filter has any active criteria
func (f *Filter) IsEmpty() bool {
	for _, enabled := range f.Include {
		if !enabled {
			return false
		}
	}
	return len(f.Only) == 0 &&
		f.DateFrom == nil &&
		f.DateTo == nil
}

// Enabled reports whether collections of the given type pass the type criteria
func (f *Filter) Enabled(collectionType string) bool {
	if f.excluded(collectionType) {
		return false
	}
	if len(f.Only) == 0 {
		return true
	}
	for _, t := range f.Only {
		if strings.EqualFold(t, collectionType) {
			return true
		}
	}
	return false
}

// Matches checks if a collection matches all active filter criteria
func (f *Filter) Matches(c *collection.Collection) bool {
	if !f.Enabled(c.Type) {
		return false
	}

	if f.DateFrom != nil && c.Date.Before(dayStart(*f.DateFrom)) {
		return false
	}

	if f.DateTo != nil && c.Date.After(dayStart(*f.DateTo)) {
		return false
	}

	return true
}

// Apply returns the collections matching the filter and how many were removed.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(collections []*collection.Collection) ([]*collection.Collection, int) {
	if f.IsEmpty() {
		return collections, 0
	}

	filtered := make([]*collection.Collection, 0, len(collections))
	for _, c := range collections {
		if f.Matches(c) {
			filtered = append(filtered, c)
		}
	}

	return filtered, len(collections) - len(filtered)
}

// Removed counts the collections a filter drops, split by cause
type Removed struct {
	// Include counts collections switched off by the per-type settings
	Include int
	// Other counts collections dropped by the --type allow-list or the date window
	Other int
}

// Total returns the number of collections removed for any reason
func (r Removed) Total() int {
	return r.Include + r.Other
}

// Tally reports why collections would be removed by Apply
func (f *Filter) Tally(collections []*collection.Collection) Removed {
	var r Removed
	if f.IsEmpty() {
		return r
	}
	for _, c := range collections {
		switch {
		case f.excluded(c.Type):
			r.Include++
		case !f.Matches(c):
			r.Other++
		}
	}
	return r
}

func (f *Filter) excluded(collectionType string) bool {
	enabled, ok := f.Include[collectionType]
	return ok && !enabled
}

// String returns a human-readable description of the active filter criteria.
// Format: "Excluded: Garden Waste Collection | From: 2026-10-14 | To: 2026-11-14"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	var excluded []string
	for t, enabled := range f.Include {
		if !enabled {
			excluded = append(excluded, t)
		}
	}
	if len(excluded) > 0 {
		sort.Strings(excluded)
		parts = append(parts, fmt.Sprintf("Excluded: %s", strings.Join(excluded, ", ")))
	}

	if len(f.Only) > 0 {
		parts = append(parts, fmt.Sprintf("Only: %s", strings.Join(f.Only, ", ")))
	}

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("2006-01-02")))
	}

	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("2006-01-02")))
	}

	return strings.Join(parts, " | ")
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
