package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/cornwall-collections/internal/collection"
)

// truthy values for INCLUDE_* settings
var truthy = map[string]bool{
	"1":    true,
	"true": true,
	"yes":  true,
	"on":   true,
}

// ParseToggle interprets an INCLUDE_* value. Unset or blank means enabled;
// otherwise only 1, true, yes and on (any case) enable the type.
func ParseToggle(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	return truthy[strings.ToLower(value)]
}

// ResolveType maps a user-supplied type name to its friendly collection type.
// Accepts the council shorthand ("garden") or the friendly name ("Garden Waste
// Collection"), case-insensitively.
func ResolveType(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("collection type cannot be empty")
	}

	for short, friendly := range collection.NameMap {
		if strings.EqualFold(name, short) || strings.EqualFold(name, friendly) {
			return friendly, nil
		}
	}

	return "", fmt.Errorf("unknown collection type: %s (must be one of food, recycling, rubbish, garden)", name)
}

// ParseTypes parses a list of type names such as ["food", "recycling"] or a
// single comma separated entry into friendly type names, without duplicates
func ParseTypes(names []string) ([]string, error) {
	var types []string
	seen := make(map[string]bool)

	for _, entry := range names {
		for _, name := range strings.Split(entry, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			t, err := ResolveType(name)
			if err != nil {
				return nil, err
			}
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}

	return types, nil
}

// ParseDay parses a YYYY-MM-DD date. An empty string yields nil.
func ParseDay(input string) (*time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	t, err := time.Parse("2006-01-02", input)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", input)
	}
	return &t, nil
}

// DateWindow computes the inclusive window for --from, --to and --days.
// days counts forward from now and narrows an explicit --to if it is earlier.
func DateWindow(now time.Time, from, to string, days int) (*time.Time, *time.Time, error) {
	dateFrom, err := ParseDay(from)
	if err != nil {
		return nil, nil, err
	}

	dateTo, err := ParseDay(to)
	if err != nil {
		return nil, nil, err
	}

	if days < 0 {
		return nil, nil, fmt.Errorf("days must not be negative")
	}

	if days > 0 {
		start := dayStart(now)
		end := start.AddDate(0, 0, days-1)
		if dateFrom == nil {
			dateFrom = &start
		}
		if dateTo == nil || end.Before(*dateTo) {
			dateTo = &end
		}
	}

	if dateFrom != nil && dateTo != nil && dateFrom.After(*dateTo) {
		return nil, nil, fmt.Errorf("start date must be before end date")
	}

	return dateFrom, dateTo, nil
}
