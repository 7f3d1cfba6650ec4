package collection

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	weekdayPrefix = regexp.MustCompile(`(?i)^(mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)(day|sday|nesday|rsday|urday)?,?\s+`)
	ordinalSuffix = regexp.MustCompile(`(?i)(\d{1,2})(st|nd|rd|th)\b`)
	spaces        = regexp.MustCompile(`\s+`)
)

// Layouts without a year, as shown on the collection days page ("15 Jan")
var yearlessLayouts = []string{
	"2 Jan",
	"2 January",
	"Jan 2",
	"January 2",
}

// Layouts that carry their own year
var fullLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2/1/2006",
	"2006-01-02",
}

// ParseCollectionDate parses a collection date string relative to today.
//
// The council shows dates as "DD Mon" with no year. The year is taken from
// today, except that in December a January or February date belongs to next
// year. In January a December date only moves to last year when it falls
// before today. Leading weekday names and ordinal suffixes are ignored, and
// strings that carry their own year are returned as-is.
func ParseCollectionDate(dateText string, today time.Time) (time.Time, error) {
	text := normalizeDateText(dateText)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range fullLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}

	for _, layout := range yearlessLayouts {
		t, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		return inferYear(t.Month(), t.Day(), dateOnly(today))
	}

	return time.Time{}, fmt.Errorf("unrecognised date %q", dateText)
}

func inferYear(month time.Month, day int, today time.Time) (time.Time, error) {
	year := today.Year()
	switch {
	case today.Month() == time.December && month <= time.February:
		year++
	case today.Month() == time.January && month == time.December &&
		time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Before(today):
		year--
	}

	// time.Date normalises 29 Feb into 1 Mar in non-leap years
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("day %d out of range for %s %d", day, month, year)
	}
	return t, nil
}

func normalizeDateText(s string) string {
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))
	s = weekdayPrefix.ReplaceAllString(s, "")
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	return strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
}

// IsUpcoming reports whether the collection is today or later
func (c *Collection) IsUpcoming(now time.Time) bool {
	return !c.Date.Before(dateOnly(now))
}

// IsWithinDays reports whether the collection falls within N days from now.
// Returns true if days <= 0 (window disabled).
func (c *Collection) IsWithinDays(now time.Time, days int) bool {
	if days <= 0 {
		return true
	}
	start := dateOnly(now)
	cutoff := start.AddDate(0, 0, days)
	return !c.Date.Before(start) && c.Date.Before(cutoff)
}
