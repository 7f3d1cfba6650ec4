package collection

import (
	"sort"
	"strings"
	"time"
)

// Collection represents a single waste collection on a given day
type Collection struct {
	Date      time.Time `json:"date"`
	Type      string    `json:"type"`
	ShortName string    `json:"short_name,omitempty"` // Council's shorthand, e.g. "Recycling"
	Icon      string    `json:"icon,omitempty"`
}

// Council shorthand names as they appear on the collection days page
const (
	ShortFood      = "Food"
	ShortRecycling = "Recycling"
	ShortRubbish   = "Rubbish"
	ShortGarden    = "Garden"
)

// Friendly names used as event summaries
const (
	TypeFood      = "Food Waste Collection"
	TypeRecycling = "Recycling Collection"
	TypeRubbish   = "Rubbish Recycling"
	TypeGarden    = "Garden Waste Collection"
)

// NameMap maps the council's shorthand names to user-friendly summaries
var NameMap = map[string]string{
	ShortFood:      TypeFood,
	ShortRecycling: TypeRecycling,
	ShortRubbish:   TypeRubbish,
	ShortGarden:    TypeGarden,
}

// IconMap maps shorthand names to Material Design icon identifiers
var IconMap = map[string]string{
	ShortRubbish:   "mdi:delete",
	ShortRecycling: "mdi:recycle",
	ShortGarden:    "mdi:flower",
}

// KnownTypes lists the friendly type names in display order
var KnownTypes = []string{TypeFood, TypeRecycling, TypeRubbish, TypeGarden}

// New creates a Collection from the council's shorthand name, resolving the
// friendly type and icon. Unknown shorthand names are used as the type as-is.
func New(date time.Time, shortName string) *Collection {
	name, ok := NameMap[shortName]
	if !ok {
		name = shortName
	}
	return &Collection{
		Date:      dateOnly(date),
		Type:      name,
		ShortName: shortName,
		Icon:      IconMap[shortName],
	}
}

// ID returns a stable identifier of the form YYYYMMDD-TypeWithoutSpaces
func (c *Collection) ID() string {
	return c.Date.Format("20060102") + "-" + strings.ReplaceAll(c.Type, " ", "")
}

// Day returns the collection date formatted as YYYY-MM-DD
func (c *Collection) Day() string {
	return c.Date.Format("2006-01-02")
}

// Dedupe removes collections sharing the same date and type, keeping the first
func Dedupe(collections []*Collection) []*Collection {
	seen := make(map[string]bool)
	unique := make([]*Collection, 0, len(collections))
	for _, c := range collections {
		id := c.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, c)
	}
	return unique
}

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate SortOrder = "date"
	SortByType SortOrder = "type"
)

// Sort orders collections in place. Ties fall back to the other key so the
// output is deterministic.
func Sort(collections []*Collection, order SortOrder) {
	switch order {
	case SortByType:
		sort.SliceStable(collections, func(i, j int) bool {
			if collections[i].Type != collections[j].Type {
				return strings.ToLower(collections[i].Type) < strings.ToLower(collections[j].Type)
			}
			return collections[i].Date.Before(collections[j].Date)
		})
	default:
		sort.SliceStable(collections, func(i, j int) bool {
			if !collections[i].Date.Equal(collections[j].Date) {
				return collections[i].Date.Before(collections[j].Date)
			}
			return collections[i].Type < collections[j].Type
		})
	}
}

// ParseSortOrder validates a sort order string
func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByDate:
		return SortByDate, true
	case SortByType:
		return SortByType, true
	}
	return "", false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
