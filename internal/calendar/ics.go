// Package calendar renders waste collections as an iCalendar feed.
//
// Each collection becomes an all-day VEVENT whose UID is derived from the
// collection date and type, so re-importing a regenerated file updates events
// instead of duplicating them.
package calendar

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/pfrederiksen/cornwall-collections/internal/collection"
)

const (
	Title     = "Cornwall Council"
	SourceURL = "https://cornwall.gov.uk"
	ProductID = "-//" + Title + "//Waste Collection//EN"
	CalName   = "Cornwall Waste Collections"
)

// Reminder describes a VALARM fired at a wall-clock time some days before the
// collection
type Reminder struct {
	DaysBefore int
	Hour       int
	Minute     int
}

// Options controls calendar generation
type Options struct {
	// Name is written as X-WR-CALNAME; defaults to CalName
	Name string
	// Now stamps DTSTAMP; defaults to time.Now
	Now time.Time
	// Reminder adds a display alarm to every event when set
	Reminder *Reminder
}

// ParseReminder parses an "HH:MM" alarm time. An empty time disables the reminder.
func ParseReminder(at string, daysBefore int) (*Reminder, error) {
	at = strings.TrimSpace(at)
	if at == "" {
		return nil, nil
	}
	if daysBefore < 0 {
		return nil, fmt.Errorf("reminder days must not be negative")
	}

	parts := strings.Split(at, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid reminder time %q (use HH:MM)", at)
	}

	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid reminder time %q (use HH:MM)", at)
	}

	return &Reminder{DaysBefore: daysBefore, Hour: hour, Minute: minute}, nil
}

// Trigger returns the alarm offset relative to the start of an all-day event
// as an RFC 5545 duration, e.g. "-PT5H" for 19:00 the evening before.
func (r *Reminder) Trigger() string {
	totalMinutes := -r.DaysBefore*24*60 + r.Hour*60 + r.Minute
	if totalMinutes == 0 {
		return "PT0S"
	}

	sign := ""
	if totalMinutes < 0 {
		sign = "-"
		totalMinutes = -totalMinutes
	}

	days := totalMinutes / (24 * 60)
	hours := (totalMinutes % (24 * 60)) / 60
	minutes := totalMinutes % 60

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString("P")
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if hours > 0 || minutes > 0 {
		b.WriteString("T")
		if hours > 0 {
			fmt.Fprintf(&b, "%dH", hours)
		}
		if minutes > 0 {
			fmt.Fprintf(&b, "%dM", minutes)
		}
	}
	return b.String()
}

// UID returns the event UID for a collection
func UID(c *collection.Collection) string {
	return c.ID() + "@" + SourceURL
}

// Build creates the iCalendar for the provided collections
func Build(collections []*collection.Collection, opts Options) *ics.Calendar {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	name := opts.Name
	if name == "" {
		name = CalName
	}

	cal := ics.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(name)

	for _, c := range collections {
		evt := cal.AddEvent(UID(c))
		evt.SetSummary(c.Type)
		evt.SetDtStampTime(now)
		evt.SetAllDayStartAt(c.Date)
		evt.SetAllDayEndAt(c.Date.AddDate(0, 0, 1))
		evt.AddCategory(c.Type)
		evt.SetTimeTransparency(ics.TransparencyTransparent)

		if opts.Reminder != nil {
			alarm := evt.AddAlarm()
			alarm.SetAction(ics.ActionDisplay)
			alarm.SetDescription("Reminder: " + c.Type)
			alarm.SetTrigger(opts.Reminder.Trigger())
		}
	}

	return cal
}

// GenerateICS renders collections as an iCalendar string with CRLF line endings
func GenerateICS(collections []*collection.Collection, opts Options) string {
	return Build(collections, opts).Serialize(ics.WithNewLineWindows)
}

// WriteICS writes the iCalendar for collections to w
func WriteICS(w io.Writer, collections []*collection.Collection, opts Options) error {
	if err := Build(collections, opts).SerializeTo(w, ics.WithNewLineWindows); err != nil {
		return fmt.Errorf("serializing calendar: %w", err)
	}
	return nil
}
