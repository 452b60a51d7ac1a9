package assistant

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

const calendarProductID = "-//Surmai//Trip Assistant//EN"

// floatingLayout is an iCalendar local time with no zone, read by clients as
// wall-clock time wherever the event happens.
const floatingLayout = "20060102T150405"

// ExportCalendar renders the snapshot's dated entries as an iCalendar feed.
// Entries without a parseable start are skipped.
func ExportCalendar(tc *TripContext) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	if tc.Trip.Name != "" {
		cal.SetXWRCalName(tc.Trip.Name)
	}

	stamp, err := time.Parse(time.RFC3339, tc.GeneratedAt)
	if err != nil {
		stamp = time.Now().UTC()
	}

	add := func(uid, summary, location, description, start, end string) {
		startAt, ok := parseContextTime(start)
		if !ok {
			return
		}
		event := cal.AddEvent(fmt.Sprintf("%s@%s", uid, tc.Trip.Id))
		event.SetDtStampTime(stamp)
		event.SetProperty(ics.ComponentPropertyDtStart, startAt.Format(floatingLayout))
		if endAt, ok := parseContextTime(end); ok && !endAt.Before(startAt) {
			event.SetProperty(ics.ComponentPropertyDtEnd, endAt.Format(floatingLayout))
		}
		event.SetSummary(summary)
		if location != "" {
			event.SetLocation(location)
		}
		if description != "" {
			event.SetDescription(description)
		}
	}

	for _, t := range tc.Transportations {
		summary := strings.TrimSpace(fmt.Sprintf("%s %s → %s", t.Type, t.Origin, t.Destination))
		add(t.Id, summary, t.Origin, joinNonEmpty(t.Provider, t.Notes), t.Departure, t.Arrival)
	}
	for _, l := range tc.Lodgings {
		add(l.Id, l.Name, l.Address, joinNonEmpty(l.Type, confirmationLine(l.Confirmation)), l.CheckIn, l.CheckOut)
	}
	for _, a := range tc.Activities {
		add(a.Id, a.Name, a.Address, a.Description, a.Start, a.End)
	}

	return cal.Serialize()
}

func parseContextTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(contextTimeLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func confirmationLine(code string) string {
	if code == "" {
		return ""
	}
	return "Confirmation: " + code
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
