package calendar

import (
	"fmt"
	"strings"
	"time"

	"onboarding-cli/internal/model"
)

const (
	icsDateLayout     = "20060102"
	icsDateTimeLayout = "20060102T150405"
)

// ExportICS renders events as one iCalendar document. Events whose start/end
// strings parse as HH:MM become timed events in loc; the rest are all-day.
func ExportICS(events []model.CalendarEvent, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.Local
	}
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Onboard//Calendar Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	for _, ev := range events {
		lines = append(lines, eventLines(ev, loc, now)...)
	}
	lines = append(lines, "END:VCALENDAR", "")
	return strings.Join(lines, "\r\n")
}

func eventLines(ev model.CalendarEvent, loc *time.Location, now time.Time) []string {
	day := ev.Date.In(loc)
	uid := fmt.Sprintf("event-%s@onboard", strings.TrimSpace(ev.ID))
	if strings.TrimSpace(ev.ID) == "" {
		uid = fmt.Sprintf("event-export-%d@onboard", day.UnixNano())
	}
	title := strings.TrimSpace(ev.Title)
	if title == "" {
		title = "Onboarding Event"
	}

	lines := []string{
		"BEGIN:VEVENT",
		"UID:" + escapeICSText(uid),
		"DTSTAMP:" + now.UTC().Format("20060102T150405Z"),
		"SUMMARY:" + escapeICSText(title),
	}
	start, okStart := atClock(day, ev.StartTime)
	end, okEnd := atClock(day, ev.EndTime)
	if okStart && okEnd && end.After(start) {
		lines = append(lines,
			"DTSTART:"+start.UTC().Format(icsDateTimeLayout)+"Z",
			"DTEND:"+end.UTC().Format(icsDateTimeLayout)+"Z",
		)
	} else {
		lines = append(lines,
			"DTSTART;VALUE=DATE:"+day.Format(icsDateLayout),
			"DTEND;VALUE=DATE:"+utcDate(day).AddDate(0, 0, 1).Format(icsDateLayout),
		)
	}
	if desc := strings.TrimSpace(ev.Description); desc != "" {
		lines = append(lines, "DESCRIPTION:"+escapeICSText(desc))
	}
	if ev.Location != nil && strings.TrimSpace(*ev.Location) != "" {
		lines = append(lines, "LOCATION:"+escapeICSText(strings.TrimSpace(*ev.Location)))
	}
	if ev.Type != "" {
		lines = append(lines, "CATEGORIES:"+strings.ToUpper(string(ev.Type)))
	}
	if ev.Reminder {
		lines = append(lines,
			"BEGIN:VALARM",
			"ACTION:DISPLAY",
			"DESCRIPTION:"+escapeICSText(title),
			"TRIGGER:-PT15M",
			"END:VALARM",
		)
	}
	return append(lines, "END:VEVENT")
}

// atClock places an "HH:MM" (or "3:04 PM") display string on day.
func atClock(day time.Time, s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "3:04 PM", "3:04PM"} {
		t, err := time.Parse(layout, strings.ToUpper(s))
		if err == nil {
			return dateIn(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), true
		}
	}
	return time.Time{}, false
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
