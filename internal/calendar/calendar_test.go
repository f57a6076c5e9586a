package calendar

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-cli/internal/clock"
	"onboarding-cli/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func newAgg(events []model.CalendarEvent, weekStart time.Weekday) *Aggregator {
	return New(events, Options{
		WeekStart: weekStart,
		Clock:     clock.NewFake(at(2025, time.October, 15, 15, 0)),
		Location:  time.UTC,
	})
}

func TestVisibleDays_MonthIsWholeWeeks(t *testing.T) {
	for _, ws := range []time.Weekday{time.Sunday, time.Monday, time.Saturday} {
		a := newAgg(nil, ws)
		for y := 2020; y <= 2030; y++ {
			for m := time.January; m <= time.December; m++ {
				days := a.VisibleDays(ModeMonth, day(y, m, 17))
				require.Zero(t, len(days)%7, "%d-%02d weekStart=%s: %d days", y, m, ws, len(days))
				assert.Equal(t, ws, days[0].Weekday())
				assert.True(t, day(y, m, 1).Sub(days[0]) < 7*24*time.Hour, "grid must start in the week of the 1st")
				assert.Contains(t, days, day(y, m, 1))
				last := day(y, m+1, 0)
				assert.Contains(t, days, last)
				assert.True(t, days[len(days)-1].Sub(last) < 7*24*time.Hour)
			}
		}
	}
}

func TestVisibleDays_WednesdayFirstMonth(t *testing.T) {
	// October 2025 starts on a Wednesday.
	a := newAgg(nil, time.Sunday)
	days := a.VisibleDays(ModeMonth, day(2025, time.October, 20))
	require.Len(t, days, 35)
	assert.Equal(t, day(2025, time.September, 28), days[0])
	assert.Equal(t, day(2025, time.September, 29), days[1])
	assert.Equal(t, day(2025, time.September, 30), days[2])
	assert.Equal(t, day(2025, time.October, 1), days[3])
	assert.Equal(t, day(2025, time.November, 1), days[34])

	monday := newAgg(nil, time.Monday).VisibleDays(ModeMonth, day(2025, time.October, 1))
	require.Len(t, monday, 35)
	assert.Equal(t, day(2025, time.September, 29), monday[0])
	assert.Equal(t, day(2025, time.November, 2), monday[34])
}

func TestVisibleDays_MonthWithNoSpill(t *testing.T) {
	// February 2026 runs Sunday the 1st to Saturday the 28th.
	days := newAgg(nil, time.Sunday).VisibleDays(ModeMonth, day(2026, time.February, 14))
	require.Len(t, days, 28)
	assert.Equal(t, day(2026, time.February, 1), days[0])
	assert.Equal(t, day(2026, time.February, 28), days[27])
}

func dayKeys(days []time.Time) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.Format("2006-01-02"))
	}
	return out
}

func zoneAgg(t *testing.T, name string, events []model.CalendarEvent) (*Aggregator, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return New(events, Options{WeekStart: time.Sunday, Location: loc}), loc
}

func TestVisibleDays_DSTStartingAtMidnight(t *testing.T) {
	// Sao Paulo skipped 2018-11-04 00:00; Santiago skipped 2024-09-08 00:00.
	cases := []struct {
		zone        string
		anchor      [3]int
		first, last string
		cells       int
		gapDay      string
	}{
		{"America/Sao_Paulo", [3]int{2018, 11, 15}, "2018-10-28", "2018-12-01", 35, "2018-11-04"},
		{"America/Santiago", [3]int{2024, 9, 20}, "2024-09-01", "2024-10-05", 35, "2024-09-08"},
	}
	for _, tc := range cases {
		t.Run(tc.zone, func(t *testing.T) {
			a, loc := zoneAgg(t, tc.zone, nil)
			anchor := time.Date(tc.anchor[0], time.Month(tc.anchor[1]), tc.anchor[2], 12, 0, 0, 0, loc)
			keys := dayKeys(a.VisibleDays(ModeMonth, anchor))
			require.Len(t, keys, tc.cells)
			assert.Equal(t, tc.first, keys[0])
			assert.Equal(t, tc.last, keys[len(keys)-1])

			start, err := time.ParseInLocation("2006-01-02", tc.first, time.UTC)
			require.NoError(t, err)
			for i, k := range keys {
				assert.Equal(t, start.AddDate(0, 0, i).Format("2006-01-02"), k, "cell %d", i)
			}

			gap, err := time.ParseInLocation("2006-01-02", tc.gapDay, loc)
			require.NoError(t, err)
			week := dayKeys(a.VisibleDays(ModeWeek, gap.Add(36*time.Hour)))
			assert.Contains(t, week, tc.gapDay)
			assert.Equal(t, []string{tc.gapDay}, dayKeys(a.VisibleDays(ModeDay, gap.Add(2*time.Hour))))
		})
	}
}

func TestDSTGapDay_EventsAndNavigation(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	brunch := model.CalendarEvent{ID: "brunch", Title: "Brunch", Date: time.Date(2018, time.November, 4, 10, 0, 0, 0, loc)}
	a := New([]model.CalendarEvent{brunch}, Options{WeekStart: time.Sunday, Location: loc})

	sat := time.Date(2018, time.November, 3, 0, 0, 0, 0, loc)
	sun := Advance(ModeDay, sat, 1)
	assert.Equal(t, "2018-11-04", sun.Format("2006-01-02"))
	assert.Equal(t, "2018-11-03", Advance(ModeDay, sun, -1).Format("2006-01-02"))
	assert.Equal(t, "2018-11-04", Advance(ModeWeek, time.Date(2018, time.October, 28, 0, 0, 0, 0, loc), 1).Format("2006-01-02"))
	assert.Equal(t, "2018-11-04", Advance(ModeMonth, time.Date(2018, time.October, 4, 0, 0, 0, 0, loc), 1).Format("2006-01-02"))

	assert.Len(t, a.EventsOnDay(sun), 1)
	assert.Empty(t, a.EventsOnDay(sat))

	var found bool
	for _, c := range a.Grid(ModeMonth, sun).Cells {
		if c.Day.Format("2006-01-02") == "2018-11-04" {
			found = true
			require.Len(t, c.Events, 1)
			assert.Equal(t, "brunch", c.Events[0].ID)
		}
	}
	assert.True(t, found, "grid must contain the gap day")
}

func TestVisibleDays_WeekAndDay(t *testing.T) {
	a := newAgg(nil, time.Sunday)
	week := a.VisibleDays(ModeWeek, at(2025, time.October, 15, 13, 0))
	require.Len(t, week, 7)
	assert.Equal(t, day(2025, time.October, 12), week[0])
	assert.Equal(t, day(2025, time.October, 18), week[6])

	d := a.VisibleDays(ModeDay, at(2025, time.October, 15, 13, 0))
	assert.Equal(t, []time.Time{day(2025, time.October, 15)}, d)
}

func TestEventsOnDay_SourceOrderIgnoringTime(t *testing.T) {
	events := []model.CalendarEvent{
		{ID: "b", Date: at(2025, time.October, 15, 16, 0)},
		{ID: "x", Date: at(2025, time.October, 16, 0, 0)},
		{ID: "a", Date: at(2025, time.October, 15, 9, 0)},
	}
	got := newAgg(events, time.Sunday).EventsOnDay(at(2025, time.October, 15, 23, 59))
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)

	assert.Empty(t, newAgg(events, time.Sunday).EventsOnDay(day(2025, time.October, 1)))
}

func TestUpcoming(t *testing.T) {
	events := []model.CalendarEvent{
		{ID: "later", Date: at(2025, time.October, 20, 9, 0)},
		{ID: "yesterday", Date: at(2025, time.October, 14, 9, 0)},
		{ID: "tomorrow-1", Date: at(2025, time.October, 16, 10, 0)},
		{ID: "today-earlier", Date: at(2025, time.October, 15, 9, 0)},
		{ID: "tomorrow-2", Date: at(2025, time.October, 16, 10, 0)},
	}
	a := newAgg(events, time.Sunday)
	now := at(2025, time.October, 15, 15, 0)

	got := a.Upcoming(now, 3)
	ids := []string{}
	for _, ev := range got {
		ids = append(ids, ev.ID)
	}
	assert.Equal(t, []string{"today-earlier", "tomorrow-1", "tomorrow-2"}, ids)
	assert.Len(t, a.Upcoming(now, 0), 4)
}

func TestAdvance(t *testing.T) {
	cases := []struct {
		name   string
		mode   Mode
		anchor time.Time
		dir    int
		want   time.Time
	}{
		{"month clamps to february", ModeMonth, day(2025, time.January, 31), 1, day(2025, time.February, 28)},
		{"month clamps leap", ModeMonth, day(2024, time.January, 31), 1, day(2024, time.February, 29)},
		{"month back clamps", ModeMonth, day(2025, time.March, 31), -1, day(2025, time.February, 28)},
		{"month across year", ModeMonth, day(2025, time.December, 15), 1, day(2026, time.January, 15)},
		{"week", ModeWeek, day(2025, time.October, 29), 1, day(2025, time.November, 5)},
		{"day back", ModeDay, day(2025, time.March, 1), -1, day(2025, time.February, 28)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Advance(tc.mode, tc.anchor, tc.dir))
		})
	}
}

func TestGrid_OverflowAndToday(t *testing.T) {
	events := []model.CalendarEvent{
		{ID: "1", Date: at(2025, time.October, 10, 9, 0)},
		{ID: "2", Date: at(2025, time.October, 10, 10, 0)},
		{ID: "3", Date: at(2025, time.October, 10, 11, 0)},
		{ID: "4", Date: at(2025, time.October, 10, 12, 0)},
		{ID: "5", Date: at(2025, time.October, 11, 12, 0)},
	}
	a := newAgg(events, time.Sunday)
	g := a.Grid(ModeMonth, day(2025, time.October, 1))
	require.Len(t, g.Cells, 35)
	assert.Len(t, g.Rows(), 5)
	assert.Equal(t, "October 2025", g.Title)
	assert.Equal(t, time.Sunday, g.Weekdays[0])

	var busy, quiet, today Cell
	var todays int
	for _, c := range g.Cells {
		switch {
		case c.Day.Equal(day(2025, time.October, 10)):
			busy = c
		case c.Day.Equal(day(2025, time.October, 11)):
			quiet = c
		}
		if c.Today {
			today = c
			todays++
		}
	}
	assert.Len(t, busy.Events, 2)
	assert.Equal(t, 2, busy.More)
	assert.Equal(t, "+2 more", busy.MoreLabel())
	assert.Empty(t, quiet.MoreLabel())
	assert.Equal(t, 1, todays)
	assert.Equal(t, day(2025, time.October, 15), today.Day)
	assert.False(t, g.Cells[0].InMonth)
	assert.True(t, g.Cells[3].InMonth)
}

func TestNavigator(t *testing.T) {
	n := NewNavigator(newAgg(nil, time.Sunday), ModeWeek)
	assert.Equal(t, day(2025, time.October, 15), n.Anchor())
	n.Next()
	assert.Equal(t, day(2025, time.October, 22), n.Anchor())
	n.SetMode(ModeMonth)
	n.Prev()
	assert.Equal(t, day(2025, time.September, 22), n.Anchor())
	n.Today()
	assert.Equal(t, ModeMonth, n.Mode(), "today keeps the current mode")
	assert.Equal(t, day(2025, time.October, 15), n.Anchor())
}

func TestFilterTypes(t *testing.T) {
	events := []model.CalendarEvent{
		{ID: "m", Type: model.EventMeeting},
		{ID: "s", Type: model.EventSocial},
		{ID: "t", Type: model.EventTraining},
	}
	a := newAgg(events, time.Sunday)
	got := a.FilterTypes(model.EventSocial, model.EventTraining).Events()
	require.Len(t, got, 2)
	assert.Equal(t, "s", got[0].ID)
	assert.Len(t, a.Events(), 3, "filtering does not modify the source")
	assert.Len(t, a.FilterTypes().Events(), 3)
}

func TestParsers(t *testing.T) {
	typ, err := ParseEventType(" Training ")
	require.NoError(t, err)
	assert.Equal(t, model.EventTraining, typ)
	_, err = ParseEventType("party")
	assert.Error(t, err)

	wd, err := ParseWeekday("mon")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, wd)
	wd, err = ParseWeekday("")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, wd)
	_, err = ParseWeekday("someday")
	assert.Error(t, err)

	m, err := ParseMode("WEEK")
	require.NoError(t, err)
	assert.Equal(t, ModeWeek, m)
	_, err = ParseMode("year")
	assert.Error(t, err)
}

func TestExportICS(t *testing.T) {
	room := "Room 4, 2nd floor"
	events := []model.CalendarEvent{
		{ID: "e1", Title: "Welcome; coffee", Date: day(2025, time.October, 16), StartTime: "09:00", EndTime: "10:30",
			Type: model.EventMeeting, Location: &room, Reminder: true},
		{ID: "e2", Title: "Milestone review", Date: day(2025, time.October, 17), StartTime: "TBD", Type: model.EventMilestone},
	}
	out := ExportICS(events, time.UTC, at(2025, time.October, 15, 8, 0))

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "UID:event-e1@onboard")
	assert.Contains(t, out, "SUMMARY:Welcome\\; coffee")
	assert.Contains(t, out, "DTSTART:20251016T090000Z")
	assert.Contains(t, out, "DTEND:20251016T103000Z")
	assert.Contains(t, out, "LOCATION:Room 4\\, 2nd floor")
	assert.Contains(t, out, "BEGIN:VALARM")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20251017")
	assert.Contains(t, out, "CATEGORIES:MILESTONE")
}
