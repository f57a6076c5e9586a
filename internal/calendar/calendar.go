package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"onboarding-cli/internal/clock"
	"onboarding-cli/internal/model"
)

type Mode string

const (
	ModeMonth Mode = "month"
	ModeWeek  Mode = "week"
	ModeDay   Mode = "day"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMonth, "":
		return ModeMonth, nil
	case ModeWeek:
		return ModeWeek, nil
	case ModeDay:
		return ModeDay, nil
	default:
		return "", fmt.Errorf("invalid view mode: %q (expected month|week|day)", s)
	}
}

const DefaultMaxPerCell = 2

type Options struct {
	WeekStart time.Weekday
	// MaxPerCell caps events shown per grid cell; the rest collapse into "+N more".
	MaxPerCell int
	Clock      clock.Clock
	Location   *time.Location
}

// Aggregator groups a fixed event list by calendar day. Events are never mutated.
type Aggregator struct {
	events     []model.CalendarEvent
	weekStart  time.Weekday
	maxPerCell int
	clock      clock.Clock
	loc        *time.Location
}

func New(events []model.CalendarEvent, opts Options) *Aggregator {
	a := &Aggregator{
		events:     append([]model.CalendarEvent(nil), events...),
		weekStart:  opts.WeekStart,
		maxPerCell: opts.MaxPerCell,
		clock:      clock.Or(opts.Clock),
		loc:        opts.Location,
	}
	if a.maxPerCell <= 0 {
		a.maxPerCell = DefaultMaxPerCell
	}
	if a.loc == nil {
		a.loc = time.Local
	}
	return a
}

func (a *Aggregator) Events() []model.CalendarEvent {
	return append([]model.CalendarEvent(nil), a.events...)
}

func (a *Aggregator) WeekStart() time.Weekday { return a.weekStart }

func (a *Aggregator) Now() time.Time { return a.clock.Now().In(a.loc) }

// FilterTypes returns an aggregator over the events of the given types only.
// No types keeps every event.
func (a *Aggregator) FilterTypes(types ...model.EventType) *Aggregator {
	if len(types) == 0 {
		return a
	}
	want := map[model.EventType]bool{}
	for _, t := range types {
		want[t] = true
	}
	out := *a
	out.events = nil
	for _, ev := range a.events {
		if want[ev.Type] {
			out.events = append(out.events, ev)
		}
	}
	return &out
}

func (a *Aggregator) startOfDay(t time.Time) time.Time {
	t = t.In(a.loc)
	return civilDay(t.Year(), t.Month(), t.Day(), a.loc)
}

// civilDay returns the first instant of the calendar date y-m-d in loc. Where DST
// starts at midnight, 00:00 does not exist and the day begins at a later hour.
func civilDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	return dateIn(y, m, d, 0, 0, 0, 0, loc)
}

// dateIn is time.Date that never lands on a neighbouring date: a wall time skipped
// by a DST jump resolves to the first hour of that date that exists.
func dateIn(y int, m time.Month, d, hh, mm, ss, ns int, loc *time.Location) time.Time {
	want := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	t := time.Date(y, m, d, hh, mm, ss, ns, loc)
	for h := 0; h < 24 && !onDate(t, want); h++ {
		t = time.Date(y, m, d, h, 0, 0, 0, loc)
	}
	return t
}

func onDate(t, civil time.Time) bool {
	return t.Year() == civil.Year() && t.YearDay() == civil.YearDay()
}

func (a *Aggregator) sameDay(x, y time.Time) bool {
	x, y = x.In(a.loc), y.In(a.loc)
	return x.Year() == y.Year() && x.YearDay() == y.YearDay()
}

// weekOf returns the first day of the week containing t.
func (a *Aggregator) weekOf(t time.Time) time.Time {
	d := a.startOfDay(t)
	back := (int(d.Weekday()) - int(a.weekStart) + 7) % 7
	return civilDay(d.Year(), d.Month(), d.Day()-back, a.loc)
}

// VisibleDays lists the days shown for mode around anchor. Month views always span
// whole weeks, so the result is a multiple of 7.
func (a *Aggregator) VisibleDays(mode Mode, anchor time.Time) []time.Time {
	switch mode {
	case ModeDay:
		return []time.Time{a.startOfDay(anchor)}
	case ModeWeek:
		return days(a.weekOf(anchor), 7)
	default:
		d := a.startOfDay(anchor)
		start := a.weekOf(civilDay(d.Year(), d.Month(), 1, a.loc))
		end := a.weekOf(civilDay(d.Year(), d.Month()+1, 0, a.loc))
		// Count on UTC dates: every UTC day is 24h long.
		n := int(utcDate(end).Sub(utcDate(start)).Hours()/24) + 7
		return days(start, n)
	}
}

func utcDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// days returns n consecutive calendar days from start, each built from its civil date.
func days(start time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, civilDay(start.Year(), start.Month(), start.Day()+i, start.Location()))
	}
	return out
}

// EventsOnDay returns the events on day's calendar date, in source order.
func (a *Aggregator) EventsOnDay(day time.Time) []model.CalendarEvent {
	out := []model.CalendarEvent{}
	for _, ev := range a.events {
		if a.sameDay(ev.Date, day) {
			out = append(out, ev)
		}
	}
	return out
}

// Upcoming returns events dated on or after the start of now's day, earliest first.
// Ties keep source order. limit <= 0 returns all of them.
func (a *Aggregator) Upcoming(now time.Time, limit int) []model.CalendarEvent {
	today := a.startOfDay(now)
	out := []model.CalendarEvent{}
	for _, ev := range a.events {
		if !ev.Date.Before(today) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Advance moves anchor one step in dir (+1/-1) for mode. Month steps keep the
// day-of-month, clamped to the target month's length.
func Advance(mode Mode, anchor time.Time, dir int) time.Time {
	y, m, d := anchor.Date()
	switch mode {
	case ModeDay:
		d += dir
	case ModeWeek:
		d += 7 * dir
	default:
		first := time.Date(y, m+time.Month(dir), 1, 0, 0, 0, 0, time.UTC)
		y, m, d = first.Year(), first.Month(), clampDay(first.Year(), first.Month(), d)
	}
	return dateIn(y, m, d, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
}

func daysInMonth(y int, m time.Month) int {
	// Day 0 of next month is last day of this month.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clampDay(y int, m time.Month, d int) int {
	if d < 1 {
		return 1
	}
	max := daysInMonth(y, m)
	if d > max {
		return max
	}
	return d
}

func ParseEventType(s string) (model.EventType, error) {
	switch t := model.EventType(strings.ToLower(strings.TrimSpace(s))); t {
	case model.EventMeeting, model.EventMilestone, model.EventTraining, model.EventSocial:
		return t, nil
	default:
		return "", fmt.Errorf("invalid event type: %q (expected meeting|milestone|training|social)", s)
	}
}

func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return time.Sunday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid weekday: %q", s)
}
