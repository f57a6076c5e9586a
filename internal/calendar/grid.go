package calendar

import (
	"fmt"
	"time"

	"onboarding-cli/internal/model"
)

type Cell struct {
	Day     time.Time
	InMonth bool
	Today   bool
	// Events holds at most MaxPerCell events; More counts the hidden rest.
	Events []model.CalendarEvent
	More   int
}

// MoreLabel is "+N more", or empty when nothing overflowed.
func (c Cell) MoreLabel() string {
	if c.More <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", c.More)
}

type Grid struct {
	Mode     Mode
	Anchor   time.Time
	Title    string
	Weekdays []time.Weekday
	Cells    []Cell
}

// Rows splits the cells into weeks.
func (g Grid) Rows() [][]Cell {
	if len(g.Cells) <= 1 {
		return [][]Cell{g.Cells}
	}
	out := [][]Cell{}
	for i := 0; i < len(g.Cells); i += 7 {
		end := i + 7
		if end > len(g.Cells) {
			end = len(g.Cells)
		}
		out = append(out, g.Cells[i:end])
	}
	return out
}

func (a *Aggregator) Grid(mode Mode, anchor time.Time) Grid {
	anchor = anchor.In(a.loc)
	now := a.Now()
	g := Grid{Mode: mode, Anchor: anchor, Title: title(mode, anchor)}
	for i := 0; i < 7; i++ {
		g.Weekdays = append(g.Weekdays, time.Weekday((int(a.weekStart)+i)%7))
	}
	for _, d := range a.VisibleDays(mode, anchor) {
		evs := a.EventsOnDay(d)
		cell := Cell{
			Day:     d,
			InMonth: d.Month() == anchor.Month() && d.Year() == anchor.Year(),
			Today:   a.sameDay(d, now),
			Events:  evs,
		}
		if mode == ModeMonth && len(evs) > a.maxPerCell {
			cell.Events = evs[:a.maxPerCell]
			cell.More = len(evs) - a.maxPerCell
		}
		g.Cells = append(g.Cells, cell)
	}
	return g
}

func title(mode Mode, anchor time.Time) string {
	switch mode {
	case ModeDay:
		return anchor.Format("Monday, January 2, 2006")
	case ModeWeek:
		return "Week of " + anchor.Format("Jan 2, 2006")
	default:
		return anchor.Format("January 2006")
	}
}
