package calendar

import "time"

// Navigator holds the view mode and anchor date of a calendar view.
type Navigator struct {
	agg    *Aggregator
	mode   Mode
	anchor time.Time
}

func NewNavigator(agg *Aggregator, mode Mode) *Navigator {
	if mode == "" {
		mode = ModeMonth
	}
	return &Navigator{agg: agg, mode: mode, anchor: agg.startOfDay(agg.Now())}
}

func (n *Navigator) Mode() Mode        { return n.mode }
func (n *Navigator) Anchor() time.Time { return n.anchor }

func (n *Navigator) SetMode(m Mode) { n.mode = m }

func (n *Navigator) SetAnchor(t time.Time) { n.anchor = n.agg.startOfDay(t) }

func (n *Navigator) Next() { n.anchor = Advance(n.mode, n.anchor, 1) }
func (n *Navigator) Prev() { n.anchor = Advance(n.mode, n.anchor, -1) }

// Today jumps to the current date; the mode is kept.
func (n *Navigator) Today() { n.anchor = n.agg.startOfDay(n.agg.Now()) }

func (n *Navigator) Grid() Grid { return n.agg.Grid(n.mode, n.anchor) }
