// Package fixtures serves the mock onboarding data (checklist, dashboard catalog, calendar
// events and the catalog translation) from an embedded YAML seed.
package fixtures

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"onboarding-cli/internal/bridge"
	"onboarding-cli/internal/calendar"
	"onboarding-cli/internal/clock"
	"onboarding-cli/internal/model"
)

//go:embed seed.yaml
var seedYAML []byte

// Source is the read-only data source the CLI builds its engines from.
type Source interface {
	GetChecklist(ctx context.Context) ([]model.Task, error)
	GetDashboardItems(ctx context.Context) ([]model.DashboardItem, error)
	GetEvents(ctx context.Context) ([]model.CalendarEvent, error)
	GetTranslation(ctx context.Context) (bridge.Translation, error)
}

type seedEvent struct {
	ID          string          `yaml:"id"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	OffsetDays  int             `yaml:"offsetDays"`
	StartTime   string          `yaml:"startTime"`
	EndTime     string          `yaml:"endTime"`
	Type        model.EventType `yaml:"type"`
	Location    *string         `yaml:"location"`
	Attendees   []string        `yaml:"attendees"`
	Reminder    bool            `yaml:"reminder"`
}

type seed struct {
	Checklist      []model.Task          `yaml:"checklist"`
	DashboardItems []model.DashboardItem `yaml:"dashboardItems"`
	Translation    bridge.Translation    `yaml:"translation"`
	Events         []seedEvent           `yaml:"events"`
}

// Static serves a decoded seed. Event dates are placed relative to the clock's current day.
type Static struct {
	seed  seed
	clock clock.Clock
	loc   *time.Location
}

var _ Source = (*Static)(nil)

// Default decodes the embedded seed.
func Default(c clock.Clock, loc *time.Location) (*Static, error) {
	return Parse(seedYAML, c, loc)
}

func Parse(raw []byte, c clock.Clock, loc *time.Location) (*Static, error) {
	var s seed
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	for _, ev := range s.Events {
		if _, err := calendar.ParseEventType(string(ev.Type)); err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Static{seed: s, clock: clock.Or(c), loc: loc}, nil
}

func (s *Static) GetChecklist(ctx context.Context) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(s.seed.Checklist))
	for _, t := range s.seed.Checklist {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (s *Static) GetDashboardItems(ctx context.Context) ([]model.DashboardItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]model.DashboardItem(nil), s.seed.DashboardItems...), nil
}

func (s *Static) GetTranslation(ctx context.Context) (bridge.Translation, error) {
	if err := ctx.Err(); err != nil {
		return bridge.Translation{}, err
	}
	tr := s.seed.Translation
	tr.Links = append([]bridge.Link(nil), tr.Links...)
	return tr, nil
}

func (s *Static) GetEvents(ctx context.Context) ([]model.CalendarEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.clock.Now().In(s.loc)

	out := make([]model.CalendarEvent, 0, len(s.seed.Events))
	for _, ev := range s.seed.Events {
		var hh, mm int
		if t, err := time.Parse("15:04", ev.StartTime); err == nil {
			hh, mm = t.Hour(), t.Minute()
		}
		d := time.Date(now.Year(), now.Month(), now.Day()+ev.OffsetDays, hh, mm, 0, 0, s.loc)
		if want := time.Date(now.Year(), now.Month(), now.Day()+ev.OffsetDays, 0, 0, 0, 0, time.UTC); d.Day() != want.Day() {
			// The wall time fell into a DST gap and resolved to the previous evening.
			d = d.Add(time.Hour)
		}
		out = append(out, model.CalendarEvent{
			ID:          ev.ID,
			Title:       ev.Title,
			Description: ev.Description,
			Date:        d,
			StartTime:   ev.StartTime,
			EndTime:     ev.EndTime,
			Type:        ev.Type,
			Location:    ev.Location,
			Attendees:   append([]string(nil), ev.Attendees...),
			Reminder:    ev.Reminder,
		})
	}
	return out, nil
}
