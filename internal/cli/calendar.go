package cli

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"onboarding-cli/internal/calendar"
	"onboarding-cli/internal/format"
	"onboarding-cli/internal/model"
	"onboarding-cli/internal/render"
	"onboarding-cli/internal/session"
)

func newCalendarCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Onboarding calendar commands",
	}
	cmd.AddCommand(newCalendarShowCmd(app))
	cmd.AddCommand(newCalendarDayCmd(app))
	cmd.AddCommand(newCalendarUpcomingCmd(app))
	cmd.AddCommand(newCalendarExportCmd(app))
	return cmd
}

func parseTypes(raw []string) ([]model.EventType, error) {
	out := []model.EventType{}
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			t, err := calendar.ParseEventType(part)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
	}
	return out, nil
}

func parseDay(raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return model.Date(raw).Time(time.Local)
}

func openCalendar(cmd *cobra.Command, app *App, types []string) (*env, *calendar.Aggregator, error) {
	ts, err := parseTypes(types)
	if err != nil {
		return nil, nil, err
	}
	e, err := openEnv(cmd, app, session.RouteCalendar)
	if err != nil {
		return nil, nil, err
	}
	agg, err := e.calendar(cmdContext(cmd))
	if err != nil {
		e.Close()
		return nil, nil, err
	}
	return e, agg.FilterTypes(ts...), nil
}

type cellOut struct {
	Date    string                `json:"date"`
	InMonth bool                  `json:"inMonth"`
	Today   bool                  `json:"today"`
	Events  []model.CalendarEvent `json:"events"`
	More    int                   `json:"more,omitempty"`
}

func newCalendarShowCmd(app *App) *cobra.Command {
	var view string
	var date string
	var step int
	var types []string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the month, week or day view",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := calendar.ParseMode(view)
			if err != nil {
				return writeErr(cmd, err)
			}
			e, agg, err := openCalendar(cmd, app, types)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()

			nav := calendar.NewNavigator(agg, mode)
			if strings.TrimSpace(date) != "" {
				d, err := parseDay(date, agg.Now())
				if err != nil {
					return writeErr(cmd, err)
				}
				nav.SetAnchor(d)
			}
			for ; step > 0; step-- {
				nav.Next()
			}
			for ; step < 0; step++ {
				nav.Prev()
			}

			g := nav.Grid()
			cells := make([]cellOut, 0, len(g.Cells))
			for _, c := range g.Cells {
				cells = append(cells, cellOut{
					Date:    c.Day.Format("2006-01-02"),
					InMonth: c.InMonth,
					Today:   c.Today,
					Events:  c.Events,
					More:    c.More,
				})
			}
			out := map[string]any{
				"data": cells,
				"meta": map[string]any{
					"view":      string(g.Mode),
					"anchor":    g.Anchor.Format("2006-01-02"),
					"title":     g.Title,
					"weekStart": agg.WeekStart().String(),
				},
			}
			return writeOut(cmd, app, format.WithText(out, func() string { return render.Grid(g) }))
		},
	}
	cmd.Flags().StringVar(&view, "view", "month", "View mode (month|week|day)")
	cmd.Flags().StringVar(&date, "date", "", "Anchor date YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&step, "step", 0, "Move the anchor by N views (negative = back)")
	cmd.Flags().StringArrayVar(&types, "type", nil, "Only events of these types (meeting|milestone|training|social)")
	return cmd
}

func newCalendarDayCmd(app *App) *cobra.Command {
	var types []string

	cmd := &cobra.Command{
		Use:   "day [YYYY-MM-DD]",
		Short: "List events on one day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, agg, err := openCalendar(cmd, app, types)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			d, err := parseDay(raw, agg.Now())
			if err != nil {
				return writeErr(cmd, err)
			}
			evs := agg.EventsOnDay(d)
			out := map[string]any{
				"data": evs,
				"meta": map[string]any{"date": d.Format("2006-01-02")},
			}
			return writeOut(cmd, app, format.WithText(out, func() string {
				return render.Grid(agg.Grid(calendar.ModeDay, d))
			}))
		},
	}
	cmd.Flags().StringArrayVar(&types, "type", nil, "Only events of these types")
	return cmd
}

func newCalendarUpcomingCmd(app *App) *cobra.Command {
	var limit int
	var types []string

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List events from today on, earliest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, agg, err := openCalendar(cmd, app, types)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			if !cmd.Flags().Changed("limit") {
				limit = app.cfg.Cal.UpcomingLimit
			}
			evs := agg.Upcoming(agg.Now(), limit)
			out := map[string]any{
				"data": evs,
				"meta": map[string]any{"limit": limit, "returned": len(evs)},
			}
			return writeOut(cmd, app, format.WithText(out, func() string {
				return render.Upcoming(evs, time.Local)
			}))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "Max events (0 = all)")
	cmd.Flags().StringArrayVar(&types, "type", nil, "Only events of these types")
	return cmd
}

func newCalendarExportCmd(app *App) *cobra.Command {
	var outPath string
	var types []string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export events as iCalendar (.ics)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, agg, err := openCalendar(cmd, app, types)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			ics := calendar.ExportICS(agg.Events(), time.Local, agg.Now())
			if strings.TrimSpace(outPath) == "" || outPath == "-" {
				_, err := cmd.OutOrStdout().Write([]byte(ics))
				return err
			}
			if err := os.WriteFile(outPath, []byte(ics), 0o644); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"path": outPath, "events": len(agg.Events())},
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "Write to file instead of stdout")
	cmd.Flags().StringArrayVar(&types, "type", nil, "Only events of these types")
	return cmd
}
