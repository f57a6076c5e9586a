package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"onboarding-cli/internal/calendar"
	"onboarding-cli/internal/model"
)

// Grid renders a calendar grid. Month views are laid out as weeks of fixed-size cells;
// week and day views list each day with its events.
func Grid(g calendar.Grid) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(g.Title))
	sb.WriteString("\n")

	if g.Mode != calendar.ModeMonth {
		for _, c := range g.Cells {
			sb.WriteString("\n" + dayHeading(c) + "\n")
			if len(c.Events) == 0 {
				sb.WriteString("  " + MutedStyle.Render("No events") + "\n")
			}
			for _, ev := range c.Events {
				sb.WriteString("  " + eventLine(ev) + "\n")
			}
		}
		return strings.TrimRight(sb.String(), "\n")
	}

	head := make([]string, 0, len(g.Weekdays))
	for _, wd := range g.Weekdays {
		head = append(head, CellStyle.Height(1).Render(SectionStyle.Render(wd.String()[:3])))
	}
	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, head...)}
	for _, week := range g.Rows() {
		cells := make([]string, 0, len(week))
		for _, c := range week {
			cells = append(cells, CellStyle.Render(cellBody(c)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	sb.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return sb.String()
}

func dayHeading(c calendar.Cell) string {
	label := c.Day.Format("Mon Jan 2")
	if c.Today {
		return TodayStyle.Render(label)
	}
	return SectionStyle.Render(label)
}

func cellBody(c calendar.Cell) string {
	num := fmt.Sprintf("%2d", c.Day.Day())
	switch {
	case c.Today:
		num = TodayStyle.Render(num)
	case !c.InMonth:
		num = MutedStyle.Render(num)
	}
	lines := []string{num}
	for _, ev := range c.Events {
		lines = append(lines, truncate(ev.Title, 12))
	}
	if more := c.MoreLabel(); more != "" {
		lines = append(lines, MutedStyle.Render(more))
	}
	return strings.Join(lines, "\n")
}

func eventLine(ev model.CalendarEvent) string {
	when := ev.StartTime
	if ev.EndTime != "" {
		when += "-" + ev.EndTime
	}
	line := fmt.Sprintf("%-11s %s %s", when, typeBadge(ev.Type), ev.Title)
	if ev.Location != nil && *ev.Location != "" {
		line += "  " + MutedStyle.Render("@ "+*ev.Location)
	}
	return line
}

func typeBadge(t model.EventType) string {
	color := map[model.EventType]string{
		model.EventMeeting:   "39",
		model.EventMilestone: "212",
		model.EventTraining:  "214",
		model.EventSocial:    "82",
	}[t]
	if color == "" {
		color = "241"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(fmt.Sprintf("%-9s", t))
}

// Upcoming renders a dated event list.
func Upcoming(events []model.CalendarEvent, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Upcoming events"))
	sb.WriteString("\n")
	if len(events) == 0 {
		sb.WriteString(MutedStyle.Render("Nothing scheduled."))
		return sb.String()
	}
	for _, ev := range events {
		day := ev.Date
		if loc != nil {
			day = day.In(loc)
		}
		sb.WriteString(fmt.Sprintf("%s  %s\n", MutedStyle.Render(day.Format("Mon Jan 2")), eventLine(ev)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
