package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"onboarding-cli/internal/dashboard"
	"onboarding-cli/internal/model"
	"onboarding-cli/internal/render"
)

// completedMsg carries the reducer's set after a change made elsewhere.
type completedMsg []model.ItemID

type dashboardModel struct {
	r        *dashboard.Reducer
	complete func(model.ItemID) error
	keys     dashboardKeys
	bar      progress.Model
	updates  chan []model.ItemID

	width   int
	status  string
	lastErr error
	now     func() time.Time
}

// newDashboardModel builds the view. complete runs when an item is marked; nil marks
// the item on r only.
func newDashboardModel(r *dashboard.Reducer, complete func(model.ItemID) error) *dashboardModel {
	if complete == nil {
		complete = func(id model.ItemID) error {
			_, err := r.MarkComplete(id)
			return err
		}
	}
	return &dashboardModel{
		r:        r,
		complete: complete,
		keys:     defaultDashboardKeys(),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		updates:  make(chan []model.ItemID, 16),
		width:    80,
		now:      time.Now,
	}
}

// attach starts relaying external changes into the program. The returned func detaches.
func (m *dashboardModel) attach(sub dashboard.Subscriber) func() {
	if sub == nil {
		return func() {}
	}
	return m.r.Watch(sub)
}

func (m *dashboardModel) Init() tea.Cmd {
	m.r.OnChange(func(ids []model.ItemID) {
		select {
		case m.updates <- ids:
		default:
			// A full buffer means a redraw is already pending.
		}
	})
	return m.waitForUpdate()
}

func (m *dashboardModel) waitForUpdate() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		ids, ok := <-ch
		if !ok {
			return nil
		}
		return completedMsg(ids)
	}
}

func (m *dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = clampInt(msg.Width-20, 10, 60)
		return m, nil

	case completedMsg:
		m.status = fmt.Sprintf("updated %s: %d of %d complete", m.now().Format("15:04:05"), len(msg), len(m.r.Catalog()))
		return m, m.waitForUpdate()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reload):
			m.lastErr = m.r.Load()
			m.status = "reloaded"
			return m, nil
		case key.Matches(msg, m.keys.Mark):
			n, _ := strconv.Atoi(msg.String())
			m.mark(n)
			return m, nil
		}
	}
	return m, nil
}

// mark completes the n-th catalog entry (1-based).
func (m *dashboardModel) mark(n int) {
	items := m.r.Catalog()
	if n < 1 || n > len(items) {
		return
	}
	it := items[n-1]
	already := m.r.IsComplete(it.ID)
	m.lastErr = m.complete(it.ID)
	if !already && m.r.IsComplete(it.ID) {
		m.status = "completed: " + it.Title
	}
}

func (m *dashboardModel) View() string {
	pct := m.r.ProgressPercent()
	var sb strings.Builder
	sb.WriteString(render.TitleStyle.Render("Onboarding progress"))
	sb.WriteString("\n\n")
	sb.WriteString(m.bar.ViewAs(float64(pct) / 100))
	sb.WriteString("\n\n")
	for i, it := range m.r.Catalog() {
		mark := "[ ]"
		if m.r.IsComplete(it.ID) {
			mark = render.DoneStyle.Render("[x]")
		}
		sb.WriteString(fmt.Sprintf("%d %s %s\n", i+1, mark, it.Title))
	}
	sb.WriteString("\n")
	if m.lastErr != nil {
		sb.WriteString(render.MilestoneStyle.Render("storage: "+m.lastErr.Error()) + "\n")
	}
	if m.status != "" {
		sb.WriteString(render.MutedStyle.Render(m.status) + "\n")
	}
	help := []string{}
	for _, b := range m.keys.help() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	sb.WriteString(render.MutedStyle.Render(strings.Join(help, " • ")))
	return render.BoxStyle.Render(sb.String())
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
