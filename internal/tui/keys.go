package tui

import "github.com/charmbracelet/bubbles/key"

type dashboardKeys struct {
	Quit   key.Binding
	Reload key.Binding
	Mark   key.Binding
}

func defaultDashboardKeys() dashboardKeys {
	return dashboardKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Mark: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "mark item complete"),
		),
	}
}

func (k dashboardKeys) help() []key.Binding {
	return []key.Binding{k.Mark, k.Reload, k.Quit}
}
