package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"onboarding-cli/internal/dashboard"
	"onboarding-cli/internal/model"
)

type Options struct {
	Input     io.Reader
	Output    io.Writer
	AltScreen bool
	// Complete marks an item from the view (keys 1-9). Nil marks it on the reducer only.
	Complete func(model.ItemID) error
}

// RunDashboard shows the live dashboard until the user quits or ctx is done.
// Changes made by other contexts (sub) are re-rendered as they arrive.
func RunDashboard(ctx context.Context, r *dashboard.Reducer, sub dashboard.Subscriber, opts Options) error {
	m := newDashboardModel(r, opts.Complete)
	stop := m.attach(sub)
	defer stop()

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	_, err := tea.NewProgram(m, progOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
