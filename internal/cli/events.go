package cli

import (
	"github.com/spf13/cobra"

	"onboarding-cli/internal/format"
	"onboarding-cli/internal/render"
)

func newEventsCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the local event journal",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events (oldest-first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			evs, err := e.journal.Read(limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.WithText(map[string]any{"data": evs}, func() string {
				return render.Journal(evs)
			}))
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 200, "Max events to return (0 = all)")

	cmd.AddCommand(listCmd)
	return cmd
}
