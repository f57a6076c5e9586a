package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"onboarding-cli/internal/clock"
	"onboarding-cli/internal/config"
	"onboarding-cli/internal/format"
	"onboarding-cli/internal/logging"
)

type App struct {
	Dir        string
	ConfigPath string
	Backend    string
	Format     string
	Context    string
	PrettyJSON bool
	Debug      bool
	Now        string

	cfg   config.Config
	log   *logging.Logger
	clock clock.Clock
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "onboard",
		Short:        "Onboarding checklist, progress dashboard and calendar",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Log in (no credentials; the role drives route access)
  onboard session login employee

  # Work through the checklist
  onboard checklist list --format text
  onboard checklist toggle 2
  onboard checklist comment 2 --text "Signed and returned"

  # Dashboard summary, live view in a second terminal
  onboard dashboard show
  onboard dashboard watch

  # Calendar
  onboard calendar show --view week --format text
  onboard calendar upcoming
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.configure(cmd)
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		app.log.Close()
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("ONBOARD_DIR", ""), "Path to store dir (default ~/.onboard)")
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Config file (default <dir>/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.Backend, "backend", "", "Store backend (sqlite|memory)")
	cmd.PersistentFlags().StringVar(&app.Format, "format", "", "Output format (json|yaml|text)")
	cmd.PersistentFlags().StringVar(&app.Context, "context", "", "Context name used for change notifications and the journal")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().BoolVar(&app.Debug, "debug", false, "Debug logging")
	cmd.PersistentFlags().StringVar(&app.Now, "now", envOr("ONBOARD_NOW", ""), "Pin the current time (RFC3339 or YYYY-MM-DD)")
	_ = cmd.PersistentFlags().MarkHidden("now")

	cmd.AddCommand(newChecklistCmd(app))
	cmd.AddCommand(newDashboardCmd(app))
	cmd.AddCommand(newCalendarCmd(app))
	cmd.AddCommand(newSessionCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newKVCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

// configure resolves config (file, .env, environment) and then applies explicit flags.
func (app *App) configure(cmd *cobra.Command) error {
	cfg, err := config.Load(app.ConfigPath, app.Dir)
	if err != nil {
		return writeErr(cmd, err)
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = strings.ToLower(strings.TrimSpace(app.Backend))
	}
	if flags.Changed("format") {
		cfg.Format = strings.ToLower(strings.TrimSpace(app.Format))
	}
	if flags.Changed("context") {
		cfg.Context = strings.TrimSpace(app.Context)
	}
	if flags.Changed("debug") {
		cfg.Debug = app.Debug
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return writeErr(cmd, err)
	}
	app.cfg = cfg
	app.Dir = cfg.Dir
	app.Format = cfg.Format

	app.log = logging.New(cmd.ErrOrStderr(), cfg.Debug)
	if cfg.Backend != "memory" {
		if err := app.log.OpenFile(cfg.Dir); err != nil {
			app.log.Debug("file logging disabled: %v", err)
		}
	}

	app.clock = clock.Real{}
	if s := strings.TrimSpace(app.Now); s != "" {
		t, err := parseNow(s)
		if err != nil {
			return writeErr(cmd, err)
		}
		app.clock = clock.NewFake(t)
	}
	return nil
}

func parseNow(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t.Add(12 * time.Hour), nil
	}
	return time.Time{}, fmt.Errorf("invalid --now: %q (expected RFC3339 or YYYY-MM-DD)", s)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
