package cli

import (
	"github.com/spf13/cobra"

	"onboarding-cli/internal/session"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Log in with a role, log out, inspect access",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "login <admin|mentor|employee|user>",
		Short: "Store the role for subsequent commands (no credentials)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			s, err := session.Login(e.kv, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			e.journalAppend("session.login", string(s.Role()), nil)
			return writeOut(cmd, app, map[string]any{"data": sessionOut(s)})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Forget the stored role",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			if err := session.Logout(e.kv); err != nil {
				return writeErr(cmd, err)
			}
			e.journalAppend("session.logout", string(e.session.Role()), nil)
			return writeOut(cmd, app, map[string]any{"data": sessionOut(session.Anonymous())})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Show the current role and the routes it may open",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			return writeOut(cmd, app, map[string]any{"data": sessionOut(e.session)})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check <route>",
		Short: "Check access to a route (dashboard|checklist|task-detail|calendar|mentor|admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			if err := e.session.Guard(session.Route(args[0])); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"route": args[0], "allowed": true}})
		},
	})
	return cmd
}

func sessionOut(s session.Session) map[string]any {
	routes := []string{}
	for _, r := range session.Routes() {
		if s.Allowed(r) {
			routes = append(routes, string(r))
		}
	}
	return map[string]any{
		"role":          string(s.Role()),
		"authenticated": s.Authenticated(),
		"routes":        routes,
	}
}
