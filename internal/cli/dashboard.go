package cli

import (
	"context"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"onboarding-cli/internal/bridge"
	"onboarding-cli/internal/dashboard"
	"onboarding-cli/internal/engine"
	"onboarding-cli/internal/format"
	"onboarding-cli/internal/model"
	"onboarding-cli/internal/render"
	"onboarding-cli/internal/session"
	"onboarding-cli/internal/store"
	"onboarding-cli/internal/tui"
)

func newDashboardCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Dashboard progress summary",
	}
	cmd.AddCommand(newDashboardShowCmd(app))
	cmd.AddCommand(newDashboardCompleteCmd(app))
	cmd.AddCommand(newDashboardResetCmd(app))
	cmd.AddCommand(newDashboardWatchCmd(app))
	return cmd
}

func dashboardOut(r *dashboard.Reducer, meta map[string]any) any {
	out := map[string]any{
		"data": map[string]any{
			"items":     r.Catalog(),
			"completed": r.Completed(),
			"progress":  r.ProgressPercent(),
		},
	}
	if meta != nil {
		out["meta"] = meta
	}
	return format.WithText(out, func() string {
		return render.Dashboard(r.Catalog(), r.IsComplete, r.ProgressPercent(), 30)
	})
}

func newDashboardShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show completed onboarding items and overall progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, session.RouteDashboard)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			r, err := e.dashboard(cmdContext(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, dashboardOut(r, nil))
		},
	}
}

func newDashboardCompleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <item-id>",
		Short: "Mark an onboarding item complete (and its linked checklist task)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			e, err := openEnv(cmd, app, session.RouteTaskDetail)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			cl, r, b, err := e.connected(cmdContext(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			known := false
			for _, it := range r.Catalog() {
				if it.ID == id {
					known = true
				}
			}
			if !known {
				return writeErr(cmd, errNotFound("item", args[0]))
			}

			already := r.IsComplete(id)
			if err := b.CompleteFromDetail(id); err != nil {
				app.log.Warn("%v (change kept in memory only)", err)
			}
			if !already {
				e.journalAppend("dashboard.complete", "item-"+strconv.Itoa(int(id)), map[string]any{"itemId": int(id)})
			}
			if err := e.saveChecklist(cl); err != nil {
				return writeErr(cmd, err)
			}
			meta := map[string]any{"changed": !already}
			if task, ok := b.Translation().TaskFor(id); ok {
				meta["taskId"] = int(task)
			}
			return writeOut(cmd, app, dashboardOut(r, meta))
		},
	}
}

func newDashboardResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the completed-item set",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, session.RouteDashboard)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			r, err := e.dashboard(cmdContext(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := r.Reset(); err != nil {
				return writeErr(cmd, err)
			}
			e.journalAppend("dashboard.reset", "", nil)
			return writeOut(cmd, app, dashboardOut(r, nil))
		},
	}
}

func newDashboardWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard that follows changes made by other commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, session.RouteDashboard)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
			defer stop()

			// Head is read before loading so writes racing the load are still relayed.
			head, headErr := e.origin.Backend().Head(ctx)
			cl, r, b, err := e.connected(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			app.log.SetSilent(true)
			defer app.log.SetSilent(false)

			if headErr != nil {
				app.log.Debug("watch: %v", headErr)
				go watchStore(ctx, app, e.origin)
			} else {
				go watchStoreFrom(ctx, app, e.origin, head)
			}
			return tui.RunDashboard(ctx, r, e.kv, tui.Options{
				Input:     cmd.InOrStdin(),
				Output:    cmd.OutOrStdout(),
				AltScreen: true,
				Complete: func(id model.ItemID) error {
					return completeLinked(e, cl, r, b, id)
				},
			})
		},
	}
}

// completeLinked marks a dashboard item the way `dashboard complete` does: the linked
// checklist task is completed too and the checklist snapshot is saved.
func completeLinked(e *env, cl *engine.Checklist, r *dashboard.Reducer, b *bridge.Bridge, id model.ItemID) error {
	// Another process may have changed the checklist since the view opened.
	if raw, ok, err := e.kv.Get(store.KeyChecklist); err == nil && ok {
		if err := cl.Restore(raw); err != nil {
			e.app.log.Debug("reload checklist: %v", err)
		}
	}
	already := r.IsComplete(id)
	completeErr := b.CompleteFromDetail(id)
	if !already && r.IsComplete(id) {
		e.journalAppend("dashboard.complete", "item-"+strconv.Itoa(int(id)), map[string]any{"itemId": int(id)})
	}
	if err := e.saveChecklist(cl); err != nil {
		return err
	}
	return completeErr
}

// watchStore relays writes from other processes until ctx is done.
func watchStore(ctx context.Context, app *App, o *store.Origin) {
	err := o.Watch(ctx, app.cfg.Watch.PollInterval, func(err error) {
		app.log.Debug("watch: %v", err)
	})
	if err != nil {
		app.log.Warn("watch stopped: %v", err)
	}
}

// watchStoreFrom is watchStore relaying every change after version from.
func watchStoreFrom(ctx context.Context, app *App, o *store.Origin, from int64) {
	err := o.WatchFrom(ctx, from, app.cfg.Watch.PollInterval, func(err error) {
		app.log.Debug("watch: %v", err)
	})
	if err != nil {
		app.log.Warn("watch stopped: %v", err)
	}
}
