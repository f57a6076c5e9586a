package cli

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"onboarding-cli/internal/store"
)

// kv exposes the raw origin store, mostly for debugging cross-context behavior.
func newKVCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kv",
		Short: "Raw key-value store access",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Read a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			v, ok, err := e.kv.Get(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if !ok {
				return writeErr(cmd, errNotFound("key", args[0]))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"key": args[0], "value": v}})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a key (last write wins)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			if err := e.kv.Set(args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"key": args[0], "value": args[1]}})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <key>",
		Short: "Remove a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			if err := e.kv.Remove(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"key": args[0], "removed": true}})
		},
	})
	cmd.AddCommand(newKVWatchCmd(app))
	return cmd
}

func newKVWatchCmd(app *App) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print changes made by other contexts as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()

			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			var mu sync.Mutex
			enc := json.NewEncoder(cmd.OutOrStdout())
			unsubscribe := e.kv.Subscribe(func(ch store.Change) {
				mu.Lock()
				defer mu.Unlock()
				_ = enc.Encode(ch)
			})
			defer unsubscribe()

			watchStore(ctx, app, e.origin)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop after this long (0 = until interrupted)")
	return cmd
}
