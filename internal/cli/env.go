package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"onboarding-cli/internal/bridge"
	"onboarding-cli/internal/calendar"
	"onboarding-cli/internal/dashboard"
	"onboarding-cli/internal/engine"
	"onboarding-cli/internal/fixtures"
	"onboarding-cli/internal/model"
	"onboarding-cli/internal/session"
	"onboarding-cli/internal/store"
)

// env is everything a command needs for one invocation: the store context it writes
// through, its journal, the mock data source and the logged-in session.
type env struct {
	app     *App
	origin  *store.Origin
	kv      *store.Context
	journal *store.Journal
	src     fixtures.Source
	session session.Session
}

// openEnv opens the configured backend and, when route is set, enforces the session guard.
func openEnv(cmd *cobra.Command, app *App, route session.Route) (*env, error) {
	ctx := cmdContext(cmd)
	if app.cfg.Backend != store.BackendMemory {
		if err := os.MkdirAll(app.cfg.Dir, 0o755); err != nil {
			return nil, err
		}
	}
	backend, err := store.OpenBackend(ctx, app.cfg.Backend, app.cfg.Dir)
	if err != nil {
		return nil, err
	}
	src, err := fixtures.Default(app.clock, nil)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	o := store.NewOrigin(backend)
	kv := o.Open(app.cfg.Context)
	e := &env{app: app, origin: o, kv: kv, journal: kv.Journal(), src: src}

	s, err := session.Load(kv)
	if err != nil {
		app.log.Warn("%v", err)
	}
	e.session = s
	if route != "" {
		if err := s.Guard(route); err != nil {
			e.Close()
			if errors.Is(err, session.ErrUnauthenticated) {
				return nil, fmt.Errorf("%w; run `onboard session login <admin|mentor|employee|user>`", err)
			}
			return nil, err
		}
	}
	return e, nil
}

func (e *env) Close() {
	if err := e.origin.Close(); err != nil {
		e.app.log.Debug("close store: %v", err)
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// checklist loads the engine from the stored snapshot (or the seed) and journals every change.
func (e *env) checklist(ctx context.Context) (*engine.Checklist, error) {
	seed, err := e.src.GetChecklist(ctx)
	if err != nil {
		return nil, err
	}
	cl, err := engine.Load(e.kv, seed, engine.Options{Clock: e.app.clock, Logger: e.app.log})
	if err != nil {
		e.app.log.Warn("%v (continuing in memory)", err)
	}
	cl.OnChange(func(ch engine.Change) {
		if err := e.journal.Append(ch.Type, "task-"+strconv.Itoa(int(ch.TaskID)), ch.Payload); err != nil {
			e.app.log.Warn("journal %s: %v", ch.Type, err)
		}
	})
	cl.OnMilestone(func(t model.Task) {
		e.app.log.Success("Milestone reached: %s", t.Title)
	})
	return cl, nil
}

func (e *env) saveChecklist(cl *engine.Checklist) error {
	if err := cl.Save(e.kv); err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			e.app.log.Warn("%v (change kept in memory only)", err)
			return nil
		}
		return err
	}
	return nil
}

func (e *env) dashboard(ctx context.Context) (*dashboard.Reducer, error) {
	items, err := e.src.GetDashboardItems(ctx)
	if err != nil {
		return nil, err
	}
	r := dashboard.New(e.kv, items, e.app.log)
	if err := r.Load(); err != nil {
		e.app.log.Warn("%v (continuing in memory)", err)
	}
	r.OnChange(func(ids []model.ItemID) {
		e.app.log.Debug("dashboard: %d items complete", len(ids))
	})
	return r, nil
}

// connected returns a checklist engine and dashboard reducer linked through the translation.
func (e *env) connected(ctx context.Context) (*engine.Checklist, *dashboard.Reducer, *bridge.Bridge, error) {
	cl, err := e.checklist(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	r, err := e.dashboard(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	tr, err := e.src.GetTranslation(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := bridge.Connect(tr, cl, r, e.app.log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cl, r, b, nil
}

func (e *env) calendar(ctx context.Context) (*calendar.Aggregator, error) {
	events, err := e.src.GetEvents(ctx)
	if err != nil {
		return nil, err
	}
	return calendar.New(events, calendar.Options{
		WeekStart:  e.app.cfg.WeekStart(),
		MaxPerCell: e.app.cfg.Cal.MaxPerCell,
		Clock:      e.app.clock,
	}), nil
}

func (e *env) journalAppend(typ, entityID string, payload any) {
	if err := e.journal.Append(typ, entityID, payload); err != nil {
		e.app.log.Warn("journal %s: %v", typ, err)
	}
}

func parseTaskID(raw string) (model.TaskID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, invalidIDError{kind: "task", raw: raw}
	}
	return model.TaskID(n), nil
}

func parseSubtaskID(raw string) (model.SubtaskID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, invalidIDError{kind: "subtask", raw: raw}
	}
	return model.SubtaskID(n), nil
}

func parseItemID(raw string) (model.ItemID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, invalidIDError{kind: "item", raw: raw}
	}
	return model.ItemID(n), nil
}
