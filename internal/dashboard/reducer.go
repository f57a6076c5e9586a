package dashboard

import (
	"encoding/json"
	"fmt"
	"strings"
	"slices"
	"sync"

	"onboarding-cli/internal/logging"
	"onboarding-cli/internal/model"
	"onboarding-cli/internal/progress"
	"onboarding-cli/internal/store"
)

// Subscriber is the notification side of a store context.
type Subscriber interface {
	Subscribe(fn func(store.Change)) func()
}

// Reducer tracks which dashboard items are complete. The set is persisted verbatim as a
// JSON array of item ids under store.KeyCompletedItems.
type Reducer struct {
	kv  store.KV
	log *logging.Logger

	mu        sync.Mutex
	catalog   []model.DashboardItem
	known     map[model.ItemID]bool
	completed []model.ItemID

	lmu       sync.Mutex
	listeners []func([]model.ItemID)
}

func New(kv store.KV, catalog []model.DashboardItem, log *logging.Logger) *Reducer {
	known := make(map[model.ItemID]bool, len(catalog))
	for _, it := range catalog {
		known[it.ID] = true
	}
	return &Reducer{
		kv:      kv,
		log:     log,
		catalog: append([]model.DashboardItem(nil), catalog...),
		known:   known,
	}
}

// Load replaces the in-memory set with the stored one. A missing or unreadable value
// yields an empty set and no error; only an unavailable store is reported.
func (r *Reducer) Load() error {
	raw, ok, err := r.kv.Get(store.KeyCompletedItems)
	if err != nil {
		r.replace(nil)
		return fmt.Errorf("load completed items: %w", err)
	}
	if !ok {
		r.replace(nil)
		return nil
	}
	r.replace(r.decode(raw))
	return nil
}

func (r *Reducer) decode(raw string) []model.ItemID {
	var ids []model.ItemID
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &ids); err != nil {
		r.log.Warn("completed items unreadable, starting empty: %v", err)
		return nil
	}
	return ids
}

// replace installs ids, dropping duplicates and ids outside the catalog.
func (r *Reducer) replace(ids []model.ItemID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = r.completed[:0]
	seen := map[model.ItemID]bool{}
	for _, id := range ids {
		if seen[id] || !r.known[id] {
			continue
		}
		seen[id] = true
		r.completed = append(r.completed, id)
	}
}

// MarkComplete adds id to the set and persists it. Ids already present or outside the
// catalog are ignored (changed=false). When persisting fails the in-memory update is
// kept and the error is returned.
func (r *Reducer) MarkComplete(id model.ItemID) (bool, error) {
	r.mu.Lock()
	if !r.known[id] || r.hasLocked(id) {
		r.mu.Unlock()
		return false, nil
	}
	r.completed = append(r.completed, id)
	snapshot := append([]model.ItemID(nil), r.completed...)
	r.mu.Unlock()

	err := r.persist(snapshot)
	r.notify(snapshot)
	return true, err
}

func (r *Reducer) persist(ids []model.ItemID) error {
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := r.kv.Set(store.KeyCompletedItems, string(b)); err != nil {
		return fmt.Errorf("persist completed items: %w", err)
	}
	return nil
}

// Reset clears the set and removes the stored key.
func (r *Reducer) Reset() error {
	r.replace(nil)
	r.notify(nil)
	if err := r.kv.Remove(store.KeyCompletedItems); err != nil {
		return fmt.Errorf("reset completed items: %w", err)
	}
	return nil
}

func (r *Reducer) hasLocked(id model.ItemID) bool {
	for _, c := range r.completed {
		if c == id {
			return true
		}
	}
	return false
}

func (r *Reducer) IsComplete(id model.ItemID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasLocked(id)
}

// Completed returns the set in insertion order.
func (r *Reducer) Completed() []model.ItemID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ItemID{}, r.completed...)
}

func (r *Reducer) Catalog() []model.DashboardItem {
	return append([]model.DashboardItem(nil), r.catalog...)
}

// ProgressPercent is round(|completed| / |catalog| * 100); an empty catalog is 0.
func (r *Reducer) ProgressPercent() int {
	return r.Breakdown().Percent
}

func (r *Reducer) Breakdown() progress.Breakdown {
	r.mu.Lock()
	defer r.mu.Unlock()
	return progress.NewBreakdown("dashboard", len(r.completed), len(r.catalog))
}

// OnChange registers fn, called with the new set after every local or external change.
func (r *Reducer) OnChange(fn func([]model.ItemID)) {
	if fn == nil {
		return
	}
	r.lmu.Lock()
	r.listeners = append(r.listeners, fn)
	r.lmu.Unlock()
}

func (r *Reducer) notify(ids []model.ItemID) {
	r.lmu.Lock()
	fns := slices.Clone(r.listeners)
	r.lmu.Unlock()
	for _, fn := range fns {
		fn(append([]model.ItemID{}, ids...))
	}
}

// Watch keeps the reducer in sync with writes made by other contexts.
// The returned func stops watching.
func (r *Reducer) Watch(sub Subscriber) func() {
	return sub.Subscribe(func(ch store.Change) {
		if ch.Key != store.KeyCompletedItems {
			return
		}
		var ids []model.ItemID
		if !ch.Removed {
			ids = r.decode(ch.Value)
		}
		r.replace(ids)
		r.log.Debug("dashboard: external update from %s (v%d)", ch.Context, ch.Version)
		r.notify(r.Completed())
	})
}
