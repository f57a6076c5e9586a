package store

import (
	"context"
	"sync"
	"time"

	"onboarding-cli/internal/model"
)

// maxChangeLog bounds the retained change history. Watchers that fall further behind
// simply resume from the oldest retained change.
const maxChangeLog = 1000

// MemoryBackend keeps everything in process memory. It is safe for concurrent use, so
// several Origins may share one to model independent contexts over a single origin.
type MemoryBackend struct {
	mu      sync.Mutex
	values  map[string]string
	changes []Change
	version int64
	events  []model.Event
	now     func() time.Time
	fail    error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: map[string]string{}, now: time.Now}
}

// SetFailure makes every subsequent operation fail with err (nil restores normal behavior).
// It models the host storage mechanism becoming unavailable.
func (m *MemoryBackend) SetFailure(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return "", false, unavailable("get", m.fail)
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string, w Writer) (Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return Change{}, unavailable("set", m.fail)
	}
	m.values[key] = value
	return m.recordLocked(Change{Key: key, Value: value, Origin: w.Origin, Context: w.Context}), nil
}

func (m *MemoryBackend) Remove(_ context.Context, key string, w Writer) (Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return Change{}, unavailable("remove", m.fail)
	}
	delete(m.values, key)
	return m.recordLocked(Change{Key: key, Removed: true, Origin: w.Origin, Context: w.Context}), nil
}

func (m *MemoryBackend) recordLocked(ch Change) Change {
	m.version++
	ch.Version = m.version
	ch.At = m.now().UTC()
	m.changes = append(m.changes, ch)
	if len(m.changes) > maxChangeLog {
		m.changes = append([]Change(nil), m.changes[len(m.changes)-maxChangeLog:]...)
	}
	return ch
}

func (m *MemoryBackend) Head(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, unavailable("head", m.fail)
	}
	return m.version, nil
}

func (m *MemoryBackend) ChangesSince(_ context.Context, version int64) ([]Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, unavailable("changes", m.fail)
	}
	out := []Change{}
	for _, ch := range m.changes {
		if ch.Version > version {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (m *MemoryBackend) AppendEvent(_ context.Context, ev model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return unavailable("append event", m.fail)
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *MemoryBackend) ReadEvents(_ context.Context, limit int) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, unavailable("read events", m.fail)
	}
	evs := m.events
	if limit > 0 && len(evs) > limit {
		evs = evs[len(evs)-limit:]
	}
	return append([]model.Event{}, evs...), nil
}

func (m *MemoryBackend) Close() error { return nil }
