package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"onboarding-cli/internal/model"
)

// Well-known keys. Values are plain strings; JSON where noted.
const (
	// KeyCompletedItems holds a JSON array of completed dashboard item ids.
	KeyCompletedItems = "onboarding:completedTasks"
	// KeyUserRole holds the logged-in role string (admin|mentor|employee|user).
	KeyUserRole = "onboarding:userRole"
	// KeyChecklist holds the versioned checklist snapshot (JSON).
	KeyChecklist = "onboarding:checklist"
)

var (
	// ErrUnavailable wraps failures of the host storage mechanism itself.
	ErrUnavailable = errors.New("store unavailable")
	ErrClosed      = errors.New("store context closed")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// Writer identifies who performed a write: the origin instance and the context within it.
type Writer struct {
	Origin  string
	Context string
}

// Change describes one committed write. Version increases monotonically per backend.
type Change struct {
	Version int64     `json:"version"`
	Key     string    `json:"key"`
	Value   string    `json:"value,omitempty"`
	Removed bool      `json:"removed,omitempty"`
	Origin  string    `json:"origin"`
	Context string    `json:"context"`
	At      time.Time `json:"at"`
}

// Backend is the persistence layer shared by every context of an origin.
// Last write wins; backends never merge values.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, w Writer) (Change, error)
	Remove(ctx context.Context, key string, w Writer) (Change, error)

	// Head returns the latest change version (0 when nothing was written).
	Head(ctx context.Context) (int64, error)
	// ChangesSince returns changes with Version > version, oldest first.
	ChangesSince(ctx context.Context, version int64) ([]Change, error)

	AppendEvent(ctx context.Context, ev model.Event) error
	// ReadEvents returns the newest limit events in chronological order (limit <= 0 => all).
	ReadEvents(ctx context.Context, limit int) ([]model.Event, error)

	Close() error
}

// KV is the synchronous key-value surface consumed by the engines.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// OpenBackend opens the named backend kind. Memory backends ignore dir.
func OpenBackend(ctx context.Context, kind, dir string) (Backend, error) {
	switch kind {
	case "", BackendSQLite:
		return OpenSQLite(ctx, dir)
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (expected sqlite|memory)", kind)
	}
}
