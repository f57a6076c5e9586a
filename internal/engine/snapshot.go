package engine

import (
	"fmt"

	"onboarding-cli/internal/checklist"
	"onboarding-cli/internal/model"
	"onboarding-cli/internal/store"
)

func (c *Checklist) Snapshot() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return checklist.Encode(checklist.New(c.list.Tasks))
}

// Restore replaces the task list with a decoded snapshot. On error the current list is kept.
func (c *Checklist) Restore(raw string) error {
	l, err := checklist.Decode(raw)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.list = l
	c.mu.Unlock()
	return nil
}

// Save writes the snapshot under store.KeyChecklist.
func (c *Checklist) Save(kv store.KV) error {
	raw, err := c.Snapshot()
	if err != nil {
		return err
	}
	if err := kv.Set(store.KeyChecklist, raw); err != nil {
		return fmt.Errorf("save checklist: %w", err)
	}
	return nil
}

// Load builds an engine from the stored snapshot, falling back to seed when the key is
// missing or corrupt. Only an unavailable store is reported, alongside a seeded engine.
func Load(kv store.KV, seed []model.Task, opts Options) (*Checklist, error) {
	raw, ok, err := kv.Get(store.KeyChecklist)
	if err != nil {
		return New(seed, opts), fmt.Errorf("load checklist: %w", err)
	}
	if !ok {
		return New(seed, opts), nil
	}
	l, derr := checklist.Decode(raw)
	if derr != nil {
		opts.Logger.Warn("checklist snapshot unreadable, starting from seed: %v", derr)
		return New(seed, opts), nil
	}
	return FromList(l, opts), nil
}
