package store

import (
	"context"
	"strings"
	"time"

	"onboarding-cli/internal/model"

	"github.com/google/uuid"
)

// Journal appends mutation events to the origin's backend on behalf of one context.
type Journal struct {
	backend Backend
	context string
	now     func() time.Time
}

func (c *Context) Journal() *Journal {
	return &Journal{backend: c.origin.backend, context: c.id, now: time.Now}
}

func (j *Journal) Append(typ, entityID string, payload any) error {
	if j == nil {
		return nil
	}
	ev := model.Event{
		ID:       uuid.NewString(),
		TS:       j.now().UTC(),
		Context:  j.context,
		Type:     strings.TrimSpace(typ),
		EntityID: strings.TrimSpace(entityID),
		Payload:  payload,
	}
	return j.backend.AppendEvent(context.Background(), ev)
}

func (j *Journal) Read(limit int) ([]model.Event, error) {
	if j == nil {
		return []model.Event{}, nil
	}
	return j.backend.ReadEvents(context.Background(), limit)
}
