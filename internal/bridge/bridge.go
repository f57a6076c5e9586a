package bridge

import (
	"fmt"

	"onboarding-cli/internal/dashboard"
	"onboarding-cli/internal/engine"
	"onboarding-cli/internal/logging"
	"onboarding-cli/internal/model"
)

// Bridge forwards checklist completions to the dashboard reducer through a Translation.
type Bridge struct {
	tr   Translation
	cl   *engine.Checklist
	dash *dashboard.Reducer
	log  *logging.Logger
}

// Connect links the engines. From then on, completing a linked checklist task marks its
// dashboard item. Un-completing a task leaves the dashboard untouched: the completed-item
// set only grows until it is reset.
func Connect(tr Translation, cl *engine.Checklist, dash *dashboard.Reducer, log *logging.Logger) (*Bridge, error) {
	if err := tr.Validate(); err != nil {
		return nil, fmt.Errorf("translation: %w", err)
	}
	b := &Bridge{tr: tr, cl: cl, dash: dash, log: log}
	cl.OnChange(b.forward)
	return b, nil
}

func (b *Bridge) Translation() Translation { return b.tr }

func (b *Bridge) forward(ch engine.Change) {
	if ch.Type != engine.EventToggle && ch.Type != engine.EventComplete {
		return
	}
	if to, _ := ch.Payload["to"].(bool); !to {
		return
	}
	item, ok := b.tr.ItemFor(ch.TaskID)
	if !ok {
		return
	}
	if _, err := b.dash.MarkComplete(item); err != nil {
		b.log.Warn("dashboard item %d not persisted: %v", item, err)
	}
}

// CompleteFromDetail is the task-detail "mark complete" flow: it marks the dashboard item
// and completes the linked checklist task, if any.
func (b *Bridge) CompleteFromDetail(item model.ItemID) error {
	_, err := b.dash.MarkComplete(item)
	if task, ok := b.tr.TaskFor(item); ok {
		b.cl.Complete(task)
	}
	return err
}
