package bridge

import (
	"fmt"

	"onboarding-cli/internal/model"
)

// TranslationVersion is bumped whenever either catalog is renumbered.
const TranslationVersion = 1

// Link pairs a dashboard item with the checklist task that fulfils it.
type Link struct {
	Item model.ItemID `json:"item" yaml:"item"`
	Task model.TaskID `json:"task" yaml:"task"`
}

// Translation maps between the dashboard and checklist catalogs. Each id appears at most once
// on each side; ids without a link have no counterpart.
type Translation struct {
	Version int    `json:"version" yaml:"version"`
	Links   []Link `json:"links" yaml:"links"`
}

func (t Translation) Validate() error {
	if t.Version > TranslationVersion {
		return fmt.Errorf("unsupported translation version %d", t.Version)
	}
	items := map[model.ItemID]bool{}
	tasks := map[model.TaskID]bool{}
	for _, l := range t.Links {
		if items[l.Item] {
			return fmt.Errorf("item %d linked twice", l.Item)
		}
		if tasks[l.Task] {
			return fmt.Errorf("task %d linked twice", l.Task)
		}
		items[l.Item] = true
		tasks[l.Task] = true
	}
	return nil
}

func (t Translation) TaskFor(item model.ItemID) (model.TaskID, bool) {
	for _, l := range t.Links {
		if l.Item == item {
			return l.Task, true
		}
	}
	return 0, false
}

func (t Translation) ItemFor(task model.TaskID) (model.ItemID, bool) {
	for _, l := range t.Links {
		if l.Task == task {
			return l.Item, true
		}
	}
	return 0, false
}
