package checklist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"onboarding-cli/internal/model"
	"onboarding-cli/internal/progress"
)

// SnapshotVersion is the current on-store encoding version of a List.
const SnapshotVersion = 1

// List is the full task collection backing the checklist view.
type List struct {
	Version int          `json:"version"`
	Tasks   []model.Task `json:"tasks"`
}

func New(tasks []model.Task) *List {
	l := &List{Version: SnapshotVersion, Tasks: make([]model.Task, 0, len(tasks))}
	for _, t := range tasks {
		l.Tasks = append(l.Tasks, t.Clone())
	}
	return l
}

func (l *List) FindTask(id model.TaskID) (*model.Task, bool) {
	if l == nil {
		return nil, false
	}
	for i := range l.Tasks {
		if l.Tasks[i].ID == id {
			return &l.Tasks[i], true
		}
	}
	return nil, false
}

func FindSubtask(t *model.Task, id model.SubtaskID) (*model.Subtask, bool) {
	if t == nil {
		return nil, false
	}
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return &t.Subtasks[i], true
		}
	}
	return nil, false
}

// Categories returns the distinct task categories in order of first appearance.
func (l *List) Categories() []string {
	if l == nil {
		return nil
	}
	seen := map[string]bool{}
	out := []string{}
	for _, t := range l.Tasks {
		if seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		out = append(out, t.Category)
	}
	return out
}

func (l *List) Overall() progress.Breakdown {
	if l == nil {
		return progress.NewBreakdown("overall", 0, 0)
	}
	done := 0
	for _, t := range l.Tasks {
		if t.Completed {
			done++
		}
	}
	return progress.NewBreakdown("overall", done, len(l.Tasks))
}

func (l *List) Category(category string) progress.Breakdown {
	done, total := 0, 0
	if l != nil {
		for _, t := range l.Tasks {
			if t.Category != category {
				continue
			}
			total++
			if t.Completed {
				done++
			}
		}
	}
	return progress.NewBreakdown(category, done, total)
}

// ByCategory returns one breakdown per category, in category order.
func (l *List) ByCategory() []progress.Breakdown {
	cats := l.Categories()
	out := make([]progress.Breakdown, 0, len(cats))
	for _, c := range cats {
		out = append(out, l.Category(c))
	}
	return out
}

// Validate reports duplicate task ids, which would break id-addressed mutation.
func (l *List) Validate() error {
	if l == nil {
		return errors.New("nil checklist")
	}
	seen := map[model.TaskID]bool{}
	for _, t := range l.Tasks {
		if seen[t.ID] {
			return fmt.Errorf("duplicate task id: %d", t.ID)
		}
		seen[t.ID] = true
		if strings.TrimSpace(t.Category) == "" {
			return fmt.Errorf("task %d: missing category", t.ID)
		}
	}
	return nil
}

func Encode(l *List) (string, error) {
	if l == nil {
		return "", errors.New("nil checklist")
	}
	if l.Version == 0 {
		l.Version = SnapshotVersion
	}
	b, err := json.Marshal(l)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a stored snapshot. Callers treat any error as "no snapshot".
func Decode(raw string) (*List, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty snapshot")
	}
	var l List
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return nil, err
	}
	if l.Version == 0 {
		l.Version = SnapshotVersion
	}
	if l.Version > SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", l.Version)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}
