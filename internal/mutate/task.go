package mutate

import (
	"strconv"

	"onboarding-cli/internal/checklist"
	"onboarding-cli/internal/model"
)

type ToggleResult struct {
	Task *model.Task
	// MilestoneReached is true only on a false->true transition of a milestone task.
	MilestoneReached bool
	EventPayload     map[string]any
}

func taskNotFound(id model.TaskID) error {
	return NotFoundError{Kind: "task", ID: strconv.Itoa(int(id))}
}

// ToggleTask flips task.Completed.
// Callers are responsible for persisting the list and appending the checklist.toggle event.
func ToggleTask(l *checklist.List, taskID model.TaskID) (ToggleResult, error) {
	t, ok := l.FindTask(taskID)
	if !ok {
		return ToggleResult{}, taskNotFound(taskID)
	}
	return setCompleted(t, !t.Completed), nil
}

// CompleteTask sets task.Completed to true. It reports no transition if the task was already done.
func CompleteTask(l *checklist.List, taskID model.TaskID) (ToggleResult, bool, error) {
	t, ok := l.FindTask(taskID)
	if !ok {
		return ToggleResult{}, false, taskNotFound(taskID)
	}
	if t.Completed {
		return ToggleResult{Task: t}, false, nil
	}
	return setCompleted(t, true), true, nil
}

func setCompleted(t *model.Task, completed bool) ToggleResult {
	prev := t.Completed
	t.Completed = completed
	return ToggleResult{
		Task:             t,
		MilestoneReached: t.Milestone && !prev && completed,
		EventPayload: map[string]any{
			"taskId":    int(t.ID),
			"from":      prev,
			"to":        completed,
			"milestone": t.Milestone,
		},
	}
}

type SubtaskResult struct {
	Task         *model.Task
	Subtask      *model.Subtask
	EventPayload map[string]any
}

// ToggleSubtask flips one subtask. The parent task and sibling subtasks are left untouched.
func ToggleSubtask(l *checklist.List, taskID model.TaskID, subtaskID model.SubtaskID) (SubtaskResult, error) {
	t, ok := l.FindTask(taskID)
	if !ok {
		return SubtaskResult{}, taskNotFound(taskID)
	}
	st, ok := checklist.FindSubtask(t, subtaskID)
	if !ok {
		return SubtaskResult{}, NotFoundError{Kind: "subtask", ID: strconv.Itoa(int(subtaskID))}
	}
	st.Completed = !st.Completed
	return SubtaskResult{
		Task:    t,
		Subtask: st,
		EventPayload: map[string]any{
			"taskId":    int(t.ID),
			"subtaskId": int(st.ID),
			"completed": st.Completed,
		},
	}, nil
}
