package engine

import (
	"slices"
	"sync"

	"onboarding-cli/internal/checklist"
	"onboarding-cli/internal/clock"
	"onboarding-cli/internal/logging"
	"onboarding-cli/internal/model"
	"onboarding-cli/internal/mutate"
	"onboarding-cli/internal/progress"
	"onboarding-cli/internal/store"
)

// Change event types reported to OnChange listeners (and journaled by the CLI).
const (
	EventToggle     = "checklist.toggle"
	EventComplete   = "checklist.complete"
	EventSubtask    = "checklist.subtask"
	EventComment    = "comment.add"
	EventFileAdd    = "file.add"
	EventFileRemove = "file.remove"
)

// Change describes one committed checklist mutation.
type Change struct {
	Type    string
	TaskID  model.TaskID
	Payload map[string]any
}

type Options struct {
	Clock  clock.Clock
	Logger *logging.Logger
	// CommentIDs and FileIDs generate fresh ids; defaults use store.IDGenerator.
	CommentIDs func() string
	FileIDs    func() string
}

// Checklist owns the canonical task list. Every operation is synchronous and atomic;
// unknown ids and invalid input are silent no-ops. Listeners run after the state
// change is committed and the lock released, so they may call back into the engine.
type Checklist struct {
	mu   sync.Mutex
	list *checklist.List

	clock      clock.Clock
	log        *logging.Logger
	commentIDs func() string
	fileIDs    func() string

	lmu         sync.Mutex
	onMilestone []func(model.Task)
	onChange    []func(Change)
}

func New(tasks []model.Task, opts Options) *Checklist {
	return FromList(checklist.New(tasks), opts)
}

// FromList adopts l; the caller must not retain it.
func FromList(l *checklist.List, opts Options) *Checklist {
	if l == nil {
		l = checklist.New(nil)
	}
	c := &Checklist{
		list:       l,
		clock:      clock.Or(opts.Clock),
		log:        opts.Logger,
		commentIDs: opts.CommentIDs,
		fileIDs:    opts.FileIDs,
	}
	if c.commentIDs == nil {
		c.commentIDs = store.IDGenerator("cmt")
	}
	if c.fileIDs == nil {
		c.fileIDs = store.IDGenerator("file")
	}
	return c
}

// OnMilestone registers fn for milestone-achieved events. fn receives a copy of the task.
func (c *Checklist) OnMilestone(fn func(model.Task)) {
	if fn == nil {
		return
	}
	c.lmu.Lock()
	c.onMilestone = append(c.onMilestone, fn)
	c.lmu.Unlock()
}

func (c *Checklist) OnChange(fn func(Change)) {
	if fn == nil {
		return
	}
	c.lmu.Lock()
	c.onChange = append(c.onChange, fn)
	c.lmu.Unlock()
}

func (c *Checklist) noop(op string, err error) {
	c.log.Debug("checklist %s: no-op: %v", op, err)
}

func (c *Checklist) emit(ch Change, milestone *model.Task) {
	c.lmu.Lock()
	changeFns := slices.Clone(c.onChange)
	milestoneFns := slices.Clone(c.onMilestone)
	c.lmu.Unlock()

	for _, fn := range changeFns {
		fn(ch)
	}
	if milestone == nil {
		return
	}
	for _, fn := range milestoneFns {
		fn(milestone.Clone())
	}
}

// ToggleTask flips the task's completion. It reports false when the id is unknown.
func (c *Checklist) ToggleTask(id model.TaskID) bool {
	c.mu.Lock()
	res, err := mutate.ToggleTask(c.list, id)
	if err != nil {
		c.mu.Unlock()
		c.noop("toggle", err)
		return false
	}
	ch, ms := toggleChange(EventToggle, id, res)
	c.mu.Unlock()

	c.emit(ch, ms)
	return true
}

// Complete marks the task done. Already-complete tasks are left untouched and report false.
func (c *Checklist) Complete(id model.TaskID) bool {
	c.mu.Lock()
	res, changed, err := mutate.CompleteTask(c.list, id)
	if err != nil {
		c.mu.Unlock()
		c.noop("complete", err)
		return false
	}
	if !changed {
		c.mu.Unlock()
		return false
	}
	ch, ms := toggleChange(EventComplete, id, res)
	c.mu.Unlock()

	c.emit(ch, ms)
	return true
}

func toggleChange(typ string, id model.TaskID, res mutate.ToggleResult) (Change, *model.Task) {
	ch := Change{Type: typ, TaskID: id, Payload: res.EventPayload}
	if !res.MilestoneReached {
		return ch, nil
	}
	t := res.Task.Clone()
	return ch, &t
}

func (c *Checklist) ToggleSubtask(taskID model.TaskID, subtaskID model.SubtaskID) bool {
	c.mu.Lock()
	res, err := mutate.ToggleSubtask(c.list, taskID, subtaskID)
	c.mu.Unlock()
	if err != nil {
		c.noop("toggle subtask", err)
		return false
	}
	c.emit(Change{Type: EventSubtask, TaskID: taskID, Payload: res.EventPayload}, nil)
	return true
}

// AddComment appends a comment stamped with the engine clock.
// Blank text and unknown tasks are ignored (ok=false).
func (c *Checklist) AddComment(taskID model.TaskID, author, text string) (model.Comment, bool) {
	c.mu.Lock()
	res, err := mutate.AddComment(c.list, taskID, c.commentIDs(), author, text, c.clock.Now().UTC())
	c.mu.Unlock()
	if err != nil {
		c.noop("add comment", err)
		return model.Comment{}, false
	}
	c.emit(Change{Type: EventComment, TaskID: taskID, Payload: map[string]any{
		"taskId":    int(taskID),
		"commentId": res.Comment.ID,
		"author":    res.Comment.Author,
	}}, nil)
	return res.Comment, true
}

func (c *Checklist) AddFiles(taskID model.TaskID, files []model.FileInput) ([]model.Attachment, bool) {
	c.mu.Lock()
	res, err := mutate.AddFiles(c.list, taskID, files, c.fileIDs, c.clock.Now().UTC())
	c.mu.Unlock()
	if err != nil {
		c.noop("add files", err)
		return nil, false
	}
	ids := make([]string, 0, len(res.Added))
	for _, a := range res.Added {
		ids = append(ids, a.ID)
	}
	c.emit(Change{Type: EventFileAdd, TaskID: taskID, Payload: map[string]any{
		"taskId":  int(taskID),
		"fileIds": ids,
	}}, nil)
	return res.Added, true
}

func (c *Checklist) RemoveFile(taskID model.TaskID, fileID string) bool {
	c.mu.Lock()
	res, err := mutate.RemoveFile(c.list, taskID, fileID)
	c.mu.Unlock()
	if err != nil {
		c.noop("remove file", err)
		return false
	}
	c.emit(Change{Type: EventFileRemove, TaskID: taskID, Payload: map[string]any{
		"taskId": int(taskID),
		"fileId": res.Removed.ID,
		"name":   res.Removed.Name,
	}}, nil)
	return true
}

func (c *Checklist) ProgressOverall() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Overall().Percent
}

// ProgressForCategory returns 0 for unknown or empty categories.
func (c *Checklist) ProgressForCategory(category string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Category(category).Percent
}

func (c *Checklist) Overall() progress.Breakdown {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Overall()
}

func (c *Checklist) CategoryProgress() []progress.Breakdown {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.ByCategory()
}

func (c *Checklist) Categories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Categories()
}

// Tasks returns copies of every task in list order.
func (c *Checklist) Tasks() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Task, 0, len(c.list.Tasks))
	for _, t := range c.list.Tasks {
		out = append(out, t.Clone())
	}
	return out
}

func (c *Checklist) Task(id model.TaskID) (model.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.list.FindTask(id)
	if !ok {
		return model.Task{}, false
	}
	return t.Clone(), true
}
