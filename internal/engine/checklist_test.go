package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"onboarding-cli/internal/clock"
	"onboarding-cli/internal/model"
	"onboarding-cli/internal/store"
)

var t0 = time.Date(2025, 10, 6, 9, 30, 0, 0, time.UTC)

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func twoTasks() []model.Task {
	return []model.Task{
		{ID: 1, Title: "Sign contract", Category: "HR"},
		{ID: 2, Title: "Meet your team", Category: "Team", Milestone: true,
			Subtasks: []model.Subtask{{ID: 1, Title: "Intro call"}, {ID: 2, Title: "Lunch"}}},
	}
}

func newEngine(tasks []model.Task) *Checklist {
	return New(tasks, Options{
		Clock:      clock.NewFake(t0),
		CommentIDs: seqIDs("cmt"),
		FileIDs:    seqIDs("file"),
	})
}

func TestToggleTask_Involution(t *testing.T) {
	c := newEngine(twoTasks())
	before, _ := c.Task(1)
	if !c.ToggleTask(1) || !c.ToggleTask(1) {
		t.Fatalf("expected both toggles to apply")
	}
	after, _ := c.Task(1)
	if before.Completed != after.Completed {
		t.Fatalf("expected double toggle to restore state")
	}
}

func TestToggleTask_MilestoneEdgeOnly(t *testing.T) {
	c := newEngine(twoTasks())
	var got []model.Task
	c.OnMilestone(func(task model.Task) { got = append(got, task) })

	c.ToggleTask(2) // false -> true
	c.ToggleTask(2) // true -> false
	c.ToggleTask(1) // not a milestone
	if len(got) != 1 || got[0].ID != 2 || !got[0].Completed {
		t.Fatalf("expected exactly one milestone event for task 2; got %+v", got)
	}

	c.ToggleTask(2) // false -> true again: a new transition
	if len(got) != 2 {
		t.Fatalf("expected a second milestone event on re-completion; got %d", len(got))
	}
}

func TestCompleteTwoTasks_EndToEnd(t *testing.T) {
	c := newEngine(twoTasks())
	var milestones []model.TaskID
	c.OnMilestone(func(task model.Task) { milestones = append(milestones, task.ID) })

	if p := c.ProgressOverall(); p != 0 {
		t.Fatalf("expected 0; got %d", p)
	}
	c.ToggleTask(1)
	if p := c.ProgressOverall(); p != 50 {
		t.Fatalf("expected 50; got %d", p)
	}
	c.ToggleTask(2)
	if p := c.ProgressOverall(); p != 100 {
		t.Fatalf("expected 100; got %d", p)
	}
	if len(milestones) != 1 || milestones[0] != 2 {
		t.Fatalf("expected one milestone event for task 2; got %v", milestones)
	}
}

func TestProgress_Rounding(t *testing.T) {
	c := newEngine([]model.Task{
		{ID: 1, Category: "A", Completed: true},
		{ID: 2, Category: "A", Completed: true},
		{ID: 3, Category: "B"},
	})
	if p := c.ProgressOverall(); p != 67 {
		t.Fatalf("expected 67; got %d", p)
	}
	if p := c.ProgressForCategory("A"); p != 100 {
		t.Fatalf("expected 100; got %d", p)
	}
	if p := c.ProgressForCategory("B"); p != 0 {
		t.Fatalf("expected 0; got %d", p)
	}
}

func TestProgress_ZeroTasks(t *testing.T) {
	c := newEngine(nil)
	if p := c.ProgressOverall(); p != 0 {
		t.Fatalf("expected 0 for empty checklist; got %d", p)
	}
	if p := c.ProgressForCategory("HR"); p != 0 {
		t.Fatalf("expected 0 for unknown category; got %d", p)
	}
	if cats := c.Categories(); len(cats) != 0 {
		t.Fatalf("expected no categories; got %v", cats)
	}
}

func TestUnknownIDs_AreNoOps(t *testing.T) {
	c := newEngine(twoTasks())
	var changes int
	c.OnChange(func(Change) { changes++ })

	if c.ToggleTask(99) || c.Complete(99) || c.ToggleSubtask(99, 1) || c.ToggleSubtask(2, 99) {
		t.Fatalf("expected unknown ids to report no-op")
	}
	if _, ok := c.AddComment(99, "ana", "hi"); ok {
		t.Fatalf("expected comment on unknown task to be ignored")
	}
	if _, ok := c.AddFiles(99, []model.FileInput{{Name: "a.pdf"}}); ok {
		t.Fatalf("expected files on unknown task to be ignored")
	}
	if c.RemoveFile(1, "file-404") {
		t.Fatalf("expected removing an unknown file to be ignored")
	}
	if changes != 0 {
		t.Fatalf("expected no change events; got %d", changes)
	}
	if p := c.ProgressOverall(); p != 0 {
		t.Fatalf("expected state unchanged; got %d", p)
	}
}

func TestToggleSubtask_DoesNotCascade(t *testing.T) {
	c := newEngine(twoTasks())
	c.ToggleSubtask(2, 1)
	c.ToggleSubtask(2, 2)
	task, _ := c.Task(2)
	if task.Completed {
		t.Fatalf("expected parent to stay incomplete when all subtasks are done")
	}

	c.ToggleTask(2)
	c.ToggleSubtask(2, 1)
	task, _ = c.Task(2)
	if !task.Completed || task.Subtasks[0].Completed || !task.Subtasks[1].Completed {
		t.Fatalf("expected independent booleans; got %+v", task)
	}
}

func TestAddComment(t *testing.T) {
	c := newEngine(twoTasks())
	for _, blank := range []string{"", "   ", "\n\t"} {
		if _, ok := c.AddComment(1, "ana", blank); ok {
			t.Fatalf("expected blank comment %q to be ignored", blank)
		}
	}
	first, ok := c.AddComment(1, "ana", "Signed!")
	if !ok {
		t.Fatalf("expected comment to be added")
	}
	second, _ := c.AddComment(1, "bo", "Great")
	if first.ID == second.ID {
		t.Fatalf("expected fresh ids; got %q twice", first.ID)
	}
	if !first.Timestamp.Equal(t0) {
		t.Fatalf("expected clock timestamp; got %v", first.Timestamp)
	}
	task, _ := c.Task(1)
	if len(task.Comments) != 2 || task.Comments[0].Text != "Signed!" || task.Comments[1].Author != "bo" {
		t.Fatalf("expected comments in insertion order; got %+v", task.Comments)
	}
}

func TestAddAndRemoveFiles(t *testing.T) {
	c := newEngine(twoTasks())
	added, ok := c.AddFiles(1, []model.FileInput{{Name: "id.png", SizeBytes: 10}, {Name: "id.png", SizeBytes: 10}})
	if !ok || len(added) != 2 {
		t.Fatalf("expected two attachments without de-duplication; got %+v", added)
	}
	if added[0].ID != "file-1" || added[1].ID != "file-2" {
		t.Fatalf("expected ids in input order; got %q, %q", added[0].ID, added[1].ID)
	}
	if !c.RemoveFile(1, "file-1") {
		t.Fatalf("expected removal")
	}
	task, _ := c.Task(1)
	if len(task.Files) != 1 || task.Files[0].ID != "file-2" {
		t.Fatalf("unexpected files after removal: %+v", task.Files)
	}
	if _, ok := c.AddFiles(1, nil); !ok {
		t.Fatalf("expected empty input on a known task to succeed")
	}
}

func TestComplete_Idempotent(t *testing.T) {
	c := newEngine(twoTasks())
	var milestones int
	c.OnMilestone(func(model.Task) { milestones++ })
	if !c.Complete(2) {
		t.Fatalf("expected first Complete to apply")
	}
	if c.Complete(2) {
		t.Fatalf("expected second Complete to be a no-op")
	}
	if milestones != 1 {
		t.Fatalf("expected one milestone; got %d", milestones)
	}
}

func TestListeners_RunAfterCommitAndMayReenter(t *testing.T) {
	c := newEngine(twoTasks())
	var seen int
	c.OnMilestone(func(task model.Task) {
		// Reading back through the engine must not deadlock and must see committed state.
		seen = c.ProgressOverall()
	})
	c.ToggleTask(2)
	if seen != 50 {
		t.Fatalf("expected listener to observe committed progress 50; got %d", seen)
	}
}

func TestListeners_AddedDuringEmitRunFromNextChange(t *testing.T) {
	c := newEngine(twoTasks())
	var outer, inner []string
	c.OnChange(func(ch Change) {
		outer = append(outer, ch.Type)
		if len(outer) == 1 {
			c.OnChange(func(ch Change) { inner = append(inner, ch.Type) })
		}
	})
	c.ToggleTask(1)
	if len(outer) != 1 || len(inner) != 0 {
		t.Fatalf("after first change: outer=%v inner=%v", outer, inner)
	}
	c.ToggleTask(1)
	if len(outer) != 2 || len(inner) != 1 || inner[0] != EventToggle {
		t.Fatalf("after second change: outer=%v inner=%v", outer, inner)
	}
}

func TestTasks_ReturnsCopies(t *testing.T) {
	c := newEngine(twoTasks())
	tasks := c.Tasks()
	tasks[1].Subtasks[0].Completed = true
	task, _ := c.Task(2)
	if task.Subtasks[0].Completed {
		t.Fatalf("expected engine state to be unaffected by caller mutation")
	}
}

func TestChangeEvents(t *testing.T) {
	c := newEngine(twoTasks())
	var types []string
	c.OnChange(func(ch Change) { types = append(types, ch.Type) })

	c.ToggleTask(1)
	c.ToggleSubtask(2, 1)
	c.AddComment(1, "ana", "ok")
	c.AddFiles(1, []model.FileInput{{Name: "a"}})
	c.RemoveFile(1, "file-1")
	c.Complete(2)

	want := []string{EventToggle, EventSubtask, EventComment, EventFileAdd, EventFileRemove, EventComplete}
	if fmt.Sprint(types) != fmt.Sprint(want) {
		t.Fatalf("expected %v; got %v", want, types)
	}
}

func TestSnapshot_SaveLoad(t *testing.T) {
	o := store.NewOrigin(store.NewMemoryBackend())
	defer o.Close()
	kv := o.Open("cli")

	c := newEngine(twoTasks())
	c.ToggleTask(1)
	c.AddComment(1, "ana", "done")
	if err := c.Save(kv); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(kv, twoTasks(), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	task, _ := loaded.Task(1)
	if !task.Completed || len(task.Comments) != 1 {
		t.Fatalf("expected restored state; got %+v", task)
	}
}

func TestLoad_CorruptSnapshotFallsBackToSeed(t *testing.T) {
	o := store.NewOrigin(store.NewMemoryBackend())
	defer o.Close()
	kv := o.Open("cli")
	if err := kv.Set(store.KeyChecklist, "not-json"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	c, err := Load(kv, twoTasks(), Options{})
	if err != nil {
		t.Fatalf("expected no error for corrupt snapshot; got %v", err)
	}
	if len(c.Tasks()) != 2 {
		t.Fatalf("expected seed tasks")
	}
}

func TestLoad_UnavailableStore(t *testing.T) {
	mem := store.NewMemoryBackend()
	o := store.NewOrigin(mem)
	defer o.Close()
	kv := o.Open("cli")
	mem.SetFailure(errors.New("disk gone"))

	c, err := Load(kv, twoTasks(), Options{})
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable; got %v", err)
	}
	if c == nil || len(c.Tasks()) != 2 {
		t.Fatalf("expected an in-memory engine seeded from defaults")
	}
}

func TestRestore_KeepsStateOnError(t *testing.T) {
	c := newEngine(twoTasks())
	if err := c.Restore("{"); err == nil {
		t.Fatalf("expected error")
	}
	if len(c.Tasks()) != 2 {
		t.Fatalf("expected current state kept")
	}
}
