package cli

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"onboarding-cli/internal/engine"
	"onboarding-cli/internal/format"
	"onboarding-cli/internal/model"
	"onboarding-cli/internal/progress"
	"onboarding-cli/internal/render"
	"onboarding-cli/internal/session"
	"onboarding-cli/internal/store"
)

func newChecklistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "checklist",
		Aliases: []string{"tasks"},
		Short:   "Onboarding checklist commands",
	}
	cmd.AddCommand(newChecklistListCmd(app))
	cmd.AddCommand(newChecklistShowCmd(app))
	cmd.AddCommand(newChecklistProgressCmd(app))
	cmd.AddCommand(newChecklistToggleCmd(app))
	cmd.AddCommand(newChecklistCompleteCmd(app))
	cmd.AddCommand(newChecklistSubtaskCmd(app))
	cmd.AddCommand(newChecklistCommentCmd(app))
	cmd.AddCommand(newChecklistAttachCmd(app))
	cmd.AddCommand(newChecklistDetachCmd(app))
	cmd.AddCommand(newChecklistResetCmd(app))
	return cmd
}

func progressMeta(cl *engine.Checklist) map[string]any {
	cats := map[string]int{}
	for _, b := range cl.CategoryProgress() {
		cats[b.Label] = b.Percent
	}
	return map[string]any{
		"progress":   cl.ProgressOverall(),
		"categories": cats,
	}
}

func newChecklistListCmd(app *App) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks with progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, session.RouteChecklist)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			cl, err := e.checklist(cmdContext(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}

			tasks := cl.Tasks()
			cats := cl.CategoryProgress()
			overall := cl.Overall()
			if category = strings.TrimSpace(category); category != "" {
				filtered := []model.Task{}
				for _, t := range tasks {
					if strings.EqualFold(t.Category, category) {
						filtered = append(filtered, t)
					}
				}
				tasks = filtered
				overall = progress.NewBreakdown(category, 0, 0)
				var match []progress.Breakdown
				for _, b := range cats {
					if strings.EqualFold(b.Label, category) {
						overall = b
						match = []progress.Breakdown{b}
					}
				}
				cats = match
			}
			out := map[string]any{
				"data": tasks,
				"meta": progressMeta(cl),
			}
			return writeOut(cmd, app, format.WithText(out, func() string {
				return render.Checklist(tasks, overall, cats)
			}))
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only tasks in this category")
	return cmd
}

func newChecklistShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task with subtasks, comments and files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			e, err := openEnv(cmd, app, session.RouteTaskDetail)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			cl, err := e.checklist(cmdContext(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			t, ok := cl.Task(id)
			if !ok {
				return writeErr(cmd, errNotFound("task", args[0]))
			}
			return writeOut(cmd, app, format.WithText(map[string]any{"data": t}, func() string {
				return render.Task(t)
			}))
		},
	}
}

func newChecklistProgressCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Overall and per-category progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, session.RouteChecklist)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			cl, err := e.checklist(cmdContext(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			overall := cl.Overall()
			cats := cl.CategoryProgress()
			out := map[string]any{
				"data": map[string]any{
					"overall":    overall,
					"categories": cats,
				},
			}
			return writeOut(cmd, app, format.WithText(out, func() string {
				var sb strings.Builder
				sb.WriteString(render.SectionStyle.Render("Overall") + "  " + render.ProgressBar(overall.Percent, 30) + " " + strconv.Itoa(overall.Percent) + "%\n")
				for _, b := range cats {
					sb.WriteString(b.Label + "  " + render.ProgressBar(b.Percent, 20) + " " + strconv.Itoa(b.Percent) + "%\n")
				}
				return strings.TrimRight(sb.String(), "\n")
			}))
		},
	}
}

// runTaskMutation loads the linked engines, applies fn, saves the snapshot and reports the task.
func runTaskMutation(cmd *cobra.Command, app *App, route session.Route, rawID string, fn func(cl *engine.Checklist, id model.TaskID) (map[string]any, error)) error {
	id, err := parseTaskID(rawID)
	if err != nil {
		return writeErr(cmd, err)
	}
	e, err := openEnv(cmd, app, route)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer e.Close()
	cl, _, _, err := e.connected(cmdContext(cmd))
	if err != nil {
		return writeErr(cmd, err)
	}
	if _, ok := cl.Task(id); !ok {
		return writeErr(cmd, errNotFound("task", rawID))
	}

	var milestone *model.Task
	cl.OnMilestone(func(t model.Task) { milestone = &t })

	meta, err := fn(cl, id)
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := e.saveChecklist(cl); err != nil {
		return writeErr(cmd, err)
	}

	t, _ := cl.Task(id)
	if meta == nil {
		meta = map[string]any{}
	}
	for k, v := range progressMeta(cl) {
		meta[k] = v
	}
	meta["milestone"] = milestone != nil
	out := map[string]any{"data": t, "meta": meta}
	return writeOut(cmd, app, format.WithText(out, func() string {
		s := render.Task(t)
		if milestone != nil {
			s = render.MilestoneStyle.Render("★ Milestone reached: "+milestone.Title) + "\n\n" + s
		}
		return s
	}))
}

func newChecklistToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <task-id>",
		Short: "Toggle a task's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskMutation(cmd, app, session.RouteChecklist, args[0], func(cl *engine.Checklist, id model.TaskID) (map[string]any, error) {
				cl.ToggleTask(id)
				return nil, nil
			})
		},
	}
}

func newChecklistCompleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task complete (no-op when already complete)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskMutation(cmd, app, session.RouteTaskDetail, args[0], func(cl *engine.Checklist, id model.TaskID) (map[string]any, error) {
				return map[string]any{"changed": cl.Complete(id)}, nil
			})
		},
	}
}

func newChecklistSubtaskCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "subtask <task-id> <subtask-id>",
		Short: "Toggle a subtask (the parent task is not affected)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := parseSubtaskID(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return runTaskMutation(cmd, app, session.RouteTaskDetail, args[0], func(cl *engine.Checklist, id model.TaskID) (map[string]any, error) {
				if !cl.ToggleSubtask(id, sid) {
					return nil, errNotFound("subtask", args[1])
				}
				return nil, nil
			})
		},
	}
}

func newChecklistCommentCmd(app *App) *cobra.Command {
	var text string
	var author string

	cmd := &cobra.Command{
		Use:   "comment <task-id>",
		Short: "Add a comment to a task (blank text is ignored)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(author) == "" {
				author = app.cfg.Author
			}
			return runTaskMutation(cmd, app, session.RouteTaskDetail, args[0], func(cl *engine.Checklist, id model.TaskID) (map[string]any, error) {
				c, ok := cl.AddComment(id, author, text)
				if !ok {
					return map[string]any{"added": false}, nil
				}
				return map[string]any{"added": true, "comment": c}, nil
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Comment text")
	cmd.Flags().StringVar(&author, "author", "", "Comment author (default from config)")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newChecklistAttachCmd(app *App) *cobra.Command {
	var paths []string

	cmd := &cobra.Command{
		Use:   "attach <task-id> --file <path> [--file <path>...]",
		Short: "Record file attachments on a task (metadata only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]model.FileInput, 0, len(paths))
			for _, p := range paths {
				fi, err := os.Stat(p)
				if err != nil {
					return writeErr(cmd, err)
				}
				if fi.IsDir() {
					return writeErr(cmd, errNotFound("file", p))
				}
				files = append(files, model.FileInput{Name: filepath.Base(p), SizeBytes: fi.Size()})
			}
			return runTaskMutation(cmd, app, session.RouteTaskDetail, args[0], func(cl *engine.Checklist, id model.TaskID) (map[string]any, error) {
				added, _ := cl.AddFiles(id, files)
				return map[string]any{"added": added}, nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&paths, "file", nil, "File to attach (repeatable)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newChecklistDetachCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "detach <task-id> <file-id>",
		Short: "Remove a file attachment from a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskMutation(cmd, app, session.RouteTaskDetail, args[0], func(cl *engine.Checklist, id model.TaskID) (map[string]any, error) {
				if !cl.RemoveFile(id, args[1]) {
					return nil, errNotFound("file", args[1])
				}
				return nil, nil
			})
		},
	}
}

func newChecklistResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard checklist progress and start again from the seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, app, session.RouteChecklist)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer e.Close()
			if err := e.kv.Remove(store.KeyChecklist); err != nil {
				return writeErr(cmd, err)
			}
			e.journalAppend("checklist.reset", "", nil)
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"reset": true}})
		},
	}
}
