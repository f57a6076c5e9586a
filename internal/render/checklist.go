package render

import (
	"fmt"
	"strings"

	"onboarding-cli/internal/model"
	"onboarding-cli/internal/progress"
)

// Checklist renders every task grouped by category with per-category progress.
func Checklist(tasks []model.Task, overall progress.Breakdown, cats []progress.Breakdown) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Onboarding checklist"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s %3d%%  (%d/%d)\n", ProgressBar(overall.Percent, 30), overall.Percent, overall.Done, overall.Total))

	for _, c := range cats {
		sb.WriteString("\n")
		sb.WriteString(SectionStyle.Render(c.Label))
		sb.WriteString(MutedStyle.Render(fmt.Sprintf("  %d/%d  %d%%", c.Done, c.Total, c.Percent)))
		sb.WriteString("\n")
		for _, t := range tasks {
			if t.Category != c.Label {
				continue
			}
			sb.WriteString("  " + taskLine(t) + "\n")
		}
	}
	if len(tasks) == 0 {
		sb.WriteString(MutedStyle.Render("No tasks."))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func taskLine(t model.Task) string {
	line := fmt.Sprintf("%s %2d  %s", check(t.Completed), t.ID, t.Title)
	if t.Milestone {
		line += " " + MilestoneStyle.Render("★")
	}
	meta := []string{}
	if n := len(t.Subtasks); n > 0 {
		done := 0
		for _, st := range t.Subtasks {
			if st.Completed {
				done++
			}
		}
		meta = append(meta, fmt.Sprintf("%d/%d subtasks", done, n))
	}
	if t.DueDate != nil {
		meta = append(meta, "due "+string(*t.DueDate))
	}
	if n := len(t.Comments); n > 0 {
		meta = append(meta, fmt.Sprintf("%d comments", n))
	}
	if n := len(t.Files); n > 0 {
		meta = append(meta, fmt.Sprintf("%d files", n))
	}
	if len(meta) > 0 {
		line += "  " + MutedStyle.Render(strings.Join(meta, " · "))
	}
	return line
}

// Task renders the detail view of one task.
func Task(t model.Task) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(fmt.Sprintf("#%d %s", t.ID, t.Title)))
	sb.WriteString("\n")
	status := "open"
	if t.Completed {
		status = DoneStyle.Render("completed")
	}
	sb.WriteString(MutedStyle.Render(t.Category) + "  " + status)
	if t.Milestone {
		sb.WriteString("  " + MilestoneStyle.Render("milestone"))
	}
	if t.DueDate != nil {
		sb.WriteString("  " + MutedStyle.Render("due "+string(*t.DueDate)))
	}
	sb.WriteString("\n")
	if d := strings.TrimSpace(t.Description); d != "" {
		sb.WriteString("\n" + d + "\n")
	}
	if len(t.Subtasks) > 0 {
		sb.WriteString("\n" + SectionStyle.Render("Subtasks") + "\n")
		for _, st := range t.Subtasks {
			sb.WriteString(fmt.Sprintf("  %s %d  %s\n", check(st.Completed), st.ID, st.Title))
		}
	}
	if len(t.Comments) > 0 {
		sb.WriteString("\n" + SectionStyle.Render("Comments") + "\n")
		for _, c := range t.Comments {
			sb.WriteString(fmt.Sprintf("  %s %s\n    %s\n",
				c.Author, MutedStyle.Render(c.Timestamp.Local().Format("2006-01-02 15:04")), c.Text))
		}
	}
	if len(t.Files) > 0 {
		sb.WriteString("\n" + SectionStyle.Render("Files") + "\n")
		for _, f := range t.Files {
			sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", f.ID, f.Name, MutedStyle.Render(humanSize(f.SizeBytes))))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
