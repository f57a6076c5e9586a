package mutate

import (
	"strings"
	"time"

	"onboarding-cli/internal/checklist"
	"onboarding-cli/internal/model"
)

type CommentResult struct {
	Task    *model.Task
	Comment model.Comment
}

// AddComment appends a comment to the task. Whitespace-only text is rejected with ErrEmptyComment.
func AddComment(l *checklist.List, taskID model.TaskID, id, author, text string, now time.Time) (CommentResult, error) {
	if strings.TrimSpace(text) == "" {
		return CommentResult{}, ErrEmptyComment
	}
	t, ok := l.FindTask(taskID)
	if !ok {
		return CommentResult{}, taskNotFound(taskID)
	}
	c := model.Comment{
		ID:        id,
		Author:    strings.TrimSpace(author),
		Text:      text,
		Timestamp: now,
	}
	t.Comments = append(t.Comments, c)
	return CommentResult{Task: t, Comment: c}, nil
}
