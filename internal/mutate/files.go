package mutate

import (
	"strconv"
	"time"

	"onboarding-cli/internal/checklist"
	"onboarding-cli/internal/model"
)

type FilesResult struct {
	Task  *model.Task
	Added []model.Attachment
}

// AddFiles appends one attachment per input, in input order. Names are not de-duplicated.
// newID is called once per file.
func AddFiles(l *checklist.List, taskID model.TaskID, files []model.FileInput, newID func() string, now time.Time) (FilesResult, error) {
	t, ok := l.FindTask(taskID)
	if !ok {
		return FilesResult{}, taskNotFound(taskID)
	}
	added := make([]model.Attachment, 0, len(files))
	for _, f := range files {
		added = append(added, model.Attachment{
			ID:         newID(),
			Name:       f.Name,
			SizeBytes:  f.SizeBytes,
			UploadedAt: now,
		})
	}
	t.Files = append(t.Files, added...)
	return FilesResult{Task: t, Added: added}, nil
}

type RemoveFileResult struct {
	Task    *model.Task
	Removed model.Attachment
}

func RemoveFile(l *checklist.List, taskID model.TaskID, fileID string) (RemoveFileResult, error) {
	t, ok := l.FindTask(taskID)
	if !ok {
		return RemoveFileResult{}, taskNotFound(taskID)
	}
	for i := range t.Files {
		if t.Files[i].ID != fileID {
			continue
		}
		removed := t.Files[i]
		t.Files = append(t.Files[:i:i], t.Files[i+1:]...)
		return RemoveFileResult{Task: t, Removed: removed}, nil
	}
	return RemoveFileResult{}, NotFoundError{Kind: "file", ID: fileID + " (task " + strconv.Itoa(int(taskID)) + ")"}
}
