package model

import "time"

// TaskID identifies a task in the full checklist catalog.
type TaskID int

// SubtaskID identifies a subtask within its parent task.
type SubtaskID int

// ItemID identifies an entry in the dashboard's onboarding-item catalog.
// It is a different identifier space than TaskID; see bridge.Translation.
type ItemID int

type Subtask struct {
	ID        SubtaskID `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Completed bool      `json:"completed" yaml:"completed"`
}

type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type Attachment struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"sizeBytes"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// FileInput is the caller-side description of a file being attached.
type FileInput struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"sizeBytes"`
}

type Task struct {
	ID          TaskID       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description,omitempty" yaml:"description"`
	Category    string       `json:"category" yaml:"category"`
	Completed   bool         `json:"completed" yaml:"completed"`
	DueDate     *Date        `json:"dueDate,omitempty" yaml:"dueDate"`
	Milestone   bool         `json:"milestone" yaml:"milestone"`
	Subtasks    []Subtask    `json:"subtasks" yaml:"subtasks"`
	Comments    []Comment    `json:"comments" yaml:"-"`
	Files       []Attachment `json:"files" yaml:"-"`
}

// Clone returns a deep copy so callers can't mutate engine-owned slices.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	out.Subtasks = append([]Subtask(nil), t.Subtasks...)
	out.Comments = append([]Comment(nil), t.Comments...)
	out.Files = append([]Attachment(nil), t.Files...)
	return out
}

// Date is a calendar date with no time-of-day, encoded as YYYY-MM-DD.
type Date string

func (d Date) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation("2006-01-02", string(d), loc)
}

type DashboardItem struct {
	ID          ItemID `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
}

type EventType string

const (
	EventMeeting   EventType = "meeting"
	EventMilestone EventType = "milestone"
	EventTraining  EventType = "training"
	EventSocial    EventType = "social"
)

type CalendarEvent struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description"`
	Date        time.Time `json:"date" yaml:"date"`
	StartTime   string    `json:"startTime" yaml:"startTime"`
	EndTime     string    `json:"endTime" yaml:"endTime"`
	Type        EventType `json:"type" yaml:"type"`
	Location    *string   `json:"location,omitempty" yaml:"location"`
	Attendees   []string  `json:"attendees,omitempty" yaml:"attendees"`
	Reminder    bool      `json:"reminder" yaml:"reminder"`
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleMentor   Role = "mentor"
	RoleEmployee Role = "employee"
	RoleUser     Role = "user"
)

// Event is a journal entry describing one committed mutation.
type Event struct {
	ID       string    `json:"id"`
	TS       time.Time `json:"ts"`
	Context  string    `json:"context"`
	Type     string    `json:"type"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload"`
}
