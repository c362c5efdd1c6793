// Package models defines the core domain types for taskdeck.
package models

// DateLayout is the wire and storage form of every date field.
const DateLayout = "2006-01-02"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	StatusNotStarted TaskStatus = "not-started"
	StatusInProgress TaskStatus = "in-progress"
	StatusWaiting    TaskStatus = "waiting"
	StatusCompleted  TaskStatus = "completed"
)

// Label returns the human-readable form used in list output and sync rows.
func (s TaskStatus) Label() string {
	switch s {
	case StatusNotStarted:
		return "Not started"
	case StatusInProgress:
		return "In progress"
	case StatusWaiting:
		return "Waiting"
	case StatusCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

// IsValid reports whether s is one of the four known statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusWaiting, StatusCompleted:
		return true
	}
	return false
}

// Priority represents task priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// DueStatus is the derived urgency classification of a task.
type DueStatus string

const (
	DueNormal  DueStatus = "normal"
	DueSoon    DueStatus = "due-soon"
	DueOverdue DueStatus = "overdue"
)

// Task is a unit of tracked work. The store is the sole owner of every Task;
// consumers receive copies and submit changes back through store operations.
//
// Dates are date-only strings in ISO form (2006-01-02). An empty
// ActualCompletedDate means "not completed".
type Task struct {
	ID           string `json:"id"`
	TaskNumber   string `json:"taskNumber"`
	AssignedDate string `json:"assignedDate"`
	System       string `json:"system"`
	Category     string `json:"category"`
	Assigner     string `json:"assigner"`
	Assignee     string `json:"assignee"`
	Content      string `json:"content"`
	Notes        string `json:"notes"`

	TargetDate          string `json:"targetDate"`
	ActualCompletedDate string `json:"actualCompletedDate"`

	Status   TaskStatus `json:"status"`
	Progress int        `json:"progress"`
	Priority Priority   `json:"priority"`

	Tags    []string      `json:"tags"`
	Reports []ReportEntry `json:"reports"`

	SyncedCalendar bool `json:"syncedCalendar"`
	SyncedSheet    bool `json:"syncedSheet"`
}

// ReportEntry is an immutable-once-created progress log line. Reports is an
// append-only sequence; insertion order is chronological order, with Timestamp
// as the tiebreaker finer than the Date string.
type ReportEntry struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Reporter  string `json:"reporter"`
	Content   string `json:"content"`
	Progress  int    `json:"progress"`
	Timestamp int64  `json:"timestamp"`
}

// Proposal is the structured record extracted from free text by the
// extraction adapter. TargetDate may be empty when no deadline was mentioned.
type Proposal struct {
	Content            string   `json:"content"`
	System             string   `json:"system"`
	Category           string   `json:"category"`
	Assigner           string   `json:"assigner"`
	Assignee           string   `json:"assignee"`
	TargetDate         string   `json:"targetDate"`
	Priority           Priority `json:"priority"`
	Tags               []string `json:"tags"`
	ShouldSyncCalendar bool     `json:"shouldSyncCalendar"`
	ShouldSyncSheet    bool     `json:"shouldSyncSheet"`
}

// DefaultSystems and DefaultCategories are the open option lists offered for
// the system/category fields. Values outside these lists are accepted.
var (
	DefaultSystems    = []string{"sales", "inventory", "accounting", "hr", "infra", "other"}
	DefaultCategories = []string{"development", "maintenance", "investigation", "meeting", "document", "other"}
)

// Clone returns a deep copy of the task so callers can hand values out
// without sharing the tags/reports backing arrays.
func (t Task) Clone() Task {
	c := t
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	if t.Reports != nil {
		c.Reports = append([]ReportEntry(nil), t.Reports...)
	}
	return c
}
