package domain

import "time"

// TaskStatus tracks a stand-alone task's state.
type TaskStatus string

const (
	// TaskStatusOpen is the initial state for STRAY tasks.
	TaskStatusOpen TaskStatus = "OPEN"
	// TaskStatusNeedsInfo marks tasks created from INFO_REQUEST messages.
	TaskStatusNeedsInfo TaskStatus = "NEEDS_INFO"
	TaskStatusDone      TaskStatus = "DONE"
)

const defaultTaskPriority = 5

// Task is a stand-alone task created from a STRAY or INFO_REQUEST
// classification, not attached to any listing.
type Task struct {
	ID          string     `json:"id"`
	RealtorID   string     `json:"realtor_id,omitempty"`
	TaskKey     TaskKey    `json:"task_key"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    int        `json:"priority"`
	DueDate     string     `json:"due_date,omitempty"`
	Notes       []string   `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewTask builds a task from a classification, applying the fallbacks the
// intake pipeline guarantees (a title, a task key, a default priority).
func NewTask(c Classification, realtorID, description string, infoRequest bool) Task {
	status := TaskStatusOpen
	if infoRequest {
		status = TaskStatusNeedsInfo
	}
	name := c.TaskTitle
	if name == "" {
		name = "Untitled Task"
	}
	key := c.TaskKey
	if key == "" {
		key = TaskKeyOpsMiscTask
	}
	return Task{
		RealtorID:   realtorID,
		TaskKey:     key,
		Name:        name,
		Description: description,
		Status:      status,
		Priority:    defaultTaskPriority,
		DueDate:     c.DueDate,
		Notes:       c.Explanations,
	}
}
