package task

import (
	"errors"
	"time"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WithCreator is a Task annotated with its owner's email, a read-only
// join produced by the repo, never a persisted column.
type WithCreator struct {
	Task
	CreatorEmail string `json:"creator_email"`
}

// ListFilter narrows list queries; with pointers if optional, it will be nil.
type ListFilter struct {
	OwnerID *int64
}

var ErrNotFound = errors.New("task not found")

type CreateRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=200"`
	Description string `json:"description" binding:"omitempty,max=1000"`
	Status      Status `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
}

// UpdateRequest is a partial update payload: nil fields keep their stored
// values. At least one field must be present.
type UpdateRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=3,max=200"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Status      *Status `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
}

func (r UpdateRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil
}

// Stats partitions a caller-visible task list by status.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// CountStats derives stats from the same rows a list call would return,
// so the two can never disagree for the same caller.
func CountStats(tasks []WithCreator) Stats {
	s := Stats{Total: len(tasks)}

	for _, t := range tasks {
		switch t.Status {
		case StatusPending:
			s.Pending++
		case StatusInProgress:
			s.InProgress++
		case StatusCompleted:
			s.Completed++
		}
	}

	return s
}
