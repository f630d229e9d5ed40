package domain

import (
	"context"
	"time"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

// ParseTaskStatus accepts only the closed set of task statuses.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch st := TaskStatus(s); st {
	case StatusTodo, StatusInProgress, StatusDone:
		return st, true
	}
	return "", false
}

type Task struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type TaskFilter struct {
	Status TaskStatus // empty: any
	Query  string     // case-insensitive substring of title or description
}

// TaskChanges holds the mutable task fields; nil means "leave as is".
type TaskChanges struct {
	Title       *string
	Description *string
	Status      *TaskStatus
}

func (c TaskChanges) Empty() bool {
	return c.Title == nil && c.Description == nil && c.Status == nil
}

// TaskRepository scopes every call by owner. A task owned by someone else
// is indistinguishable from a missing one: both yield ErrNotFound.
type TaskRepository interface {
	List(ctx context.Context, ownerID string, f TaskFilter) ([]Task, error)
	Create(ctx context.Context, t *Task) error
	Update(ctx context.Context, ownerID, id string, ch TaskChanges, now time.Time) (*Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}
