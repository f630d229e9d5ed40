package service

import (
	"context"
	"strings"
	"time"

	"go-gin-tasks/internal/domain"
	"go-gin-tasks/pkg/utils"
)

// TaskInput carries optional fields as sent by the client; nil is "absent".
type TaskInput struct {
	Title       *string
	Description *string
	Status      *string
}

type TaskService struct {
	tasks domain.TaskRepository
	now   func() time.Time
}

func NewTaskService(tasks domain.TaskRepository) *TaskService {
	return &TaskService{tasks: tasks, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source; used by tests.
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

func parseStatus(s string) (domain.TaskStatus, error) {
	st, ok := domain.ParseTaskStatus(s)
	if !ok {
		return "", domain.Invalid("Invalid status")
	}
	return st, nil
}

func (s *TaskService) List(ctx context.Context, ownerID, status, query string) ([]domain.Task, error) {
	var f domain.TaskFilter
	if status != "" {
		st, err := parseStatus(status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	f.Query = strings.TrimSpace(query)
	return s.tasks.List(ctx, ownerID, f)
}

func (s *TaskService) Create(ctx context.Context, ownerID string, in TaskInput) (*domain.Task, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, domain.Invalid("Title is required")
	}
	st := domain.StatusTodo
	if in.Status != nil {
		var err error
		if st, err = parseStatus(*in.Status); err != nil {
			return nil, err
		}
	}
	var desc string
	if in.Description != nil {
		desc = *in.Description
	}

	now := s.now()
	t := &domain.Task{
		ID:          utils.NewID(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(*in.Title),
		Description: desc,
		Status:      st,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update applies the present fields of in. An id that is malformed, unknown
// or owned by someone else is ErrNotFound.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, in TaskInput) (*domain.Task, error) {
	if !utils.ValidID(id) {
		return nil, domain.ErrNotFound
	}
	var ch domain.TaskChanges
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, domain.Invalid("Title cannot be empty")
		}
		ch.Title = &title
	}
	if in.Description != nil {
		ch.Description = in.Description
	}
	if in.Status != nil {
		st, err := parseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		ch.Status = &st
	}
	return s.tasks.Update(ctx, ownerID, id, ch, s.now())
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id string) error {
	if !utils.ValidID(id) {
		return domain.ErrNotFound
	}
	return s.tasks.Delete(ctx, ownerID, id)
}
