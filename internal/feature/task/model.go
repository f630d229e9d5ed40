package task

import (
	"time"

	"go-gin-tasks/internal/domain"
)

type TaskModel struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	OwnerID     string `gorm:"index:idx_tasks_owner_created,priority:1;type:varchar(36);not null"`
	Title       string `gorm:"type:text;not null"`
	Description string `gorm:"type:text;not null"`
	Status      string `gorm:"size:16;not null;default:todo"`

	CreatedAt time.Time `gorm:"index:idx_tasks_owner_created,priority:2"`
	UpdatedAt time.Time
}

func (TaskModel) TableName() string { return "tasks" }

func FromDomain(t *domain.Task) *TaskModel {
	return &TaskModel{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (m *TaskModel) ToDomain() domain.Task {
	return domain.Task{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Description: m.Description,
		Status:      domain.TaskStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
