package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"go-gin-tasks/internal/core/database"
	"go-gin-tasks/internal/domain"
	"go-gin-tasks/internal/feature/task"
)

// TaskRepo keys every statement on (id, owner_id); rows of other owners are
// never read or written.
type TaskRepo struct{ src database.Source }

func NewTaskRepo(src database.Source) *TaskRepo { return &TaskRepo{src: src} }

func (r *TaskRepo) List(ctx context.Context, ownerID string, f domain.TaskFilter) ([]domain.Task, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Model(&task.TaskModel{}).Where("owner_id = ?", ownerID)
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!')", like, like)
	}

	var rows []task.TaskModel
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("tasks.list: %w", err)
	}
	out := make([]domain.Task, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	db, err := r.src.DB(ctx)
	if err != nil {
		return err
	}
	m := task.FromDomain(t)
	if err := db.Create(m).Error; err != nil {
		return fmt.Errorf("tasks.create: %w", err)
	}
	t.CreatedAt, t.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *TaskRepo) Update(ctx context.Context, ownerID, id string, ch domain.TaskChanges, now time.Time) (*domain.Task, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return nil, err
	}
	var m task.TaskModel
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).Take(&m).Error; err != nil {
			return err
		}
		if ch.Empty() {
			return nil
		}
		set := map[string]any{}
		if ch.Title != nil {
			m.Title = *ch.Title
			set["title"] = m.Title
		}
		if ch.Description != nil {
			m.Description = *ch.Description
			set["description"] = m.Description
		}
		if ch.Status != nil {
			m.Status = string(*ch.Status)
			set["status"] = m.Status
		}
		m.UpdatedAt = now
		set["updated_at"] = now
		return tx.Model(&task.TaskModel{}).Where("id = ? AND owner_id = ?", id, ownerID).Updates(set).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tasks.update: %w", err)
	}
	t := m.ToDomain()
	return &t, nil
}

func (r *TaskRepo) Delete(ctx context.Context, ownerID, id string) error {
	db, err := r.src.DB(ctx)
	if err != nil {
		return err
	}
	res := db.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&task.TaskModel{})
	if res.Error != nil {
		return fmt.Errorf("tasks.delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// escapeLike makes s match literally inside a LIKE ... ESCAPE '!' pattern.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
