package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"go-gin-tasks/internal/core/database"
	"go-gin-tasks/internal/domain"
	"go-gin-tasks/internal/feature/user"
)

type UserRepo struct{ src database.Source }

func NewUserRepo(src database.Source) *UserRepo { return &UserRepo{src: src} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	db, err := r.src.DB(ctx)
	if err != nil {
		return err
	}
	m := user.FromDomain(u)
	if err := db.Create(m).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("users.create: %w", err)
	}
	u.CreatedAt, u.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepo) findOne(ctx context.Context, cond string, arg string) (*domain.User, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return nil, err
	}
	var m user.UserModel
	err = db.Where(cond, arg).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users.find: %w", err)
	}
	return m.ToDomain(), nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id string, ch domain.ProfileChanges) (*domain.User, error) {
	db, err := r.src.DB(ctx)
	if err != nil {
		return nil, err
	}
	var m user.UserModel
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&m).Error; err != nil {
			return err
		}
		if ch.Empty() {
			return nil
		}
		set := map[string]any{}
		if ch.Name != nil {
			m.Name = *ch.Name
			set["name"] = m.Name
		}
		if ch.Bio != nil {
			m.Bio = *ch.Bio
			set["bio"] = m.Bio
		}
		m.UpdatedAt = time.Now().UTC()
		set["updated_at"] = m.UpdatedAt
		return tx.Model(&user.UserModel{}).Where("id = ?", id).Updates(set).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users.update: %w", err)
	}
	return m.ToDomain(), nil
}
