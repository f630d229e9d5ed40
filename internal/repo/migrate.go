package repo

import (
	"gorm.io/gorm"

	"go-gin-tasks/internal/feature/task"
	"go-gin-tasks/internal/feature/user"
)

// Migrate creates or updates the users and tasks tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&user.UserModel{}, &task.TaskModel{})
}
