//go:build integration

package repo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"go-gin-tasks/internal/core/database"
	"go-gin-tasks/internal/domain"
	"go-gin-tasks/pkg/utils"
)

func newPostgresSource(t *testing.T) *database.Provider {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tasks"),
		postgres.WithUsername("app"),
		postgres.WithPassword("app"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, pg.Terminate(context.Background())) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	p := database.NewProvider(func() (*gorm.DB, error) {
		return database.NewGorm(database.Opts{Driver: "postgres", DSN: dsn, MaxOpenConns: 5})
	}, Migrate)
	p.Retain()
	t.Cleanup(func() { _ = p.Release() })
	return p
}

func TestPostgres_UserAndTaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newPostgresSource(t)
	users, tasks := NewUserRepo(src), NewTaskRepo(src)

	u := newUser("jane@example.com")
	require.NoError(t, users.Create(ctx, u))
	assert.ErrorIs(t, users.Create(ctx, newUser("jane@example.com")), domain.ErrEmailTaken)

	now := time.Now().UTC().Truncate(time.Microsecond)
	for i, title := range []string{"Write spec", "50% off_sale"} {
		at := now.Add(time.Duration(i) * time.Second)
		require.NoError(t, tasks.Create(ctx, &domain.Task{
			ID: utils.NewID(), OwnerID: u.ID, Title: title, Status: domain.StatusTodo, CreatedAt: at, UpdatedAt: at,
		}))
	}

	got, err := tasks.List(ctx, u.ID, domain.TaskFilter{Query: "SPEC"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Write spec", got[0].Title)

	got, err = tasks.List(ctx, u.ID, domain.TaskFilter{Query: "%"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "50% off_sale", got[0].Title)

	got, err = tasks.List(ctx, u.ID, domain.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "50% off_sale", got[0].Title)

	done := domain.StatusDone
	upd, err := tasks.Update(ctx, u.ID, got[1].ID, domain.TaskChanges{Status: &done}, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, upd.Status)

	_, err = tasks.Update(ctx, utils.NewID(), got[1].ID, domain.TaskChanges{Status: &done}, now)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, tasks.Delete(ctx, utils.NewID(), got[1].ID), domain.ErrNotFound)
	require.NoError(t, tasks.Delete(ctx, u.ID, got[1].ID))
}

func TestPostgres_LongTextColumns(t *testing.T) {
	ctx := context.Background()
	src := newPostgresSource(t)
	users, tasks := NewUserRepo(src), NewTaskRepo(src)

	u := newUser(strings.Repeat("e", 240) + "@example.com")
	u.Name = strings.Repeat("名", 500)
	require.NoError(t, users.Create(ctx, u))

	got, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Name, got.Name)

	now := time.Now().UTC()
	title := strings.Repeat("t", 2000)
	require.NoError(t, tasks.Create(ctx, &domain.Task{
		ID: utils.NewID(), OwnerID: u.ID, Title: title, Status: domain.StatusTodo, CreatedAt: now, UpdatedAt: now,
	}))
	list, err := tasks.List(ctx, u.ID, domain.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, title, list[0].Title)
}
