package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-gin-tasks/internal/core/auth"
	"go-gin-tasks/internal/core/cache"
	"go-gin-tasks/internal/core/database"
	"go-gin-tasks/internal/domain"
	"go-gin-tasks/internal/repo"
	"go-gin-tasks/pkg/utils"
)

type fixture struct {
	users *repo.UserRepo
	tasks *repo.TaskRepo
	jwt   *auth.JWTer
	auth  *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	src := database.Static{Conn: db}
	f := &fixture{
		users: repo.NewUserRepo(src),
		tasks: repo.NewTaskRepo(src),
		jwt:   &auth.JWTer{Secret: []byte(strings.Repeat("k", 32)), Issuer: "test"},
	}
	f.auth = NewAuthService(f.users, utils.NewHasher(bcrypt.MinCost, 4), f.jwt, nil)
	return f
}

func validationMsg(t *testing.T, err error) string {
	t.Helper()
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Msg
}

func sp(s string) *string { return &s }

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.auth.Register(ctx, Registration{Name: "  Jane Doe ", Email: " Jane@Example.COM", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", sess.User.Name)
	assert.Equal(t, "jane@example.com", sess.User.Email)
	assert.Equal(t, "", sess.User.Bio)

	uid, ok := f.jwt.Verify(sess.Token)
	require.True(t, ok)
	assert.Equal(t, sess.User.ID, uid)

	stored, err := f.users.FindByID(ctx, uid)
	require.NoError(t, err)
	assert.NotEqual(t, "password1", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		in   Registration
		msg  string
	}{
		{"short name", Registration{Name: "J", Email: "j@x.io", Password: "password1"}, "Name is required"},
		{"blank name", Registration{Name: "   ", Email: "j@x.io", Password: "password1"}, "Name is required"},
		{"no at", Registration{Name: "Jane", Email: "jane.example.com", Password: "password1"}, "Valid email required"},
		{"short password", Registration{Name: "Jane", Email: "j@x.io", Password: "1234567"}, "Password must be at least 8 characters"},
		{"name checked first", Registration{Name: "", Email: "", Password: ""}, "Name is required"},
		{"too long", Registration{Name: "Jane", Email: "j@x.io", Password: strings.Repeat("p", 73)}, "Password must be at most 72 bytes"},
		{"email too long", Registration{Name: "Jane", Email: strings.Repeat("a", 250) + "@x.io", Password: "password1"}, "Valid email required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.auth.Register(context.Background(), tc.in)
			assert.Equal(t, tc.msg, validationMsg(t, err))
		})
	}

	_, err := f.auth.Register(context.Background(), Registration{Name: "Jane", Email: "j@x.io", Password: "12345678"})
	assert.NoError(t, err, "exactly eight characters is accepted")
}

func TestRegister_LongNameIsStored(t *testing.T) {
	f := newFixture(t)
	name := strings.Repeat("n", 500)
	sess, err := f.auth.Register(context.Background(), Registration{Name: name, Email: "long@x.io", Password: "password1"})
	require.NoError(t, err)
	stored, err := f.users.FindByID(context.Background(), sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, name, stored.Name)
}

func TestRegister_DuplicateEmailCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, Registration{Name: "Jane", Email: "jane@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, Registration{Name: "Other", Email: "JANE@example.com", Password: "password2"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.auth.Register(ctx, Registration{Name: "Jane", Email: "jane@example.com", Password: "password1"})
	require.NoError(t, err)

	sess, err := f.auth.Login(ctx, "Jane@Example.com ", "password1")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, sess.User.ID)
	uid, ok := f.jwt.Verify(sess.Token)
	assert.True(t, ok)
	assert.Equal(t, reg.User.ID, uid)

	_, err = f.auth.Login(ctx, "jane@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	for _, in := range [][2]string{{"", "password1"}, {"jane@example.com", ""}, {"jane", "password1"}} {
		_, err = f.auth.Login(ctx, in[0], in[1])
		assert.Equal(t, "Email and password are required", validationMsg(t, err))
	}
}

func TestLogin_CancelledContext(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Register(context.Background(), Registration{Name: "Jane", Email: "jane@example.com", Password: "password1"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.auth.Login(ctx, "jane@example.com", "password1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestResultOf(t *testing.T) {
	assert.Equal(t, resultInvalid, resultOf(domain.Invalid("x")))
	assert.Equal(t, resultDenied, resultOf(domain.ErrInvalidCredentials))
	assert.Equal(t, resultConflict, resultOf(domain.ErrEmailTaken))
	assert.Equal(t, resultError, resultOf(context.Canceled))
}

func TestProfile_GetAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.auth.Register(ctx, Registration{Name: "Jane", Email: "jane@example.com", Password: "password1"})
	require.NoError(t, err)
	uid := sess.User.ID

	svc := NewProfileService(f.users, nil, nil)
	p, err := svc.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "Jane", p.Name)

	p, err = svc.Update(ctx, uid, ProfileUpdate{Name: sp("  Janet "), Bio: sp(strings.Repeat("é", maxBioLen))})
	require.NoError(t, err)
	assert.Equal(t, "Janet", p.Name)
	assert.Equal(t, maxBioLen, len([]rune(p.Bio)))

	_, err = svc.Update(ctx, uid, ProfileUpdate{Bio: sp(strings.Repeat("b", maxBioLen+1))})
	assert.Equal(t, "Bio too long", validationMsg(t, err))
	_, err = svc.Update(ctx, uid, ProfileUpdate{Name: sp(" J ")})
	assert.Equal(t, "Name too short", validationMsg(t, err))

	unchanged, err := svc.Update(ctx, uid, ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "Janet", unchanged.Name)

	_, err = svc.Get(ctx, utils.NewID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Update(ctx, utils.NewID(), ProfileUpdate{Name: sp("Ghost")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfile_CacheInvalidatedOnUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.auth.Register(ctx, Registration{Name: "Jane", Email: "jane@example.com", Password: "password1"})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	svc := NewProfileService(f.users, cache.NewProfileCache(c, time.Minute), nil)

	_, err = svc.Get(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists("profile:"+sess.User.ID))

	_, err = svc.Update(ctx, sess.User.ID, ProfileUpdate{Bio: sp("hello")})
	require.NoError(t, err)
	assert.False(t, mr.Exists("profile:"+sess.User.ID))

	p, err := svc.Get(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Bio)
}

func newTaskService(f *fixture) *TaskService {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var n int
	return NewTaskService(f.tasks).WithClock(func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	})
}

func TestTasks_CreateDefaults(t *testing.T) {
	f := newFixture(t)
	svc := newTaskService(f)
	ctx := context.Background()
	owner := utils.NewID()

	task, err := svc.Create(ctx, owner, TaskInput{Title: sp("  Write docs ")})
	require.NoError(t, err)
	assert.Equal(t, "Write docs", task.Title)
	assert.Equal(t, "", task.Description)
	assert.Equal(t, domain.StatusTodo, task.Status)
	assert.Equal(t, owner, task.OwnerID)
	assert.True(t, utils.ValidID(task.ID))
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)

	_, err = svc.Create(ctx, owner, TaskInput{})
	assert.Equal(t, "Title is required", validationMsg(t, err))
	_, err = svc.Create(ctx, owner, TaskInput{Title: sp("   ")})
	assert.Equal(t, "Title is required", validationMsg(t, err))
	_, err = svc.Create(ctx, owner, TaskInput{Title: sp("x"), Status: sp("blocked")})
	assert.Equal(t, "Invalid status", validationMsg(t, err))
}

func TestTasks_LongTitleIsStored(t *testing.T) {
	f := newFixture(t)
	svc := newTaskService(f)
	ctx := context.Background()
	owner := utils.NewID()

	title := strings.Repeat("t", 1000)
	task, err := svc.Create(ctx, owner, TaskInput{Title: sp(title)})
	require.NoError(t, err)
	longer := title + "!"
	upd, err := svc.Update(ctx, owner, task.ID, TaskInput{Title: &longer})
	require.NoError(t, err)
	assert.Equal(t, longer, upd.Title)
}

func TestTasks_ListFilters(t *testing.T) {
	f := newFixture(t)
	svc := newTaskService(f)
	ctx := context.Background()
	owner := utils.NewID()

	_, err := svc.Create(ctx, owner, TaskInput{Title: sp("Write spec")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, TaskInput{Title: sp("Ship it"), Status: sp("done")})
	require.NoError(t, err)

	all, err := svc.List(ctx, owner, "", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ship it", all[0].Title)

	done, err := svc.List(ctx, owner, "done", "")
	require.NoError(t, err)
	require.Len(t, done, 1)

	hits, err := svc.List(ctx, owner, "", "  SPEC ")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Write spec", hits[0].Title)

	_, err = svc.List(ctx, owner, "archived", "")
	assert.Equal(t, "Invalid status", validationMsg(t, err))

	none, err := svc.List(ctx, utils.NewID(), "", "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestTasks_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	svc := newTaskService(f)
	ctx := context.Background()
	owner, other := utils.NewID(), utils.NewID()

	task, err := svc.Create(ctx, owner, TaskInput{Title: sp("Write spec"), Description: sp("draft")})
	require.NoError(t, err)

	upd, err := svc.Update(ctx, owner, task.ID, TaskInput{Status: sp("done")})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, upd.Status)
	assert.Equal(t, "Write spec", upd.Title)
	assert.Equal(t, "draft", upd.Description)
	assert.True(t, upd.UpdatedAt.After(task.UpdatedAt))

	_, err = svc.Update(ctx, owner, task.ID, TaskInput{Title: sp("  ")})
	assert.Equal(t, "Title cannot be empty", validationMsg(t, err))
	_, err = svc.Update(ctx, owner, task.ID, TaskInput{Status: sp("DONE")})
	assert.Equal(t, "Invalid status", validationMsg(t, err))

	_, err = svc.Update(ctx, other, task.ID, TaskInput{Status: sp("todo")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Update(ctx, owner, "not-a-uuid", TaskInput{Status: sp("todo")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, other, task.ID), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, owner, "42"), domain.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, owner, task.ID))
	assert.ErrorIs(t, svc.Delete(ctx, owner, task.ID), domain.ErrNotFound)
}

// flakyHasher fails its first Hash call and records every digest Verify sees.
type flakyHasher struct {
	mu       sync.Mutex
	hashes   int
	verified []string
}

func (h *flakyHasher) Hash(_ context.Context, pw string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hashes++
	if h.hashes == 1 {
		return "", errors.New("entropy unavailable")
	}
	return "digest:" + pw, nil
}

func (h *flakyHasher) Verify(_ context.Context, _, digest string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.verified = append(h.verified, digest)
	return false
}

func TestLogin_UnknownEmailRetriesDummyDigest(t *testing.T) {
	f := newFixture(t)
	h := &flakyHasher{}
	svc := NewAuthService(f.users, h, f.jwt, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, "ghost@x.io", "password1")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}

	require.Len(t, h.verified, 3)
	assert.Equal(t, "", h.verified[0])
	assert.NotEmpty(t, h.verified[1])
	assert.Equal(t, h.verified[1], h.verified[2])
	assert.Equal(t, 2, h.hashes, "digest is kept once computed")
}
