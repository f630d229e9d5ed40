package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"go-gin-tasks/internal/domain"
	"go-gin-tasks/pkg/utils"
)

const (
	minNameLen     = 2
	minPasswordLen = 8
	maxEmailLen    = 254 // users.email 为 varchar(255)
)

type PasswordHasher interface {
	Hash(ctx context.Context, pw string) (string, error)
	Verify(ctx context.Context, pw, digest string) bool
}

type TokenIssuer interface {
	Issue(uid string) (string, error)
}

// Session is what a successful signup or login hands back to the client.
type Session struct {
	User  domain.Profile `json:"user"`
	Token string         `json:"token"`
}

type Registration struct {
	Name     string
	Email    string
	Password string
}

type AuthService struct {
	users  domain.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	log    *zap.Logger

	dummyMu sync.Mutex // 计算成功前每次未知邮箱登录都会重试
	dummy   string
}

func NewAuthService(users domain.UserRepository, hasher PasswordHasher, tokens TokenIssuer, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log}
}

// NormalizeEmail is the canonical form used for storage and lookup, which
// makes email uniqueness case-insensitive.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (s *AuthService) Register(ctx context.Context, in Registration) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	switch {
	case utf8.RuneCountInString(name) < minNameLen:
		return nil, s.reject("signup", domain.Invalid("Name is required"))
	case !strings.Contains(email, "@") || len(email) > maxEmailLen:
		return nil, s.reject("signup", domain.Invalid("Valid email required"))
	case utf8.RuneCountInString(in.Password) < minPasswordLen:
		return nil, s.reject("signup", domain.Invalid("Password must be at least 8 characters"))
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, s.reject("signup", domain.ErrEmailTaken)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, s.reject("signup", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return nil, s.reject("signup", domain.Invalid("Password must be at most 72 bytes"))
	}
	if err != nil {
		return nil, s.reject("signup", err)
	}

	u := &domain.User{ID: utils.NewID(), Email: email, Name: name, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, s.reject("signup", err)
	}
	sess, err := s.issue(u)
	if err != nil {
		return nil, s.reject("signup", err)
	}
	recordAuth("signup", resultSuccess)
	s.log.Info("user registered", zap.String("user_id", u.ID))
	return sess, nil
}

// Login reports ErrInvalidCredentials for an unknown email and for a wrong
// password alike.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if !strings.Contains(email, "@") || password == "" {
		return nil, s.reject("login", domain.Invalid("Email and password are required"))
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		// 未知邮箱也走一次 bcrypt，避免耗时差异暴露账号是否存在
		s.hasher.Verify(ctx, password, s.dummyHash(ctx))
		return nil, s.reject("login", domain.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, s.reject("login", err)
	}
	if !s.hasher.Verify(ctx, password, u.PasswordHash) {
		if err := ctx.Err(); err != nil {
			return nil, s.reject("login", err)
		}
		return nil, s.reject("login", domain.ErrInvalidCredentials)
	}

	sess, err := s.issue(u)
	if err != nil {
		return nil, s.reject("login", err)
	}
	recordAuth("login", resultSuccess)
	return sess, nil
}

func (s *AuthService) issue(u *domain.User) (*Session, error) {
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: u.Profile(), Token: tok}, nil
}

func (s *AuthService) dummyHash(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummy == "" {
		h, err := s.hasher.Hash(context.WithoutCancel(ctx), utils.NewID())
		if err != nil {
			s.log.Warn("dummy digest unavailable, will retry", zap.Error(err))
			return ""
		}
		s.dummy = h
	}
	return s.dummy
}

func (s *AuthService) reject(op string, err error) error {
	recordAuth(op, resultOf(err))
	return err
}
