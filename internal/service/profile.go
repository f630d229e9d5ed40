package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"go-gin-tasks/internal/domain"
)

const maxBioLen = 240

type ProfileCache interface {
	Load(ctx context.Context, userID string, load func(context.Context) (*domain.Profile, error)) (*domain.Profile, error)
	Invalidate(ctx context.Context, userID string) error
}

type ProfileUpdate struct {
	Name *string
	Bio  *string
}

type ProfileService struct {
	users domain.UserRepository
	cache ProfileCache // nil disables caching
	log   *zap.Logger
}

func NewProfileService(users domain.UserRepository, cache ProfileCache, log *zap.Logger) *ProfileService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileService{users: users, cache: cache, log: log}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	load := func(ctx context.Context) (*domain.Profile, error) {
		u, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		p := u.Profile()
		return &p, nil
	}
	if s.cache == nil {
		return load(ctx)
	}
	return s.cache.Load(ctx, userID, load)
}

func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileUpdate) (*domain.Profile, error) {
	var ch domain.ProfileChanges
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if utf8.RuneCountInString(name) < minNameLen {
			return nil, domain.Invalid("Name too short")
		}
		ch.Name = &name
	}
	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > maxBioLen {
			return nil, domain.Invalid("Bio too long")
		}
		ch.Bio = in.Bio
	}

	u, err := s.users.UpdateProfile(ctx, userID, ch)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && !ch.Empty() {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			s.log.Warn("profile cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	p := u.Profile()
	return &p, nil
}
