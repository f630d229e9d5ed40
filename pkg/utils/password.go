package utils

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// Hasher wraps bcrypt so hashing never blocks the calling goroutine past its
// context and never runs more than a fixed number of hashes at once.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

func NewHasher(cost, maxConcurrent int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}
	return &Hasher{cost: cost, sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

func (h *Hasher) Cost() int { return h.cost }

// Hash returns a salted bcrypt digest of pw.
func (h *Hasher) Hash(ctx context.Context, pw string) (string, error) {
	b, err := run(ctx, h.sem, func() ([]byte, error) {
		return bcrypt.GenerateFromPassword([]byte(pw), h.cost)
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether pw matches digest. A malformed digest or a
// cancelled context yields false.
func (h *Hasher) Verify(ctx context.Context, pw, digest string) bool {
	_, err := run(ctx, h.sem, func() ([]byte, error) {
		return nil, bcrypt.CompareHashAndPassword([]byte(digest), []byte(pw))
	})
	return err == nil
}

type result struct {
	b   []byte
	err error
}

func run(ctx context.Context, sem *semaphore.Weighted, fn func() ([]byte, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	done := make(chan result, 1)
	go func() {
		defer sem.Release(1)
		b, err := fn()
		done <- result{b, err}
	}()
	select {
	case r := <-done:
		return r.b, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsContextErr reports whether err came from a cancelled or expired context
// rather than from bcrypt itself.
func IsContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
