package database

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

var ErrClosed = errors.New("database: provider closed")

// Source hands out the shared pool for one operation.
type Source interface {
	DB(ctx context.Context) (*gorm.DB, error)
}

// Static is a Source over an already opened pool.
type Static struct{ Conn *gorm.DB }

func (s Static) DB(ctx context.Context) (*gorm.DB, error) { return s.Conn.WithContext(ctx), nil }

// Provider opens the pool on first use and closes it when the last owner
// releases it. Concurrent first callers share a single open; a failed open
// is retried by the next caller. Waiting for the open is bounded by each
// caller's ctx.
type Provider struct {
	open func() (*gorm.DB, error)
	init func(*gorm.DB) error // 首次打开后执行，如 AutoMigrate

	sf singleflight.Group

	mu     sync.Mutex
	db     *gorm.DB
	refs   int
	closed bool
}

func NewProvider(open func() (*gorm.DB, error), init func(*gorm.DB) error) *Provider {
	return &Provider{open: open, init: init}
}

// DB returns the pool bound to ctx, opening it if needed.
func (p *Provider) DB(ctx context.Context) (*gorm.DB, error) {
	db, err := p.current()
	if err != nil || db != nil {
		if db != nil {
			db = db.WithContext(ctx)
		}
		return db, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// open 不可取消：慢连接在后台继续，调用方按自己的截止时间返回
	ch := p.sf.DoChan("open", p.connect)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*gorm.DB).WithContext(ctx), nil
	}
}

func (p *Provider) current() (*gorm.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	return p.db, nil
}

func (p *Provider) connect() (any, error) {
	if db, err := p.current(); err != nil || db != nil {
		return db, err
	}
	db, err := p.open()
	if err != nil {
		return nil, err
	}
	if p.init != nil {
		if err := p.init(db); err != nil {
			closeDB(db)
			return nil, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		closeDB(db)
		return nil, ErrClosed
	}
	p.db = db
	return db, nil
}

// Retain registers an owner of the pool.
func (p *Provider) Retain() {
	p.mu.Lock()
	p.refs++
	p.mu.Unlock()
}

// Release drops an owner. The last release closes the pool for good.
func (p *Provider) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refs == 0 {
		return nil
	}
	p.refs--
	if p.refs > 0 {
		return nil
	}
	p.closed = true
	if p.db == nil {
		return nil
	}
	err := closeDB(p.db)
	p.db = nil
	return err
}

// Ping opens the pool if needed and checks connectivity.
func (p *Provider) Ping(ctx context.Context) error {
	db, err := p.DB(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
