package predictor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zigstory/zigstory/internal/store"
)

// DefaultPoolSize is the number of independent read-only connections the
// predictor keeps warm.
const DefaultPoolSize = 5

// Pool is a small fixed-size set of read-only *sql.DB handles, checked out
// and returned through a buffered channel. It exists so a burst of
// ghost-text requests never waits on a single shared connection, while still
// bounding how many file handles the predictor holds open.
type Pool struct {
	conns chan *sql.DB
}

// NewPool opens size read-only connections against path.
func NewPool(path string, size int) (*Pool, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	p := &Pool{conns: make(chan *sql.DB, size)}
	for i := 0; i < size; i++ {
		db, err := store.OpenReadOnly(path)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("predictor: open pool connection %d: %w", i, err)
		}
		p.conns <- db
	}
	return p, nil
}

// Acquire returns a connection from the pool, blocking until one is free or
// ctx is cancelled.
func (p *Pool) Acquire(ctx context.Context) (*sql.DB, error) {
	select {
	case db := <-p.conns:
		return db, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a connection to the pool.
func (p *Pool) Release(db *sql.DB) {
	p.conns <- db
}

// Close closes every pooled connection. Safe to call once; it drains
// whatever connections are currently checked in.
func (p *Pool) Close() error {
	close(p.conns)
	var firstErr error
	for db := range p.conns {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
