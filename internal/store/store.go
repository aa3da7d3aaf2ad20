// Package store is the shared SQLite engine underneath zigstory's writer,
// predictor and browser: schema, journaling/locking, and the probe-based
// migrator.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// ErrStoreOpenFailed is returned when the database path is not creatable.
var ErrStoreOpenFailed = errors.New("store: failed to open database")

// ErrStoreCorrupt is returned when the file exists but is unreadable as a
// database.
var ErrStoreCorrupt = errors.New("store: database file is corrupt")

// busyTimeout bounds how long a reader waits on a transient write lock
// before surfacing a busy error.
const busyTimeout = 1000 * time.Millisecond

// walCheckpointInterval is how often the writer connection checkpoints the
// WAL file to bound its growth.
const walCheckpointInterval = 5 * time.Minute

// Store owns the on-disk database: the single writable connection, the
// prepared-statement cache shared by Writer, and the background WAL
// checkpoint loop. Readers (Predictor, Browser, analytics) obtain their own
// read-only connections via OpenReadOnly rather than sharing this one.
type Store struct {
	db        *sql.DB
	path      string
	logger    *slog.Logger
	stmts     map[string]*sql.Stmt
	stmtMu    sync.RWMutex
	stopCh    chan struct{}
	stoppedCh chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Open creates the database file if absent, applies WAL/synchronization/
// busy-timeout pragmas, runs the Migrator, and returns a writable handle.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreOpenFailed, err)
	}

	db, err := sql.Open("sqlite", writeDSN(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreOpenFailed, err)
	}
	// A single writer connection serializes writes at the driver level; the
	// WAL journal is what keeps readers from blocking on it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, classifyOpenError(err)
	}

	if err := createSchemaIfMissing(ctx, db); err != nil {
		db.Close()
		return nil, classifyOpenError(err)
	}

	s := &Store{
		db:        db,
		path:      path,
		logger:    slog.Default(),
		stmts:     make(map[string]*sql.Stmt),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}

	if err := Migrate(ctx, db, s.logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migration failed: %w", err)
	}

	go s.walCheckpointLoop()
	return s, nil
}

func classifyOpenError(err error) error {
	// modernc.org/sqlite surfaces corruption as a "file is not a database"
	// style driver error; anything else at open time is an I/O failure.
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "not a database") || strings.Contains(msg, "malformed") || strings.Contains(msg, "corrupt") {
		return fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}
	return fmt.Errorf("%w: %v", ErrStoreOpenFailed, err)
}

func writeDSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)",
		path, busyTimeout.Milliseconds(),
	)
}

func createSchemaIfMissing(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaCreate)
	return err
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string { return s.path }

// DB returns the writable *sql.DB. The Writer uses this to run its single-
// row and batch transactions.
func (s *Store) DB() *sql.DB { return s.db }

// OpenReadOnly opens a new read-only connection to the same database file.
// Callers (Predictor pool, Browser, analytics) own the returned *sql.DB and
// must Close it when done.
func OpenReadOnly(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?mode=ro&_pragma=busy_timeout(%d)&_pragma=query_only(1)",
		path, busyTimeout.Milliseconds(),
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreOpenFailed, err)
	}
	// Each read-only handle is single-connection too: SQLite read
	// transactions are cheap and short, and modernc's driver doesn't benefit
	// from a larger per-handle pool here.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, classifyOpenError(err)
	}
	return db, nil
}

// PrepareStatement returns a prepared statement on the writer connection,
// caching it for reuse across calls: prepared once per session, bound
// per call.
func (s *Store) PrepareStatement(ctx context.Context, name, query string) (*sql.Stmt, error) {
	s.stmtMu.RLock()
	if stmt, ok := s.stmts[name]; ok {
		s.stmtMu.RUnlock()
		return stmt, nil
	}
	s.stmtMu.RUnlock()

	s.stmtMu.Lock()
	defer s.stmtMu.Unlock()
	if stmt, ok := s.stmts[name]; ok {
		return stmt, nil
	}
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: prepare %q: %w", name, err)
	}
	s.stmts[name] = stmt
	return stmt, nil
}

// Close closes the writer connection and stops the checkpoint loop. Safe to
// call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCh)
		<-s.stoppedCh

		s.stmtMu.Lock()
		for _, stmt := range s.stmts {
			stmt.Close()
		}
		s.stmts = nil
		s.stmtMu.Unlock()

		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func (s *Store) walCheckpointLoop() {
	defer close(s.stoppedCh)
	ticker := time.NewTicker(walCheckpointInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			// Fsync on checkpoint, not on every commit.
			if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
				s.logger.Warn("wal checkpoint failed", "error", err)
			}
		}
	}
}
