// FILE: internal/storage/storage.go

// Package storage persists repertoire snapshots, the training event log and
// API users in SQLite. Hot-path writes are queued to a single writer
// goroutine; a failed write marks the store degraded and later writes are
// dropped.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("storage: not found")

const (
	writeQueueSize = 1000
	drainTimeout   = 2 * time.Second
)

// Store wraps the database and its async writer
type Store struct {
	db           *sql.DB
	path         string
	log          *zap.Logger
	writeChan    chan func(*sql.Tx) error
	healthStatus atomic.Bool
	dropped      atomic.Int64
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	closeOnce    sync.Once
	closeErr     error
}

// NewStore opens the database at dataSourceName and starts the async writer
func NewStore(dataSourceName string, devMode bool, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if devMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		db:        db,
		path:      dataSourceName,
		log:       log.Named("storage"),
		writeChan: make(chan func(*sql.Tx) error, writeQueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.healthStatus.Store(true)

	s.wg.Add(1)
	go s.writerLoop()

	return s, nil
}

// writerLoop applies queued writes in order until the store closes
func (s *Store) writerLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			deadline := time.After(drainTimeout)
			for {
				select {
				case fn := <-s.writeChan:
					if s.healthStatus.Load() {
						s.executeWrite(fn)
					}
				case <-deadline:
					return
				default:
					return
				}
			}

		case fn := <-s.writeChan:
			if !s.healthStatus.Load() {
				continue
			}
			s.executeWrite(fn)
		}
	}
}

// executeWrite marks the store degraded on the first failed write
func (s *Store) executeWrite(fn func(*sql.Tx) error) {
	if err := s.withTx(fn); err != nil {
		s.log.Error("storage degraded", zap.String("path", s.path), zap.Error(err))
		s.healthStatus.Store(false)
	}
}

func (s *Store) withTx(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// enqueue hands fn to the writer. Degraded stores and a full queue drop
// the write silently; the caller's in-memory state is authoritative.
func (s *Store) enqueue(what string, fn func(*sql.Tx) error) {
	if !s.healthStatus.Load() {
		s.dropped.Add(1)
		return
	}
	select {
	case <-s.ctx.Done():
		s.dropped.Add(1)
	case s.writeChan <- fn:
	default:
		s.dropped.Add(1)
		s.log.Warn("storage write queue full, dropping write", zap.String("write", what))
	}
}

// IsHealthy is false once an async write has failed
func (s *Store) IsHealthy() bool {
	return s.healthStatus.Load()
}

// Dropped returns the number of writes discarded so far
func (s *Store) Dropped() int64 {
	return s.dropped.Load()
}

// Path returns the data source name the store was opened with
func (s *Store) Path() string {
	return s.path
}

// Close drains queued writes and closes the database. Safe to call twice.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(drainTimeout + time.Second):
			s.log.Warn("storage writer shutdown timeout, some writes may be lost")
		}

		if s.db != nil {
			s.closeErr = s.db.Close()
		}
	})
	return s.closeErr
}

// InitDB creates missing tables and indexes
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return tx.Commit()
}

// DeleteDB closes the store and removes the database file
func (s *Store) DeleteDB() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}

	return nil
}
