// FILE: internal/service/service.go

// Package service owns the white and black repertoires of a running server:
// it serializes mutations, versions them, wakes long-poll clients and hands
// snapshots to storage.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"repertoire/internal/backup"
	"repertoire/internal/board"
	"repertoire/internal/metrics"
	"repertoire/internal/repertoire"
	"repertoire/internal/srs"
	"repertoire/internal/storage"
)

const (
	DefaultTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrUnknownRepertoire  = errors.New("service: unknown repertoire")
	ErrInvalidFEN         = errors.New("service: invalid position")
	ErrIllegalMove        = errors.New("service: illegal move")
	ErrInvalidRequest     = errors.New("service: invalid request")
	ErrStorageDisabled    = errors.New("service: storage disabled")
	ErrBackupsDisabled    = errors.New("service: backups disabled")
	ErrAuthDisabled       = errors.New("service: authentication disabled")
	ErrInvalidCredentials = errors.New("service: invalid credentials")
	ErrShuttingDown       = errors.New("service: shutting down")
)

// Config wires the optional collaborators of a service. Zero values disable
// the matching feature.
type Config struct {
	Store           *storage.Store
	Backups         *backup.Rotator
	Metrics         *metrics.Collector
	Logger          *zap.Logger
	Secret          []byte
	TokenTTL        time.Duration
	DifficultyLimit float64
	Location        *time.Location
	WaitTimeout     time.Duration
	Now             func() time.Time
}

// Service coordinates repertoire state, training, storage and tokens
type Service struct {
	set      *repertoire.Set
	revision map[board.Color]uint64
	closed   bool // set by Shutdown; guarded by mu
	mu       sync.RWMutex

	store    *storage.Store
	backups  *backup.Rotator
	metrics  *metrics.Collector
	log      *zap.Logger
	waiter   *WaitRegistry
	secret   []byte
	tokenTTL time.Duration

	difficultyLimit float64
	location        *time.Location
	now             func() time.Time
}

// New creates a service holding empty repertoires; call Load to restore
// persisted state
func New(cfg Config) (*Service, error) {
	s := &Service{
		revision:        make(map[board.Color]uint64),
		store:           cfg.Store,
		backups:         cfg.Backups,
		metrics:         cfg.Metrics,
		log:             cfg.Logger,
		waiter:          NewWaitRegistry(cfg.WaitTimeout),
		secret:          cfg.Secret,
		tokenTTL:        cfg.TokenTTL,
		difficultyLimit: cfg.DifficultyLimit,
		location:        cfg.Location,
		now:             cfg.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.Named("service")
	if s.now == nil {
		s.now = time.Now
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = DefaultTokenTTL
	}
	if s.difficultyLimit <= 0 {
		s.difficultyLimit = srs.DefaultDifficultyLimit
	}
	if s.location == nil {
		s.location = time.Local
	}

	set, err := repertoire.NewSet(s.repertoireOptions()...)
	if err != nil {
		return nil, err
	}
	s.set = set
	return s, nil
}

func (s *Service) repertoireOptions() []repertoire.Option {
	return []repertoire.Option{repertoire.WithClock(s.now)}
}

// Load restores each repertoire from its stored snapshot, falling back to
// the newest backup file. Missing state leaves the empty repertoire.
func (s *Service) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, side := range []board.Color{board.White, board.Black} {
		name := side.String()
		data, revision, source, err := s.loadState(name)
		if err != nil {
			return err
		}
		if data == nil {
			continue
		}
		rep, err := repertoire.Decode(data, s.repertoireOptions()...)
		if err != nil {
			return fmt.Errorf("restore %s from %s: %w", name, source, err)
		}
		if rep.Side() != side {
			return fmt.Errorf("restore %s from %s: snapshot is for side %s", name, source, rep.Side())
		}
		s.install(side, rep)
		s.revision[side] = revision
		s.log.Info("repertoire restored",
			zap.String("repertoire", name),
			zap.String("source", source),
			zap.Uint64("revision", revision),
			zap.Int("positions", rep.Stats().Positions))
	}
	return nil
}

func (s *Service) loadState(name string) ([]byte, uint64, string, error) {
	if s.store != nil {
		rec, err := s.store.LoadSnapshot(name)
		switch {
		case err == nil:
			return rec.Data, rec.Revision, "storage", nil
		case !errors.Is(err, storage.ErrNotFound):
			return nil, 0, "", fmt.Errorf("load %s: %w", name, err)
		}
	}
	if s.backups != nil {
		f, ok, err := s.backups.Latest(name)
		if err != nil {
			return nil, 0, "", err
		}
		if ok {
			data, err := s.backups.Read(f.Path)
			if err != nil {
				return nil, 0, "", err
			}
			return data, 1, f.Path, nil
		}
	}
	return nil, 0, "", nil
}

func (s *Service) install(side board.Color, rep *repertoire.Repertoire) {
	if side == board.White {
		s.set.White = rep
	} else {
		s.set.Black = rep
	}
}

// repertoireFor resolves a side name; callers hold s.mu
func (s *Service) repertoireFor(side string) (*repertoire.Repertoire, board.Color, error) {
	c, err := board.ParseColor(side)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownRepertoire, side)
	}
	rep, err := s.set.Get(c)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownRepertoire, side)
	}
	return rep, c, nil
}

// lockWrite takes the write lock unless the service is shutting down.
// On success the caller must unlock.
func (s *Service) lockWrite() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrShuttingDown
	}
	return nil
}

// commit versions a successful mutation; callers hold the write lock
func (s *Service) commit(side board.Color, rep *repertoire.Repertoire) uint64 {
	s.revision[side]++
	rev := s.revision[side]
	s.waiter.Notify(side.String(), rev)
	s.snapshot(rep, rev)
	return rev
}

// snapshot hands the serialized repertoire to the async writer
func (s *Service) snapshot(rep *repertoire.Repertoire, revision uint64) {
	if s.store == nil {
		return
	}
	data, err := rep.Encode()
	if err != nil {
		s.metrics.Snapshot("failed")
		s.log.Error("snapshot encode failed", zap.String("repertoire", rep.Name()), zap.Error(err))
		return
	}
	s.store.SaveSnapshot(storage.SnapshotRecord{
		Name:       rep.Name(),
		Side:       rep.Side().String(),
		Revision:   revision,
		SnapshotID: uuid.NewString(),
		Data:       data,
		UpdatedAt:  s.now(),
	})
	s.metrics.Snapshot("queued")
	s.log.Debug("snapshot queued", zap.String("repertoire", rep.Name()), zap.Uint64("revision", revision))
}

// Revision returns the current revision of a repertoire
func (s *Service) Revision(side string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, c, err := s.repertoireFor(side)
	if err != nil {
		return 0, err
	}
	return s.revision[c], nil
}

// Wait blocks until the repertoire revision differs from known, the wait
// times out, ctx ends or the service shuts down. It returns the revision
// current at wake-up.
func (s *Service) Wait(ctx context.Context, side string, known uint64) (uint64, bool, error) {
	s.mu.RLock()
	_, c, err := s.repertoireFor(side)
	if err != nil {
		s.mu.RUnlock()
		return 0, false, err
	}
	if current := s.revision[c]; current != known {
		s.mu.RUnlock()
		return current, true, nil
	}
	// Registered under the read lock so no commit slips in between
	notify, cancel := s.waiter.RegisterWait(c.String(), known)
	s.mu.RUnlock()
	defer cancel()

	select {
	case <-notify:
	case <-ctx.Done():
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	current := s.revision[c]
	return current, current != known, nil
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// Shutdown rejects further mutations, releases waiters, writes a final
// backup when enabled and closes storage. Once it returns, every
// acknowledged mutation has been handed to storage and backups.
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	// Waits for in-flight mutations, which hold the write lock
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.waiter.Shutdown()

	if s.backups != nil {
		done := make(chan error, 1)
		go func() {
			_, err := s.Backup()
			done <- err
		}()
		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, fmt.Errorf("final backup: %w", err))
			}
		case <-time.After(timeout):
			errs = append(errs, fmt.Errorf("final backup: timed out"))
		}
		if err := s.backups.Close(); err != nil {
			errs = append(errs, fmt.Errorf("backups: %w", err))
		}
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	return errors.Join(errs...)
}
