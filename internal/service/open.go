// FILE: internal/service/open.go
package service

import (
	"errors"
	"fmt"

	"repertoire/internal/backup"
	"repertoire/internal/config"
	"repertoire/internal/metrics"
	"repertoire/internal/storage"

	"go.uber.org/zap"
)

// Open builds a service from configuration: it opens and migrates the store
// when a path is set, prepares the backup directory when one is set, and
// loads persisted state. Closing the returned service closes both.
func Open(cfg config.Config, m *metrics.Collector, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}

	loc, err := cfg.Training.Location()
	if err != nil {
		return nil, err
	}

	var store *storage.Store
	if cfg.Storage.Path != "" {
		store, err = storage.NewStore(cfg.Storage.Path, cfg.Server.Dev, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		if err := store.InitDB(); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to initialize schema: %w", err), store.Close())
		}
	}

	var rotator *backup.Rotator
	if cfg.Backup.Dir != "" {
		rotator, err = backup.NewRotator(cfg.Backup.Dir, backup.Retention{
			Daily:   cfg.Backup.Daily,
			Monthly: cfg.Backup.Monthly,
			Yearly:  cfg.Backup.Yearly,
		}, backup.WithLogger(log))
		if err != nil {
			return nil, errors.Join(err, closeStore(store))
		}
	}

	svc, err := New(Config{
		Store:           store,
		Backups:         rotator,
		Metrics:         m,
		Logger:          log,
		Secret:          []byte(cfg.Auth.Secret),
		TokenTTL:        cfg.Auth.TokenTTL,
		DifficultyLimit: cfg.Training.DifficultyLimit,
		Location:        loc,
	})
	if err != nil {
		return nil, errors.Join(err, closeRotator(rotator), closeStore(store))
	}

	if err := svc.Load(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to load repertoires: %w", err), closeRotator(rotator), closeStore(store))
	}
	return svc, nil
}

func closeStore(s *storage.Store) error {
	if s == nil {
		return nil
	}
	return s.Close()
}

func closeRotator(r *backup.Rotator) error {
	if r == nil {
		return nil
	}
	return r.Close()
}
