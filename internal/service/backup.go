// FILE: internal/service/backup.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Backup writes a compressed snapshot of every repertoire and returns the
// file paths
func (s *Service) Backup() ([]string, error) {
	if s.backups == nil {
		return nil, ErrBackupsDisabled
	}

	s.mu.RLock()
	blobs := make(map[string][]byte)
	var names []string
	var errs []error
	for _, rep := range s.set.All() {
		data, err := rep.Encode()
		if err != nil {
			errs = append(errs, fmt.Errorf("encode %s: %w", rep.Name(), err))
			continue
		}
		names = append(names, rep.Name())
		blobs[rep.Name()] = data
	}
	s.mu.RUnlock()

	var paths []string
	for _, name := range names {
		path, err := s.backups.Write(name, blobs[name])
		if err != nil {
			errs = append(errs, err)
		}
		if path != "" {
			paths = append(paths, path)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		s.metrics.Backup("failed")
		s.log.Error("backup failed", zap.Error(err))
	} else {
		s.metrics.Backup("ok")
	}
	return paths, err
}

// RunBackups writes a backup every interval until ctx ends
func (s *Service) RunBackups(ctx context.Context, interval time.Duration) {
	if s.backups == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Backup()
		}
	}
}
