// FILE: internal/backup/backup.go

// Package backup writes zstd-compressed, dated repertoire snapshots and
// prunes them on a daily/monthly/yearly retention schedule.
package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

const (
	dateLayout = "2006-01-02"
	fileSuffix = ".json.zst"
)

var ErrInvalidName = errors.New("backup: invalid snapshot name")

// Retention counts the distinct days, months and years whose newest file is
// kept. Yearly 0 keeps every year.
type Retention struct {
	Daily   int
	Monthly int
	Yearly  int
}

// File is one backup on disk
type File struct {
	Name string
	Date time.Time
	Path string
}

// Rotator owns a backup directory. Safe for concurrent use.
type Rotator struct {
	dir       string
	retention Retention
	log       *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Option configures a rotator
type Option func(*Rotator)

// WithClock injects the clock that dates new files
func WithClock(now func() time.Time) Option {
	return func(r *Rotator) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(r *Rotator) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRotator creates dir when missing
func NewRotator(dir string, retention Retention, opts ...Option) (*Rotator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	r := &Rotator{
		dir:       dir,
		retention: retention,
		log:       zap.NewNop(),
		now:       time.Now,
		encoder:   encoder,
		decoder:   decoder,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Named("backup")
	return r, nil
}

// Dir returns the backup directory
func (r *Rotator) Dir() string {
	return r.dir
}

// Write stores blob as today's backup of name, replacing an earlier one from
// the same day, then prunes old files of name
func (r *Rotator) Write(name string, blob []byte) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	day := r.now().Format(dateLayout)
	path := filepath.Join(r.dir, name+"-"+day+fileSuffix)
	compressed := r.encoder.EncodeAll(blob, make([]byte, 0, len(blob)/4))

	// Write then rename so a crash never leaves a truncated backup
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("commit backup: %w", err)
	}
	r.log.Info("backup written", zap.String("repertoire", name), zap.String("path", path),
		zap.Int("bytes", len(compressed)))

	if _, err := r.prune(name); err != nil {
		return path, err
	}
	return path, nil
}

// Read decompresses a backup file
func (r *Rotator) Read(path string) ([]byte, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := r.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	return data, nil
}

// Latest returns the newest backup of name
func (r *Rotator) Latest(name string) (File, bool, error) {
	files, err := r.List(name)
	if err != nil || len(files) == 0 {
		return File{}, false, err
	}
	return files[0], true, nil
}

// List returns the backups of name, newest first
func (r *Rotator) List(name string) ([]File, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	prefix := name + "-"
	var files []File
	for _, e := range entries {
		fname := e.Name()
		if e.IsDir() || !strings.HasPrefix(fname, prefix) || !strings.HasSuffix(fname, fileSuffix) {
			continue
		}
		date, err := time.Parse(dateLayout, strings.TrimSuffix(strings.TrimPrefix(fname, prefix), fileSuffix))
		if err != nil {
			continue
		}
		files = append(files, File{Name: name, Date: date, Path: filepath.Join(r.dir, fname)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Date.After(files[j].Date) })
	return files, nil
}

// Prune removes files of name that no retention bucket keeps
func (r *Rotator) Prune(name string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prune(name)
}

func (r *Rotator) prune(name string) ([]string, error) {
	files, err := r.List(name)
	if err != nil {
		return nil, err
	}
	keep := Keep(files, r.retention)

	var removed []string
	var errs []error
	for _, f := range files {
		if keep[f.Path] {
			continue
		}
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, f.Path)
	}
	if len(removed) > 0 {
		r.log.Info("backups pruned", zap.String("repertoire", name), zap.Int("removed", len(removed)))
	}
	return removed, errors.Join(errs...)
}

// Keep returns the paths retained from files (newest first). The newest
// file of each of the latest Daily days, Monthly months and Yearly years
// is kept, counting only periods that have a file.
func Keep(files []File, ret Retention) map[string]bool {
	keep := make(map[string]bool)
	bucket := func(limit int, key func(time.Time) string) {
		seen := make(map[string]bool)
		for _, f := range files {
			k := key(f.Date)
			if seen[k] {
				continue
			}
			if limit > 0 && len(seen) >= limit {
				return
			}
			seen[k] = true
			keep[f.Path] = true
		}
	}

	if ret.Daily > 0 {
		bucket(ret.Daily, func(t time.Time) string { return t.Format(dateLayout) })
	}
	if ret.Monthly > 0 {
		bucket(ret.Monthly, func(t time.Time) string { return t.Format("2006-01") })
	}
	// Yearly 0 is unlimited
	bucket(ret.Yearly, func(t time.Time) string { return t.Format("2006") })
	return keep
}

// Close releases the codec resources
func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoder.Close()
	return r.encoder.Close()
}
