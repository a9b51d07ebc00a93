// FILE: cmd/repertoire-server/pid.go
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// managePIDFile writes the process ID to path. With lock set the file is
// held under an exclusive flock so a second server refuses to start. The
// returned cleanup releases the lock and removes the file.
func managePIDFile(path string, lock bool) (func(), error) {
	file, err := openPIDFile(path, lock)
	if err != nil {
		return nil, err
	}

	if lock {
		if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
			file.Close()
			if errors.Is(err, syscall.EWOULDBLOCK) {
				return nil, fmt.Errorf("cannot acquire lock on %s: another instance is running", path)
			}
			return nil, fmt.Errorf("lock failed: %w", err)
		}
	}

	if err := writePID(file); err != nil {
		file.Close()
		os.Remove(path)
		return nil, err
	}

	return func() {
		if lock {
			_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		}
		file.Close()
		os.Remove(path)
	}, nil
}

// openPIDFile creates path, or truncates an existing one once a locked
// start has confirmed its owner is gone
func openPIDFile(path string, lock bool) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err == nil {
		return file, nil
	}
	if !os.IsExist(err) {
		return nil, fmt.Errorf("cannot create PID file: %w", err)
	}

	if lock {
		if err := checkStalePID(path); err != nil {
			return nil, err
		}
	}

	file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open PID file: %w", err)
	}
	return file, nil
}

func writePID(file *os.File) error {
	if _, err := fmt.Fprintf(file, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("cannot write PID: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("cannot sync PID file: %w", err)
	}
	return nil
}

// checkStalePID returns nil only when the recorded process no longer exists
func checkStalePID(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read existing PID file: %w", err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil
	}
	pid, err := strconv.Atoi(content)
	if err != nil {
		return fmt.Errorf("corrupted PID file (contains: %q)", content)
	}

	// FindProcess never fails on Unix; signal 0 probes for existence
	proc, _ := os.FindProcess(pid)
	err = proc.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return fmt.Errorf("process %d from %s is still running", pid, path)
	case errors.Is(err, os.ErrProcessDone), errors.Is(err, syscall.ESRCH):
		return nil
	default:
		return fmt.Errorf("process %d exists but cannot verify ownership: %v", pid, err)
	}
}
