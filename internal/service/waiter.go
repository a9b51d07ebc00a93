// FILE: internal/service/waiter.go
package service

import (
	"sync"
	"time"
)

const (
	// WaitTimeout is the maximum time a client can wait for notifications
	WaitTimeout = 25 * time.Second

	// WaitChannelBuffer size for notification channels
	WaitChannelBuffer = 1
)

// WaitRegistry manages long-polling clients waiting for repertoire changes
type WaitRegistry struct {
	mu      sync.RWMutex
	waiters map[string][]*WaitRequest // repertoire name → waiting clients
	timeout time.Duration
	closed  bool
}

// WaitRequest represents a single client waiting for a newer revision
type WaitRequest struct {
	Revision uint64        // Last revision the client has seen
	Notify   chan struct{} // Buffered channel for notifications
	Timer    *time.Timer   // Timeout timer
	Key      string        // Repertoire being watched
}

// NewWaitRegistry creates a registry; timeout <= 0 means WaitTimeout
func NewWaitRegistry(timeout time.Duration) *WaitRegistry {
	if timeout <= 0 {
		timeout = WaitTimeout
	}
	return &WaitRegistry{
		waiters: make(map[string][]*WaitRequest),
		timeout: timeout,
	}
}

// RegisterWait registers a client to wait for a revision other than
// revision. The channel fires on change or timeout and is closed on
// shutdown. The caller must invoke cancel once it stops waiting.
func (w *WaitRegistry) RegisterWait(key string, revision uint64) (<-chan struct{}, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	req := &WaitRequest{
		Revision: revision,
		Notify:   make(chan struct{}, WaitChannelBuffer),
		Key:      key,
	}
	if w.closed {
		close(req.Notify)
		return req.Notify, func() {}
	}

	req.Timer = time.AfterFunc(w.timeout, func() {
		w.signal(req)
	})
	w.waiters[key] = append(w.waiters[key], req)

	var once sync.Once
	return req.Notify, func() {
		once.Do(func() { w.removeWaiter(key, req) })
	}
}

// Notify wakes every waiter on key whose known revision differs from
// revision
func (w *WaitRegistry) Notify(key string, revision uint64) {
	w.mu.Lock()
	var rest, wake []*WaitRequest
	for _, req := range w.waiters[key] {
		if req.Revision != revision {
			wake = append(wake, req)
		} else {
			rest = append(rest, req)
		}
	}
	if len(rest) == 0 {
		delete(w.waiters, key)
	} else {
		w.waiters[key] = rest
	}
	w.mu.Unlock()

	for _, req := range wake {
		req.Timer.Stop()
		w.signal(req)
	}
}

// Count returns the number of registered waiters on key
func (w *WaitRegistry) Count(key string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.waiters[key])
}

// Shutdown releases every pending waiter. Later registrations return a
// closed channel.
func (w *WaitRegistry) Shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	for _, waitList := range w.waiters {
		for _, req := range waitList {
			req.Timer.Stop()
			close(req.Notify)
		}
	}
	w.waiters = make(map[string][]*WaitRequest)
}

// signal sends a non-blocking notification
func (w *WaitRegistry) signal(req *WaitRequest) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case req.Notify <- struct{}{}:
	default:
	}
}

// removeWaiter removes a specific waiter from the registry
func (w *WaitRegistry) removeWaiter(key string, req *WaitRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()

	waitList := w.waiters[key]
	for i, waiter := range waitList {
		if waiter == req {
			w.waiters[key] = append(waitList[:i], waitList[i+1:]...)
			break
		}
	}
	if len(w.waiters[key]) == 0 {
		delete(w.waiters, key)
	}
	if req.Timer != nil {
		req.Timer.Stop()
	}
}
