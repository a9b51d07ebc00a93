// FILE: internal/service/waiter_test.go
package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func received(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-time.After(200 * time.Millisecond):
		return false
	}
}

func TestWaitRegistryNotify(t *testing.T) {
	w := NewWaitRegistry(time.Minute)

	stale, cancelStale := w.RegisterWait("white", 1)
	defer cancelStale()
	current, cancelCurrent := w.RegisterWait("white", 2)
	defer cancelCurrent()
	other, cancelOther := w.RegisterWait("black", 1)
	defer cancelOther()

	w.Notify("white", 2)
	assert.True(t, received(stale))
	assert.False(t, received(current), "already at revision 2")
	assert.False(t, received(other))
	assert.Equal(t, 1, w.Count("white"))
}

func TestWaitRegistryTimeout(t *testing.T) {
	w := NewWaitRegistry(20 * time.Millisecond)
	ch, cancel := w.RegisterWait("white", 0)
	assert.True(t, received(ch))
	cancel()
	cancel()
	assert.Zero(t, w.Count("white"))
}

func TestWaitRegistryShutdown(t *testing.T) {
	w := NewWaitRegistry(time.Minute)
	ch, cancel := w.RegisterWait("white", 0)
	defer cancel()

	w.Shutdown()
	w.Shutdown()
	_, open := <-ch
	assert.False(t, open)

	late, _ := w.RegisterWait("white", 0)
	_, open = <-late
	assert.False(t, open)
	w.Notify("white", 5)
}
