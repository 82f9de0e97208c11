package store

import (
	"context"
	"sync/atomic"
)

// handle is the store's record of a scheduled task or stream.
type handle struct {
	id     uint64
	cause  Cause
	kind   Kind
	name   string
	cancel context.CancelFunc

	cancelled atomic.Bool

	// guarded by Store.mu
	pending  int
	finished bool
}

func (h *handle) live() bool {
	return !h.cancelled.Load()
}

// stop reports whether this call did the cancelling.
func (h *handle) stop() bool {
	if h.cancelled.Swap(true) {
		return false
	}
	if h.cancel != nil {
		h.cancel()
	}
	return true
}
