// Package storetest has helpers for tests that drive a store.Store.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/delaneyj/todoparty/store"
	"github.com/stretchr/testify/require"
)

// DefaultTimeout bounds WaitFor.
var DefaultTimeout = 2 * time.Second

// WaitFor fails the test unless s produces a state matching pred within
// DefaultTimeout, and returns that state.
func WaitFor[S, A any](t testing.TB, s *store.Store[S, A], pred func(S) bool) S {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	st, err := store.Await(ctx, s, pred)
	require.NoError(t, err, "state never matched")
	return st
}

// Recorder collects every state a store produces.
type Recorder[S any] struct {
	mu     sync.Mutex
	states []S
	stop   func()
}

// Record subscribes a Recorder to s. It unsubscribes when the test ends.
func Record[S, A any](t testing.TB, s *store.Store[S, A]) *Recorder[S] {
	r := &Recorder[S]{}
	r.stop = s.Subscribe(func(st S) {
		r.mu.Lock()
		r.states = append(r.states, st)
		r.mu.Unlock()
	})
	t.Cleanup(r.stop)
	return r
}

func (r *Recorder[S]) States() []S {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]S, len(r.states))
	copy(out, r.states)
	return out
}

func (r *Recorder[S]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *Recorder[S]) Last() (S, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		var zero S
		return zero, false
	}
	return r.states[len(r.states)-1], true
}

// Quiet installs a logger for stores under test that only reports errors.
func Quiet() store.Option {
	return store.WithLogger(quietLogger())
}
