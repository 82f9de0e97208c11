package store

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrTornDown is returned by Await when the store goes away first.
var ErrTornDown = errors.New("store: torn down")

// Subscribe calls fn with every state the store produces, in order, on the
// goroutine running the drain loop. fn must not block; it may call Send.
// The returned func removes the subscription.
func (s *Store[S, A]) Subscribe(fn func(S)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber[S]{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber[S]) bool {
			return sub.id == id
		})
	}
}

// Observe returns a channel that yields the current state followed by every
// state produced afterwards, in order and without coalescing. Delivery is
// buffered per observer so a slow reader never holds up the store. The
// channel is closed when ctx is done or, after draining what was produced,
// when the store is torn down.
func (s *Store[S, A]) Observe(ctx context.Context) <-chan S {
	out := make(chan S)
	box := newMailbox[S]()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(out)
		return out
	}
	box.push(s.state)
	s.observers.Add(box)
	s.mu.Unlock()

	go func() {
		defer close(out)
		defer func() {
			s.mu.Lock()
			s.observers.Remove(box)
			s.mu.Unlock()
		}()
		box.pump(ctx, out)
	}()
	return out
}

// Select observes a value derived from the state and only emits when it
// changes.
func Select[S, A any, V comparable](ctx context.Context, s *Store[S, A], fn func(S) V) <-chan V {
	out := make(chan V)
	go func() {
		defer close(out)
		var (
			last V
			seen bool
		)
		for st := range s.Observe(ctx) {
			v := fn(st)
			if seen && v == last {
				continue
			}
			last, seen = v, true
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Await blocks until the store produces a state matching pred, checking the
// current state first.
func Await[S, A any](ctx context.Context, s *Store[S, A], pred func(S) bool) (S, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for st := range s.Observe(ctx) {
		if pred(st) {
			return st, nil
		}
	}
	var zero S
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	return zero, ErrTornDown
}

// mailbox is an unbounded FIFO between the drain loop and one observer.
type mailbox[S any] struct {
	mu     sync.Mutex
	items  []S
	closed bool
	signal chan struct{}
}

func newMailbox[S any]() *mailbox[S] {
	return &mailbox[S]{signal: make(chan struct{}, 1)}
}

func (b *mailbox[S]) push(v S) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.items = append(b.items, v)
	b.mu.Unlock()
	b.wake()
}

func (b *mailbox[S]) close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wake()
}

func (b *mailbox[S]) wake() {
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

func (b *mailbox[S]) pump(ctx context.Context, out chan<- S) {
	for {
		b.mu.Lock()
		if len(b.items) == 0 {
			closed := b.closed
			b.mu.Unlock()
			if closed {
				return
			}
			select {
			case <-b.signal:
				continue
			case <-ctx.Done():
				return
			}
		}
		v := b.items[0]
		var zero S
		b.items[0] = zero
		b.items = b.items[1:]
		b.mu.Unlock()

		select {
		case out <- v:
		case <-ctx.Done():
			return
		}
	}
}
