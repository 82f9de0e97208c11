package store

import (
	"context"
	"fmt"
	"iter"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
)

type envelope[A any] struct {
	action A
	from   *handle
}

type subscriber[S any] struct {
	id uint64
	fn func(S)
}

// Stats is a point-in-time view of a store's counters.
type Stats struct {
	Reduced   uint64 // actions applied
	Dropped   uint64 // deliveries discarded after cancellation or teardown
	Ignored   uint64 // actions the reducer had no transition for
	Recovered uint64 // reducer panics survived
	Live      int    // live effect handles
	Queued    int    // actions waiting for the drain loop
}

// Store owns a State of type S and applies actions of type A to it.
// The zero value is not usable, use New.
type Store[S, A any] struct {
	reducer Reducer[S, A]
	log     *logrus.Entry
	ctx     context.Context

	mu        sync.Mutex
	state     S
	queue     []envelope[A]
	draining  bool
	closed    bool
	nextID    uint64
	byCause   map[Cause]*handle
	live      mapset.Set[*handle]
	subs      []subscriber[S]
	observers mapset.Set[*mailbox[S]]
	stats     Stats

	done         chan struct{}
	teardownOnce sync.Once
	effects      sync.WaitGroup
}

func New[S, A any](initial S, reducer Reducer[S, A], opts ...Option) *Store[S, A] {
	o := buildOptions(opts)
	return &Store[S, A]{
		reducer:   reducer,
		log:       o.log,
		ctx:       o.ctx,
		state:     initial,
		byCause:   make(map[Cause]*handle),
		live:      mapset.NewThreadUnsafeSet[*handle](),
		observers: mapset.NewThreadUnsafeSet[*mailbox[S]](),
		done:      make(chan struct{}),
	}
}

// Send enqueues action. If no drain loop is running the caller runs it, so an
// uncontended Send has been applied by the time it returns. Sends made while
// a reduce is in progress (from a subscriber, another goroutine or an effect)
// are queued behind it in arrival order.
func (s *Store[S, A]) Send(action A) {
	s.enqueue(envelope[A]{action: action})
}

// State returns the most recently produced state.
func (s *Store[S, A]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store[S, A]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Live = s.live.Cardinality()
	st.Queued = len(s.queue)
	return st
}

// Live reports whether a handle is live under cause.
func (s *Store[S, A]) Live(cause Cause) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byCause[cause]
	return ok
}

// Cancel stops delivery for the handle live under cause. It reports whether
// there was one.
func (s *Store[S, A]) Cancel(cause Cause) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(cause)
}

// Done is closed once Teardown has run.
func (s *Store[S, A]) Done() <-chan struct{} {
	return s.done
}

// Teardown cancels every live handle, drops queued actions, closes observers
// and releases the state. Running tasks finish but their results are
// discarded. Safe to call more than once.
func (s *Store[S, A]) Teardown() {
	s.teardownOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		handles := s.live.ToSlice()
		s.live.Clear()
		s.byCause = make(map[Cause]*handle)
		s.stats.Dropped += uint64(len(s.queue))
		s.queue = nil
		boxes := s.observers.ToSlice()
		s.observers.Clear()
		s.subs = nil
		var zero S
		s.state = zero
		s.mu.Unlock()

		for _, h := range handles {
			h.stop()
		}
		for _, b := range boxes {
			b.close()
		}
		close(s.done)
		s.log.WithField("handles", len(handles)).Debug("store torn down")
	})
}

// Wait blocks until every task and stream goroutine has returned. Streams only
// return once their source ends or they are cancelled.
func (s *Store[S, A]) Wait() {
	s.effects.Wait()
}

func (s *Store[S, A]) enqueue(env envelope[A]) {
	s.mu.Lock()
	if s.closed || (env.from != nil && !env.from.live()) {
		s.stats.Dropped++
		s.mu.Unlock()
		s.log.WithField("action", actionName(env.action)).Debug("delivery dropped")
		return
	}
	if env.from != nil {
		env.from.pending++
	}
	s.queue = append(s.queue, env)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()

	s.drain()
}

// drain applies queued actions one at a time until the queue is empty. Only
// one goroutine drains at once; that is what serializes reduce.
func (s *Store[S, A]) drain() {
	for {
		s.mu.Lock()
		if s.closed || len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		env := s.queue[0]
		s.queue[0] = envelope[A]{}
		s.queue = s.queue[1:]
		if h := env.from; h != nil {
			h.pending--
			s.releaseLocked(h)
			if !h.live() {
				s.stats.Dropped++
				s.mu.Unlock()
				s.log.WithFields(logrus.Fields{
					"action": actionName(env.action),
					"effect": h.name,
				}).Debug("dropped delivery from cancelled effect")
				continue
			}
		}
		state := s.state
		s.mu.Unlock()

		next, effect, ok := s.reduce(state, env.action)
		if !ok {
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.draining = false
			s.mu.Unlock()
			return
		}
		s.state = next
		s.stats.Reduced++
		subs := make([]subscriber[S], len(s.subs))
		copy(subs, s.subs)
		boxes := s.observers.ToSlice()
		s.mu.Unlock()

		for _, sub := range subs {
			sub.fn(next)
		}
		for _, b := range boxes {
			b.push(next)
		}

		s.schedule(effect, env.action)
	}
}

func (s *Store[S, A]) reduce(state S, action A) (next S, effect Effect[A], ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.stats.Recovered++
			s.mu.Unlock()
			s.log.WithField("action", actionName(action)).Errorf("reducer panicked: %v", r)
			ok = false
		}
	}()
	next, effect = s.reducer.Reduce(state, action)
	return next, effect, true
}

func (s *Store[S, A]) schedule(e Effect[A], action A) {
	switch e.kind {
	case KindNone:
	case KindIgnore:
		s.mu.Lock()
		s.stats.Ignored++
		s.mu.Unlock()
		s.log.WithField("action", actionName(action)).Warnf("action ignored: %s", e.reason)
	case KindBatch:
		for _, child := range e.effects {
			s.schedule(child, action)
		}
	case KindCancel:
		s.Cancel(e.cause)
	case KindTask:
		h := s.arm(e, nil)
		if h == nil {
			return
		}
		go s.runTask(h, e.task)
	case KindStream:
		ctx, cancel := context.WithCancel(s.ctx)
		h := s.arm(e, cancel)
		if h == nil {
			return
		}
		go s.runStream(ctx, h, e.stream)
	default:
		s.log.Errorf("unknown effect kind %s", e.kind)
	}
}

// arm registers a handle for e, cancelling the one it replaces, and counts
// it in s.effects. It returns nil once the store is torn down, so nothing is
// added to s.effects after Teardown.
func (s *Store[S, A]) arm(e Effect[A], cancel context.CancelFunc) *handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		if cancel != nil {
			cancel()
		}
		return nil
	}
	s.nextID++
	h := &handle{
		id:     s.nextID,
		cause:  e.cause,
		kind:   e.kind,
		name:   e.name,
		cancel: cancel,
	}
	if e.cause != NoCause {
		if s.cancelLocked(e.cause) {
			s.log.WithFields(logrus.Fields{
				"effect": e.name,
				"cause":  e.cause.String(),
			}).Debug("re-armed effect, previous handle cancelled")
		}
		s.byCause[e.cause] = h
	}
	s.live.Add(h)
	s.effects.Add(1)
	return h
}

func (s *Store[S, A]) cancelLocked(cause Cause) bool {
	h, ok := s.byCause[cause]
	if !ok {
		return false
	}
	delete(s.byCause, cause)
	s.live.Remove(h)
	h.stop()
	return true
}

// releaseLocked forgets a handle once its source is done and nothing it
// delivered is still queued.
func (s *Store[S, A]) releaseLocked(h *handle) {
	if !h.finished || h.pending > 0 {
		return
	}
	if cur, ok := s.byCause[h.cause]; ok && cur == h {
		delete(s.byCause, h.cause)
	}
	s.live.Remove(h)
}

func (s *Store[S, A]) finish(h *handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.finished = true
	s.releaseLocked(h)
}

func (s *Store[S, A]) runTask(h *handle, task taskFunc[A]) {
	defer s.effects.Done()
	defer s.finish(h)

	action, ok, err := s.callTask(task)
	if err != nil {
		s.log.WithField("effect", h.name).Warnf("task failed: %v", err)
	}
	if !ok {
		return
	}
	s.enqueue(envelope[A]{action: action, from: h})
}

func (s *Store[S, A]) callTask(task taskFunc[A]) (action A, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task(s.ctx)
}

func (s *Store[S, A]) runStream(ctx context.Context, h *handle, source streamFunc[A]) {
	defer s.effects.Done()
	defer s.finish(h)
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("effect", h.name).Errorf("stream panicked: %v", r)
		}
	}()

	var seq iter.Seq[A] = source(ctx)
	for action := range seq {
		if !h.live() {
			return
		}
		s.enqueue(envelope[A]{action: action, from: h})
	}
	s.log.WithField("effect", h.name).Debug("stream ended")
}

func actionName(a any) string {
	if n, ok := a.(interface{ ActionType() string }); ok {
		return n.ActionType()
	}
	return fmt.Sprintf("%T", a)
}
