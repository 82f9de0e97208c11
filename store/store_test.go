package store_test

import (
	"context"
	"errors"
	"iter"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/delaneyj/todoparty/store"
	"github.com/delaneyj/todoparty/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type screen struct {
	Loading bool
	Alert   string
	Rows    []string
	Count   int
	Trace   []string
}

type msg struct {
	name   string
	text   string
	source int
	rows   store.Result[[]string]
}

var watchCause = store.CauseOf("test", "watch")

func newStore(t *testing.T, fn store.ReducerFunc[screen, msg]) *store.Store[screen, msg] {
	t.Helper()
	s := store.New(screen{}, store.Reducer[screen, msg](fn), storetest.Quiet(), store.WithName(t.Name()))
	t.Cleanup(s.Teardown)
	return s
}

func TestSendAppliesInOrder(t *testing.T) {
	s := newStore(t, func(st screen, m msg) (screen, store.Effect[msg]) {
		st.Trace = append(slices.Clone(st.Trace), m.name)
		return st, store.None[msg]()
	})

	s.Send(msg{name: "a"})
	s.Send(msg{name: "b"})
	s.Send(msg{name: "c"})

	assert.Equal(t, []string{"a", "b", "c"}, s.State().Trace)
	assert.EqualValues(t, 3, s.Stats().Reduced)
}

func TestReentrantSendIsQueued(t *testing.T) {
	var depth, maxDepth atomic.Int32
	s := newStore(t, func(st screen, m msg) (screen, store.Effect[msg]) {
		d := depth.Add(1)
		defer depth.Add(-1)
		if d > maxDepth.Load() {
			maxDepth.Store(d)
		}
		st.Trace = append(slices.Clone(st.Trace), m.name)
		return st, store.None[msg]()
	})

	echoed := false
	s.Subscribe(func(st screen) {
		if !echoed {
			echoed = true
			s.Send(msg{name: "echo"})
		}
	})

	s.Send(msg{name: "a"})
	s.Send(msg{name: "b"})

	assert.Equal(t, []string{"a", "echo", "b"}, s.State().Trace)
	assert.EqualValues(t, 1, maxDepth.Load())
}

func TestConcurrentSendsSerialize(t *testing.T) {
	const senders, per = 8, 200

	type seqState struct {
		Total      int
		OutOfOrder int
		Last       []int
	}
	type seqMsg struct{ sender, seq int }

	var inFlight, overlap atomic.Int32
	s := store.New[seqState, seqMsg](seqState{Last: make([]int, senders)}, store.ReducerFunc[seqState, seqMsg](func(st seqState, m seqMsg) (seqState, store.Effect[seqMsg]) {
		if inFlight.Add(1) > 1 {
			overlap.Add(1)
		}
		defer inFlight.Add(-1)
		runtime.Gosched()

		last := slices.Clone(st.Last)
		if m.seq <= last[m.sender] {
			st.OutOfOrder++
		}
		last[m.sender] = m.seq
		st.Last = last
		st.Total++
		return st, store.None[seqMsg]()
	}), storetest.Quiet())
	defer s.Teardown()

	var wg sync.WaitGroup
	for sender := range senders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seq := 1; seq <= per; seq++ {
				s.Send(seqMsg{sender: sender, seq: seq})
			}
		}()
	}
	wg.Wait()

	final := storetest.WaitFor(t, s, func(st seqState) bool { return st.Total == senders*per })
	assert.Zero(t, overlap.Load(), "reduce calls overlapped")
	assert.Zero(t, final.OutOfOrder)
	for sender := range senders {
		assert.Equal(t, per, final.Last[sender])
	}
}

func fetchReducer(fetch func(ctx context.Context) ([]string, error)) store.ReducerFunc[screen, msg] {
	return func(st screen, m msg) (screen, store.Effect[msg]) {
		switch m.name {
		case "appear":
			st.Loading = true
			return st, store.Attempt("fetch", fetch, func(r store.Result[[]string]) msg {
				return msg{name: "loaded", rows: r}
			})
		case "loaded":
			st.Loading = false
			if rows, err := m.rows.Get(); err != nil {
				st.Alert = err.Error()
			} else {
				st.Rows = rows
			}
		case "dismiss":
			st.Alert = ""
		}
		return st, store.None[msg]()
	}
}

func TestTaskRoundTrip(t *testing.T) {
	release := make(chan struct{})
	s := newStore(t, fetchReducer(func(ctx context.Context) ([]string, error) {
		<-release
		return []string{"A", "B"}, nil
	}))

	s.Send(msg{name: "appear"})
	assert.True(t, s.State().Loading)

	close(release)
	final := storetest.WaitFor(t, s, func(st screen) bool { return !st.Loading })
	assert.Equal(t, []string{"A", "B"}, final.Rows)
	assert.Empty(t, final.Alert)
}

func TestAttemptConvertsErrorsAndPanics(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		s := newStore(t, fetchReducer(func(ctx context.Context) ([]string, error) {
			return nil, errors.New("offline")
		}))
		s.Send(msg{name: "appear"})
		final := storetest.WaitFor(t, s, func(st screen) bool { return !st.Loading })
		assert.Equal(t, "offline", final.Alert)
		assert.Empty(t, final.Rows)
	})

	t.Run("panic", func(t *testing.T) {
		s := newStore(t, fetchReducer(func(ctx context.Context) ([]string, error) {
			panic("bad decoder")
		}))
		s.Send(msg{name: "appear"})
		final := storetest.WaitFor(t, s, func(st screen) bool { return !st.Loading })
		assert.Equal(t, "panic: bad decoder", final.Alert)
	})
}

func TestTeardownSilencesRunningTask(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	s := newStore(t, fetchReducer(func(ctx context.Context) ([]string, error) {
		close(started)
		<-release
		finished.Store(true)
		return []string{"late"}, nil
	}))

	s.Send(msg{name: "appear"})
	<-started
	before := s.Stats().Reduced

	s.Teardown()
	s.Teardown()
	close(release)
	s.Wait()

	assert.True(t, finished.Load(), "task should run to completion")
	stats := s.Stats()
	assert.Equal(t, before, stats.Reduced)
	assert.EqualValues(t, 1, stats.Dropped)
	assert.Zero(t, stats.Live)
	assert.Equal(t, screen{}, s.State())

	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed")
	}

	s.Send(msg{name: "appear"})
	assert.Equal(t, before, s.Stats().Reduced)
}

func TestCancelSilencesTaskByCause(t *testing.T) {
	cause := store.CauseOf("test", "fetch")
	started := make(chan struct{})
	release := make(chan struct{})
	s := newStore(t, func(st screen, m msg) (screen, store.Effect[msg]) {
		switch m.name {
		case "appear":
			st.Loading = true
			return st, store.Task("fetch", func(ctx context.Context) (msg, bool) {
				close(started)
				<-release
				return msg{name: "loaded"}, true
			}).CancelOn(cause)
		case "stop":
			return st, store.Cancel[msg](cause)
		case "loaded":
			st.Loading = false
		}
		return st, store.None[msg]()
	})

	s.Send(msg{name: "appear"})
	<-started
	assert.True(t, s.Live(cause))

	s.Send(msg{name: "stop"})
	assert.False(t, s.Live(cause))

	close(release)
	s.Wait()

	assert.True(t, s.State().Loading, "cancelled result must not be applied")
	assert.EqualValues(t, 1, s.Stats().Dropped)
}

type feed struct {
	values chan string
	ctx    chan context.Context
}

func newFeed() *feed {
	return &feed{values: make(chan string), ctx: make(chan context.Context, 1)}
}

func (f *feed) source(ctx context.Context) iter.Seq[msg] {
	f.ctx <- ctx
	return func(yield func(msg) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-f.values:
				if !ok {
					return
				}
				if !yield(msg{name: "row", text: v}) {
					return
				}
			}
		}
	}
}

func streamReducer(feeds ...*feed) store.ReducerFunc[screen, msg] {
	return func(st screen, m msg) (screen, store.Effect[msg]) {
		switch m.name {
		case "watch":
			return st, store.Stream("watch", watchCause, feeds[m.source].source)
		case "unwatch":
			return st, store.Cancel[msg](watchCause)
		case "row":
			st.Rows = append(slices.Clone(st.Rows), m.text)
		}
		return st, store.None[msg]()
	}
}

func TestStreamDeliversInOrderUntilCancelled(t *testing.T) {
	f := newFeed()
	s := newStore(t, streamReducer(f))

	s.Send(msg{name: "watch"})
	ctx := <-f.ctx
	for _, v := range []string{"a", "b", "c"} {
		f.values <- v
	}
	storetest.WaitFor(t, s, func(st screen) bool { return len(st.Rows) == 3 })
	assert.Equal(t, []string{"a", "b", "c"}, s.State().Rows)

	s.Send(msg{name: "unwatch"})
	<-ctx.Done()
	s.Wait()

	assert.Equal(t, []string{"a", "b", "c"}, s.State().Rows)
	assert.Zero(t, s.Stats().Live)
}

func TestRearmKeepsOneSubscription(t *testing.T) {
	first, second := newFeed(), newFeed()
	s := newStore(t, streamReducer(first, second))

	s.Send(msg{name: "watch", source: 0})
	firstCtx := <-first.ctx
	first.values <- "a1"
	storetest.WaitFor(t, s, func(st screen) bool { return len(st.Rows) == 1 })

	s.Send(msg{name: "watch", source: 1})
	<-second.ctx
	<-firstCtx.Done()

	assert.Equal(t, 1, s.Stats().Live)
	assert.True(t, s.Live(watchCause))

	second.values <- "b1"
	final := storetest.WaitFor(t, s, func(st screen) bool { return len(st.Rows) == 2 })
	assert.Equal(t, []string{"a1", "b1"}, final.Rows)
}

func TestStreamEndReleasesHandle(t *testing.T) {
	f := newFeed()
	s := newStore(t, streamReducer(f))

	s.Send(msg{name: "watch"})
	<-f.ctx
	f.values <- "only"
	close(f.values)
	s.Wait()

	assert.Equal(t, []string{"only"}, s.State().Rows)
	assert.False(t, s.Live(watchCause))
	assert.Zero(t, s.Stats().Live)
}

func TestObserveReceivesEveryState(t *testing.T) {
	s := newStore(t, func(st screen, m msg) (screen, store.Effect[msg]) {
		st.Count++
		return st, store.None[msg]()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states := s.Observe(ctx)

	const n = 100
	for range n {
		s.Send(msg{name: "inc"})
	}

	for want := 0; want <= n; want++ {
		select {
		case st := <-states:
			require.Equal(t, want, st.Count)
		case <-time.After(time.Second):
			t.Fatalf("missing state %d", want)
		}
	}
}

func TestObserveClosesOnTeardown(t *testing.T) {
	s := newStore(t, func(st screen, m msg) (screen, store.Effect[msg]) {
		st.Count++
		return st, store.None[msg]()
	})
	states := s.Observe(context.Background())
	s.Send(msg{name: "inc"})
	s.Teardown()

	var got []int
	for st := range states {
		got = append(got, st.Count)
	}
	assert.Equal(t, []int{0, 1}, got)

	_, ok := <-s.Observe(context.Background())
	assert.False(t, ok)
}

func TestSelectEmitsOnChange(t *testing.T) {
	s := newStore(t, func(st screen, m msg) (screen, store.Effect[msg]) {
		st.Count++
		return st, store.None[msg]()
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	busy := store.Select(ctx, s, func(st screen) bool { return st.Count >= 3 })
	assert.False(t, <-busy)
	for range 5 {
		s.Send(msg{name: "inc"})
	}
	assert.True(t, <-busy)

	select {
	case v := <-busy:
		t.Fatalf("unexpected emission %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	s := newStore(t, func(st screen, m msg) (screen, store.Effect[msg]) {
		st.Count++
		return st, store.None[msg]()
	})
	calls := 0
	stop := s.Subscribe(func(screen) { calls++ })
	s.Send(msg{})
	stop()
	s.Send(msg{})
	assert.Equal(t, 1, calls)
}

func TestReducerPanicKeepsState(t *testing.T) {
	s := newStore(t, func(st screen, m msg) (screen, store.Effect[msg]) {
		if m.name == "boom" {
			panic("unreachable row")
		}
		st.Count++
		return st, store.None[msg]()
	})

	s.Send(msg{name: "inc"})
	s.Send(msg{name: "boom"})
	s.Send(msg{name: "inc"})

	assert.Equal(t, 2, s.State().Count)
	assert.EqualValues(t, 1, s.Stats().Recovered)
}

func TestIgnoredActionsAreCounted(t *testing.T) {
	s := newStore(t, func(st screen, m msg) (screen, store.Effect[msg]) {
		if st.Loading {
			return st, store.Ignore[msg]("busy")
		}
		st.Loading = true
		return st, store.None[msg]()
	})

	s.Send(msg{name: "start"})
	s.Send(msg{name: "start"})

	assert.EqualValues(t, 1, s.Stats().Ignored)
	assert.EqualValues(t, 2, s.Stats().Reduced)
}

func TestFireDeliversNothing(t *testing.T) {
	var ran atomic.Int32
	s := newStore(t, func(st screen, m msg) (screen, store.Effect[msg]) {
		st.Count++
		return st, store.Batch(
			store.Fire[msg]("ok", func(ctx context.Context) error { ran.Add(1); return nil }),
			store.Fire[msg]("fails", func(ctx context.Context) error { ran.Add(1); return errors.New("nope") }),
		)
	})

	s.Send(msg{})
	s.Wait()

	assert.EqualValues(t, 2, ran.Load())
	assert.EqualValues(t, 1, s.Stats().Reduced)
	assert.Zero(t, s.Stats().Live)
}

func TestJustRunsAfterCurrentReduce(t *testing.T) {
	s := newStore(t, func(st screen, m msg) (screen, store.Effect[msg]) {
		st.Trace = append(slices.Clone(st.Trace), m.name)
		if m.name == "first" {
			return st, store.Just(msg{name: "second"})
		}
		return st, store.None[msg]()
	})

	s.Send(msg{name: "first"})
	final := storetest.WaitFor(t, s, func(st screen) bool { return len(st.Trace) == 2 })
	assert.Equal(t, []string{"first", "second"}, final.Trace)
}

func TestCancelDropsQueuedStreamEmissions(t *testing.T) {
	f := newFeed()
	watch := streamReducer(f)
	entered, release := make(chan struct{}), make(chan struct{})
	s := newStore(t, func(st screen, m msg) (screen, store.Effect[msg]) {
		if m.name == "hold" {
			close(entered)
			<-release
			return st, store.Cancel[msg](watchCause)
		}
		return watch(st, m)
	})

	s.Send(msg{name: "watch"})
	ctx := <-f.ctx

	held := make(chan struct{})
	go func() {
		defer close(held)
		s.Send(msg{name: "hold"})
	}()
	<-entered

	// the drainer is busy, so both rows wait in the queue
	f.values <- "a"
	f.values <- "b"
	require.Eventually(t, func() bool { return s.Stats().Queued == 2 }, storetest.DefaultTimeout, time.Millisecond)

	close(release)
	<-held
	<-ctx.Done()
	s.Wait()

	assert.Empty(t, s.State().Rows)
	stats := s.Stats()
	assert.EqualValues(t, 2, stats.Dropped)
	assert.Zero(t, stats.Live)
	assert.Zero(t, stats.Queued)
}

func TestTeardownDuringConcurrentScheduling(t *testing.T) {
	s := newStore(t, func(st screen, m msg) (screen, store.Effect[msg]) {
		st.Count++
		return st, store.Fire[msg]("noop", func(context.Context) error { return nil })
	})

	var senders sync.WaitGroup
	for range 8 {
		senders.Add(1)
		go func() {
			defer senders.Done()
			for range 200 {
				s.Send(msg{name: "tick"})
			}
		}()
	}
	runtime.Gosched()
	s.Teardown()

	waited := make(chan struct{})
	go func() {
		s.Wait()
		close(waited)
	}()
	senders.Wait()

	select {
	case <-waited:
	case <-time.After(storetest.DefaultTimeout):
		t.Fatal("Wait did not return after teardown")
	}
	assert.Zero(t, s.Stats().Live)
}
