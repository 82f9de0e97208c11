package docstore

import (
	"context"
	"iter"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/todoparty/logging"
	"github.com/sirupsen/logrus"
)

// Feed fans commit notifications out to watchers. Backends call Notify after
// each commit and build Watch on top of Feed.Watch with their own query.
type Feed struct {
	log *logrus.Entry

	mu       sync.Mutex
	nextID   uint64
	watchers map[uint64]*watcher
	closed   bool
}

type watcher struct {
	collection string
	signal     chan struct{}
}

func NewFeed(name string) *Feed {
	return &Feed{
		log:      logging.NewLogger("docstore").WithField("db", name),
		watchers: make(map[uint64]*watcher),
	}
}

// Notify wakes every watcher of the given collections. A watcher that is
// still busy with an earlier wake-up picks the change up on its next query.
func (f *Feed) Notify(collections ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.watchers {
		for _, c := range collections {
			if w.collection == c {
				select {
				case w.signal <- struct{}{}:
				default:
				}
				break
			}
		}
	}
}

// Watchers reports how many feeds are currently open.
func (f *Feed) Watchers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}

// Close ends every open feed after its current snapshot.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for id, w := range f.watchers {
		close(w.signal)
		delete(f.watchers, id)
	}
}

func (f *Feed) register(collection string) (*watcher, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &watcher{collection: collection, signal: make(chan struct{}, 1)}
	if f.closed {
		close(w.signal)
		return w, func() {}
	}
	f.nextID++
	id := f.nextID
	f.watchers[id] = w
	return w, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.watchers, id)
	}
}

// Watch runs query now and again after every notification for q's collection,
// yielding a snapshot whenever the result set differs from the last one
// yielded. The watcher is registered before the first query so no commit can
// fall between the initial snapshot and the feed.
func (f *Feed) Watch(ctx context.Context, q Query, query func(context.Context, Query) (Snapshot, error)) iter.Seq2[Snapshot, error] {
	return func(yield func(Snapshot, error) bool) {
		w, unregister := f.register(q.Collection)
		defer unregister()

		log := f.log.WithField("collection", q.Collection)
		log.Debug("watch started")
		defer log.Debug("watch stopped")

		var (
			last uint64
			seen bool
		)
		for {
			snap, err := query(ctx, q)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				yield(Snapshot{}, err)
				return
			}
			if sum := Fingerprint(snap.Docs); !seen || sum != last {
				last, seen = sum, true
				if !yield(snap, nil) {
					return
				}
			}
			select {
			case _, ok := <-w.signal:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

// Fingerprint hashes the identity, order and versions of docs.
func Fingerprint(docs []Document) uint64 {
	d := xxhash.New()
	var buf [20]byte
	for _, doc := range docs {
		d.WriteString(doc.ID)
		d.Write(strconv.AppendUint(buf[:0], uint64(doc.Version), 10))
		d.WriteString("\x00")
	}
	return d.Sum64()
}
