package docstore

import (
	"context"
	"iter"
	"sync"

	"github.com/delaneyj/todoparty/errors"
)

// Memory is an in-process DB. Documents are deep copied on the way in and
// out so callers never share maps with the store.
type Memory struct {
	feed *Feed

	mu      sync.RWMutex
	version Version
	colls   map[string]map[string]Document
	closed  bool
}

var _ DB = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		feed:  NewFeed("memory"),
		colls: make(map[string]map[string]Document),
	}
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Document{}, errClosed
	}
	doc, ok := m.colls[collection][id]
	if !ok {
		return Document{}, errors.NotFound(collection, id)
	}
	return cloneDoc(doc), nil
}

func (m *Memory) Query(ctx context.Context, q Query) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Snapshot{}, errClosed
	}
	docs := make([]Document, 0, len(m.colls[q.Collection]))
	for _, doc := range m.colls[q.Collection] {
		if q.Match(doc) {
			docs = append(docs, cloneDoc(doc))
		}
	}
	q.Sort(docs)
	return Snapshot{Docs: docs, Version: m.version}, nil
}

func (m *Memory) Apply(ctx context.Context, writes ...Write) (Version, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, errClosed
	}
	if err := checkWrites(writes, func(coll, id string) (Document, bool) {
		doc, ok := m.colls[coll][id]
		return doc, ok
	}); err != nil {
		m.mu.Unlock()
		return 0, err
	}

	m.version++
	v := m.version
	touched := make([]string, 0, len(writes))
	for _, w := range writes {
		coll, ok := m.colls[w.Collection]
		if !ok {
			coll = make(map[string]Document)
			m.colls[w.Collection] = coll
		}
		if w.Delete {
			delete(coll, w.Doc.ID)
		} else {
			data, _ := normalize(w.Doc.Data).(map[string]any)
			coll[w.Doc.ID] = Document{ID: w.Doc.ID, Data: data, Version: v}
		}
		touched = append(touched, w.Collection)
	}
	m.mu.Unlock()

	m.feed.Notify(touched...)
	return v, nil
}

func (m *Memory) Watch(ctx context.Context, q Query) iter.Seq2[Snapshot, error] {
	return m.feed.Watch(ctx, q, m.Query)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.colls = nil
	m.mu.Unlock()
	m.feed.Close()
	return nil
}

var errClosed = errors.New(errors.ErrCodeStorage, "database is closed")

// checkWrites validates a batch before anything is committed.
func checkWrites(writes []Write, lookup func(coll, id string) (Document, bool)) error {
	if len(writes) == 0 {
		return errors.InvalidInput("writes", "nothing to write")
	}
	for _, w := range writes {
		if w.Collection == "" {
			return errors.InvalidInput("collection", "collection is required")
		}
		if w.Doc.ID == "" {
			return errors.InvalidInput("id", "document id is required")
		}
		cur, exists := lookup(w.Collection, w.Doc.ID)
		if w.Delete && !exists {
			return errors.NotFound(w.Collection, w.Doc.ID)
		}
		if w.IfVersion != 0 && (!exists || cur.Version != w.IfVersion) {
			return errors.Conflict(w.Collection, "document changed since it was read").
				WithDetail("id", w.Doc.ID)
		}
	}
	return nil
}
