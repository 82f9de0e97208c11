// Package docstoretest holds the behaviour every docstore backend must share.
package docstoretest

import (
	"context"
	"testing"
	"time"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a backend. open must return an empty database; it is closed
// by Run.
func Run(t *testing.T, open func(t *testing.T) docstore.DB) {
	cases := []struct {
		name string
		fn   func(t *testing.T, db docstore.DB)
	}{
		{"PutGet", testPutGet},
		{"GetMissing", testGetMissing},
		{"DeleteMissing", testDeleteMissing},
		{"VersionsIncrease", testVersionsIncrease},
		{"ApplyIsAtomic", testApplyIsAtomic},
		{"IfVersionConflict", testIfVersionConflict},
		{"QueryFilters", testQueryFilters},
		{"QueryOrder", testQueryOrder},
		{"WatchEmitsCurrentThenChanges", testWatch},
		{"WatchSkipsUnrelatedWrites", testWatchSkipsUnrelated},
		{"WatchStopsWithContext", testWatchStops},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			db := open(t)
			t.Cleanup(func() { db.Close() })
			c.fn(t, db)
		})
	}
}

func doc(id string, data map[string]any) docstore.Document {
	return docstore.Document{ID: id, Data: data}
}

func ids(snap docstore.Snapshot) []string {
	out := make([]string, len(snap.Docs))
	for i, d := range snap.Docs {
		out[i] = d.ID
	}
	return out
}

func testPutGet(t *testing.T, db docstore.DB) {
	ctx := context.Background()
	v, err := docstore.Put(ctx, db, "lists", doc("a", map[string]any{"name": "Groceries", "members": []any{"u1"}}))
	require.NoError(t, err)

	got, err := db.Get(ctx, "lists", "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, v, got.Version)
	assert.Equal(t, "Groceries", got.Data["name"])
	assert.Equal(t, []any{"u1"}, got.Data["members"])

	got.Data["name"] = "mutated"
	again, err := db.Get(ctx, "lists", "a")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", again.Data["name"])
}

func testGetMissing(t *testing.T, db docstore.DB) {
	_, err := db.Get(context.Background(), "lists", "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func testDeleteMissing(t *testing.T, db docstore.DB) {
	_, err := docstore.Delete(context.Background(), db, "lists", "nope")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func testVersionsIncrease(t *testing.T, db docstore.DB) {
	ctx := context.Background()
	v1, err := docstore.Put(ctx, db, "lists", doc("a", map[string]any{"n": 1}))
	require.NoError(t, err)
	v2, err := docstore.Put(ctx, db, "items", doc("b", map[string]any{"n": 2}))
	require.NoError(t, err)
	v3, err := docstore.Delete(ctx, db, "lists", "a")
	require.NoError(t, err)
	assert.Less(t, v1, v2)
	assert.Less(t, v2, v3)

	snap, err := db.Query(ctx, docstore.Collection("items"))
	require.NoError(t, err)
	assert.Equal(t, v3, snap.Version)
}

func testApplyIsAtomic(t *testing.T, db docstore.DB) {
	ctx := context.Background()
	_, err := db.Apply(ctx,
		docstore.Write{Collection: "items", Doc: doc("x", map[string]any{"n": 1})},
		docstore.Write{Collection: "items", Doc: docstore.Document{ID: "missing"}, Delete: true},
	)
	require.Error(t, err)

	_, err = db.Get(ctx, "items", "x")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "first write must not be committed")
}

func testIfVersionConflict(t *testing.T, db docstore.DB) {
	ctx := context.Background()
	v, err := docstore.Put(ctx, db, "lists", doc("a", map[string]any{"name": "one"}))
	require.NoError(t, err)

	_, err = db.Apply(ctx, docstore.Write{Collection: "lists", Doc: doc("a", map[string]any{"name": "two"}), IfVersion: v})
	require.NoError(t, err)

	_, err = db.Apply(ctx, docstore.Write{Collection: "lists", Doc: doc("a", map[string]any{"name": "three"}), IfVersion: v})
	assert.True(t, errors.Is(err, errors.ErrCodeConflict))

	got, err := db.Get(ctx, "lists", "a")
	require.NoError(t, err)
	assert.Equal(t, "two", got.Data["name"])
}

func seedItems(t *testing.T, db docstore.DB) {
	t.Helper()
	ctx := context.Background()
	_, err := db.Apply(ctx,
		docstore.Write{Collection: "items", Doc: doc("1", map[string]any{"list": "l1", "title": "milk", "done": false, "order": 3})},
		docstore.Write{Collection: "items", Doc: doc("2", map[string]any{"list": "l1", "title": "eggs", "done": true, "order": 1})},
		docstore.Write{Collection: "items", Doc: doc("3", map[string]any{"list": "l2", "title": "nails", "done": false, "order": 2})},
		docstore.Write{Collection: "lists", Doc: doc("l1", map[string]any{"members": []any{"u1", "u2"}})},
		docstore.Write{Collection: "lists", Doc: doc("l2", map[string]any{"members": []any{"u2"}})},
	)
	require.NoError(t, err)
}

func testQueryFilters(t *testing.T, db docstore.DB) {
	ctx := context.Background()
	seedItems(t, db)

	snap, err := db.Query(ctx, docstore.Collection("items").Where(docstore.Eq("list", "l1")))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(snap))

	snap, err = db.Query(ctx, docstore.Collection("items").Where(docstore.Eq("list", "l1"), docstore.Eq("done", false)))
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(snap))

	snap, err = db.Query(ctx, docstore.Collection("items").Where(docstore.In("list", "l2", "l9")))
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids(snap))

	snap, err = db.Query(ctx, docstore.Collection("lists").Where(docstore.Contains("members", "u1")))
	require.NoError(t, err)
	assert.Equal(t, []string{"l1"}, ids(snap))

	snap, err = db.Query(ctx, docstore.Collection("items").Where(docstore.Eq("order", 2)))
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids(snap))
}

func testQueryOrder(t *testing.T, db docstore.DB) {
	ctx := context.Background()
	seedItems(t, db)

	snap, err := db.Query(ctx, docstore.Collection("items").Order("order", false))
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "1"}, ids(snap))

	snap, err = db.Query(ctx, docstore.Collection("items").Order("title", true))
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "2"}, ids(snap))
}

type event struct {
	snap docstore.Snapshot
	err  error
}

func collect(ctx context.Context, db docstore.DB, q docstore.Query) <-chan event {
	out := make(chan event, 16)
	go func() {
		defer close(out)
		for snap, err := range db.Watch(ctx, q) {
			out <- event{snap, err}
		}
	}()
	return out
}

func next(t *testing.T, ch <-chan event) event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "feed closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot")
		return event{}
	}
}

func testWatch(t *testing.T, db docstore.DB) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seedItems(t, db)

	feed := collect(ctx, db, docstore.Collection("items").Where(docstore.Eq("list", "l1")))
	first := next(t, feed)
	require.NoError(t, first.err)
	assert.Equal(t, []string{"1", "2"}, ids(first.snap))

	v, err := docstore.Put(ctx, db, "items", doc("4", map[string]any{"list": "l1", "title": "bread"}))
	require.NoError(t, err)

	ev := next(t, feed)
	require.NoError(t, ev.err)
	assert.Equal(t, []string{"1", "2", "4"}, ids(ev.snap))
	assert.GreaterOrEqual(t, ev.snap.Version, v)
}

func testWatchSkipsUnrelated(t *testing.T, db docstore.DB) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seedItems(t, db)

	feed := collect(ctx, db, docstore.Collection("items").Where(docstore.Eq("list", "l1")))
	next(t, feed)

	// l2 rows do not change the l1 result set
	_, err := docstore.Put(ctx, db, "items", doc("5", map[string]any{"list": "l2"}))
	require.NoError(t, err)
	_, err = docstore.Put(ctx, db, "items", doc("6", map[string]any{"list": "l1"}))
	require.NoError(t, err)

	ev := next(t, feed)
	assert.Equal(t, []string{"1", "2", "6"}, ids(ev.snap))
}

func testWatchStops(t *testing.T, db docstore.DB) {
	ctx, cancel := context.WithCancel(context.Background())
	feed := collect(ctx, db, docstore.Collection("items"))
	next(t, feed)
	cancel()

	select {
	case _, ok := <-feed:
		for ok {
			_, ok = <-feed
		}
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not stop")
	}
}
