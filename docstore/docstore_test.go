package docstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/docstore/docstoretest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	docstoretest.Run(t, func(*testing.T) docstore.DB {
		return docstore.NewMemory()
	})
}

func TestFilterMatch(t *testing.T) {
	data := map[string]any{
		"title":   "milk",
		"done":    false,
		"order":   float64(2),
		"members": []any{"u1", "u2"},
	}

	assert.True(t, docstore.Eq("title", "milk").Match(data))
	assert.False(t, docstore.Eq("title", "eggs").Match(data))
	assert.True(t, docstore.Eq("done", false).Match(data))
	assert.True(t, docstore.Eq("order", 2).Match(data))
	assert.True(t, docstore.In("title", "eggs", "milk").Match(data))
	assert.False(t, docstore.In("title").Match(data))
	assert.True(t, docstore.Contains("members", "u2").Match(data))
	assert.False(t, docstore.Contains("members", "u3").Match(data))
	assert.False(t, docstore.Contains("title", "milk").Match(data))
	assert.False(t, docstore.Eq("missing", nil).Match(data))
}

func TestWhereDoesNotAlias(t *testing.T) {
	base := docstore.Collection("items").Where(docstore.Eq("list", "a"))
	a := base.Where(docstore.Eq("done", true))
	b := base.Where(docstore.Eq("done", false))

	assert.Len(t, base.Filters, 1)
	assert.Equal(t, true, a.Filters[1].Value)
	assert.Equal(t, false, b.Filters[1].Value)
}

func TestEncodeDecode(t *testing.T) {
	type item struct {
		Title string `json:"title"`
		Done  bool   `json:"done"`
	}
	data, err := docstore.Encode(item{Title: "milk", Done: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "milk", "done": true}, data)

	var out item
	require.NoError(t, docstore.Decode(data, &out))
	assert.Equal(t, item{Title: "milk", Done: true}, out)
}

func TestFingerprint(t *testing.T) {
	a := []docstore.Document{{ID: "1", Version: 1}, {ID: "2", Version: 1}}
	b := []docstore.Document{{ID: "2", Version: 1}, {ID: "1", Version: 1}}
	c := []docstore.Document{{ID: "1", Version: 2}, {ID: "2", Version: 1}}

	assert.Equal(t, docstore.Fingerprint(a), docstore.Fingerprint(a))
	assert.NotEqual(t, docstore.Fingerprint(a), docstore.Fingerprint(b))
	assert.NotEqual(t, docstore.Fingerprint(a), docstore.Fingerprint(c))
}

func TestCloseEndsFeeds(t *testing.T) {
	db := docstore.NewMemory()
	done := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	go func() {
		defer close(done)
		for range db.Watch(context.Background(), docstore.Collection("items")) {
			once.Do(func() { close(started) })
		}
	}()
	<-started
	require.NoError(t, db.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not end on close")
	}
}
