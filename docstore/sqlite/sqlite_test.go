package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/docstore/docstoretest"
	"github.com/delaneyj/todoparty/docstore/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite(t *testing.T) {
	docstoretest.Run(t, func(t *testing.T) docstore.DB {
		db, err := sqlite.Open(filepath.Join(t.TempDir(), "todo.db"))
		require.NoError(t, err)
		return db
	})
}

func TestReopenKeepsDocumentsAndVersion(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "todo.db")

	db, err := sqlite.Open(path)
	require.NoError(t, err)
	v, err := docstore.Put(ctx, db, "lists", docstore.Document{ID: "a", Data: map[string]any{"name": "Groceries"}})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = sqlite.Open(path)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Get(ctx, "lists", "a")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Data["name"])
	assert.Equal(t, v, got.Version)

	next, err := docstore.Put(ctx, db, "lists", docstore.Document{ID: "b", Data: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, v+1, next)
}

func TestInMemory(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = docstore.Put(context.Background(), db, "items", docstore.Document{ID: "x", Data: map[string]any{"n": 1}})
	require.NoError(t, err)
	snap, err := db.Query(context.Background(), docstore.Collection("items"))
	require.NoError(t, err)
	assert.Len(t, snap.Docs, 1)
}
