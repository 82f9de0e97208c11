package settings_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/delaneyj/todoparty/errors"
	"github.com/delaneyj/todoparty/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissing(t *testing.T) {
	s, err := settings.Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, settings.Settings{ShowCompleted: true}, s)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yml")
	want := settings.Settings{Email: "a@b.c", LastList: "l1"}
	require.NoError(t, settings.Save(path, want))

	got, err := settings.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("email: [\n"), 0o644))

	_, err := settings.Load(path)
	assert.True(t, errors.Is(err, errors.ErrCodeEncoding))
}

func TestRemember(t *testing.T) {
	f := settings.NewFile(filepath.Join(t.TempDir(), "settings.yml"))
	require.NoError(t, f.Update(func(s *settings.Settings) { s.LastList = "l1" }))
	require.NoError(t, f.Remember(context.Background(), "a@b.c"))

	s, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", s.Email)
	assert.Equal(t, "l1", s.LastList)
	assert.True(t, s.ShowCompleted)

	require.NoError(t, f.Remember(context.Background(), ""))
	s, err = f.Load()
	require.NoError(t, err)
	assert.Empty(t, s.Email)
	assert.Empty(t, s.LastList)
}
