// Package settings persists the small amount of local state the app keeps
// between runs: who is signed in and how lists are shown.
package settings

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/delaneyj/todoparty/errors"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	// Email of the signed in user; empty when signed out.
	Email         string `yaml:"email,omitempty"`
	ShowCompleted bool   `yaml:"show_completed"`
	LastList      string `yaml:"last_list,omitempty"`
}

// Load reads settings from path. A missing file yields the zero Settings
// with completed items shown.
func Load(path string) (Settings, error) {
	s := Settings{ShowCompleted: true}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, errors.Storage("read settings", err).WithDetail("path", path)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{ShowCompleted: true}, errors.Encoding("settings", err).WithDetail("path", path)
	}
	return s, nil
}

// Save writes s to path, replacing the old file only once the new one is
// complete.
func Save(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Encoding("settings", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Storage("write settings", err).WithDetail("path", path)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*")
	if err != nil {
		return errors.Storage("write settings", err).WithDetail("path", path)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Storage("write settings", err).WithDetail("path", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Storage("write settings", err).WithDetail("path", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Storage("write settings", err).WithDetail("path", path)
	}
	return nil
}

// File serializes read-modify-write cycles on one settings file.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Load() (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Load(f.path)
}

// Update applies fn to the stored settings and saves the result.
func (f *File) Update(fn func(*Settings)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := Load(f.path)
	if err != nil {
		return err
	}
	fn(&s)
	return Save(f.path, s)
}

// Remember stores the signed in email, or clears it along with the last
// opened list when email is empty.
func (f *File) Remember(_ context.Context, email string) error {
	return f.Update(func(s *Settings) {
		s.Email = email
		if email == "" {
			s.LastList = ""
		}
	})
}
