// Package items is the screen for the items of one list.
package items

import (
	"slices"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/todo"
)

type View uint8

const (
	ViewIdle View = iota
	ViewLoading
	ViewAdding
	ViewToggling
	ViewRenaming
	ViewDeleting
	ViewAlert
)

func (v View) String() string {
	switch v {
	case ViewIdle:
		return "idle"
	case ViewLoading:
		return "loading"
	case ViewAdding:
		return "adding"
	case ViewToggling:
		return "toggling"
	case ViewRenaming:
		return "renaming"
	case ViewDeleting:
		return "deleting"
	case ViewAlert:
		return "alert"
	default:
		return "unknown"
	}
}

type Row struct {
	ID    string
	Title string
	Done  bool
}

type State struct {
	ListID string
	View   View
	Alert  string
	Rows   []Row
	Filter todo.ItemFilter
	Busy   string
	// Optimistic is set while Rows shows a toggle the database has not
	// confirmed yet.
	Optimistic bool
	LastWrite  docstore.Version
	// FeedLost is set when the live query failed; dismissing the alert
	// subscribes again.
	FeedLost bool
}

func (s State) index(id string) int {
	return slices.IndexFunc(s.Rows, func(r Row) bool { return r.ID == id })
}

// Remaining counts the rows still to do.
func (s State) Remaining() int {
	n := 0
	for _, r := range s.Rows {
		if !r.Done {
			n++
		}
	}
	return n
}

// flip returns s with row id's done flag inverted. Rows are copied first so
// earlier states keep their own slice.
func (s State) flip(id string) State {
	i := s.index(id)
	if i < 0 {
		return s
	}
	s.Rows = slices.Clone(s.Rows)
	s.Rows[i].Done = !s.Rows[i].Done
	return s
}

func rowsOf(items []todo.Item) []Row {
	rows := make([]Row, len(items))
	for i, it := range items {
		rows[i] = Row{ID: it.ID, Title: it.Title, Done: it.Done}
	}
	return rows
}
