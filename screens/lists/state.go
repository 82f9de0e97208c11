// Package lists is the screen showing the lists a user belongs to, along
// with the number of invitations waiting for them.
package lists

import (
	"slices"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/todo"
)

type View uint8

const (
	ViewIdle View = iota
	ViewLoading
	ViewCreating
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
	case ViewCreating:
		return "creating"
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
	ID     string
	Name   string
	Shared bool
	Owned  bool
}

type State struct {
	View  View
	Alert string
	Rows  []Row
	// Busy is the row a rename or delete is running for.
	Busy           string
	PendingInvites int
	LastWrite      docstore.Version
	// FeedLost is set when the live query failed; dismissing the alert
	// subscribes again.
	FeedLost bool
}

func (s State) Row(id string) (Row, bool) {
	i := slices.IndexFunc(s.Rows, func(r Row) bool { return r.ID == id })
	if i < 0 {
		return Row{}, false
	}
	return s.Rows[i], true
}

func rowsOf(userID string, lists []todo.List) []Row {
	rows := make([]Row, len(lists))
	for i, l := range lists {
		rows[i] = Row{
			ID:     l.ID,
			Name:   l.Name,
			Shared: l.Shared(),
			Owned:  l.OwnerID == userID,
		}
	}
	return rows
}
