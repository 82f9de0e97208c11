// Package todo holds the to-do domain: users, shared lists, items and
// invitations, stored as documents in a docstore.DB.
package todo

import (
	"time"

	"github.com/delaneyj/todoparty/docstore"
)

const (
	UsersCollection       = "users"
	ListsCollection       = "lists"
	ItemsCollection       = "items"
	InvitationsCollection = "invitations"
)

type User struct {
	ID           string    `json:"-"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

type List struct {
	ID        string           `json:"-"`
	Name      string           `json:"name"`
	OwnerID   string           `json:"ownerId"`
	Members   []string         `json:"members"`
	CreatedAt time.Time        `json:"createdAt"`
	Version   docstore.Version `json:"-"`
}

// Shared reports whether anyone besides the owner can see the list.
func (l List) Shared() bool {
	return len(l.Members) > 1
}

type Item struct {
	ID        string           `json:"-"`
	ListID    string           `json:"listId"`
	Title     string           `json:"title"`
	Done      bool             `json:"done"`
	Position  int64            `json:"position"`
	CreatedBy string           `json:"createdBy"`
	CreatedAt time.Time        `json:"createdAt"`
	Version   docstore.Version `json:"-"`
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

type Invitation struct {
	ID        string           `json:"-"`
	ListID    string           `json:"listId"`
	ListName  string           `json:"listName"`
	FromID    string           `json:"fromId"`
	FromEmail string           `json:"fromEmail"`
	ToEmail   string           `json:"toEmail"`
	Status    InvitationStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	Version   docstore.Version `json:"-"`
}

// Page is a query result together with the database version it was read at.
type Page[T any] struct {
	Rows    []T
	Version docstore.Version
}

// Ack confirms a write. Version is the token a screen compares incoming
// snapshots against to recognise its own write echoing back.
type Ack struct {
	ID      string
	Version docstore.Version
}

// ItemFilter narrows an item query.
type ItemFilter struct {
	HideCompleted bool
}
