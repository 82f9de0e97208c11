package lists

import (
	"github.com/delaneyj/todoparty/store"
	"github.com/delaneyj/todoparty/todo"
)

// Action is implemented by the values below and nothing else.
type Action interface {
	ActionType() string
	listsAction()
}

type (
	OnAppear       struct{}
	OnDisappear    struct{}
	InvitesChanged struct{ Result store.Result[int] }
	Create         struct{ Name string }
	Created        struct{ Result store.Result[todo.Ack] }
	Rename         struct{ ID, Name string }
	Renamed        struct{ Result store.Result[todo.Ack] }
	Delete         struct{ ID string }
	Deleted        struct{ Result store.Result[todo.Ack] }
	DismissAlert   struct{}
)

// Fetched answers the initial load.
type Fetched struct {
	Result store.Result[todo.Page[todo.List]]
}

// Changed is one emission of the live list query.
type Changed struct {
	Result store.Result[todo.Page[todo.List]]
}

func (OnAppear) ActionType() string       { return "lists/onAppear" }
func (OnDisappear) ActionType() string    { return "lists/onDisappear" }
func (Fetched) ActionType() string        { return "lists/fetched" }
func (Changed) ActionType() string        { return "lists/changed" }
func (InvitesChanged) ActionType() string { return "lists/invitesChanged" }
func (Create) ActionType() string         { return "lists/create" }
func (Created) ActionType() string        { return "lists/created" }
func (Rename) ActionType() string         { return "lists/rename" }
func (Renamed) ActionType() string        { return "lists/renamed" }
func (Delete) ActionType() string         { return "lists/delete" }
func (Deleted) ActionType() string        { return "lists/deleted" }
func (DismissAlert) ActionType() string   { return "lists/dismissAlert" }

func (OnAppear) listsAction()       {}
func (OnDisappear) listsAction()    {}
func (Fetched) listsAction()        {}
func (Changed) listsAction()        {}
func (InvitesChanged) listsAction() {}
func (Create) listsAction()         {}
func (Created) listsAction()        {}
func (Rename) listsAction()         {}
func (Renamed) listsAction()        {}
func (Delete) listsAction()         {}
func (Deleted) listsAction()        {}
func (DismissAlert) listsAction()   {}
