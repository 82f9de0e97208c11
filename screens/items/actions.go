package items

import (
	"github.com/delaneyj/todoparty/store"
	"github.com/delaneyj/todoparty/todo"
)

type Action interface {
	ActionType() string
	itemsAction()
}

type (
	OnAppear     struct{ ListID string }
	OnDisappear  struct{}
	SetFilter    struct{ HideCompleted bool }
	Add          struct{ Title string }
	Added        struct{ Result store.Result[todo.Ack] }
	Toggle       struct{ ID string }
	Toggled      struct{ Result store.Result[todo.Ack] }
	Rename       struct{ ID, Title string }
	Renamed      struct{ Result store.Result[todo.Ack] }
	Delete       struct{ ID string }
	Deleted      struct{ Result store.Result[todo.Ack] }
	DismissAlert struct{}
)

// Fetched answers the initial load.
type Fetched struct {
	Result store.Result[todo.Page[todo.Item]]
}

// Changed is one emission of the live item query.
type Changed struct {
	Result store.Result[todo.Page[todo.Item]]
}

func (OnAppear) ActionType() string     { return "items/onAppear" }
func (OnDisappear) ActionType() string  { return "items/onDisappear" }
func (Fetched) ActionType() string      { return "items/fetched" }
func (Changed) ActionType() string      { return "items/changed" }
func (SetFilter) ActionType() string    { return "items/setFilter" }
func (Add) ActionType() string          { return "items/add" }
func (Added) ActionType() string        { return "items/added" }
func (Toggle) ActionType() string       { return "items/toggle" }
func (Toggled) ActionType() string      { return "items/toggled" }
func (Rename) ActionType() string       { return "items/rename" }
func (Renamed) ActionType() string      { return "items/renamed" }
func (Delete) ActionType() string       { return "items/delete" }
func (Deleted) ActionType() string      { return "items/deleted" }
func (DismissAlert) ActionType() string { return "items/dismissAlert" }

func (OnAppear) itemsAction()     {}
func (OnDisappear) itemsAction()  {}
func (Fetched) itemsAction()      {}
func (Changed) itemsAction()      {}
func (SetFilter) itemsAction()    {}
func (Add) itemsAction()          {}
func (Added) itemsAction()        {}
func (Toggle) itemsAction()       {}
func (Toggled) itemsAction()      {}
func (Rename) itemsAction()       {}
func (Renamed) itemsAction()      {}
func (Delete) itemsAction()       {}
func (Deleted) itemsAction()      {}
func (DismissAlert) itemsAction() {}
