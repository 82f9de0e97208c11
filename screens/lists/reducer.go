package lists

import (
	"context"
	"iter"

	"github.com/delaneyj/todoparty/screens"
	"github.com/delaneyj/todoparty/store"
	"github.com/delaneyj/todoparty/todo"
)

// Service is the part of todo.ListRepo the screen uses.
type Service interface {
	Lists(ctx context.Context, userID string) (todo.Page[todo.List], error)
	WatchLists(ctx context.Context, userID string) iter.Seq2[todo.Page[todo.List], error]
	Create(ctx context.Context, userID, name string) (todo.Ack, error)
	Rename(ctx context.Context, userID, listID, name string) (todo.Ack, error)
	Delete(ctx context.Context, userID, listID string) (todo.Ack, error)
}

// Invites feeds the pending invitation counter.
type Invites interface {
	WatchPendingCount(ctx context.Context, email string) iter.Seq2[int, error]
}

var (
	fetchCause   = store.CauseOf("lists", "fetch")
	feedCause    = store.CauseOf("lists", "feed")
	invitesCause = store.CauseOf("lists", "invites")
)

type Reducer struct {
	User    todo.User
	Lists   Service
	Invites Invites
}

// New returns a store for the lists screen of user. invites may be nil.
func New(user todo.User, lists Service, invites Invites, opts ...store.Option) *store.Store[State, Action] {
	r := Reducer{User: user, Lists: lists, Invites: invites}
	return store.New[State, Action](State{}, r, append([]store.Option{store.WithName("lists")}, opts...)...)
}

func (r Reducer) Reduce(s State, a Action) (State, store.Effect[Action]) {
	switch a := a.(type) {
	case OnDisappear:
		s.Busy, s.FeedLost = "", false
		if s.View != ViewAlert {
			s.View = ViewIdle
		}
		return s, store.Batch(
			store.Cancel[Action](fetchCause),
			store.Cancel[Action](feedCause),
			store.Cancel[Action](invitesCause),
		)
	case InvitesChanged:
		if a.Result.OK() {
			s.PendingInvites = a.Result.Value
		}
		return s, store.None[Action]()
	}

	switch s.View {
	case ViewIdle:
		return r.reduceIdle(s, a)
	case ViewLoading:
		return r.reduceLoading(s, a)
	case ViewCreating, ViewRenaming, ViewDeleting:
		return r.reduceBusy(s, a)
	case ViewAlert:
		return r.reduceAlert(s, a)
	default:
		return s, screens.Unhandled[Action](s.View, a)
	}
}

func (r Reducer) reduceIdle(s State, a Action) (State, store.Effect[Action]) {
	switch a := a.(type) {
	case OnAppear:
		s.View = ViewLoading
		return s, store.Batch(r.fetch(), r.watchInvites())
	case Changed:
		return r.applyFeed(s, a)
	case Create:
		s.View = ViewCreating
		return s, store.Attempt("create list",
			func(ctx context.Context) (todo.Ack, error) { return r.Lists.Create(ctx, r.User.ID, a.Name) },
			func(res store.Result[todo.Ack]) Action { return Created{res} },
		)
	case Rename:
		if _, ok := s.Row(a.ID); !ok {
			return s, screens.Unhandled[Action](s.View, a)
		}
		s.View, s.Busy = ViewRenaming, a.ID
		return s, store.Attempt("rename list",
			func(ctx context.Context) (todo.Ack, error) {
				return r.Lists.Rename(ctx, r.User.ID, a.ID, a.Name)
			},
			func(res store.Result[todo.Ack]) Action { return Renamed{res} },
		)
	case Delete:
		if _, ok := s.Row(a.ID); !ok {
			return s, screens.Unhandled[Action](s.View, a)
		}
		s.View, s.Busy = ViewDeleting, a.ID
		return s, store.Attempt("delete list",
			func(ctx context.Context) (todo.Ack, error) { return r.Lists.Delete(ctx, r.User.ID, a.ID) },
			func(res store.Result[todo.Ack]) Action { return Deleted{res} },
		)
	}
	return s, screens.Unhandled[Action](s.View, a)
}

func (r Reducer) reduceLoading(s State, a Action) (State, store.Effect[Action]) {
	switch a := a.(type) {
	case Fetched:
		page, err := a.Result.Get()
		if err != nil {
			s.View, s.Alert = ViewAlert, screens.AlertMessage(err)
			return s, store.None[Action]()
		}
		s.View = ViewIdle
		s.Rows = rowsOf(r.User.ID, page.Rows)
		return s, r.watch()
	}
	return s, screens.Unhandled[Action](s.View, a)
}

// reduceBusy handles the views waiting on a write. The live query keeps
// updating rows meanwhile; user intents wait for the write to finish.
func (r Reducer) reduceBusy(s State, a Action) (State, store.Effect[Action]) {
	var res store.Result[todo.Ack]
	switch a := a.(type) {
	case Changed:
		return r.applyFeed(s, a)
	case Created:
		if s.View != ViewCreating {
			return s, screens.Unhandled[Action](s.View, a)
		}
		res = a.Result
	case Renamed:
		if s.View != ViewRenaming {
			return s, screens.Unhandled[Action](s.View, a)
		}
		res = a.Result
	case Deleted:
		if s.View != ViewDeleting {
			return s, screens.Unhandled[Action](s.View, a)
		}
		res = a.Result
	default:
		return s, screens.Unhandled[Action](s.View, a)
	}

	s.Busy = ""
	ack, err := res.Get()
	if err != nil {
		s.View, s.Alert = ViewAlert, screens.AlertMessage(err)
		return s, store.None[Action]()
	}
	s.View = ViewIdle
	s.LastWrite = max(s.LastWrite, ack.Version)
	return s, store.None[Action]()
}

func (r Reducer) reduceAlert(s State, a Action) (State, store.Effect[Action]) {
	switch a := a.(type) {
	case DismissAlert:
		s.View, s.Alert = ViewIdle, ""
		if s.FeedLost {
			s.FeedLost = false
			return s, r.watch()
		}
		return s, store.None[Action]()
	case Changed:
		return r.applyFeed(s, a)
	}
	return s, screens.Unhandled[Action](s.View, a)
}

// applyFeed replaces the rows with a live query emission unless it predates
// this screen's own last write. A failed feed has ended and surfaces as an
// alert.
func (r Reducer) applyFeed(s State, a Changed) (State, store.Effect[Action]) {
	page, err := a.Result.Get()
	if err != nil {
		s.View, s.Alert, s.Busy = ViewAlert, screens.AlertMessage(err), ""
		s.FeedLost = true
		return s, store.None[Action]()
	}
	if screens.Stale(page.Version, s.LastWrite) {
		return s, store.None[Action]()
	}
	s.Rows = rowsOf(r.User.ID, page.Rows)
	return s, store.None[Action]()
}

func (r Reducer) fetch() store.Effect[Action] {
	return store.Attempt("fetch lists",
		func(ctx context.Context) (todo.Page[todo.List], error) {
			return r.Lists.Lists(ctx, r.User.ID)
		},
		func(res store.Result[todo.Page[todo.List]]) Action { return Fetched{res} },
	).CancelOn(fetchCause)
}

func (r Reducer) watch() store.Effect[Action] {
	return store.Observe("watch lists", feedCause,
		func(ctx context.Context) iter.Seq2[todo.Page[todo.List], error] {
			return r.Lists.WatchLists(ctx, r.User.ID)
		},
		func(res store.Result[todo.Page[todo.List]]) Action { return Changed{res} },
	)
}

func (r Reducer) watchInvites() store.Effect[Action] {
	if r.Invites == nil {
		return store.None[Action]()
	}
	return store.Observe("watch invites", invitesCause,
		func(ctx context.Context) iter.Seq2[int, error] {
			return r.Invites.WatchPendingCount(ctx, r.User.Email)
		},
		func(res store.Result[int]) Action { return InvitesChanged{res} },
	)
}
