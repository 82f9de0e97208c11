package items

import (
	"context"
	"iter"

	"github.com/delaneyj/todoparty/screens"
	"github.com/delaneyj/todoparty/store"
	"github.com/delaneyj/todoparty/todo"
)

// Service is the part of todo.ItemRepo the screen uses.
type Service interface {
	Items(ctx context.Context, userID, listID string, f todo.ItemFilter) (todo.Page[todo.Item], error)
	WatchItems(ctx context.Context, userID, listID string, f todo.ItemFilter) iter.Seq2[todo.Page[todo.Item], error]
	Add(ctx context.Context, userID, listID, title string) (todo.Ack, error)
	Toggle(ctx context.Context, userID, itemID string) (todo.Ack, error)
	Rename(ctx context.Context, userID, itemID, title string) (todo.Ack, error)
	Delete(ctx context.Context, userID, itemID string) (todo.Ack, error)
}

var (
	fetchCause = store.CauseOf("items", "fetch")
	// feedCause stays the same across filter changes so a new filter
	// replaces the old subscription.
	feedCause = store.CauseOf("items", "feed")
)

type Reducer struct {
	User  todo.User
	Items Service
}

func New(user todo.User, items Service, initial State, opts ...store.Option) *store.Store[State, Action] {
	r := Reducer{User: user, Items: items}
	return store.New[State, Action](initial, r, append([]store.Option{store.WithName("items")}, opts...)...)
}

func (r Reducer) Reduce(s State, a Action) (State, store.Effect[Action]) {
	if _, ok := a.(OnDisappear); ok {
		s.Busy, s.Optimistic, s.FeedLost = "", false, false
		if s.View != ViewAlert {
			s.View = ViewIdle
		}
		return s, store.Batch(
			store.Cancel[Action](fetchCause),
			store.Cancel[Action](feedCause),
		)
	}

	switch s.View {
	case ViewIdle:
		return r.reduceIdle(s, a)
	case ViewLoading:
		return r.reduceLoading(s, a)
	case ViewAdding, ViewToggling, ViewRenaming, ViewDeleting:
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
		if a.ListID == "" {
			return s, screens.Unhandled[Action](s.View, a)
		}
		if a.ListID != s.ListID {
			s.Rows, s.LastWrite = nil, 0
		}
		s.ListID, s.View = a.ListID, ViewLoading
		return s, r.fetch(s)
	case Changed:
		return r.applyFeed(s, a)
	case SetFilter:
		return r.setFilter(s, a)
	case Add:
		s.View = ViewAdding
		listID := s.ListID
		return s, store.Attempt("add item",
			func(ctx context.Context) (todo.Ack, error) {
				return r.Items.Add(ctx, r.User.ID, listID, a.Title)
			},
			func(res store.Result[todo.Ack]) Action { return Added{res} },
		)
	case Toggle:
		if s.index(a.ID) < 0 {
			return s, screens.Unhandled[Action](s.View, a)
		}
		s = s.flip(a.ID)
		s.View, s.Busy, s.Optimistic = ViewToggling, a.ID, true
		return s, store.Attempt("toggle item",
			func(ctx context.Context) (todo.Ack, error) { return r.Items.Toggle(ctx, r.User.ID, a.ID) },
			func(res store.Result[todo.Ack]) Action { return Toggled{res} },
		)
	case Rename:
		if s.index(a.ID) < 0 {
			return s, screens.Unhandled[Action](s.View, a)
		}
		s.View, s.Busy = ViewRenaming, a.ID
		return s, store.Attempt("rename item",
			func(ctx context.Context) (todo.Ack, error) {
				return r.Items.Rename(ctx, r.User.ID, a.ID, a.Title)
			},
			func(res store.Result[todo.Ack]) Action { return Renamed{res} },
		)
	case Delete:
		if s.index(a.ID) < 0 {
			return s, screens.Unhandled[Action](s.View, a)
		}
		s.View, s.Busy = ViewDeleting, a.ID
		return s, store.Attempt("delete item",
			func(ctx context.Context) (todo.Ack, error) { return r.Items.Delete(ctx, r.User.ID, a.ID) },
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
		s.Rows = rowsOf(page.Rows)
		return s, r.watch(s)
	}
	return s, screens.Unhandled[Action](s.View, a)
}

// reduceBusy waits for the result of the running write. There is no entry
// for user intents here, so a delete sent while a toggle is in flight is
// dropped rather than queued.
func (r Reducer) reduceBusy(s State, a Action) (State, store.Effect[Action]) {
	var (
		res  store.Result[todo.Ack]
		want View
	)
	switch a := a.(type) {
	case Changed:
		return r.applyFeed(s, a)
	case SetFilter:
		return r.setFilter(s, a)
	case Added:
		res, want = a.Result, ViewAdding
	case Toggled:
		res, want = a.Result, ViewToggling
	case Renamed:
		res, want = a.Result, ViewRenaming
	case Deleted:
		res, want = a.Result, ViewDeleting
	default:
		return s, screens.Unhandled[Action](s.View, a)
	}
	if s.View != want {
		return s, screens.Unhandled[Action](s.View, a)
	}

	ack, err := res.Get()
	if err != nil {
		if s.Optimistic {
			s = s.flip(s.Busy)
		}
		s.View, s.Alert = ViewAlert, screens.AlertMessage(err)
	} else {
		s.View = ViewIdle
		s.LastWrite = max(s.LastWrite, ack.Version)
	}
	s.Busy, s.Optimistic = "", false
	return s, store.None[Action]()
}

func (r Reducer) reduceAlert(s State, a Action) (State, store.Effect[Action]) {
	switch a := a.(type) {
	case DismissAlert:
		s.View, s.Alert = ViewIdle, ""
		if s.FeedLost && s.ListID != "" {
			s.FeedLost = false
			return s, r.watch(s)
		}
		return s, store.None[Action]()
	case Changed:
		return r.applyFeed(s, a)
	}
	return s, screens.Unhandled[Action](s.View, a)
}

func (r Reducer) applyFeed(s State, a Changed) (State, store.Effect[Action]) {
	page, err := a.Result.Get()
	if err != nil {
		if s.Optimistic {
			s = s.flip(s.Busy)
		}
		s.View, s.Alert = ViewAlert, screens.AlertMessage(err)
		s.Busy, s.Optimistic, s.FeedLost = "", false, true
		return s, store.None[Action]()
	}
	if screens.Stale(page.Version, s.LastWrite) {
		return s, store.None[Action]()
	}
	s.Rows = rowsOf(page.Rows)
	s.Optimistic = false
	return s, store.None[Action]()
}

func (r Reducer) setFilter(s State, a SetFilter) (State, store.Effect[Action]) {
	f := todo.ItemFilter{HideCompleted: a.HideCompleted}
	if f == s.Filter {
		return s, store.None[Action]()
	}
	s.Filter = f
	if s.ListID == "" {
		return s, store.None[Action]()
	}
	return s, r.watch(s)
}

func (r Reducer) fetch(s State) store.Effect[Action] {
	listID, f := s.ListID, s.Filter
	return store.Attempt("fetch items",
		func(ctx context.Context) (todo.Page[todo.Item], error) {
			return r.Items.Items(ctx, r.User.ID, listID, f)
		},
		func(res store.Result[todo.Page[todo.Item]]) Action { return Fetched{res} },
	).CancelOn(fetchCause)
}

func (r Reducer) watch(s State) store.Effect[Action] {
	listID, f := s.ListID, s.Filter
	return store.Observe("watch items", feedCause,
		func(ctx context.Context) iter.Seq2[todo.Page[todo.Item], error] {
			return r.Items.WatchItems(ctx, r.User.ID, listID, f)
		},
		func(res store.Result[todo.Page[todo.Item]]) Action { return Changed{res} },
	)
}
