// Package invitations is the screen where a user answers invitations to
// shared lists and invites others to their own.
package invitations

import (
	"context"
	"iter"
	"slices"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/screens"
	"github.com/delaneyj/todoparty/store"
	"github.com/delaneyj/todoparty/todo"
)

type View uint8

const (
	ViewIdle View = iota
	ViewLoading
	ViewInviting
	ViewAnswering
	ViewAlert
)

func (v View) String() string {
	switch v {
	case ViewIdle:
		return "idle"
	case ViewLoading:
		return "loading"
	case ViewInviting:
		return "inviting"
	case ViewAnswering:
		return "answering"
	case ViewAlert:
		return "alert"
	default:
		return "unknown"
	}
}

type Row struct {
	ID        string
	ListName  string
	FromEmail string
}

type State struct {
	View  View
	Alert string
	Rows  []Row
	// Busy is the invitation being answered or the address being invited.
	Busy string
	// Sent is the address of the last invitation that went out.
	Sent      string
	LastWrite docstore.Version
	// FeedLost is set when the live query failed; dismissing the alert
	// subscribes again.
	FeedLost bool
}

type Action interface {
	ActionType() string
	invitationsAction()
}

type (
	OnAppear     struct{}
	OnDisappear  struct{}
	Invite       struct{ ListID, Email string }
	Invited      struct{ Result store.Result[todo.Ack] }
	Accept       struct{ ID string }
	Decline      struct{ ID string }
	Answered     struct{ Result store.Result[todo.Ack] }
	DismissAlert struct{}
)

type Fetched struct {
	Result store.Result[todo.Page[todo.Invitation]]
}

type Changed struct {
	Result store.Result[todo.Page[todo.Invitation]]
}

func (OnAppear) ActionType() string     { return "invitations/onAppear" }
func (OnDisappear) ActionType() string  { return "invitations/onDisappear" }
func (Fetched) ActionType() string      { return "invitations/fetched" }
func (Changed) ActionType() string      { return "invitations/changed" }
func (Invite) ActionType() string       { return "invitations/invite" }
func (Invited) ActionType() string      { return "invitations/invited" }
func (Accept) ActionType() string       { return "invitations/accept" }
func (Decline) ActionType() string      { return "invitations/decline" }
func (Answered) ActionType() string     { return "invitations/answered" }
func (DismissAlert) ActionType() string { return "invitations/dismissAlert" }

func (OnAppear) invitationsAction()     {}
func (OnDisappear) invitationsAction()  {}
func (Fetched) invitationsAction()      {}
func (Changed) invitationsAction()      {}
func (Invite) invitationsAction()       {}
func (Invited) invitationsAction()      {}
func (Accept) invitationsAction()       {}
func (Decline) invitationsAction()      {}
func (Answered) invitationsAction()     {}
func (DismissAlert) invitationsAction() {}

// Service is the part of todo.InvitationRepo the screen uses.
type Service interface {
	Pending(ctx context.Context, email string) (todo.Page[todo.Invitation], error)
	WatchPending(ctx context.Context, email string) iter.Seq2[todo.Page[todo.Invitation], error]
	Invite(ctx context.Context, from todo.User, listID, email string) (todo.Ack, error)
	Accept(ctx context.Context, user todo.User, invitationID string) (todo.Ack, error)
	Decline(ctx context.Context, user todo.User, invitationID string) (todo.Ack, error)
}

var (
	fetchCause = store.CauseOf("invitations", "fetch")
	feedCause  = store.CauseOf("invitations", "feed")
)

type Reducer struct {
	User        todo.User
	Invitations Service
}

func New(user todo.User, svc Service, opts ...store.Option) *store.Store[State, Action] {
	r := Reducer{User: user, Invitations: svc}
	return store.New[State, Action](State{}, r, append([]store.Option{store.WithName("invitations")}, opts...)...)
}

func (r Reducer) Reduce(s State, a Action) (State, store.Effect[Action]) {
	if _, ok := a.(OnDisappear); ok {
		s.Busy, s.FeedLost = "", false
		if s.View != ViewAlert {
			s.View = ViewIdle
		}
		return s, store.Batch(
			store.Cancel[Action](fetchCause),
			store.Cancel[Action](feedCause),
		)
	}
	if a, ok := a.(Changed); ok && s.View != ViewLoading {
		return r.applyFeed(s, a)
	}

	switch s.View {
	case ViewIdle:
		return r.reduceIdle(s, a)
	case ViewLoading:
		return r.reduceLoading(s, a)
	case ViewInviting, ViewAnswering:
		return r.reduceBusy(s, a)
	case ViewAlert:
		if _, ok := a.(DismissAlert); ok {
			s.View, s.Alert = ViewIdle, ""
			if s.FeedLost {
				s.FeedLost = false
				return s, r.watch()
			}
			return s, store.None[Action]()
		}
	}
	return s, screens.Unhandled[Action](s.View, a)
}

func (r Reducer) reduceIdle(s State, a Action) (State, store.Effect[Action]) {
	switch a := a.(type) {
	case OnAppear:
		s.View = ViewLoading
		return s, store.Attempt("fetch invitations",
			func(ctx context.Context) (todo.Page[todo.Invitation], error) {
				return r.Invitations.Pending(ctx, r.User.Email)
			},
			func(res store.Result[todo.Page[todo.Invitation]]) Action { return Fetched{res} },
		).CancelOn(fetchCause)
	case Invite:
		s.View, s.Busy, s.Sent = ViewInviting, a.Email, ""
		return s, store.Attempt("invite",
			func(ctx context.Context) (todo.Ack, error) {
				return r.Invitations.Invite(ctx, r.User, a.ListID, a.Email)
			},
			func(res store.Result[todo.Ack]) Action { return Invited{res} },
		)
	case Accept:
		return r.answer(s, a.ID, "accept invitation", func(ctx context.Context, id string) (todo.Ack, error) {
			return r.Invitations.Accept(ctx, r.User, id)
		})
	case Decline:
		return r.answer(s, a.ID, "decline invitation", func(ctx context.Context, id string) (todo.Ack, error) {
			return r.Invitations.Decline(ctx, r.User, id)
		})
	}
	return s, screens.Unhandled[Action](s.View, a)
}

func (r Reducer) answer(s State, id, name string, op func(context.Context, string) (todo.Ack, error)) (State, store.Effect[Action]) {
	if !slices.ContainsFunc(s.Rows, func(row Row) bool { return row.ID == id }) {
		return s, store.Ignore[Action]("no pending invitation " + id)
	}
	s.View, s.Busy = ViewAnswering, id
	return s, store.Attempt(name,
		func(ctx context.Context) (todo.Ack, error) { return op(ctx, id) },
		func(res store.Result[todo.Ack]) Action { return Answered{res} },
	)
}

func (r Reducer) reduceLoading(s State, a Action) (State, store.Effect[Action]) {
	f, ok := a.(Fetched)
	if !ok {
		return s, screens.Unhandled[Action](s.View, a)
	}
	page, err := f.Result.Get()
	if err != nil {
		s.View, s.Alert = ViewAlert, screens.AlertMessage(err)
		return s, store.None[Action]()
	}
	s.View = ViewIdle
	s.Rows = rowsOf(page.Rows)
	return s, r.watch()
}

func (r Reducer) watch() store.Effect[Action] {
	return store.Observe("watch invitations", feedCause,
		func(ctx context.Context) iter.Seq2[todo.Page[todo.Invitation], error] {
			return r.Invitations.WatchPending(ctx, r.User.Email)
		},
		func(res store.Result[todo.Page[todo.Invitation]]) Action { return Changed{res} },
	)
}

func (r Reducer) reduceBusy(s State, a Action) (State, store.Effect[Action]) {
	var res store.Result[todo.Ack]
	switch a := a.(type) {
	case Invited:
		if s.View != ViewInviting {
			return s, screens.Unhandled[Action](s.View, a)
		}
		res = a.Result
	case Answered:
		if s.View != ViewAnswering {
			return s, screens.Unhandled[Action](s.View, a)
		}
		res = a.Result
	default:
		return s, screens.Unhandled[Action](s.View, a)
	}

	invited, busy := s.View == ViewInviting, s.Busy
	s.Busy = ""
	ack, err := res.Get()
	if err != nil {
		s.View, s.Alert = ViewAlert, screens.AlertMessage(err)
		return s, store.None[Action]()
	}
	s.View = ViewIdle
	s.LastWrite = max(s.LastWrite, ack.Version)
	if invited {
		s.Sent = busy
	}
	return s, store.None[Action]()
}

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
	s.Rows = rowsOf(page.Rows)
	return s, store.None[Action]()
}

func rowsOf(invs []todo.Invitation) []Row {
	rows := make([]Row, len(invs))
	for i, inv := range invs {
		rows[i] = Row{ID: inv.ID, ListName: inv.ListName, FromEmail: inv.FromEmail}
	}
	return rows
}
