package invitations_test

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"
	"testing"
	"time"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/errors"
	"github.com/delaneyj/todoparty/screens/invitations"
	"github.com/delaneyj/todoparty/store"
	"github.com/delaneyj/todoparty/store/storetest"
	"github.com/delaneyj/todoparty/todo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTable(t *testing.T) {
	r := invitations.Reducer{User: todo.User{ID: "u", Email: "u@x.y"}}
	rows := []invitations.Row{{ID: "i1", ListName: "Groceries"}}
	ok := store.Success(todo.Ack{ID: "i9", Version: 4})

	cases := []struct {
		name   string
		state  invitations.State
		action invitations.Action
		want   invitations.State
		effect store.Kind
	}{
		{"appear", invitations.State{}, invitations.OnAppear{}, invitations.State{View: invitations.ViewLoading}, store.KindTask},
		{"fetch failed", invitations.State{View: invitations.ViewLoading}, invitations.Fetched{store.Failure[todo.Page[todo.Invitation]](fmt.Errorf("x"))}, invitations.State{View: invitations.ViewAlert, Alert: errors.DefaultMessage}, store.KindNone},
		{"accept unknown", invitations.State{Rows: rows}, invitations.Accept{ID: "nope"}, invitations.State{Rows: rows}, store.KindIgnore},
		{"accept", invitations.State{Rows: rows}, invitations.Accept{ID: "i1"}, invitations.State{View: invitations.ViewAnswering, Busy: "i1", Rows: rows}, store.KindTask},
		{"decline while answering", invitations.State{View: invitations.ViewAnswering, Busy: "i1", Rows: rows}, invitations.Decline{ID: "i1"}, invitations.State{View: invitations.ViewAnswering, Busy: "i1", Rows: rows}, store.KindIgnore},
		{"answered", invitations.State{View: invitations.ViewAnswering, Busy: "i1", Rows: rows}, invitations.Answered{ok}, invitations.State{Rows: rows, LastWrite: 4}, store.KindNone},
		{"invited while answering", invitations.State{View: invitations.ViewAnswering, Busy: "i1"}, invitations.Invited{ok}, invitations.State{View: invitations.ViewAnswering, Busy: "i1"}, store.KindIgnore},
		{"invite", invitations.State{Sent: "old@x.y"}, invitations.Invite{ListID: "l", Email: "a@b.c"}, invitations.State{View: invitations.ViewInviting, Busy: "a@b.c"}, store.KindTask},
		{"invited", invitations.State{View: invitations.ViewInviting, Busy: "a@b.c"}, invitations.Invited{ok}, invitations.State{Sent: "a@b.c", LastWrite: 4}, store.KindNone},
		{"invite rejected", invitations.State{View: invitations.ViewInviting, Busy: "a@b.c"}, invitations.Invited{store.Failure[todo.Ack](errors.InvalidInput("email", "You can't invite yourself."))}, invitations.State{View: invitations.ViewAlert, Alert: "You can't invite yourself."}, store.KindNone},
		{"snapshot while loading", invitations.State{View: invitations.ViewLoading}, invitations.Changed{store.Success(todo.Page[todo.Invitation]{})}, invitations.State{View: invitations.ViewLoading}, store.KindIgnore},
		{"snapshot in alert", invitations.State{View: invitations.ViewAlert, Alert: "a"}, invitations.Changed{store.Success(todo.Page[todo.Invitation]{Version: 1})}, invitations.State{View: invitations.ViewAlert, Alert: "a", Rows: []invitations.Row{}}, store.KindNone},
		{"dismiss", invitations.State{View: invitations.ViewAlert, Alert: "a"}, invitations.DismissAlert{}, invitations.State{}, store.KindNone},
		{"feed failure", invitations.State{View: invitations.ViewAnswering, Busy: "i1", Rows: rows}, invitations.Changed{store.Failure[todo.Page[todo.Invitation]](fmt.Errorf("x"))}, invitations.State{View: invitations.ViewAlert, Alert: errors.DefaultMessage, Rows: rows, FeedLost: true}, store.KindNone},
		{"dismiss after feed failure", invitations.State{View: invitations.ViewAlert, Alert: "a", Rows: rows, FeedLost: true}, invitations.DismissAlert{}, invitations.State{Rows: rows}, store.KindStream},
		{"disappear forgets lost feed", invitations.State{View: invitations.ViewAlert, Alert: "a", FeedLost: true}, invitations.OnDisappear{}, invitations.State{View: invitations.ViewAlert, Alert: "a"}, store.KindBatch},
		{"dismiss in idle", invitations.State{}, invitations.DismissAlert{}, invitations.State{}, store.KindIgnore},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, effect := r.Reduce(c.state, c.action)
			assert.Equal(t, c.want, got)
			assert.Equal(t, c.effect, effect.Kind(), effect.String())
		})
	}
}

func TestAcceptFlow(t *testing.T) {
	ctx := context.Background()
	app := todo.New(docstore.NewMemory(), todo.WithCost(bcrypt.MinCost))
	t.Cleanup(func() { app.Close() })
	owner, err := app.Auth.SignUp(ctx, "owner@example.com", "secret123", "")
	require.NoError(t, err)
	guest, err := app.Auth.SignUp(ctx, "guest@example.com", "secret123", "")
	require.NoError(t, err)
	groceries, err := app.Lists.Create(ctx, owner.ID, "Groceries")
	require.NoError(t, err)
	tools, err := app.Lists.Create(ctx, owner.ID, "Tools")
	require.NoError(t, err)

	ownerScreen := invitations.New(owner, app.Invitations, storetest.Quiet())
	t.Cleanup(ownerScreen.Teardown)
	ownerScreen.Send(invitations.Invite{ListID: groceries.ID, Email: guest.Email})
	st := storetest.WaitFor(t, ownerScreen, func(st invitations.State) bool { return st.View == invitations.ViewIdle })
	assert.Equal(t, guest.Email, st.Sent)

	s := invitations.New(guest, app.Invitations, storetest.Quiet())
	t.Cleanup(s.Teardown)
	s.Send(invitations.OnAppear{})
	st = storetest.WaitFor(t, s, func(st invitations.State) bool { return st.View == invitations.ViewIdle && len(st.Rows) == 1 })
	assert.Equal(t, "Groceries", st.Rows[0].ListName)
	assert.Equal(t, owner.Email, st.Rows[0].FromEmail)

	ownerScreen.Send(invitations.Invite{ListID: tools.ID, Email: guest.Email})
	storetest.WaitFor(t, s, func(st invitations.State) bool { return len(st.Rows) == 2 })

	s.Send(invitations.Accept{ID: st.Rows[0].ID})
	st = storetest.WaitFor(t, s, func(st invitations.State) bool { return st.View == invitations.ViewIdle && len(st.Rows) == 1 })
	assert.Equal(t, "Tools", st.Rows[0].ListName)

	s.Send(invitations.Decline{ID: st.Rows[0].ID})
	storetest.WaitFor(t, s, func(st invitations.State) bool { return st.View == invitations.ViewIdle && len(st.Rows) == 0 })

	mine, err := app.Lists.Lists(ctx, guest.ID)
	require.NoError(t, err)
	require.Len(t, mine.Rows, 1)
	assert.Equal(t, "Groceries", mine.Rows[0].Name)
}

// flakyInvitations fails its first live query and then serves the pages
// sent on pages.
type flakyInvitations struct {
	invitations.Service
	watches atomic.Int32
	pages   chan todo.Page[todo.Invitation]
}

func (f *flakyInvitations) Pending(context.Context, string) (todo.Page[todo.Invitation], error) {
	return todo.Page[todo.Invitation]{Version: 1}, nil
}

func (f *flakyInvitations) WatchPending(ctx context.Context, _ string) iter.Seq2[todo.Page[todo.Invitation], error] {
	n := f.watches.Add(1)
	return func(yield func(todo.Page[todo.Invitation], error) bool) {
		if n == 1 {
			yield(todo.Page[todo.Invitation]{}, fmt.Errorf("connection reset"))
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case p := <-f.pages:
				if !yield(p, nil) {
					return
				}
			}
		}
	}
}

func TestDismissAfterFeedFailureResubscribes(t *testing.T) {
	f := &flakyInvitations{pages: make(chan todo.Page[todo.Invitation])}
	s := invitations.New(todo.User{ID: "u", Email: "u@x.y"}, f, storetest.Quiet())
	t.Cleanup(s.Teardown)

	s.Send(invitations.OnAppear{})
	st := storetest.WaitFor(t, s, func(st invitations.State) bool { return st.View == invitations.ViewAlert })
	assert.True(t, st.FeedLost)

	s.Send(invitations.DismissAlert{})
	require.Eventually(t, func() bool { return f.watches.Load() == 2 }, time.Second, time.Millisecond)
	f.pages <- todo.Page[todo.Invitation]{Rows: []todo.Invitation{{ID: "i1", ListName: "Groceries"}}, Version: 2}
	st = storetest.WaitFor(t, s, func(st invitations.State) bool { return len(st.Rows) == 1 })
	assert.Equal(t, invitations.ViewIdle, st.View)
	assert.False(t, st.FeedLost)
}
