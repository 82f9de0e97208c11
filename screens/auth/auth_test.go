package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/errors"
	"github.com/delaneyj/todoparty/screens/auth"
	"github.com/delaneyj/todoparty/store"
	"github.com/delaneyj/todoparty/store/storetest"
	"github.com/delaneyj/todoparty/todo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type remembered struct {
	mu     sync.Mutex
	emails []string
}

func (r *remembered) remember(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails = append(r.emails, email)
	return nil
}

func (r *remembered) last() (string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.emails) == 0 {
		return "", 0
	}
	return r.emails[len(r.emails)-1], len(r.emails)
}

func newScreen(t *testing.T) (*store.Store[auth.State, auth.Action], *todo.App, *remembered) {
	t.Helper()
	app := todo.New(docstore.NewMemory(), todo.WithCost(bcrypt.MinCost))
	t.Cleanup(func() { app.Close() })
	rem := &remembered{}
	s := auth.New(app.Auth, rem.remember, storetest.Quiet())
	t.Cleanup(s.Teardown)
	return s, app, rem
}

func TestSignUpThenSignOut(t *testing.T) {
	s, _, rem := newScreen(t)

	s.Send(auth.SignUp{Email: "ada@example.com", Password: "secret123", Name: "Ada"})
	st := storetest.WaitFor(t, s, func(st auth.State) bool { return st.View == auth.ViewSignedIn })
	require.True(t, st.SignedIn())
	assert.Equal(t, "Ada", st.User.Name)
	require.Eventually(t, func() bool { e, _ := rem.last(); return e == "ada@example.com" }, storetest.DefaultTimeout, time.Millisecond)

	s.Send(auth.SignOut{})
	st = storetest.WaitFor(t, s, func(st auth.State) bool { return st.View == auth.ViewSignedOut })
	assert.False(t, st.SignedIn())
	require.Eventually(t, func() bool { e, n := rem.last(); return n == 2 && e == "" }, storetest.DefaultTimeout, time.Millisecond)
}

func TestWrongPasswordAlerts(t *testing.T) {
	s, app, _ := newScreen(t)
	_, err := app.Auth.SignUp(context.Background(), "ada@example.com", "secret123", "")
	require.NoError(t, err)

	s.Send(auth.SignIn{Email: "ada@example.com", Password: "nope"})
	st := storetest.WaitFor(t, s, func(st auth.State) bool { return st.View == auth.ViewAlert })
	assert.Equal(t, "Incorrect email or password.", st.Alert)

	s.Send(auth.DismissAlert{})
	assert.Equal(t, auth.ViewSignedOut, s.State().View)

	s.Send(auth.SignIn{Email: "ada@example.com", Password: "secret123"})
	storetest.WaitFor(t, s, func(st auth.State) bool { return st.View == auth.ViewSignedIn })
}

func TestRestore(t *testing.T) {
	s, app, _ := newScreen(t)
	_, err := app.Auth.SignUp(context.Background(), "ada@example.com", "secret123", "")
	require.NoError(t, err)

	s.Send(auth.Restore{Email: "ada@example.com"})
	st := storetest.WaitFor(t, s, func(st auth.State) bool { return st.View == auth.ViewSignedIn })
	assert.Equal(t, "ada@example.com", st.User.Email)
}

func TestRestoreUnknownIsQuiet(t *testing.T) {
	s, _, rem := newScreen(t)

	s.Send(auth.Restore{Email: "gone@example.com"})
	storetest.WaitFor(t, s, func(st auth.State) bool { return st.View == auth.ViewSignedOut })
	assert.Empty(t, s.State().Alert)
	require.Eventually(t, func() bool { _, n := rem.last(); return n == 1 }, storetest.DefaultTimeout, time.Millisecond)
}

func TestTable(t *testing.T) {
	r := auth.Reducer{}
	u := &todo.User{ID: "u", Email: "u@x.y"}

	cases := []struct {
		name   string
		state  auth.State
		action auth.Action
		want   auth.State
		effect store.Kind
	}{
		{"empty sign in", auth.State{}, auth.SignIn{Email: " "}, auth.State{View: auth.ViewAlert, Alert: "Please enter your email and password."}, store.KindNone},
		{"sign in", auth.State{}, auth.SignIn{Email: "a", Password: "b"}, auth.State{View: auth.ViewSigningIn}, store.KindTask},
		{"restore nothing", auth.State{}, auth.Restore{}, auth.State{}, store.KindIgnore},
		{"sign in twice", auth.State{View: auth.ViewSigningIn}, auth.SignIn{Email: "a", Password: "b"}, auth.State{View: auth.ViewSigningIn}, store.KindIgnore},
		{"authenticated", auth.State{View: auth.ViewSigningIn}, auth.Authenticated{store.Success(*u)}, auth.State{View: auth.ViewSignedIn, User: u}, store.KindNone},
		{"restore failed", auth.State{View: auth.ViewRestoring}, auth.Authenticated{store.Failure[todo.User](errors.Unauthenticated("expired"))}, auth.State{}, store.KindNone},
		{"sign in failed", auth.State{View: auth.ViewSigningIn}, auth.Authenticated{store.Failure[todo.User](errors.Unauthenticated("Incorrect email or password."))}, auth.State{View: auth.ViewAlert, Alert: "Incorrect email or password."}, store.KindNone},
		{"sign out while signed out", auth.State{}, auth.SignOut{}, auth.State{}, store.KindIgnore},
		{"sign out", auth.State{View: auth.ViewSignedIn, User: u}, auth.SignOut{}, auth.State{View: auth.ViewSigningOut, User: u}, store.KindTask},
		{"dismiss keeps user", auth.State{View: auth.ViewAlert, Alert: "x", User: u}, auth.DismissAlert{}, auth.State{View: auth.ViewSignedIn, User: u}, store.KindNone},
		{"late authenticated", auth.State{View: auth.ViewSignedIn, User: u}, auth.Authenticated{store.Success(todo.User{ID: "other"})}, auth.State{View: auth.ViewSignedIn, User: u}, store.KindIgnore},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, effect := r.Reduce(c.state, c.action)
			assert.Equal(t, c.want, got)
			assert.Equal(t, c.effect, effect.Kind(), effect.String())
		})
	}
}
