// Package auth is the sign in and sign up screen. It also restores the
// session remembered in local settings.
package auth

import (
	"context"
	"strings"

	"github.com/delaneyj/todoparty/errors"
	"github.com/delaneyj/todoparty/screens"
	"github.com/delaneyj/todoparty/store"
	"github.com/delaneyj/todoparty/todo"
)

type View uint8

const (
	ViewSignedOut View = iota
	ViewRestoring
	ViewSigningIn
	ViewSigningUp
	ViewSignedIn
	ViewSigningOut
	ViewAlert
)

func (v View) String() string {
	switch v {
	case ViewSignedOut:
		return "signedOut"
	case ViewRestoring:
		return "restoring"
	case ViewSigningIn:
		return "signingIn"
	case ViewSigningUp:
		return "signingUp"
	case ViewSignedIn:
		return "signedIn"
	case ViewSigningOut:
		return "signingOut"
	case ViewAlert:
		return "alert"
	default:
		return "unknown"
	}
}

type State struct {
	View  View
	Alert string
	User  *todo.User
}

func (s State) SignedIn() bool {
	return s.User != nil
}

type Action interface {
	ActionType() string
	authAction()
}

type (
	Restore       struct{ Email string }
	SignIn        struct{ Email, Password string }
	SignUp        struct{ Email, Password, Name string }
	SignOut       struct{}
	Authenticated struct{ Result store.Result[todo.User] }
	SignedOut     struct{ Result store.Result[struct{}] }
	DismissAlert  struct{}
)

func (Restore) ActionType() string       { return "auth/restore" }
func (SignIn) ActionType() string        { return "auth/signIn" }
func (SignUp) ActionType() string        { return "auth/signUp" }
func (SignOut) ActionType() string       { return "auth/signOut" }
func (Authenticated) ActionType() string { return "auth/authenticated" }
func (SignedOut) ActionType() string     { return "auth/signedOut" }
func (DismissAlert) ActionType() string  { return "auth/dismissAlert" }

func (Restore) authAction()       {}
func (SignIn) authAction()        {}
func (SignUp) authAction()        {}
func (SignOut) authAction()       {}
func (Authenticated) authAction() {}
func (SignedOut) authAction()     {}
func (DismissAlert) authAction()  {}

// Service is the part of todo.Auth the screen uses.
type Service interface {
	SignIn(ctx context.Context, email, password string) (todo.User, error)
	SignUp(ctx context.Context, email, password, name string) (todo.User, error)
	SignOut(ctx context.Context) error
	Restore(ctx context.Context, email string) (todo.User, error)
}

// RememberFunc persists the signed in email, or clears it when empty.
type RememberFunc func(ctx context.Context, email string) error

type Reducer struct {
	Auth     Service
	Remember RememberFunc
}

func New(svc Service, remember RememberFunc, opts ...store.Option) *store.Store[State, Action] {
	r := Reducer{Auth: svc, Remember: remember}
	return store.New[State, Action](State{}, r, append([]store.Option{store.WithName("auth")}, opts...)...)
}

func (r Reducer) Reduce(s State, a Action) (State, store.Effect[Action]) {
	switch s.View {
	case ViewSignedOut:
		return r.reduceSignedOut(s, a)
	case ViewRestoring, ViewSigningIn, ViewSigningUp:
		return r.reduceAuthenticating(s, a)
	case ViewSignedIn:
		if _, ok := a.(SignOut); ok {
			s.View = ViewSigningOut
			return s, store.Attempt("sign out",
				func(ctx context.Context) (struct{}, error) { return struct{}{}, r.Auth.SignOut(ctx) },
				func(res store.Result[struct{}]) Action { return SignedOut{res} },
			)
		}
	case ViewSigningOut:
		if a, ok := a.(SignedOut); ok {
			if err := a.Result.Err; err != nil {
				s.View, s.Alert = ViewAlert, screens.AlertMessage(err)
				return s, store.None[Action]()
			}
			s.View, s.User = ViewSignedOut, nil
			return s, r.remember("")
		}
	case ViewAlert:
		if _, ok := a.(DismissAlert); ok {
			s.Alert = ""
			s.View = ViewSignedOut
			if s.SignedIn() {
				s.View = ViewSignedIn
			}
			return s, store.None[Action]()
		}
	}
	return s, screens.Unhandled[Action](s.View, a)
}

func (r Reducer) reduceSignedOut(s State, a Action) (State, store.Effect[Action]) {
	switch a := a.(type) {
	case Restore:
		if strings.TrimSpace(a.Email) == "" {
			return s, store.Ignore[Action]("no remembered session")
		}
		s.View = ViewRestoring
		return s, r.authenticate("restore session", func(ctx context.Context) (todo.User, error) {
			return r.Auth.Restore(ctx, a.Email)
		})
	case SignIn:
		if strings.TrimSpace(a.Email) == "" || a.Password == "" {
			s.View, s.Alert = ViewAlert, "Please enter your email and password."
			return s, store.None[Action]()
		}
		s.View = ViewSigningIn
		return s, r.authenticate("sign in", func(ctx context.Context) (todo.User, error) {
			return r.Auth.SignIn(ctx, a.Email, a.Password)
		})
	case SignUp:
		if strings.TrimSpace(a.Email) == "" || a.Password == "" {
			s.View, s.Alert = ViewAlert, "Please enter your email and password."
			return s, store.None[Action]()
		}
		s.View = ViewSigningUp
		return s, r.authenticate("sign up", func(ctx context.Context) (todo.User, error) {
			return r.Auth.SignUp(ctx, a.Email, a.Password, a.Name)
		})
	}
	return s, screens.Unhandled[Action](s.View, a)
}

func (r Reducer) reduceAuthenticating(s State, a Action) (State, store.Effect[Action]) {
	done, ok := a.(Authenticated)
	if !ok {
		return s, screens.Unhandled[Action](s.View, a)
	}
	u, err := done.Result.Get()
	switch {
	case err == nil:
		s.View, s.User = ViewSignedIn, &u
		return s, r.remember(u.Email)
	case s.View == ViewRestoring && errors.Is(err, errors.ErrCodeUnauthenticated):
		// nothing to restore is not worth an alert
		s.View = ViewSignedOut
		return s, r.remember("")
	default:
		s.View, s.Alert = ViewAlert, screens.AlertMessage(err)
		return s, store.None[Action]()
	}
}

func (r Reducer) authenticate(name string, op func(context.Context) (todo.User, error)) store.Effect[Action] {
	return store.Attempt(name, op,
		func(res store.Result[todo.User]) Action { return Authenticated{res} },
	).CancelOn(store.CauseOf("auth", "session"))
}

func (r Reducer) remember(email string) store.Effect[Action] {
	if r.Remember == nil {
		return store.None[Action]()
	}
	return store.Fire[Action]("remember session", func(ctx context.Context) error {
		return r.Remember(ctx, email)
	})
}
