package main

import (
	"context"
	"strings"
	"time"

	"github.com/delaneyj/todoparty/config"
	"github.com/delaneyj/todoparty/errors"
	"github.com/delaneyj/todoparty/logging"
	"github.com/delaneyj/todoparty/screens/auth"
	"github.com/delaneyj/todoparty/settings"
	"github.com/delaneyj/todoparty/store"
	"github.com/delaneyj/todoparty/todo"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// settleTimeout bounds how long a command waits for a screen to finish a
// round trip with the database.
const settleTimeout = 10 * time.Second

type session struct {
	cfg   *config.Config
	app   *todo.App
	prefs *settings.File
	log   *logrus.Entry
}

func open(cmd *cli.Command) (*session, error) {
	cfg, err := config.Load(cmd.String(configKey))
	if err != nil {
		return nil, err
	}
	if driver := cmd.String(driverKey); driver != "" {
		cfg.Data.Driver = driver
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	logging.Configure(cfg.Log)
	log := logging.NewLogger("cli")

	db, err := cfg.OpenDB()
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"driver": cfg.Data.Driver,
		"path":   cfg.Data.Path,
	}).Debug("database opened")

	return &session{
		cfg:   cfg,
		app:   todo.New(db),
		prefs: settings.NewFile(cfg.Settings),
		log:   log,
	}, nil
}

func (s *session) Close() error {
	return s.app.Close()
}

func (s *session) authScreen() *store.Store[auth.State, auth.Action] {
	return auth.New(s.app.Auth, s.prefs.Remember, s.cfg.StoreOptions("auth")...)
}

// restore signs the remembered user back in on st.
func (s *session) restore(ctx context.Context, st *store.Store[auth.State, auth.Action]) (todo.User, error) {
	prefs, err := s.prefs.Load()
	if err != nil {
		return todo.User{}, err
	}
	if prefs.Email == "" {
		return todo.User{}, cli.Exit("Not signed in. Run todo signin first.", 1)
	}
	st.Send(auth.Restore{Email: prefs.Email})
	state, err := settle(ctx, st, authSettled)
	if err != nil {
		return todo.User{}, err
	}
	switch {
	case state.View == auth.ViewAlert:
		return todo.User{}, cli.Exit(state.Alert, 1)
	case !state.SignedIn():
		return todo.User{}, cli.Exit("Your session has expired. Run todo signin again.", 1)
	}
	return *state.User, nil
}

// user restores the remembered session on a short lived auth screen.
func (s *session) user(ctx context.Context) (todo.User, error) {
	st := s.authScreen()
	defer finish(st)
	u, err := s.restore(ctx, st)
	// the restore may have cleared an expired session
	st.Wait()
	return u, err
}

// list resolves arg to one of the user's lists. An empty arg means the last
// opened list. The resolved list becomes the last opened one.
func (s *session) list(ctx context.Context, user todo.User, arg string) (todo.List, error) {
	prefs, err := s.prefs.Load()
	if err != nil {
		return todo.List{}, err
	}
	if arg == "" {
		arg = prefs.LastList
	}
	if arg == "" {
		return todo.List{}, cli.Exit("Which list? Pass a list name or ID.", 1)
	}

	page, err := s.app.Lists.Lists(ctx, user.ID)
	if err != nil {
		return todo.List{}, err
	}
	l, ok := match(page.Rows, arg, func(l todo.List) (string, string) { return l.ID, l.Name })
	if !ok {
		return todo.List{}, errors.NotFound("list", arg)
	}
	if l.ID != prefs.LastList {
		if err := s.prefs.Update(func(p *settings.Settings) { p.LastList = l.ID }); err != nil {
			s.log.WithError(err).Warn("could not remember last list")
		}
	}
	return l, nil
}

// match finds the row whose ID equals arg, whose name equals arg ignoring
// case, or whose ID starts with arg, in that order. An ambiguous prefix
// matches nothing.
func match[T any](rows []T, arg string, key func(T) (id, name string)) (T, bool) {
	var zero T
	for _, r := range rows {
		if id, _ := key(r); id == arg {
			return r, true
		}
	}
	for _, r := range rows {
		if _, name := key(r); strings.EqualFold(name, arg) {
			return r, true
		}
	}
	var (
		found T
		n     int
	)
	for _, r := range rows {
		if id, _ := key(r); strings.HasPrefix(id, arg) {
			found = r
			n++
		}
	}
	if n == 1 {
		return found, true
	}
	return zero, false
}

func settle[S, A any](ctx context.Context, st *store.Store[S, A], done func(S) bool) (S, error) {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	return store.Await(ctx, st, done)
}

// finish tears st down and waits for its effects to return.
func finish[S, A any](st *store.Store[S, A]) {
	st.Teardown()
	st.Wait()
}

func authSettled(s auth.State) bool {
	switch s.View {
	case auth.ViewSignedIn, auth.ViewSignedOut, auth.ViewAlert:
		return true
	}
	return false
}

func required(cmd *cli.Command, names ...string) ([]string, error) {
	if cmd.NArg() < len(names) {
		return nil, cli.Exit("Usage: todo "+cmd.Name+" "+cmd.ArgsUsage, 1)
	}
	args := make([]string, len(names))
	for i := range names {
		args[i] = strings.TrimSpace(cmd.Args().Get(i))
	}
	return args, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
