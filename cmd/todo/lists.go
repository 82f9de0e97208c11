package main

import (
	"context"
	"fmt"
	"os"

	"github.com/delaneyj/todoparty/screens/lists"
	"github.com/delaneyj/todoparty/store"
	"github.com/delaneyj/todoparty/todo"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

// listsScreen opens the lists screen for the remembered user and waits for
// the first load.
func listsScreen(ctx context.Context, sess *session) (*store.Store[lists.State, lists.Action], todo.User, error) {
	u, err := sess.user(ctx)
	if err != nil {
		return nil, u, err
	}
	st := lists.New(u, sess.app.Lists, sess.app.Invitations, sess.cfg.StoreOptions("lists")...)
	st.Send(lists.OnAppear{})
	state, err := settle(ctx, st, func(s lists.State) bool { return s.View != lists.ViewLoading })
	if err == nil && state.View == lists.ViewAlert {
		err = cli.Exit(state.Alert, 1)
	}
	if err != nil {
		finish(st)
		return nil, u, err
	}
	return st, u, nil
}

// writeSettled is true once a write started from the idle view has
// finished one way or the other.
func writeSettled(s lists.State) bool {
	return (s.View == lists.ViewIdle && s.LastWrite > 0) || s.View == lists.ViewAlert
}

func showLists(ctx context.Context, cmd *cli.Command) error {
	sess, err := open(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	st, _, err := listsScreen(ctx, sess)
	if err != nil {
		return err
	}
	defer finish(st)

	state := st.State()
	if len(state.Rows) == 0 {
		fmt.Println("No lists yet. Create one with todo new-list NAME.")
		return nil
	}

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"ID", "Name", "Shared", "Owner"})
	for _, r := range state.Rows {
		tw.Append([]string{shortID(r.ID), r.Name, yesNo(r.Shared), yesNo(r.Owned)})
	}
	tw.Render()
	return nil
}

func newList(ctx context.Context, cmd *cli.Command) error {
	args, err := required(cmd, "name")
	if err != nil {
		return err
	}
	return writeList(ctx, cmd, func(lists.State) (lists.Action, error) {
		return lists.Create{Name: args[0]}, nil
	}, "Created %q\n", args[0])
}

func renameList(ctx context.Context, cmd *cli.Command) error {
	args, err := required(cmd, "list", "name")
	if err != nil {
		return err
	}
	return writeList(ctx, cmd, func(s lists.State) (lists.Action, error) {
		r, err := findList(s, args[0])
		return lists.Rename{ID: r.ID, Name: args[1]}, err
	}, "Renamed to %q\n", args[1])
}

func removeList(ctx context.Context, cmd *cli.Command) error {
	args, err := required(cmd, "list")
	if err != nil {
		return err
	}
	return writeList(ctx, cmd, func(s lists.State) (lists.Action, error) {
		r, err := findList(s, args[0])
		return lists.Delete{ID: r.ID}, err
	}, "Removed %q\n", args[0])
}

func writeList(ctx context.Context, cmd *cli.Command, action func(lists.State) (lists.Action, error), format string, args ...any) error {
	sess, err := open(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	st, _, err := listsScreen(ctx, sess)
	if err != nil {
		return err
	}
	defer finish(st)

	a, err := action(st.State())
	if err != nil {
		return err
	}
	st.Send(a)
	state, err := settle(ctx, st, writeSettled)
	if err != nil {
		return err
	}
	if state.View == lists.ViewAlert {
		return cli.Exit(state.Alert, 1)
	}
	fmt.Printf(format, args...)
	return nil
}

func findList(s lists.State, arg string) (lists.Row, error) {
	r, ok := match(s.Rows, arg, func(r lists.Row) (string, string) { return r.ID, r.Name })
	if !ok {
		return r, cli.Exit(fmt.Sprintf("No list matches %q.", arg), 1)
	}
	return r, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
