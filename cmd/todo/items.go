package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/delaneyj/todoparty/screens/items"
	"github.com/delaneyj/todoparty/settings"
	"github.com/delaneyj/todoparty/store"
	"github.com/delaneyj/todoparty/todo"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

type itemsView struct {
	st   *store.Store[items.State, items.Action]
	list todo.List
}

// itemsScreen opens the items screen on the list named by arg and waits for
// the first load.
func itemsScreen(ctx context.Context, sess *session, arg string, hideDone bool) (*itemsView, error) {
	u, err := sess.user(ctx)
	if err != nil {
		return nil, err
	}
	l, err := sess.list(ctx, u, arg)
	if err != nil {
		return nil, err
	}
	prefs, err := sess.prefs.Load()
	if err != nil {
		return nil, err
	}

	initial := items.State{Filter: todo.ItemFilter{HideCompleted: hideDone || !prefs.ShowCompleted}}
	st := items.New(u, sess.app.Items, initial, sess.cfg.StoreOptions("items")...)
	st.Send(items.OnAppear{ListID: l.ID})
	state, err := settle(ctx, st, func(s items.State) bool { return s.View != items.ViewLoading })
	if err == nil && state.View == items.ViewAlert {
		err = cli.Exit(state.Alert, 1)
	}
	if err != nil {
		finish(st)
		return nil, err
	}
	return &itemsView{st: st, list: l}, nil
}

func (v *itemsView) Close() {
	finish(v.st)
}

func (v *itemsView) find(arg string) (items.Row, error) {
	r, ok := match(v.st.State().Rows, arg, func(r items.Row) (string, string) { return r.ID, r.Title })
	if !ok {
		return r, cli.Exit(fmt.Sprintf("No item in %s matches %q.", v.list.Name, arg), 1)
	}
	return r, nil
}

// write sends a and waits for the screen to leave the busy view it enters.
func (v *itemsView) write(ctx context.Context, a items.Action) error {
	before := v.st.State().LastWrite
	v.st.Send(a)
	state, err := settle(ctx, v.st, func(s items.State) bool {
		return (s.View == items.ViewIdle && s.LastWrite > before) || s.View == items.ViewAlert
	})
	if err != nil {
		return err
	}
	if state.View == items.ViewAlert {
		return cli.Exit(state.Alert, 1)
	}
	return nil
}

func render(l todo.List, s items.State) {
	fmt.Printf("%s (%d of %d left)\n", l.Name, s.Remaining(), len(s.Rows))
	if len(s.Rows) == 0 {
		fmt.Println("Nothing here yet. Add an item with todo add TITLE.")
		return
	}
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"ID", "", "Title"})
	for _, r := range s.Rows {
		done := "[ ]"
		if r.Done {
			done = "[x]"
		}
		tw.Append([]string{shortID(r.ID), done, r.Title})
	}
	tw.Render()
}

func showItems(ctx context.Context, cmd *cli.Command) error {
	sess, err := open(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	v, err := itemsScreen(ctx, sess, cmd.Args().First(), cmd.Bool(hideDoneKey))
	if err != nil {
		return err
	}
	defer v.Close()

	render(v.list, v.st.State())
	return nil
}

func addItem(ctx context.Context, cmd *cli.Command) error {
	args, err := required(cmd, "title")
	if err != nil {
		return err
	}
	return editItems(ctx, cmd, func(v *itemsView) (items.Action, string, error) {
		return items.Add{Title: args[0]}, fmt.Sprintf("Added %q to %s", args[0], v.list.Name), nil
	})
}

func toggleItem(ctx context.Context, cmd *cli.Command) error {
	args, err := required(cmd, "item")
	if err != nil {
		return err
	}
	return editItems(ctx, cmd, func(v *itemsView) (items.Action, string, error) {
		r, err := v.find(args[0])
		state := "done"
		if r.Done {
			state = "not done"
		}
		return items.Toggle{ID: r.ID}, fmt.Sprintf("Marked %q %s", r.Title, state), err
	})
}

func renameItem(ctx context.Context, cmd *cli.Command) error {
	args, err := required(cmd, "item", "title")
	if err != nil {
		return err
	}
	return editItems(ctx, cmd, func(v *itemsView) (items.Action, string, error) {
		r, err := v.find(args[0])
		return items.Rename{ID: r.ID, Title: args[1]}, fmt.Sprintf("Renamed %q to %q", r.Title, args[1]), err
	})
}

func removeItem(ctx context.Context, cmd *cli.Command) error {
	args, err := required(cmd, "item")
	if err != nil {
		return err
	}
	return editItems(ctx, cmd, func(v *itemsView) (items.Action, string, error) {
		r, err := v.find(args[0])
		return items.Delete{ID: r.ID}, fmt.Sprintf("Removed %q", r.Title), err
	})
}

// editItems runs one write against the last opened list.
func editItems(ctx context.Context, cmd *cli.Command, action func(*itemsView) (items.Action, string, error)) error {
	sess, err := open(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	v, err := itemsScreen(ctx, sess, "", false)
	if err != nil {
		return err
	}
	defer v.Close()

	a, msg, err := action(v)
	if err != nil {
		return err
	}
	if err := v.write(ctx, a); err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func setFilter(_ context.Context, cmd *cli.Command) error {
	args, err := required(cmd, "mode")
	if err != nil {
		return err
	}
	var show bool
	switch args[0] {
	case "show":
		show = true
	case "hide":
	default:
		return cli.Exit("Usage: todo filter show|hide", 1)
	}

	sess, err := open(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()
	return sess.prefs.Update(func(s *settings.Settings) { s.ShowCompleted = show })
}

// watchItems redraws the list every time its rows change until interrupted.
func watchItems(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := open(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	v, err := itemsScreen(ctx, sess, cmd.Args().First(), false)
	if err != nil {
		return err
	}
	defer v.Close()

	var last []items.Row
	first := true
	for s := range v.st.Observe(ctx) {
		if s.View == items.ViewAlert {
			return cli.Exit(s.Alert, 1)
		}
		if !first && slices.Equal(s.Rows, last) {
			continue
		}
		first, last = false, s.Rows
		render(v.list, s)
		fmt.Println()
	}
	return nil
}
