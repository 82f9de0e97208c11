package main

import (
	"context"
	"fmt"
	"os"

	"github.com/delaneyj/todoparty/screens/invitations"
	"github.com/delaneyj/todoparty/store"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

func invitationsScreen(ctx context.Context, sess *session) (*store.Store[invitations.State, invitations.Action], error) {
	u, err := sess.user(ctx)
	if err != nil {
		return nil, err
	}
	st := invitations.New(u, sess.app.Invitations, sess.cfg.StoreOptions("invitations")...)
	st.Send(invitations.OnAppear{})
	state, err := settle(ctx, st, func(s invitations.State) bool { return s.View != invitations.ViewLoading })
	if err == nil && state.View == invitations.ViewAlert {
		err = cli.Exit(state.Alert, 1)
	}
	if err != nil {
		finish(st)
		return nil, err
	}
	return st, nil
}

func showInvites(ctx context.Context, cmd *cli.Command) error {
	sess, err := open(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	st, err := invitationsScreen(ctx, sess)
	if err != nil {
		return err
	}
	defer finish(st)

	rows := st.State().Rows
	if len(rows) == 0 {
		fmt.Println("No invitations waiting.")
		return nil
	}
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"ID", "List", "From"})
	for _, r := range rows {
		tw.Append([]string{shortID(r.ID), r.ListName, r.FromEmail})
	}
	tw.Render()
	return nil
}

func invite(ctx context.Context, cmd *cli.Command) error {
	args, err := required(cmd, "list", "email")
	if err != nil {
		return err
	}
	sess, err := open(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	u, err := sess.user(ctx)
	if err != nil {
		return err
	}
	l, err := sess.list(ctx, u, args[0])
	if err != nil {
		return err
	}
	st, err := invitationsScreen(ctx, sess)
	if err != nil {
		return err
	}
	defer finish(st)

	st.Send(invitations.Invite{ListID: l.ID, Email: args[1]})
	state, err := settle(ctx, st, func(s invitations.State) bool {
		return s.Sent != "" || s.View == invitations.ViewAlert
	})
	if err != nil {
		return err
	}
	if state.View == invitations.ViewAlert {
		return cli.Exit(state.Alert, 1)
	}
	fmt.Printf("Invited %s to %s\n", state.Sent, l.Name)
	return nil
}

func accept(ctx context.Context, cmd *cli.Command) error {
	return answer(ctx, cmd, func(id string) invitations.Action { return invitations.Accept{ID: id} }, "Joined")
}

func decline(ctx context.Context, cmd *cli.Command) error {
	return answer(ctx, cmd, func(id string) invitations.Action { return invitations.Decline{ID: id} }, "Declined")
}

func answer(ctx context.Context, cmd *cli.Command, action func(id string) invitations.Action, verb string) error {
	args, err := required(cmd, "invitation")
	if err != nil {
		return err
	}
	sess, err := open(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	st, err := invitationsScreen(ctx, sess)
	if err != nil {
		return err
	}
	defer finish(st)

	row, ok := match(st.State().Rows, args[0], func(r invitations.Row) (string, string) { return r.ID, r.ListName })
	if !ok {
		return cli.Exit(fmt.Sprintf("No invitation matches %q.", args[0]), 1)
	}
	st.Send(action(row.ID))
	state, err := settle(ctx, st, func(s invitations.State) bool {
		return (s.View == invitations.ViewIdle && s.LastWrite > 0) || s.View == invitations.ViewAlert
	})
	if err != nil {
		return err
	}
	if state.View == invitations.ViewAlert {
		return cli.Exit(state.Alert, 1)
	}
	fmt.Printf("%s %s\n", verb, row.ListName)
	return nil
}
