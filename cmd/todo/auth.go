package main

import (
	"context"
	"fmt"

	"github.com/delaneyj/todoparty/screens/auth"
	"github.com/urfave/cli/v3"
)

func signUp(ctx context.Context, cmd *cli.Command) error {
	return authenticate(ctx, cmd, auth.SignUp{
		Email:    cmd.String(emailKey),
		Password: cmd.String(passwordKey),
		Name:     cmd.String(nameKey),
	})
}

func signIn(ctx context.Context, cmd *cli.Command) error {
	return authenticate(ctx, cmd, auth.SignIn{
		Email:    cmd.String(emailKey),
		Password: cmd.String(passwordKey),
	})
}

func authenticate(ctx context.Context, cmd *cli.Command, action auth.Action) error {
	sess, err := open(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	st := sess.authScreen()
	defer finish(st)

	st.Send(action)
	state, err := settle(ctx, st, authSettled)
	if err != nil {
		return err
	}
	if state.View == auth.ViewAlert {
		return cli.Exit(state.Alert, 1)
	}
	// the session is written to settings by an effect
	st.Wait()

	fmt.Printf("Signed in as %s <%s>\n", state.User.Name, state.User.Email)
	return nil
}

func signOut(ctx context.Context, cmd *cli.Command) error {
	sess, err := open(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	st := sess.authScreen()
	defer finish(st)

	u, err := sess.restore(ctx, st)
	if err != nil {
		return err
	}
	st.Send(auth.SignOut{})
	state, err := settle(ctx, st, func(s auth.State) bool {
		return s.View == auth.ViewSignedOut || s.View == auth.ViewAlert
	})
	if err != nil {
		return err
	}
	if state.View == auth.ViewAlert {
		return cli.Exit(state.Alert, 1)
	}
	st.Wait()

	fmt.Printf("Signed out %s\n", u.Email)
	return nil
}

func whoami(ctx context.Context, cmd *cli.Command) error {
	sess, err := open(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	u, err := sess.user(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", u.Name, u.Email)
	return nil
}
