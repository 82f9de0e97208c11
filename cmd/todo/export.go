package main

import (
	"context"
	"fmt"
	"os"

	"github.com/delaneyj/todoparty/cmd/todo/templates"
	"github.com/delaneyj/todoparty/todo"
	"github.com/urfave/cli/v3"
)

func export(ctx context.Context, cmd *cli.Command) error {
	sess, err := open(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	u, err := sess.user(ctx)
	if err != nil {
		return err
	}
	page, err := sess.app.Lists.Lists(ctx, u.ID)
	if err != nil {
		return err
	}
	exports := make([]templates.Export, 0, len(page.Rows))
	for _, l := range page.Rows {
		its, err := sess.app.Items.Items(ctx, u.ID, l.ID, todo.ItemFilter{})
		if err != nil {
			return err
		}
		exports = append(exports, templates.Export{List: l, Items: its.Rows})
	}

	contents := templates.AllMarkdown(exports)
	path := cmd.String(outKey)
	if path == "" {
		fmt.Print(contents)
		return nil
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		return err
	}
	fmt.Printf("Wrote %d lists to %s\n", len(exports), path)
	return nil
}
