package main

import (
	"context"
	"log"
	"os"

	"github.com/delaneyj/todoparty/config"
	"github.com/urfave/cli/v3"
)

const (
	configKey   = "config"
	driverKey   = "driver"
	emailKey    = "email"
	passwordKey = "password"
	nameKey     = "name"
	hideDoneKey = "hide-done"
	outKey      = "out"
)

func main() {
	cmd := &cli.Command{
		Name:  "todo",
		Usage: "Shared to-do lists from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  configKey,
				Usage: "Path to todoparty.yml",
				Value: config.DefaultPath(),
			},
			&cli.StringFlag{
				Name:  driverKey,
				Usage: "Override the configured database driver (memory or sqlite)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "signup",
				Usage:  "Create an account and sign in",
				Flags:  credentialFlags(true),
				Action: signUp,
			},
			{
				Name:   "signin",
				Usage:  "Sign in and remember the session",
				Flags:  credentialFlags(false),
				Action: signIn,
			},
			{
				Name:   "signout",
				Usage:  "Forget the remembered session",
				Action: signOut,
			},
			{
				Name:   "whoami",
				Usage:  "Show the signed in user",
				Action: whoami,
			},
			{
				Name:   "lists",
				Usage:  "Show your lists",
				Action: showLists,
			},
			{
				Name:      "new-list",
				Usage:     "Create a list",
				ArgsUsage: "NAME",
				Action:    newList,
			},
			{
				Name:      "rename-list",
				Usage:     "Rename a list",
				ArgsUsage: "LIST NAME",
				Action:    renameList,
			},
			{
				Name:      "rm-list",
				Usage:     "Delete a list you own, or leave one shared with you",
				ArgsUsage: "LIST",
				Action:    removeList,
			},
			{
				Name:      "items",
				Usage:     "Show the items of a list",
				ArgsUsage: "[LIST]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  hideDoneKey,
						Usage: "Hide completed items for this run",
					},
				},
				Action: showItems,
			},
			{
				Name:      "add",
				Usage:     "Add an item to the last opened list",
				ArgsUsage: "TITLE",
				Action:    addItem,
			},
			{
				Name:      "toggle",
				Usage:     "Mark an item done or not done",
				ArgsUsage: "ITEM",
				Action:    toggleItem,
			},
			{
				Name:      "rename",
				Usage:     "Rename an item",
				ArgsUsage: "ITEM TITLE",
				Action:    renameItem,
			},
			{
				Name:      "rm",
				Usage:     "Delete an item",
				ArgsUsage: "ITEM",
				Action:    removeItem,
			},
			{
				Name:      "filter",
				Usage:     "Choose whether completed items are shown",
				ArgsUsage: "show|hide",
				Action:    setFilter,
			},
			{
				Name:      "watch",
				Usage:     "Follow a list as it changes",
				ArgsUsage: "[LIST]",
				Action:    watchItems,
			},
			{
				Name:      "invite",
				Usage:     "Share a list with someone",
				ArgsUsage: "LIST EMAIL",
				Action:    invite,
			},
			{
				Name:   "invites",
				Usage:  "Show invitations waiting for you",
				Action: showInvites,
			},
			{
				Name:      "accept",
				Usage:     "Accept an invitation",
				ArgsUsage: "INVITATION",
				Action:    accept,
			},
			{
				Name:      "decline",
				Usage:     "Decline an invitation",
				ArgsUsage: "INVITATION",
				Action:    decline,
			},
			{
				Name:  "export",
				Usage: "Write every list as markdown",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  outKey,
						Usage: "File to write instead of stdout",
					},
				},
				Action: export,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func credentialFlags(withName bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     emailKey,
			Usage:    "Account email",
			Required: true,
		},
		&cli.StringFlag{
			Name:     passwordKey,
			Usage:    "Account password",
			Required: true,
		},
	}
	if withName {
		flags = append(flags, &cli.StringFlag{
			Name:  nameKey,
			Usage: "Display name, defaults to the part of the email before @",
		})
	}
	return flags
}
