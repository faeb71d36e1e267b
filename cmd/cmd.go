// submodule cmd contains command definitions
package main

import (
	"context"

	"github.com/desertthunder/subctl/internal/form"
	"github.com/urfave/cli/v3"
)

func formFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "form",
		Aliases: []string{"f"},
		Usage:   "Path to the configuration form file (.toml, .yaml); defaults to [form] path",
	}
}

// watchCommand streams server events until interrupted
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Follow the server's log, progress and status events",
		Action: r.Watch,
	}
}

// scanCommand runs a subtitle status scan
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Scan configured paths for videos missing subtitles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: text, markdown, csv, json",
				Value: "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the results to a file instead of stdout",
			},
		},
		Action: r.Scan,
	}
}

// downloadCommand starts a download task
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Start a subtitle download task",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "follow",
				Usage: "Stream progress until the task finishes",
			},
		},
		Action: r.Download,
	}
}

// configCommand handles the client config and the server configuration form
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Client configuration and server configuration form",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create config.toml and a form file from templates",
				Flags: []cli.Flag{
					formFlag(),
					&cli.StringFlag{
						Name:  "server",
						Usage: "Server URL written to a new config.toml",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:  "show",
				Usage: "Print the document that 'config save' would submit",
				Flags: []cli.Flag{
					formFlag(),
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.ConfigShow,
			},
			{
				Name:   "save",
				Usage:  "Validate the form and submit it to the server",
				Flags:  []cli.Flag{formFlag()},
				Action: r.ConfigSave,
			},
			entriesCommand(r, "paths", "search paths", searchPaths),
			entriesCommand(r, "languages", "subtitle languages", languages),
		},
	}
}

// entriesCommand edits one list of the form file in place
func entriesCommand(r *Runner, name, what string, pick func(*form.Form) *form.EntryList) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: "Edit the " + what + " of the form",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Print the " + what + " with their index",
				Flags: []cli.Flag{formFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.EntriesList(cmd, pick)
				},
			},
			{
				Name:  "add",
				Usage: "Append an entry",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "value",
					},
				},
				Flags: []cli.Flag{formFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.EntriesAdd(cmd, pick)
				},
			},
			{
				Name:  "remove",
				Usage: "Delete the entry at an index; the others keep their order",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "index",
					},
				},
				Flags: []cli.Flag{formFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.EntriesRemove(cmd, pick)
				},
			},
		},
	}
}

// webhookCommand handles notification operations
func webhookCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "webhook",
		Usage: "Notification webhook operations",
		Commands: []*cli.Command{
			{
				Name:   "test",
				Usage:  "Ask the server to send a test notification",
				Action: r.WebhookTest,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the task server",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the raw response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with an optional JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON body to send",
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive TUI",
		Flags:   []cli.Flag{formFlag()},
		Action:  r.TUI,
	}
}
