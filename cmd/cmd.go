// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/tmx/internal/formatter"
	"github.com/urfave/cli/v3"
)

func formatUsage(formats ...string) string {
	return "Output format: " + strings.Join(formats, ", ")
}

// loginCommand runs the browser-style login handshake
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in with your Cookidoo account and store the session cookies",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Account email (prompted when omitted)",
				Sources: cli.EnvVars("TMX_EMAIL"),
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (prompted when omitted)",
				Sources: cli.EnvVars("TMX_PASSWORD"),
			},
		},
		Action: r.Login,
	}
}

// statusCommand reports session and local file state
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show login state, the local weekplan and file locations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Status,
	}
}

func todayCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "today",
		Usage:  "Show the recipes planned for today",
		Action: r.Today,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the recipe catalogue",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of recipes to show",
				Value:   r.config.Search.Limit,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "open",
		Usage: "Open a recipe in the browser",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Action: r.Open,
	}
}

// planCommand handles weekplan operations
func planCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Show, sync and edit the weekplan",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the local weekplan (syncs first when there is none)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlanShow,
			},
			{
				Name:  "sync",
				Usage: "Fetch the weekplan from Cookidoo and store it locally",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "since",
						Usage: "First day to fetch (YYYY-MM-DD, default: today)",
					},
					&cli.IntFlag{
						Name:    "days",
						Aliases: []string{"d"},
						Usage:   "Number of days to fetch",
						Value:   r.config.Sync.Days,
					},
					&cli.BoolFlag{
						Name:  "history",
						Usage: "Also record the snapshot in the history database",
					},
				},
				Action: r.PlanSync,
			},
			{
				Name:  "add",
				Usage: "Plan a recipe on a day",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "date",
						Aliases: []string{"d"},
						Usage:   "Day to plan the recipe on (YYYY-MM-DD, default: today)",
					},
				},
				Action: r.PlanAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a recipe from a day",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "date",
						Aliases:  []string{"d"},
						Usage:    "Day the recipe is planned on (YYYY-MM-DD)",
						Required: true,
					},
				},
				Action: r.PlanRemove,
			},
			{
				Name:  "move",
				Usage: "Move a recipe to another day",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "from",
						Aliases:  []string{"f"},
						Usage:    "Current day (YYYY-MM-DD)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "to",
						Aliases:  []string{"t"},
						Usage:    "Target day (YYYY-MM-DD)",
						Required: true,
					},
				},
				Action: r.PlanMove,
			},
			{
				Name:  "export",
				Usage: "Export the local weekplan",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   formatUsage(formatter.Formats...),
						Value:   formatter.FormatText,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to this file instead of stdout",
					},
				},
				Action: r.PlanExport,
			},
			{
				Name:  "history",
				Usage: "List snapshots recorded with 'plan sync --history'",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of snapshots to list (0 for all)",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlanHistory,
				Commands: []*cli.Command{
					{
						Name:  "export",
						Usage: "Export recorded snapshots, one file per snapshot",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "format",
								Aliases: []string{"f"},
								Usage:   formatUsage(formatter.Formats...),
								Value:   formatter.FormatMarkdown,
							},
							&cli.StringFlag{
								Name:  "dir",
								Usage: "Output directory (default: weekplan_history_{timestamp})",
							},
							&cli.IntFlag{
								Name:  "limit",
								Usage: "Export only the newest N snapshots (0 for all)",
							},
							&cli.IntFlag{
								Name:  "workers",
								Usage: "Number of concurrent writers",
								Value: 4,
							},
						},
						Action: r.PlanHistoryExport,
					},
				},
			},
		},
	}
}

// shoppingCommand handles shopping list operations
func shoppingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "shopping",
		Usage: "Manage the Cookidoo shopping list",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the shopping list",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "by-recipe",
						Aliases: []string{"r"},
						Usage:   "Group ingredients by recipe",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ShoppingShow,
			},
			{
				Name:      "add",
				Usage:     "Add the ingredients of recipes to the shopping list",
				ArgsUsage: "<id> [id...]",
				Action:    r.ShoppingAdd,
			},
			{
				Name:      "add-item",
				Usage:     "Add free-text items to the shopping list",
				ArgsUsage: "<item> [item...]",
				Action:    r.ShoppingAddItem,
			},
			{
				Name:  "from-plan",
				Usage: "Add every recipe planned in the next days",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "days",
						Aliases: []string{"d"},
						Usage:   "Number of days starting today",
						Value:   7,
					},
				},
				Action: r.ShoppingFromPlan,
			},
			{
				Name:  "remove",
				Usage: "Remove a recipe from the shopping list",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.ShoppingRemove,
			},
			{
				Name:   "clear",
				Usage:  "Remove everything from the shopping list",
				Action: r.ShoppingClear,
			},
			{
				Name:  "export",
				Usage: "Export the shopping list",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   formatUsage(formatter.Formats...),
						Value:   formatter.FormatText,
					},
					&cli.BoolFlag{
						Name:    "by-recipe",
						Aliases: []string{"r"},
						Usage:   "Group ingredients by recipe",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to this file instead of stdout",
					},
				},
				Action: r.ShoppingExport,
			},
		},
	}
}

// cacheCommand manages local state files
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage locally cached data",
		Commands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "Delete the local weekplan and the cached search token",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "all",
						Aliases: []string{"a"},
						Usage:   "Also delete the session cookies (requires a new login)",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}

// setupCommand handles setup operations for configuration, database and cookies.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the default configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the file (default: the active config path)",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the history database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "status",
						Usage: "Only list migrations and whether they are applied",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "cookies",
				Usage: "Import session cookies from a browser request copied as cURL",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a file containing the cURL command",
					},
				},
				Action: r.SetupCookies,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse the weekplan interactively",
		Action: r.TUI,
	}
}
