package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/qdisc/cli/render"
)

// ListCommand returns the list command with its subcommands.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List predicates and qdisc kinds available to topology files",
		Subcommands: []*cli.Command{
			listPredicatesCommand(),
			listKindsCommand(),
		},
	}
}

func listPredicatesCommand() *cli.Command {
	return &cli.Command{
		Name:   "predicates",
		Usage:  "List classification predicates registered by name",
		Flags:  ReadOnlyFlags(),
		Action: listPredicatesAction,
	}
}

func listPredicatesAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(listPredicates())
}

func listKindsCommand() *cli.Command {
	return &cli.Command{
		Name:   "kinds",
		Usage:  "List supported qdisc node kinds",
		Flags:  ReadOnlyFlags(),
		Action: listKindsAction,
	}
}

func listKindsAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(listKinds())
}
