package main

import (
	"github.com/urfave/cli/v2"

	"github.com/flashbots/pdf-gateway/config"
)

func CommandHelp(_ *config.Config) *cli.Command {
	return &cli.Command{
		Usage:     "show the list of commands or help for one command",
		Name:      "help",
		ArgsUsage: "[command]",

		Action: func(clictx *cli.Context) error {
			if command := clictx.Args().First(); command != "" {
				return cli.ShowCommandHelp(clictx, command)
			}
			return cli.ShowAppHelp(clictx)
		},
	}
}
