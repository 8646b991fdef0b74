package cmd

import (
	"github.com/urfave/cli/v3"

	"github.com/bernd/nexus/config"
)

var configFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "Path to the config file",
	Value: config.DefaultConfigPath(),
}

var rosterFlag = &cli.StringFlag{
	Name:  "roster",
	Usage: "Path to the machine roster file",
	Value: config.DefaultRosterPath(),
}

const debugFlag = "debug"

func RootCommand() *cli.Command {
	return &cli.Command{
		Name:            "nexus",
		Usage:           "Terminal command center for a Claude-backed assistant",
		Description:     "Command the fleet.",
		HideHelpCommand: true,
		DefaultCommand:  "chat",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  debugFlag,
				Usage: "Enable debug output",
			},
		},
		Commands: []*cli.Command{
			// Order matters here!
			ChatCommand(),
			MachinesCommand(),
			ExecCommand(),
			ModelsCommand(),
		},
	}
}
