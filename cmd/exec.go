package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/bernd/nexus/config"
	"github.com/bernd/nexus/machine"
	"github.com/bernd/nexus/tui"
)

func ExecCommand() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "Run a one-shot command on a roster machine",
		ArgsUsage: "<machine> <command...>",
		Category:  "Fleet",
		Flags:     []cli.Flag{configFlag, rosterFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) < 2 {
				return fmt.Errorf("usage: nexus exec <machine> <command...>")
			}
			name := args[0]
			command := strings.Join(args[1:], " ")

			tui.SetDebug(cmd.Bool(debugFlag))

			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}
			roster, err := config.LoadRoster(cmd.String("roster"))
			if err != nil {
				return err
			}
			tui.Debug("exec timeout %s", cfg.ExecTimeout)

			executor := &machine.SSHExecutor{Timeout: cfg.ExecTimeout}
			coordinator := machine.NewCoordinator(roster, executor)
			if !coordinator.Select(name) {
				return fmt.Errorf("unknown machine %q", name)
			}

			tui.Status("Running", "%s on %s", command, name)

			result, ran := coordinator.Execute(ctx, command)
			if !ran {
				return fmt.Errorf("command did not run")
			}

			if result.Stdout != "" {
				fmt.Print(result.Stdout)
			}
			if result.Stderr != "" {
				fmt.Fprint(os.Stderr, result.Stderr)
			}
			if !result.Success() {
				return fmt.Errorf("exit code %d", result.ExitCode)
			}
			return nil
		},
	}
}
