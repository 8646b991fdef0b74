package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/bernd/nexus/config"
	"github.com/bernd/nexus/machine"
	"github.com/bernd/nexus/tui"
)

func MachinesCommand() *cli.Command {
	return &cli.Command{
		Name:     "machines",
		Usage:    "Poll the machine roster once and print it",
		Category: "Fleet",
		Flags:    []cli.Flag{configFlag, rosterFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tui.SetDebug(cmd.Bool(debugFlag))
			tui.PrintHeader()

			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}
			roster, err := config.LoadRoster(cmd.String("roster"))
			if err != nil {
				return err
			}
			if len(roster) == 0 {
				fmt.Println("No machines configured.")
				return nil
			}

			tui.Debug("resolver %s, probe timeout %s", cfg.Resolver, cfg.ProbeTimeout)
			tui.Status("Polling", "%d machine(s)", len(roster))

			poller := machine.NewPoller()
			poller.SetProbeTimeout(cfg.ProbeTimeout)
			prober := &machine.SSHProber{Resolver: cfg.Resolver, Timeout: cfg.ProbeTimeout}

			snapshot := poller.Poll(ctx, roster, prober)

			onlineStyle := lipgloss.NewStyle().Foreground(tui.ColorGreen)
			offlineStyle := lipgloss.NewStyle().Foreground(tui.ColorError)
			for _, m := range snapshot {
				badge := offlineStyle.Render("offline")
				if m.Online {
					badge = onlineStyle.Render("online")
				}
				fmt.Printf("%-12s %-10s %-8s %s\n", m.Name, m.Role, badge, m.Dest())
			}
			return nil
		},
	}
}
