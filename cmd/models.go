package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/bernd/nexus/pricing"
	"github.com/bernd/nexus/tui"
)

func ModelsCommand() *cli.Command {
	return &cli.Command{
		Name:     "models",
		Usage:    "List the built-in model pricing catalog",
		Category: "Utilities",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tui.PrintHeader()

			catalog := pricing.NewCatalog()
			fmt.Printf("%-28s %-24s %10s %10s %10s\n", "ID", "NAME", "IN $/MTOK", "OUT $/MTOK", "CONTEXT")
			for _, m := range catalog.All() {
				marker := ""
				if m.Fallback {
					marker = "  (fallback)"
				}
				fmt.Printf("%-28s %-24s %10.2f %10.2f %10d%s\n",
					m.ID, m.Name, m.InputPerMTok, m.OutputPerMTok, m.ContextWindow, marker)
			}
			return nil
		},
	}
}
