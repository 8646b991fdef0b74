package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/xid"
	"github.com/urfave/cli/v3"

	"github.com/bernd/nexus/config"
	"github.com/bernd/nexus/machine"
	"github.com/bernd/nexus/pricing"
	"github.com/bernd/nexus/session"
	"github.com/bernd/nexus/telemetry"
	"github.com/bernd/nexus/tui"
)

func ChatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Open the interactive command center",
		Flags: []cli.Flag{configFlag, rosterFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tui.SetDebug(cmd.Bool(debugFlag))

			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}
			roster, err := config.LoadRoster(cmd.String("roster"))
			if err != nil {
				return err
			}
			tui.Debug("bridge %s, telemetry port %d, %d machine(s)", cfg.BridgeURL(), cfg.TelemetryPort, len(roster))

			catalog := pricing.NewCatalog()
			client := NewBridgeClient(cfg.BridgeURL())

			// The bridge knows the active model; the config value is only a
			// fallback when the bridge is unreachable at startup.
			model := cfg.Model
			if active, err := client.ActiveModel(); err == nil && active != "" {
				model = active
			}
			if model == "" {
				model = catalog.Fallback().ID
			}

			acc := session.NewAccumulator()
			relay := session.NewRelay()

			poller := machine.NewPoller()
			poller.SetProbeTimeout(cfg.ProbeTimeout)
			prober := &machine.SSHProber{Resolver: cfg.Resolver, Timeout: cfg.ProbeTimeout}
			executor := &machine.SSHExecutor{Timeout: cfg.ExecTimeout}
			coordinator := machine.NewCoordinator(roster, executor)

			sessionID := xid.New().String()
			chat := newChatScreen(client, acc, relay, catalog, model, sessionID)
			machines := newMachinesScreen(roster, poller, coordinator, prober, cfg.PollInterval)
			screen := newTabbedScreen(chat, machines)

			header := &tui.HeaderInfo{Model: model, SessionID: sessionID}
			w := tui.NewWindow(header, screen)
			p := tea.NewProgram(w, tea.WithAltScreen())

			if cfg.TelemetryPort > 0 {
				srv := startTelemetryServer(cfg.TelemetryPort, acc, p)
				defer srv.Close()
			}

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("chat UI: %w", err)
			}
			return nil
		},
	}
}

// startTelemetryServer listens for OTLP metric exports from the backend CLI,
// folds cumulative token totals into the accumulator, and forwards each
// sample to the UI. The exchange path owns LastInputTokens and RequestCount;
// telemetry only raises totals.
func startTelemetryServer(port int, acc *session.Accumulator, p *tea.Program) *http.Server {
	sink := telemetry.SinkFunc(func(sample telemetry.UsageSample) {
		acc.RaiseTotals(sample.InputTokens, sample.OutputTokens)
		p.Send(usageSampleMsg{sample: sample})
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           telemetry.NewReceiver(sink),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go srv.ListenAndServe()
	return srv
}
