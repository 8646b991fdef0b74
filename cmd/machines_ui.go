package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bernd/nexus/machine"
	"github.com/bernd/nexus/tui"
)

// pollResultMsg delivers a non-stale roster snapshot from a poll cycle.
type pollResultMsg struct {
	snapshot []machine.Machine
}

// execResultMsg delivers the outcome of a remote command.
type execResultMsg struct {
	machine string
	command string
	result  machine.Result
	ran     bool
}

// machinesScreen is the fleet surface: roster list with liveness badges,
// selection toggle, and one-shot command execution on the selected machine.
type machinesScreen struct {
	poller      *machine.Poller
	coordinator *machine.Coordinator
	prober      machine.Prober
	roster      []machine.Machine

	pollInterval  time.Duration
	firstTickSeen bool
	cursor        tui.Cursor

	input      []rune
	inputPos   int
	lastResult *execResultMsg
}

func newMachinesScreen(roster []machine.Machine, poller *machine.Poller, coordinator *machine.Coordinator, prober machine.Prober, pollInterval time.Duration) *machinesScreen {
	if pollInterval <= 0 {
		pollInterval = machine.DefaultPollInterval
	}
	return &machinesScreen{
		poller:       poller,
		coordinator:  coordinator,
		prober:       prober,
		roster:       roster,
		pollInterval: pollInterval,
		cursor:       tui.Cursor{ItemCount: len(roster)},
	}
}

func (s *machinesScreen) pollCmd() tea.Cmd {
	roster := s.roster
	return func() tea.Msg {
		snapshot := s.poller.Poll(context.Background(), roster, s.prober)
		if snapshot == nil {
			return nil // stale cycle, discarded
		}
		return pollResultMsg{snapshot: snapshot}
	}
}

func (s *machinesScreen) execCmd(command string) tea.Cmd {
	target, _ := s.coordinator.Selected()
	return func() tea.Msg {
		result, ran := s.coordinator.Execute(context.Background(), command)
		return execResultMsg{machine: target.Name, command: command, result: result, ran: ran}
	}
}

func (s *machinesScreen) Update(msg tea.Msg, w *tui.Window) (tui.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return s.handleKey(msg, w)

	case tea.WindowSizeMsg:
		s.cursor.VpHeight = max(w.VpHeight()-1, 1)
		s.cursor.EnsureVisible()

	case tui.TickMsg:
		if w.IntervalElapsed(s.pollInterval) || !s.firstTickSeen {
			s.firstTickSeen = true
			return s, s.pollCmd()
		}

	case pollResultMsg:
		s.roster = msg.snapshot
		s.cursor.ItemCount = len(s.roster)
		s.cursor.Clamp()

	case execResultMsg:
		if msg.ran {
			s.lastResult = &msg
		}
	}

	return s, nil
}

func (s *machinesScreen) handleKey(msg tea.KeyMsg, w *tui.Window) (tui.Screen, tea.Cmd) {
	switch msg.String() {
	case "enter":
		// With pending input, enter runs the command; otherwise it toggles
		// the highlighted machine's selection.
		command := strings.TrimSpace(string(s.input))
		if command != "" {
			if _, ok := s.coordinator.Selected(); !ok || s.coordinator.InFlight() {
				return s, nil
			}
			s.input = nil
			s.inputPos = 0
			return s, s.execCmd(command)
		}
		s.toggleSelection(w)

	case "backspace":
		if s.inputPos > 0 {
			s.input = append(s.input[:s.inputPos-1], s.input[s.inputPos:]...)
			s.inputPos--
		}
	case "left":
		if s.inputPos > 0 {
			s.inputPos--
		}
	case "right":
		if s.inputPos < len(s.input) {
			s.inputPos++
		}
	case "ctrl+u":
		s.input = nil
		s.inputPos = 0

	case " ":
		if len(s.input) > 0 {
			s.insertRunes([]rune{' '})
		} else {
			s.toggleSelection(w)
		}

	default:
		// Runes always type into the command input so commands like
		// "journalctl" work; list navigation uses arrows and page keys.
		if msg.Type == tea.KeyRunes {
			s.insertRunes(msg.Runes)
			return s, nil
		}
		if s.cursor.HandleKey(msg) {
			return s, nil
		}
	}
	return s, nil
}

func (s *machinesScreen) insertRunes(runes []rune) {
	s.input = append(s.input[:s.inputPos], append(append([]rune{}, runes...), s.input[s.inputPos:]...)...)
	s.inputPos += len(runes)
}

func (s *machinesScreen) toggleSelection(w *tui.Window) {
	if s.cursor.Pos < 0 || s.cursor.Pos >= len(s.roster) {
		return
	}
	name := s.roster[s.cursor.Pos].Name
	wasSelected := false
	if sel, ok := s.coordinator.Selected(); ok && sel.Name == name {
		wasSelected = true
	}
	s.coordinator.Select(name)
	// Switching target resets pending input and output.
	s.input = nil
	s.inputPos = 0
	s.lastResult = nil
	if wasSelected {
		w.SetFlash("selection cleared")
	} else if _, ok := s.coordinator.Selected(); ok {
		w.SetFlash("selected " + name)
	}
}

func (s *machinesScreen) View(w *tui.Window) string {
	onlineStyle := lipgloss.NewStyle().Foreground(tui.ColorGreen)
	offlineStyle := lipgloss.NewStyle().Foreground(tui.ColorError)
	roleStyle := lipgloss.NewStyle().Foreground(tui.ColorField)
	nameStyle := lipgloss.NewStyle().Bold(true)
	selectedStyle := lipgloss.NewStyle().Foreground(tui.ColorOrange)
	pendingStyle := lipgloss.NewStyle().Foreground(tui.ColorOrange)

	pending := s.poller.Pending()
	selected, hasSelection := s.coordinator.Selected()

	var rows []string
	for i, m := range s.roster {
		_, marker := tui.LineStyle(i == s.cursor.Pos)

		badge := offlineStyle.Render("● offline")
		if m.Online {
			badge = onlineStyle.Render("● online ")
		}
		if pending && m.Role == machine.RoleRemote {
			glyph := tui.SpinnerFrames[w.TickFrame()%len(tui.SpinnerFrames)]
			badge = pendingStyle.Render(glyph+" probing") + " "
		}

		sel := "  "
		if hasSelection && m.Name == selected.Name {
			sel = selectedStyle.Render("» ")
		}

		row := fmt.Sprintf("%s%s%-12s %s  %-10s %s",
			marker, sel, nameStyle.Render(m.Name), badge,
			roleStyle.Render(string(m.Role)), roleStyle.Render(m.Dest()))
		rows = append(rows, ansi.Truncate(row, w.Width(), "…"))
	}

	rows = append(rows, "")
	rows = append(rows, s.renderCommandArea(w)...)

	height := w.VpHeight() - 1 // tab bar
	if height < 1 {
		height = 1
	}
	for len(rows) < height {
		rows = append(rows, "")
	}
	if len(rows) > height {
		rows = rows[:height]
	}
	return strings.Join(rows, "\n")
}

func (s *machinesScreen) renderCommandArea(w *tui.Window) []string {
	labelStyle := lipgloss.NewStyle().Foreground(tui.ColorField)
	promptStyle := lipgloss.NewStyle().Foreground(tui.ColorCyan).Bold(true)
	cursorStyle := lipgloss.NewStyle().Reverse(true)
	okStyle := lipgloss.NewStyle().Foreground(tui.ColorGreen)
	failStyle := lipgloss.NewStyle().Foreground(tui.ColorError)

	selected, ok := s.coordinator.Selected()
	if !ok {
		return []string{labelStyle.Render("  select a machine to run commands (enter/space)")}
	}

	before := string(s.input[:s.inputPos])
	var under, after string
	if s.inputPos < len(s.input) {
		under = string(s.input[s.inputPos])
		after = string(s.input[s.inputPos+1:])
	} else {
		under = " "
	}
	prompt := promptStyle.Render(selected.Name+" $ ") + before + cursorStyle.Render(under) + after
	lines := []string{ansi.Truncate(prompt, w.Width(), "")}

	if s.coordinator.InFlight() {
		glyph := tui.SpinnerFrames[w.TickFrame()%len(tui.SpinnerFrames)]
		lines = append(lines, labelStyle.Render("  "+glyph+" running"))
		return lines
	}

	if r := s.lastResult; r != nil {
		// Exit code decides the styling; output presence decides what shows.
		if r.result.Stdout != "" {
			for _, l := range strings.Split(strings.TrimRight(r.result.Stdout, "\n"), "\n") {
				lines = append(lines, okStyle.Render("  "+l))
			}
		}
		if r.result.Stderr != "" {
			for _, l := range strings.Split(strings.TrimRight(r.result.Stderr, "\n"), "\n") {
				lines = append(lines, failStyle.Render("  "+l))
			}
		}
		exitLine := fmt.Sprintf("  exit %d", r.result.ExitCode)
		if r.result.Success() {
			lines = append(lines, okStyle.Render(exitLine))
		} else {
			lines = append(lines, failStyle.Render(exitLine))
		}
	}
	return lines
}

func (s *machinesScreen) FooterStatus(w *tui.Window) string {
	if s.poller.Pending() {
		glyph := tui.SpinnerFrames[w.TickFrame()%len(tui.SpinnerFrames)]
		return lipgloss.NewStyle().Foreground(tui.ColorOrange).Render(glyph + " polling")
	}
	if s.coordinator.InFlight() {
		glyph := tui.SpinnerFrames[w.TickFrame()%len(tui.SpinnerFrames)]
		return lipgloss.NewStyle().Foreground(tui.ColorOrange).Render(glyph + " running")
	}
	online := 0
	for _, m := range s.roster {
		if m.Online {
			online++
		}
	}
	return lipgloss.NewStyle().Foreground(tui.ColorField).
		Render(fmt.Sprintf("%d/%d online", online, len(s.roster)))
}

func (s *machinesScreen) FooterKeys(w *tui.Window) []tui.FooterKey {
	return []tui.FooterKey{
		{Key: "↑/↓", Desc: "navigate"},
		{Key: "enter/space", Desc: "select"},
		{Key: "enter", Desc: "run"},
	}
}
