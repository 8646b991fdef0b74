package cmd

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bernd/nexus/machine"
	"github.com/bernd/nexus/tui"
)

func uiRoster() []machine.Machine {
	return []machine.Machine{
		{Name: "OMEN", Role: machine.RoleCommander, Host: "127.0.0.1", Online: true},
		{Name: "SIGMA", Role: machine.RoleRemote, Host: "sigma.lan", User: "ops"},
		{Name: "Precision", Role: machine.RoleRemote, Host: "precision.lan", User: "ops"},
	}
}

func testMachinesScreen(executor machine.Executor) (*machinesScreen, *tui.Window) {
	roster := uiRoster()
	poller := machine.NewPoller()
	coordinator := machine.NewCoordinator(roster, executor)
	prober := machine.ProberFunc(func(ctx context.Context, m machine.Machine) bool { return true })
	s := newMachinesScreen(roster, poller, coordinator, prober, 15*time.Second)
	w := tui.NewWindow(&tui.HeaderInfo{Model: "m", SessionID: "s"}, s)
	w.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return s, w
}

func TestMachinesScreen_SelectionToggle(t *testing.T) {
	s, w := testMachinesScreen(nil)
	s.cursor.Pos = 1 // SIGMA

	s.Update(tea.KeyMsg{Type: tea.KeyEnter}, w)
	sel, ok := s.coordinator.Selected()
	require.True(t, ok)
	assert.Equal(t, "SIGMA", sel.Name)

	// Selecting the same machine again clears the selection.
	s.Update(tea.KeyMsg{Type: tea.KeyEnter}, w)
	_, ok = s.coordinator.Selected()
	assert.False(t, ok)
}

func TestMachinesScreen_SwitchSelectionResetsIO(t *testing.T) {
	s, w := testMachinesScreen(nil)
	s.cursor.Pos = 1
	s.Update(tea.KeyMsg{Type: tea.KeyEnter}, w)

	s.input = []rune("uptime")
	s.inputPos = 6
	s.lastResult = &execResultMsg{result: machine.Result{Stdout: "old"}, ran: true}

	s.cursor.Pos = 2 // Precision
	s.toggleSelection(w)

	sel, ok := s.coordinator.Selected()
	require.True(t, ok)
	assert.Equal(t, "Precision", sel.Name)
	assert.Empty(t, s.input, "pending input resets on target switch")
	assert.Nil(t, s.lastResult, "stale output resets on target switch")
}

func TestMachinesScreen_EnterRunsCommand(t *testing.T) {
	var gotMachine, gotCommand string
	executor := machine.ExecutorFunc(func(ctx context.Context, m machine.Machine, command string) machine.Result {
		gotMachine = m.Name
		gotCommand = command
		return machine.Result{Stdout: "up 3 days", ExitCode: 0}
	})
	s, w := testMachinesScreen(executor)
	s.cursor.Pos = 1
	s.Update(tea.KeyMsg{Type: tea.KeyEnter}, w) // select SIGMA

	for _, r := range "uptime" {
		s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}, w)
	}
	_, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter}, w)
	require.NotNil(t, cmd)

	msg := cmd()
	result, ok := msg.(execResultMsg)
	require.True(t, ok)
	assert.True(t, result.ran)
	assert.Equal(t, "SIGMA", gotMachine)
	assert.Equal(t, "uptime", gotCommand)
	assert.Equal(t, "up 3 days", result.result.Stdout)
}

func TestMachinesScreen_CommandWithoutSelectionIsNoOp(t *testing.T) {
	s, w := testMachinesScreen(nil)

	s.input = []rune("uptime")
	s.inputPos = 6
	_, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter}, w)
	assert.Nil(t, cmd)
}

func TestMachinesScreen_PollResultUpdatesRoster(t *testing.T) {
	s, w := testMachinesScreen(nil)

	snapshot := uiRoster()
	snapshot[1].Online = true
	s.Update(pollResultMsg{snapshot: snapshot}, w)

	assert.True(t, s.roster[1].Online)
}

func TestMachinesScreen_FirstTickPolls(t *testing.T) {
	s, w := testMachinesScreen(nil)

	_, cmd := s.Update(tui.TickMsg{}, w)
	require.NotNil(t, cmd, "first tick triggers an immediate poll")

	msg := cmd()
	result, ok := msg.(pollResultMsg)
	require.True(t, ok)
	require.Len(t, result.snapshot, 3)
	assert.True(t, result.snapshot[0].Online, "commander is online without probing")
	assert.True(t, result.snapshot[1].Online)
}

func TestMachinesScreen_ArrowsNavigateRunesType(t *testing.T) {
	s, w := testMachinesScreen(nil)

	s.Update(tea.KeyMsg{Type: tea.KeyDown}, w)
	assert.Equal(t, 1, s.cursor.Pos)

	s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}, w)
	assert.Equal(t, "j", string(s.input), "runes type into the command input, never navigate")
	assert.Equal(t, 1, s.cursor.Pos)
}

func TestMachinesScreen_ViewShowsRoster(t *testing.T) {
	s, w := testMachinesScreen(nil)

	view := s.View(w)
	assert.Contains(t, view, "OMEN")
	assert.Contains(t, view, "SIGMA")
	assert.Contains(t, view, "Precision")
	assert.Contains(t, view, "Commander")
}

func TestMachinesScreen_HighlightedRowDiffers(t *testing.T) {
	// Force a color profile so lipgloss actually emits ANSI sequences.
	lipgloss.DefaultRenderer().SetColorProfile(termenv.ANSI)
	defer lipgloss.DefaultRenderer().SetColorProfile(termenv.Ascii)

	s, w := testMachinesScreen(nil)
	s.cursor.Pos = 0
	first := s.View(w)
	s.cursor.Pos = 1
	second := s.View(w)

	require.NotEqual(t, first, second, "moving the cursor must change the highlighted row")
}

func TestMachinesScreen_ResultStylingFollowsExitCode(t *testing.T) {
	s, w := testMachinesScreen(nil)
	s.cursor.Pos = 1
	s.Update(tea.KeyMsg{Type: tea.KeyEnter}, w)

	// Non-zero exit with empty output must still render as a failure.
	s.lastResult = &execResultMsg{result: machine.Result{ExitCode: 3}, ran: true}
	view := s.View(w)
	assert.Contains(t, view, "exit 3")
}
