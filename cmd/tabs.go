package cmd

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bernd/nexus/tui"
)

type tabbedScreen struct {
	tabs      []string
	activeTab int
	screens   []tui.Screen
}

func newTabbedScreen(chat *chatScreen, machines *machinesScreen) *tabbedScreen {
	return &tabbedScreen{
		tabs:    []string{"Chat", "Machines"},
		screens: []tui.Screen{chat, machines},
	}
}

func (t *tabbedScreen) activeScreen() tui.Screen {
	return t.screens[t.activeTab]
}

func (t *tabbedScreen) Update(msg tea.Msg, w *tui.Window) (tui.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "tab" {
			t.activeTab = (t.activeTab + 1) % len(t.tabs)
			return t, nil
		}
		screen, cmd := t.activeScreen().Update(msg, w)
		t.screens[t.activeTab] = screen
		return t, cmd

	case tea.WindowSizeMsg, tui.TickMsg:
		// Shared frame messages reach every screen so background polling
		// keeps running while another tab is active.
		var cmds []tea.Cmd
		for i, s := range t.screens {
			screen, cmd := s.Update(msg, w)
			t.screens[i] = screen
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return t, tea.Batch(cmds...)
	}

	// Everything else (async results) is broadcast too; each screen ignores
	// messages it doesn't know.
	var cmds []tea.Cmd
	for i, s := range t.screens {
		screen, cmd := s.Update(msg, w)
		t.screens[i] = screen
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return t, tea.Batch(cmds...)
}

func (t *tabbedScreen) View(w *tui.Window) string {
	tabBar := t.renderTabBar()
	content := t.activeScreen().View(w)
	return tabBar + "\n" + content
}

func (t *tabbedScreen) renderTabBar() string {
	activeStyle := lipgloss.NewStyle().Foreground(tui.ColorCyan).Bold(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(tui.ColorField)

	var parts []string
	for i, name := range t.tabs {
		if i == t.activeTab {
			parts = append(parts, activeStyle.Render("["+name+"]"))
		} else {
			parts = append(parts, inactiveStyle.Render(" "+name+" "))
		}
	}
	return strings.Join(parts, "  ")
}

func (t *tabbedScreen) FooterKeys(w *tui.Window) []tui.FooterKey {
	keys := t.activeScreen().FooterKeys(w)
	keys = append(keys, tui.FooterKey{Key: "tab", Desc: "switch tab"})
	return keys
}

func (t *tabbedScreen) FooterStatus(w *tui.Window) string {
	return t.activeScreen().FooterStatus(w)
}
