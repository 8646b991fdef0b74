package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/xid"

	"github.com/bernd/nexus/pricing"
	"github.com/bernd/nexus/session"
	"github.com/bernd/nexus/telemetry"
	"github.com/bernd/nexus/tui"
)

// lineKind classifies a transcript line for styling.
type lineKind int

const (
	lineUser lineKind = iota
	lineAssistant
	lineSystem
	lineToolOK
	lineToolFail
)

type transcriptLine struct {
	kind lineKind
	text string
}

// exchangeReplyMsg delivers the bridge's answer to an outstanding exchange.
type exchangeReplyMsg struct {
	reply *ExchangeReply
	err   error
}

// toolEventsMsg delivers push-style tool lifecycle events.
type toolEventsMsg struct {
	events []ToolEvent
	cursor uint64
	err    error
}

// modelSwitchMsg delivers the outcome of a model switch request.
type modelSwitchMsg struct {
	model string
	err   error
}

// historyClearedMsg delivers the outcome of a history or session reset.
type historyClearedMsg struct {
	newSession bool
	err        error
}

// usageSampleMsg delivers a token-usage sample observed by the OTLP receiver.
type usageSampleMsg struct {
	sample telemetry.UsageSample
}

// chatScreen is the conversational exchange surface: scrollback transcript,
// single-line input, transient tool status lines, and the context banner.
type chatScreen struct {
	client    *BridgeClient
	acc       *session.Accumulator
	relay     *session.Relay
	catalog   *pricing.Catalog
	model     string
	sessionID string

	input        []rune
	inputPos     int
	transcript   []transcriptLine
	scrollBack   int // lines scrolled up from the tail
	thinking     bool
	confirmReset bool
	eventCursor  uint64
}

func newChatScreen(client *BridgeClient, acc *session.Accumulator, relay *session.Relay, catalog *pricing.Catalog, model, sessionID string) *chatScreen {
	return &chatScreen{
		client:    client,
		acc:       acc,
		relay:     relay,
		catalog:   catalog,
		model:     model,
		sessionID: sessionID,
	}
}

func (s *chatScreen) sendCmd(text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := s.client.SendExchange(text)
		return exchangeReplyMsg{reply: reply, err: err}
	}
}

func (s *chatScreen) pollEventsCmd(cursor uint64) tea.Cmd {
	return func() tea.Msg {
		events, err := s.client.EventsAfter(cursor)
		next := cursor
		for _, e := range events {
			if e.ID > next {
				next = e.ID
			}
		}
		return toolEventsMsg{events: events, cursor: next, err: err}
	}
}

func (s *chatScreen) switchModelCmd(id string) tea.Cmd {
	return func() tea.Msg {
		active, err := s.client.SetActiveModel(id)
		return modelSwitchMsg{model: active, err: err}
	}
}

func (s *chatScreen) clearHistoryCmd(newSession bool) tea.Cmd {
	return func() tea.Msg {
		return historyClearedMsg{newSession: newSession, err: s.client.ClearHistory()}
	}
}

func (s *chatScreen) Update(msg tea.Msg, w *tui.Window) (tui.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return s.handleKey(msg, w)

	case tui.TickMsg:
		// While an exchange is outstanding, poll for tool events about
		// once a second so status lines appear as the assistant works.
		if s.thinking && w.IntervalElapsed(time.Second) {
			return s, s.pollEventsCmd(s.eventCursor)
		}

	case exchangeReplyMsg:
		s.thinking = false
		if msg.err != nil {
			s.relay.Collapse(nil)
			s.appendLine(lineSystem, fmt.Sprintf("exchange failed: %v", msg.err))
			return s, nil
		}
		s.acc.Record(msg.reply.Usage)
		s.appendLine(lineAssistant, msg.reply.Response)
		summary := s.relay.Collapse(msg.reply.ToolExecutions)
		s.appendSummary(summary)
		s.updateBanner(w)

	case toolEventsMsg:
		if msg.err != nil {
			return s, nil // transient; the next tick retries
		}
		s.eventCursor = msg.cursor
		for _, e := range msg.events {
			switch e.Phase {
			case "executing":
				s.relay.Executing(e.Machine, e.Command)
			case "completed":
				s.relay.Completed(e.Machine, e.Command, e.Success)
			}
		}

	case modelSwitchMsg:
		if msg.err != nil {
			s.appendLine(lineSystem, fmt.Sprintf("model switch rejected: %v", msg.err))
		}
		if msg.model != "" {
			s.model = msg.model
			w.SetHeader(&tui.HeaderInfo{Model: s.model, SessionID: s.sessionID})
		}
		s.updateBanner(w)

	case historyClearedMsg:
		if msg.err != nil {
			s.appendLine(lineSystem, fmt.Sprintf("clear history failed: %v", msg.err))
			return s, nil
		}
		if msg.newSession {
			s.sessionID = xid.New().String()
			s.transcript = nil
			s.scrollBack = 0
			s.acc.Reset()
			w.SetHeader(&tui.HeaderInfo{Model: s.model, SessionID: s.sessionID})
			w.SetFlash("new session started")
		} else {
			s.acc.ClearContext()
			s.transcript = nil
			s.scrollBack = 0
			w.SetFlash("history cleared")
		}
		s.updateBanner(w)

	case usageSampleMsg:
		// The sink already folded the totals into the accumulator; here the
		// sample just becomes visible in the transcript and footer.
		for _, line := range telemetry.Format([]telemetry.UsageSample{msg.sample}) {
			s.appendLine(lineSystem, line)
		}
	}

	return s, nil
}

func (s *chatScreen) handleKey(msg tea.KeyMsg, w *tui.Window) (tui.Screen, tea.Cmd) {
	// Any key other than the confirming ctrl+r cancels a pending reset.
	if s.confirmReset && msg.String() != "ctrl+r" {
		s.confirmReset = false
	}

	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(string(s.input))
		if text == "" || s.thinking {
			return s, nil // empty input is absorbed, not an error
		}
		s.appendLine(lineUser, text)
		s.input = nil
		s.inputPos = 0
		s.scrollBack = 0
		s.thinking = true
		return s, s.sendCmd(text)

	case "ctrl+l":
		return s, s.clearHistoryCmd(false)

	case "ctrl+n":
		return s, s.clearHistoryCmd(true)

	case "ctrl+r":
		if !s.confirmReset {
			s.confirmReset = true
			w.SetFlash("press ctrl+r again to reset cost accounting")
			return s, nil
		}
		s.confirmReset = false
		s.acc.Reset()
		s.updateBanner(w)
		w.SetFlash("cost accounting reset")
		return s, nil

	case "ctrl+p":
		// ctrl+m would collide with enter (both carriage return).
		return s, s.switchModelCmd(s.nextModel())

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
	case "ctrl+a", "home":
		s.inputPos = 0
	case "ctrl+e", "end":
		s.inputPos = len(s.input)
	case "ctrl+u":
		s.input = nil
		s.inputPos = 0

	case "pgup":
		s.scrollBack += w.VpHeight() / 2
		if limit := len(s.transcript); s.scrollBack > limit {
			s.scrollBack = limit
		}
	case "pgdown":
		s.scrollBack -= w.VpHeight() / 2
		if s.scrollBack < 0 {
			s.scrollBack = 0
		}

	case " ":
		s.insertRunes([]rune{' '})

	default:
		if msg.Type == tea.KeyRunes {
			s.insertRunes(msg.Runes)
		}
	}
	return s, nil
}

func (s *chatScreen) insertRunes(runes []rune) {
	s.input = append(s.input[:s.inputPos], append(append([]rune{}, runes...), s.input[s.inputPos:]...)...)
	s.inputPos += len(runes)
}

// nextModel returns the catalog entry after the active one, wrapping around.
func (s *chatScreen) nextModel() string {
	models := s.catalog.All()
	current := s.catalog.Resolve(s.model)
	for i, m := range models {
		if m.ID == current.ID {
			return models[(i+1)%len(models)].ID
		}
	}
	return models[0].ID
}

func (s *chatScreen) appendLine(kind lineKind, text string) {
	for _, part := range strings.Split(text, "\n") {
		s.transcript = append(s.transcript, transcriptLine{kind: kind, text: part})
	}
}

// appendSummary renders a collapsed tool summary into the transcript.
func (s *chatScreen) appendSummary(summary session.Summary) {
	if summary.Total == 0 {
		return
	}
	s.appendLine(lineSystem, fmt.Sprintf("ran %d remote command(s), %d succeeded", summary.Total, summary.Succeeded))
	for _, d := range summary.Details {
		kind := lineToolOK
		if !d.Success {
			kind = lineToolFail
		}
		s.appendLine(kind, fmt.Sprintf("  %s: %s", d.Machine, d.Command))
		if d.Output != "" {
			for _, part := range strings.Split(d.Output, "\n") {
				s.appendLine(kind, "    "+part)
			}
		}
	}
}

// updateBanner syncs the window banner with the context threshold tier.
func (s *chatScreen) updateBanner(w *tui.Window) {
	status := session.Evaluate(s.acc.Snapshot(), s.catalog.Resolve(s.model))
	switch status.Tier {
	case session.TierCritical:
		w.SetBanner(fmt.Sprintf("context %d%% full, press ctrl+n to start a new session", status.Percent), tui.BannerCritical)
	case session.TierWarn:
		w.SetBanner(fmt.Sprintf("context %d%% full", status.Percent), tui.BannerWarn)
	default:
		w.ClearBanner()
	}
}

func (s *chatScreen) View(w *tui.Window) string {
	height := w.VpHeight() - 3 // tab bar + separator + input line
	if height < 1 {
		height = 1
	}

	userStyle := lipgloss.NewStyle().Foreground(tui.ColorCyan).Bold(true)
	assistantStyle := lipgloss.NewStyle()
	systemStyle := lipgloss.NewStyle().Foreground(tui.ColorField).Italic(true)
	okStyle := lipgloss.NewStyle().Foreground(tui.ColorGreen)
	failStyle := lipgloss.NewStyle().Foreground(tui.ColorError)
	pendingStyle := lipgloss.NewStyle().Foreground(tui.ColorOrange)

	var rows []string
	for _, line := range s.transcript {
		var rendered string
		switch line.kind {
		case lineUser:
			rendered = userStyle.Render("you ") + line.text
		case lineAssistant:
			rendered = assistantStyle.Render(line.text)
		case lineSystem:
			rendered = systemStyle.Render(line.text)
		case lineToolOK:
			rendered = okStyle.Render(line.text)
		case lineToolFail:
			rendered = failStyle.Render(line.text)
		}
		rows = append(rows, ansi.Truncate(rendered, w.Width(), "…"))
	}

	// Transient tool status lines while the exchange is outstanding.
	for _, l := range s.relay.Lines() {
		var glyph string
		switch l.State {
		case session.LinePending:
			glyph = pendingStyle.Render(tui.SpinnerFrames[w.TickFrame()%len(tui.SpinnerFrames)])
		case session.LineSucceeded:
			glyph = okStyle.Render("✓")
		case session.LineFailed:
			glyph = failStyle.Render("✗")
		}
		rows = append(rows, fmt.Sprintf("%s %s: %s", glyph, l.Machine, l.Command))
	}
	if s.thinking && len(s.relay.Lines()) == 0 {
		glyph := pendingStyle.Render(tui.SpinnerFrames[w.TickFrame()%len(tui.SpinnerFrames)])
		rows = append(rows, glyph+" "+systemStyle.Render("thinking"))
	}

	// Bottom-anchored window over the rows, offset by scrollBack.
	end := len(rows) - s.scrollBack
	if end > len(rows) {
		end = len(rows)
	}
	if end < 0 {
		end = 0
	}
	start := end - height
	if start < 0 {
		start = 0
	}
	visible := rows[start:end]

	var out []string
	for len(out) < height-len(visible) {
		out = append(out, "")
	}
	out = append(out, visible...)
	out = append(out, "")
	out = append(out, s.renderInput(w))

	return strings.Join(out, "\n")
}

func (s *chatScreen) renderInput(w *tui.Window) string {
	promptStyle := lipgloss.NewStyle().Foreground(tui.ColorCyan).Bold(true)
	cursorStyle := lipgloss.NewStyle().Reverse(true)

	before := string(s.input[:s.inputPos])
	var under, after string
	if s.inputPos < len(s.input) {
		under = string(s.input[s.inputPos])
		after = string(s.input[s.inputPos+1:])
	} else {
		under = " "
	}

	line := promptStyle.Render("> ") + before + cursorStyle.Render(under) + after
	return ansi.Truncate(line, w.Width(), "")
}

func (s *chatScreen) FooterStatus(w *tui.Window) string {
	report := s.acc.Snapshot()
	model := s.catalog.Resolve(s.model)
	cost := s.acc.Cost(model)
	status := session.Evaluate(report, model)

	labelStyle := lipgloss.NewStyle().Foreground(tui.ColorField)
	valueStyle := lipgloss.NewStyle().Foreground(tui.ColorCyan)

	parts := []string{
		labelStyle.Render("tok ") + valueStyle.Render(fmt.Sprintf("%d/%d", report.TotalInputTokens, report.TotalOutputTokens)),
		labelStyle.Render("cost ") + valueStyle.Render(fmt.Sprintf("$%.4f", cost)),
	}
	if status.Percent > 0 {
		parts = append(parts, labelStyle.Render("ctx ")+valueStyle.Render(fmt.Sprintf("%d%%", status.Percent)))
	}
	return strings.Join(parts, "  ")
}

func (s *chatScreen) FooterKeys(w *tui.Window) []tui.FooterKey {
	return []tui.FooterKey{
		{Key: "enter", Desc: "send"},
		{Key: "ctrl+l", Desc: "clear history"},
		{Key: "ctrl+r", Desc: "reset cost"},
		{Key: "ctrl+n", Desc: "new session"},
		{Key: "ctrl+p", Desc: "cycle model"},
	}
}
