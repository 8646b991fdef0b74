package session

import "sync"

// LineState tracks one transient tool-status line.
type LineState int

const (
	LinePending LineState = iota
	LineSucceeded
	LineFailed
)

// Line is one transient status line shown while the assistant runs remote
// commands during an exchange.
type Line struct {
	Machine string
	Command string
	State   LineState
}

// Execution is one completed remote command as reported by the exchange
// reply, including its captured output.
type Execution struct {
	Machine string `json:"machine"`
	Command string `json:"command"`
	Success bool   `json:"success"`
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
}

// Detail is one collapsed per-execution entry.
type Detail struct {
	Machine string
	Command string
	Success bool
	Output  string // truncated to OutputLimit
}

// Summary replaces the transient lines once the owning exchange completes.
type Summary struct {
	Total     int
	Succeeded int
	Details   []Detail
}

// OutputLimit caps the per-execution output kept in a collapsed summary.
const OutputLimit = 500

// Relay consumes the asynchronous executing/completed notifications pushed
// by the execution backend and exposes them as transient status lines.
// Events are matched by (machine, command) value equality; there is no
// execution identifier, so two concurrent identical commands on the same
// machine cannot be told apart and the most recent pending match wins.
type Relay struct {
	mu    sync.Mutex
	lines []Line
}

func NewRelay() *Relay {
	return &Relay{}
}

// Executing records a command start. A pending line for the same
// (machine, command) pair is reset rather than duplicated.
func (r *Relay) Executing(machine, command string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.lines) - 1; i >= 0; i-- {
		l := &r.lines[i]
		if l.Machine == machine && l.Command == command && l.State == LinePending {
			return
		}
	}
	r.lines = append(r.lines, Line{Machine: machine, Command: command})
}

// Completed settles the most recent pending line for the pair. An unmatched
// completion still produces a settled line so the outcome is not lost.
func (r *Relay) Completed(machine, command string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := LineFailed
	if success {
		state = LineSucceeded
	}

	for i := len(r.lines) - 1; i >= 0; i-- {
		l := &r.lines[i]
		if l.Machine == machine && l.Command == command && l.State == LinePending {
			l.State = state
			return
		}
	}
	r.lines = append(r.lines, Line{Machine: machine, Command: command, State: state})
}

// Lines returns a snapshot of the transient status lines.
func (r *Relay) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Line, len(r.lines))
	copy(out, r.lines)
	return out
}

// Collapse clears the transient lines and builds the collapsed summary from
// the exchange reply's execution list, which carries the captured output the
// push events lack.
func (r *Relay) Collapse(execs []Execution) Summary {
	r.mu.Lock()
	r.lines = nil
	r.mu.Unlock()

	s := Summary{Total: len(execs)}
	for _, e := range execs {
		if e.Success {
			s.Succeeded++
		}
		output := e.Stdout
		if output == "" {
			output = e.Stderr
		}
		s.Details = append(s.Details, Detail{
			Machine: e.Machine,
			Command: e.Command,
			Success: e.Success,
			Output:  truncateOutput(output, OutputLimit),
		})
	}
	return s
}

// truncateOutput caps s at maxBytes without splitting a multi-byte UTF-8
// character, appending an ellipsis when anything was cut.
func truncateOutput(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && s[maxBytes]>>6 == 0b10 {
		maxBytes--
	}
	return s[:maxBytes] + "…"
}
