// Package machine implements the remote machine status and execution
// coordinator: a fixed roster of named machines, a recurring liveness
// poller, and one-shot command execution over SSH.
package machine

import "fmt"

// Role classifies a roster entry.
type Role string

const (
	// RoleCommander is the always-online local machine. It is never probed.
	RoleCommander Role = "Commander"
	// RoleRemote machines have their liveness probed each poll cycle.
	RoleRemote Role = "Remote"
)

// Machine is one roster entry. The roster is ordered and its membership is
// immutable; only the Online flag changes, and only via poll cycles.
type Machine struct {
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Host   string `json:"host"`
	User   string `json:"user"`
	Port   int    `json:"port"`
	Online bool   `json:"online"`
}

// Dest returns the SSH destination for the machine, e.g. "ops@sigma.lan".
func (m Machine) Dest() string {
	if m.User == "" {
		return m.Host
	}
	return m.User + "@" + m.Host
}

// ValidateRoster checks the roster invariants: unique names and exactly one
// Commander.
func ValidateRoster(roster []Machine) error {
	seen := make(map[string]bool, len(roster))
	commanders := 0
	for _, m := range roster {
		if m.Name == "" {
			return fmt.Errorf("machine with empty name")
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate machine name %q", m.Name)
		}
		seen[m.Name] = true
		switch m.Role {
		case RoleCommander:
			commanders++
		case RoleRemote:
		default:
			return fmt.Errorf("machine %q: unknown role %q", m.Name, m.Role)
		}
	}
	if commanders != 1 {
		return fmt.Errorf("roster needs exactly one Commander, found %d", commanders)
	}
	return nil
}
