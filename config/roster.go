package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/bernd/nexus/machine"
)

type rosterFile struct {
	Machines []rosterEntry `toml:"machines"`
}

type rosterEntry struct {
	Name string `toml:"name"`
	Role string `toml:"role"`
	Host string `toml:"host"`
	User string `toml:"user"`
	Port int    `toml:"port"`
}

// LoadRoster parses the TOML machine roster at path and validates it.
// A missing file is not an error; it returns an empty roster so commands
// that don't need machines still work.
func LoadRoster(path string) ([]machine.Machine, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var rf rosterFile
	if _, err := toml.DecodeFile(path, &rf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(rf.Machines) == 0 {
		return nil, nil
	}

	roster := make([]machine.Machine, 0, len(rf.Machines))
	for _, e := range rf.Machines {
		roster = append(roster, machine.Machine{
			Name: e.Name,
			Role: machine.Role(e.Role),
			Host: e.Host,
			User: e.User,
			Port: e.Port,
		})
	}

	if err := machine.ValidateRoster(roster); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return roster, nil
}
