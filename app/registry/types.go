package registry

import (
	"github.com/a1davida1/TPilot-sub011/app/rules"
)

// Config is one community's registry entry, loaded from <name>.yml in the
// communities directory. The overrides block is the curator surface: any
// field set there wins over automated extraction on every sync.
type Config struct {
	Name      string          // Derived from filename (without .yml extension)
	Enabled   bool            `yaml:"enabled"`
	Settings  ConfigSettings  `yaml:"settings"`
	Overrides *rules.Override `yaml:"overrides"`
}

type ConfigSettings struct {
	SyncInterval int `yaml:"sync_interval"` // seconds
}
