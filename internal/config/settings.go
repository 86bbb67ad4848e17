package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Configuration keys shared between flag bindings and Load.
const (
	KeyRulesPath     = "rules.path"
	KeyRulesBackend  = "rules.backend"
	KeyDatabasePath  = "database.path"
	KeyChangelogPath = "changelog.path"
	KeySkipRows      = "input.skip_rows"
	KeySheet         = "input.sheet"
	KeyLogLevel      = "logging.level"
	KeyLogFormat     = "logging.format"
)

// Rule storage backends.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// DefaultSkipRows is the size of the banner region at the top of an
// exported BOM that precedes the header row.
const DefaultSkipRows = 10

// Settings is the resolved runtime configuration.
type Settings struct {
	RulesPath     string
	RulesBackend  string
	DatabasePath  string
	ChangelogPath string
	Sheet         string
	SkipRows      int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyRulesPath, "rules.yaml")
	v.SetDefault(KeyRulesBackend, BackendYAML)
	v.SetDefault(KeyDatabasePath, "$HOME/.local/share/bomsort/rules.db")
	v.SetDefault(KeyChangelogPath, "rule_change_log.txt")
	v.SetDefault(KeySkipRows, DefaultSkipRows)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// Load resolves Settings from v. Paths have ~ and environment
// variables expanded.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		RulesPath:     ExpandPath(v.GetString(KeyRulesPath)),
		RulesBackend:  v.GetString(KeyRulesBackend),
		DatabasePath:  ExpandPath(v.GetString(KeyDatabasePath)),
		ChangelogPath: ExpandPath(v.GetString(KeyChangelogPath)),
		Sheet:         v.GetString(KeySheet),
		SkipRows:      v.GetInt(KeySkipRows),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the settings are usable.
func (s *Settings) Validate() error {
	switch s.RulesBackend {
	case BackendYAML:
		if s.RulesPath == "" {
			return fmt.Errorf("%s must be set for the yaml backend", KeyRulesPath)
		}
	case BackendSQLite:
		if s.DatabasePath == "" {
			return fmt.Errorf("%s must be set for the sqlite backend", KeyDatabasePath)
		}
	default:
		return fmt.Errorf("unknown rules backend %q (use %s or %s)", s.RulesBackend, BackendYAML, BackendSQLite)
	}

	if s.SkipRows < 0 {
		return fmt.Errorf("%s cannot be negative: %d", KeySkipRows, s.SkipRows)
	}
	if s.ChangelogPath == "" && s.RulesBackend == BackendYAML {
		return fmt.Errorf("%s must be set", KeyChangelogPath)
	}
	return nil
}
