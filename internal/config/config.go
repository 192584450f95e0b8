// Package config loads grammarkeeper settings from YAML or JSON files and
// GRAMMARKEEPER_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverFS     = "fs"
	DriverSQLite = "sqlite"
)

// Config is the application configuration.
type Config struct {
	Grammar Grammar `yaml:"grammar" json:"grammar"`
	Agent   Agent   `yaml:"agent" json:"agent"`
	Logging Logging `yaml:"logging" json:"logging"`
	Events  Events  `yaml:"events" json:"events"`
}

// Grammar configures grammar storage.
type Grammar struct {
	// BaseGrammarFile seeds an empty store. The embedded 1C grammar is used
	// when it is empty.
	BaseGrammarFile string `yaml:"base_grammar_file" json:"base_grammar_file"`
	VersionStorage  string `yaml:"version_storage" json:"version_storage"`
	StoreDriver     string `yaml:"store_driver" json:"store_driver"`
	SQLitePath      string `yaml:"sqlite_path" json:"sqlite_path"`

	AutoBackup         bool   `yaml:"auto_backup" json:"auto_backup"`
	BackupDir          string `yaml:"backup_dir" json:"backup_dir"`
	BackupIntervalDays int    `yaml:"backup_interval_days" json:"backup_interval_days"`

	LogGrammarChanges bool   `yaml:"log_grammar_changes" json:"log_grammar_changes"`
	ChangelogFile     string `yaml:"changelog_file" json:"changelog_file"`

	// SmokeTest must parse with every accepted grammar. Empty disables it.
	SmokeTest string `yaml:"smoke_test" json:"smoke_test"`
}

// Agent configures the self-extension loop.
type Agent struct {
	Enabled               bool `yaml:"enabled" json:"enabled"`
	AutoUpdateGrammar     bool `yaml:"auto_update_grammar" json:"auto_update_grammar"`
	MaxCorrectionAttempts int  `yaml:"max_correction_attempts" json:"max_correction_attempts"`
}

// Logging configures the process logger.
type Logging struct {
	Level string `yaml:"level" json:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format" json:"format"`
	// File receives log records instead of stderr when set.
	File string `yaml:"file" json:"file"`
}

// Events configures change notifications over NATS.
type Events struct {
	NATSURL string `yaml:"nats_url" json:"nats_url"`
	Subject string `yaml:"subject" json:"subject"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Grammar: Grammar{
			VersionStorage:     filepath.Join("grammar", "versions"),
			StoreDriver:        DriverFS,
			SQLitePath:         filepath.Join("grammar", "versions.db"),
			AutoBackup:         true,
			BackupDir:          filepath.Join("grammar", "backups"),
			BackupIntervalDays: 7,
			LogGrammarChanges:  true,
			ChangelogFile:      filepath.Join("grammar", "grammar_changelog.md"),
			SmokeTest:          "Перем x;",
		},
		Agent: Agent{
			Enabled:               true,
			AutoUpdateGrammar:     true,
			MaxCorrectionAttempts: 3,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Events: Events{
			Subject: "grammarkeeper.grammar.changes",
		},
	}
}

// LoadFromPath reads the file at path over the defaults, then applies
// environment overrides. A missing file yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := unmarshal(path, data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error

	switch c.Grammar.StoreDriver {
	case DriverFS:
		if c.Grammar.VersionStorage == "" {
			errs = append(errs, errors.New("grammar.version_storage is required for the fs driver"))
		}
	case DriverSQLite:
		if c.Grammar.SQLitePath == "" {
			errs = append(errs, errors.New("grammar.sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown grammar.store_driver %q", c.Grammar.StoreDriver))
	}
	if c.Grammar.AutoBackup {
		if c.Grammar.BackupDir == "" {
			errs = append(errs, errors.New("grammar.backup_dir is required when auto_backup is on"))
		}
		if c.Grammar.BackupIntervalDays <= 0 {
			errs = append(errs, errors.New("grammar.backup_interval_days must be positive"))
		}
	}
	if c.Grammar.LogGrammarChanges && c.Grammar.ChangelogFile == "" {
		errs = append(errs, errors.New("grammar.changelog_file is required when log_grammar_changes is on"))
	}
	if c.Agent.MaxCorrectionAttempts < 0 {
		errs = append(errs, errors.New("agent.max_correction_attempts cannot be negative"))
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
