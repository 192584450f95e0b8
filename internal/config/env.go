package config

import (
	"fmt"
	"strconv"
)

// EnvPrefix prefixes every environment override, as in
// GRAMMARKEEPER_GRAMMAR_STORE_DRIVER.
const EnvPrefix = "GRAMMARKEEPER_"

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("GRAMMAR_BASE_GRAMMAR_FILE", &cfg.Grammar.BaseGrammarFile)
	e.str("GRAMMAR_VERSION_STORAGE", &cfg.Grammar.VersionStorage)
	e.str("GRAMMAR_STORE_DRIVER", &cfg.Grammar.StoreDriver)
	e.str("GRAMMAR_SQLITE_PATH", &cfg.Grammar.SQLitePath)
	e.boolean("GRAMMAR_AUTO_BACKUP", &cfg.Grammar.AutoBackup)
	e.str("GRAMMAR_BACKUP_DIR", &cfg.Grammar.BackupDir)
	e.integer("GRAMMAR_BACKUP_INTERVAL_DAYS", &cfg.Grammar.BackupIntervalDays)
	e.boolean("GRAMMAR_LOG_GRAMMAR_CHANGES", &cfg.Grammar.LogGrammarChanges)
	e.str("GRAMMAR_CHANGELOG_FILE", &cfg.Grammar.ChangelogFile)
	e.str("GRAMMAR_SMOKE_TEST", &cfg.Grammar.SmokeTest)

	e.boolean("AGENT_ENABLED", &cfg.Agent.Enabled)
	e.boolean("AGENT_AUTO_UPDATE_GRAMMAR", &cfg.Agent.AutoUpdateGrammar)
	e.integer("AGENT_MAX_CORRECTION_ATTEMPTS", &cfg.Agent.MaxCorrectionAttempts)

	e.str("LOGGING_LEVEL", &cfg.Logging.Level)
	e.str("LOGGING_FORMAT", &cfg.Logging.Format)
	e.str("LOGGING_FILE", &cfg.Logging.File)

	e.str("EVENTS_NATS_URL", &cfg.Events.NATSURL)
	e.str("EVENTS_SUBJECT", &cfg.Events.Subject)

	return e.err
}

type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	return e.lookup(EnvPrefix + key)
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.err = fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		return
	}
	*dst = b
}

func (e *envReader) integer(key string, dst *int) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.err = fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		return
	}
	*dst = i
}
