package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/b4fun/grammarkeeper-go/backend"
	"github.com/b4fun/grammarkeeper-go/events"
	"github.com/b4fun/grammarkeeper-go/grammars"
	"github.com/b4fun/grammarkeeper-go/internal/config"
	"github.com/b4fun/grammarkeeper-go/manager"
	"github.com/b4fun/grammarkeeper-go/versionstore"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs. Resources are opened lazily and
// released by close.
type app struct {
	configPath string
	logLevel   string
	debug      bool

	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadFromPath(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	// flag, then config, then info
	levelName := cfg.Logging.Level
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	if a.debug {
		levelName = "debug"
	}
	level, err := config.ParseLevel(levelName)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.ErrOrStderr()
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, func() { f.Close() })
		w = f
	}
	a.logger = cfg.Logging.NewLogger(w, level)
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) openStore() (versionstore.Store, error) {
	opts := []versionstore.Option{versionstore.WithLogger(a.logger)}

	var (
		store versionstore.Store
		err   error
	)
	switch a.cfg.Grammar.StoreDriver {
	case config.DriverSQLite:
		store, err = versionstore.OpenSQLite(a.cfg.Grammar.SQLitePath, opts...)
	default:
		store, err = versionstore.NewFileStore(a.cfg.Grammar.VersionStorage, opts...)
	}
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { store.Close() })
	return store, nil
}

func (a *app) publisher() events.Publisher {
	var publishers []events.Publisher
	if a.cfg.Grammar.LogGrammarChanges {
		publishers = append(publishers, events.NewChangelogPublisher(a.cfg.Grammar.ChangelogFile))
	}
	if a.cfg.Events.NATSURL != "" {
		p, closeFn, err := events.ConnectNATS(a.cfg.Events.NATSURL, a.cfg.Events.Subject)
		if err != nil {
			a.logger.Warn("grammar events will not be published", "url", a.cfg.Events.NATSURL, "error", err)
		} else {
			a.closers = append(a.closers, closeFn)
			publishers = append(publishers, p)
		}
	}
	return events.Multi(publishers...)
}

// manager opens the store and settles the current grammar. An auto backup
// runs first when one is due.
func (a *app) manager() (*manager.Manager, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}

	opts := []manager.Option{
		manager.WithLogger(a.logger),
		manager.WithPublisher(a.publisher()),
		manager.WithSmokeTest(a.cfg.Grammar.SmokeTest),
		manager.WithFallbackGrammar(grammars.OneC),
	}
	if a.cfg.Grammar.BaseGrammarFile != "" {
		opts = append(opts, manager.WithBaseGrammarFile(a.cfg.Grammar.BaseGrammarFile))
	}

	m, err := manager.New(store, backend.NewPEG(backend.WithIgnoreRule(grammars.IgnoreRule)), opts...)
	if err != nil {
		return nil, err
	}

	if a.cfg.Grammar.AutoBackup {
		a.autoBackup(m)
	}
	return m, nil
}

func (a *app) autoBackup(m *manager.Manager) {
	interval := time.Duration(a.cfg.Grammar.BackupIntervalDays) * 24 * time.Hour
	due, err := versionstore.BackupDue(a.cfg.Grammar.BackupDir, interval, time.Now().UTC())
	if err != nil {
		a.logger.Warn("cannot check backup age", "dir", a.cfg.Grammar.BackupDir, "error", err)
		return
	}
	if !due {
		return
	}
	// failures are logged by the manager
	_, _ = m.Backup(a.cfg.Grammar.BackupDir)
}
