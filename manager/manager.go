// Package manager owns the active grammar: it compiles it, parses source
// code with it and moves it between versions.
package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/b4fun/grammarkeeper-go/backend"
	"github.com/b4fun/grammarkeeper-go/diagnostic"
	"github.com/b4fun/grammarkeeper-go/events"
	"github.com/b4fun/grammarkeeper-go/merge"
	"github.com/b4fun/grammarkeeper-go/types"
	"github.com/b4fun/grammarkeeper-go/versionstore"
)

var (
	// ErrVersionNotFound is returned by Rollback for unknown ids.
	ErrVersionNotFound = errors.New("grammar version not found")
	// ErrSmokeTestFailed is returned when a candidate grammar cannot parse
	// the configured smoke test snippet.
	ErrSmokeTestFailed = errors.New("grammar failed smoke test")
)

const (
	initialDescription = "initial grammar"
	baseDescription    = "base grammar"
)

// Manager holds the current grammar version and its compiled artifact.
// It is not safe for concurrent use.
type Manager struct {
	store     versionstore.Store
	backend   backend.Backend
	merger    merge.Strategy
	publisher events.Publisher
	logger    *slog.Logger
	smokeTest string

	current  *versionstore.GrammarVersion
	artifact backend.Artifact
}

// New creates a manager and settles its current version: an explicit
// initial grammar, else the latest stored version, else the base grammar
// file, else the fallback grammar. New fails when that grammar does not
// compile.
func New(store versionstore.Store, b backend.Backend, opts ...Option) (*Manager, error) {
	o := createOptions(opts)
	m := &Manager{
		store:     store,
		backend:   b,
		merger:    o.merger,
		publisher: o.publisher,
		logger:    o.logger,
		smokeTest: o.smokeTest,
	}

	if err := m.init(o); err != nil {
		return nil, err
	}

	m.logger.Info("grammar manager initialized",
		"version", m.current.ID,
		"created_by", m.current.CreatedBy)
	return m, nil
}

func (m *Manager) init(o *options) error {
	if o.initialGrammar != "" {
		return m.initWith(o.initialGrammar, initialDescription)
	}

	latest, err := m.store.LoadLatest()
	if err != nil {
		return fmt.Errorf("load latest version: %w", err)
	}
	if latest != nil {
		artifact, err := m.Compile(latest.Grammar)
		if err != nil {
			return fmt.Errorf("version %s: %w", latest.ID, err)
		}
		m.current, m.artifact = latest, artifact
		return nil
	}

	text := o.fallbackGrammar
	if o.baseGrammarFile != "" {
		base, err := readGrammarFile(o.baseGrammarFile)
		switch {
		case err == nil:
			text = base
		case errors.Is(err, os.ErrNotExist):
			m.logger.Warn("base grammar file not found", "path", o.baseGrammarFile)
		default:
			return err
		}
	}
	return m.initWith(text, baseDescription)
}

func (m *Manager) initWith(text, description string) error {
	artifact, err := m.Compile(text)
	if err != nil {
		return err
	}

	v := versionstore.NewVersion(text, description, versionstore.CreatedByInitialization)
	if err := m.store.Save(v); err != nil {
		return fmt.Errorf("save initial version: %w", err)
	}
	m.current, m.artifact = v, artifact
	return nil
}

// Current returns a copy of the current version.
func (m *Manager) Current() *versionstore.GrammarVersion {
	return m.current.Clone()
}

// Compile compiles text without touching the manager state.
func (m *Manager) Compile(text string) (backend.Artifact, error) {
	artifact, err := m.backend.Compile(text)
	if err != nil {
		var compileErr *backend.CompilationError
		if !errors.As(err, &compileErr) {
			err = &backend.CompilationError{Err: err}
		}
		return nil, err
	}
	return artifact, nil
}

// Parse parses code with the current grammar. Every failure is a
// *diagnostic.SyntaxError.
func (m *Manager) Parse(code string) (*types.Node, error) {
	tree, err := m.artifact.Parse(code)
	if err != nil {
		syntaxErr := diagnostic.NewSyntaxError(code, err)
		m.logger.Debug("parse failed",
			"version", m.current.ID,
			"kind", syntaxErr.Diagnostic.Kind,
			"line", syntaxErr.Diagnostic.Line,
			"column", syntaxErr.Diagnostic.Column)
		return nil, syntaxErr
	}
	return tree, nil
}

// Versions lists stored versions in creation order.
func (m *Manager) Versions() ([]*versionstore.GrammarVersion, error) {
	return m.store.List()
}

// Backup copies every stored version into dir.
func (m *Manager) Backup(dir string) (*versionstore.Manifest, error) {
	manifest, err := m.store.Backup(dir, m.current.ID)
	if err != nil {
		m.logger.Error("backup failed", "dir", dir, "error", err)
		return nil, err
	}
	m.logger.Info("backup created",
		"dir", dir,
		"backup_id", manifest.BackupID,
		"versions", manifest.VersionsCount)
	return manifest, nil
}

// ExportGrammar writes the current grammar text to path.
func (m *Manager) ExportGrammar(path string) error {
	if err := versionstore.AtomicWriteFile(path, []byte(m.current.Grammar), 0o644); err != nil {
		return fmt.Errorf("export grammar: %w", err)
	}
	return nil
}

// Info summarizes the manager state.
type Info struct {
	CurrentVersionID string    `json:"current_version_id"`
	Description      string    `json:"description"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	VersionsCount    int       `json:"versions_count"`
	Rules            []string  `json:"rules"`
}

func (m *Manager) Info() (*Info, error) {
	versions, err := m.store.List()
	if err != nil {
		return nil, err
	}
	return &Info{
		CurrentVersionID: m.current.ID,
		Description:      m.current.Description,
		CreatedBy:        m.current.CreatedBy,
		CreatedAt:        m.current.CreatedAt,
		VersionsCount:    len(versions),
		Rules:            m.artifact.RuleNames(),
	}, nil
}
