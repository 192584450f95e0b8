package manager

import (
	"errors"
	"fmt"
	"time"

	"github.com/b4fun/grammarkeeper-go/backend"
	"github.com/b4fun/grammarkeeper-go/events"
	"github.com/b4fun/grammarkeeper-go/merge"
	"github.com/b4fun/grammarkeeper-go/versionstore"
)

// ExtendResult describes a committed extension.
type ExtendResult struct {
	Version    *versionstore.GrammarVersion
	Applied    []merge.Directive
	Mismatched []merge.Directive
}

// Extend merges proposal into the current grammar. The merged grammar
// becomes current only when it compiles, passes the smoke test and is
// stored; on any error the manager state is unchanged.
func (m *Manager) Extend(proposal merge.Proposal) (*ExtendResult, error) {
	result, err := m.merger.Merge(m.current.Grammar, proposal)
	if err != nil {
		return nil, fmt.Errorf("merge proposal: %w", err)
	}
	for _, directive := range result.Mismatched {
		m.logger.Warn("rule update skipped, rule not found",
			"rule", directive.Rule,
			"directive", directive.Line)
	}

	createdBy := proposal.CreatedBy
	if createdBy == "" {
		createdBy = versionstore.CreatedByManual
	}
	v, err := m.commit(result.Candidate, proposal.Description, createdBy, events.KindCommitted, result.Applied)
	if err != nil {
		m.logger.Error("extension rejected", "description", proposal.Description, "error", err)
		return nil, err
	}

	return &ExtendResult{
		Version:    v,
		Applied:    result.Applied,
		Mismatched: result.Mismatched,
	}, nil
}

// AddVersion stores text as a new version and makes it current.
func (m *Manager) AddVersion(text, description, createdBy string) (*versionstore.GrammarVersion, error) {
	if createdBy == "" {
		createdBy = versionstore.CreatedByManual
	}
	return m.commit(text, description, createdBy, events.KindAdded, nil)
}

func (m *Manager) commit(
	text, description, createdBy string,
	kind events.Kind,
	applied []merge.Directive,
) (*versionstore.GrammarVersion, error) {
	artifact, err := m.validate(text)
	if err != nil {
		return nil, err
	}

	v := versionstore.NewVersion(text, description, createdBy)
	if err := m.store.Save(v); err != nil {
		return nil, fmt.Errorf("save version: %w", err)
	}

	previous := m.current
	m.current, m.artifact = v, artifact
	m.logger.Info("grammar version committed",
		"version", v.ID,
		"previous", previous.ID,
		"created_by", createdBy,
		"applied", len(applied))

	rules := make([]string, len(applied))
	for i, directive := range applied {
		rules[i] = directive.String()
	}
	m.publish(events.Event{
		Kind:              kind,
		VersionID:         v.ID,
		PreviousVersionID: previous.ID,
		Description:       description,
		CreatedBy:         createdBy,
		Applied:           rules,
		Timestamp:         v.CreatedAt,
	})
	return v.Clone(), nil
}

func (m *Manager) validate(text string) (backend.Artifact, error) {
	artifact, err := m.Compile(text)
	if err != nil {
		return nil, err
	}
	if m.smokeTest != "" {
		if _, err := artifact.Parse(m.smokeTest); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSmokeTestFailed, err)
		}
	}
	return artifact, nil
}

// Rollback makes the stored version id current again.
func (m *Manager) Rollback(id string) (*versionstore.GrammarVersion, error) {
	v, err := m.store.Load(id)
	if err != nil {
		return nil, fmt.Errorf("load version %s: %w", id, err)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, id)
	}

	artifact, err := m.Compile(v.Grammar)
	if err != nil {
		m.logger.Error("rollback target does not compile", "version", id, "error", err)
		return nil, fmt.Errorf("version %s: %w", id, err)
	}

	previous := m.current
	m.current, m.artifact = v, artifact
	m.logger.Info("grammar rolled back", "version", v.ID, "previous", previous.ID)

	m.publish(events.Event{
		Kind:              events.KindRolledBack,
		VersionID:         v.ID,
		PreviousVersionID: previous.ID,
		Description:       v.Description,
		CreatedBy:         v.CreatedBy,
		Timestamp:         time.Now().UTC(),
	})
	return v.Clone(), nil
}

func (m *Manager) publish(e events.Event) {
	if err := m.publisher.Publish(e); err != nil {
		m.logger.Warn("publish grammar event", "kind", e.Kind, "version", e.VersionID, "error", err)
	}
}

// IsRejected reports whether err means a proposed grammar was refused
// rather than a storage failure.
func IsRejected(err error) bool {
	var compileErr *backend.CompilationError
	return errors.As(err, &compileErr) || errors.Is(err, ErrSmokeTestFailed)
}
