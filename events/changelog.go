package events

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const changelogTitle = "# Grammar changelog\n"

// ChangelogPublisher appends a markdown entry per event to a file.
type ChangelogPublisher struct {
	path string
	mu   sync.Mutex
}

// NewChangelogPublisher writes entries to path, creating it on first use.
func NewChangelogPublisher(path string) *ChangelogPublisher {
	return &ChangelogPublisher{path: path}
}

// Path returns the changelog file.
func (p *ChangelogPublisher) Path() string {
	return p.path
}

func (p *ChangelogPublisher) Publish(e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create changelog directory: %w", err)
	}

	var header string
	if info, err := os.Stat(p.path); err != nil || info.Size() == 0 {
		header = changelogTitle
	}

	f, err := os.OpenFile(p.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open changelog: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(header + formatEntry(e)); err != nil {
		return fmt.Errorf("write changelog: %w", err)
	}
	return nil
}

func formatEntry(e Event) string {
	var b strings.Builder

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	fmt.Fprintf(&b, "\n## %s %s\n\n", ts.Format(time.RFC3339), e.Kind)
	fmt.Fprintf(&b, "- version: `%s`\n", e.VersionID)
	if e.PreviousVersionID != "" {
		fmt.Fprintf(&b, "- previous: `%s`\n", e.PreviousVersionID)
	}
	if e.CreatedBy != "" {
		fmt.Fprintf(&b, "- created by: %s\n", e.CreatedBy)
	}
	if e.Description != "" {
		fmt.Fprintf(&b, "- description: %s\n", e.Description)
	}
	for _, rule := range e.Applied {
		fmt.Fprintf(&b, "- applied: `%s`\n", rule)
	}
	return b.String()
}
