// Package events announces grammar changes to interested parties.
package events

import (
	"errors"
	"time"
)

// Kind classifies a grammar change.
type Kind string

const (
	// KindCommitted is published when an extension becomes current.
	KindCommitted Kind = "committed"
	// KindRolledBack is published when an older version becomes current.
	KindRolledBack Kind = "rolled_back"
	// KindAdded is published when grammar text is stored as a new version.
	KindAdded Kind = "added"
)

// Event describes a change of the current grammar version.
type Event struct {
	Kind              Kind      `json:"kind"`
	VersionID         string    `json:"version_id"`
	PreviousVersionID string    `json:"previous_version_id,omitempty"`
	Description       string    `json:"description,omitempty"`
	CreatedBy         string    `json:"created_by,omitempty"`
	Applied           []string  `json:"applied,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// Publisher receives grammar change events. A failing publisher never undoes
// the change it reports.
type Publisher interface {
	Publish(e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(e Event) error

func (f PublisherFunc) Publish(e Event) error {
	return f(e)
}

// Nop discards every event.
var Nop Publisher = PublisherFunc(func(Event) error { return nil })

type multi []Publisher

// Multi fans an event out to every publisher and joins their errors.
func Multi(publishers ...Publisher) Publisher {
	var flat multi
	for _, p := range publishers {
		if p == nil {
			continue
		}
		if m, ok := p.(multi); ok {
			flat = append(flat, m...)
			continue
		}
		flat = append(flat, p)
	}
	return flat
}

func (m multi) Publish(e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
