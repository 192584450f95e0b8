package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the subject grammar events are published on.
const DefaultSubject = "grammarkeeper.grammar.changes"

// MessagePublisher is the part of *nats.Conn used to emit events.
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

var _ MessagePublisher = (*nats.Conn)(nil)

// NATSPublisher publishes events as JSON messages.
type NATSPublisher struct {
	conn    MessagePublisher
	subject string
}

// NewNATSPublisher publishes on subject, or DefaultSubject when empty.
func NewNATSPublisher(conn MessagePublisher, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

// ConnectNATS dials url and returns a publisher owning the connection.
func ConnectNATS(url, subject string) (*NATSPublisher, func(), error) {
	conn, err := nats.Connect(url, nats.Name("grammarkeeper"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	closeFn := func() {
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
	}
	return NewNATSPublisher(conn, subject), closeFn, nil
}

func (p *NATSPublisher) Publish(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject+"."+string(e.Kind), data); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Kind, err)
	}
	return nil
}
