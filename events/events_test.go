package events

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMessage struct {
	subject string
	data    []byte
}

type fakeConn struct {
	messages []recordedMessage
	err      error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, recordedMessage{subject: subject, data: data})
	return nil
}

func testEvent() Event {
	return Event{
		Kind:              KindCommitted,
		VersionID:         "01HZX",
		PreviousVersionID: "01HZW",
		Description:       "Для каждого",
		CreatedBy:         "pattern",
		Applied:           []string{"statement |= foreach_statement"},
		Timestamp:         time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestChangelogPublisher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "changelog.md")
	p := NewChangelogPublisher(path)

	require.NoError(t, p.Publish(testEvent()))
	rollback := Event{Kind: KindRolledBack, VersionID: "01HZW", Timestamp: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, p.Publish(rollback))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, changelogTitle))
	assert.Equal(t, 1, strings.Count(content, changelogTitle))
	assert.Contains(t, content, "## 2024-05-01T10:00:00Z committed")
	assert.Contains(t, content, "- applied: `statement |= foreach_statement`")
	assert.Contains(t, content, "## 2024-05-02T00:00:00Z rolled_back")
	assert.Less(t, strings.Index(content, "committed"), strings.Index(content, "rolled_back"))
}

func TestNATSPublisher(t *testing.T) {
	conn := &fakeConn{}
	p := NewNATSPublisher(conn, "")

	require.NoError(t, p.Publish(testEvent()))
	require.Len(t, conn.messages, 1)
	assert.Equal(t, DefaultSubject+".committed", conn.messages[0].subject)

	var decoded Event
	require.NoError(t, json.Unmarshal(conn.messages[0].data, &decoded))
	assert.Equal(t, testEvent(), decoded)

	conn.err = errors.New("connection closed")
	assert.ErrorContains(t, p.Publish(testEvent()), "connection closed")
}

func TestMulti(t *testing.T) {
	var seen []Kind
	record := PublisherFunc(func(e Event) error {
		seen = append(seen, e.Kind)
		return nil
	})
	failing := PublisherFunc(func(Event) error { return errors.New("boom") })

	p := Multi(record, nil, Multi(failing, record))
	err := p.Publish(Event{Kind: KindAdded})

	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, []Kind{KindAdded, KindAdded}, seen)
	assert.NoError(t, Nop.Publish(Event{}))
}
