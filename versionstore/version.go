// Package versionstore persists immutable grammar versions.
package versionstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
)

// GrammarVersion is an immutable snapshot of grammar text.
type GrammarVersion struct {
	ID          string
	Grammar     string
	Description string
	// CreatedBy is "manual", "initialization" or the id of the proposing agent.
	CreatedBy string
	CreatedAt time.Time
}

// Well-known CreatedBy values.
const (
	CreatedByManual         = "manual"
	CreatedByInitialization = "initialization"
)

// NewVersion creates a version with a fresh id stamped with the current time.
func NewVersion(grammar, description, createdBy string) *GrammarVersion {
	return &GrammarVersion{
		ID:          ulid.Make().String(),
		Grammar:     grammar,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC().Round(0),
	}
}

func (v *GrammarVersion) String() string {
	return fmt.Sprintf("<GrammarVersion %s by=%s at=%s>", v.ID, v.CreatedBy, v.CreatedAt.Format(time.RFC3339))
}

// Clone returns a copy of v.
func (v *GrammarVersion) Clone() *GrammarVersion {
	c := *v
	return &c
}

// versionRecord is the on-disk layout of a version.
type versionRecord struct {
	Grammar     string `json:"grammar"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
	VersionID   string `json:"version_id"`
	Timestamp   string `json:"timestamp"`
}

func (v *GrammarVersion) MarshalJSON() ([]byte, error) {
	return json.Marshal(versionRecord{
		Grammar:     v.Grammar,
		Description: v.Description,
		CreatedBy:   v.CreatedBy,
		VersionID:   v.ID,
		Timestamp:   v.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

func (v *GrammarVersion) UnmarshalJSON(data []byte) error {
	var record versionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	if record.VersionID == "" {
		return fmt.Errorf("version record has no version_id")
	}
	createdAt, err := parseTimestamp(record.Timestamp)
	if err != nil {
		return fmt.Errorf("version %s: parse timestamp: %w", record.VersionID, err)
	}

	*v = GrammarVersion{
		ID:          record.VersionID,
		Grammar:     record.Grammar,
		Description: record.Description,
		CreatedBy:   record.CreatedBy,
		CreatedAt:   createdAt.UTC(),
	}
	return nil
}

// localTimestampLayout matches zone-less ISO 8601 timestamps with optional
// fractional seconds. They are read as UTC.
const localTimestampLayout = "2006-01-02T15:04:05.999999999"

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err == nil {
		return t, nil
	}
	if local, localErr := time.ParseInLocation(localTimestampLayout, value, time.UTC); localErr == nil {
		return local, nil
	}
	return time.Time{}, err
}

// sortVersions orders versions by creation time. Ids break ties, which
// keeps insertion order for ids minted in the same process.
func sortVersions(versions []*GrammarVersion) {
	sort.SliceStable(versions, func(i, j int) bool {
		if !versions[i].CreatedAt.Equal(versions[j].CreatedAt) {
			return versions[i].CreatedAt.Before(versions[j].CreatedAt)
		}
		return versions[i].ID < versions[j].ID
	})
}
