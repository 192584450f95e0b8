package versionstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ManifestFile is the name of the manifest written into backup directories.
const ManifestFile = "backup_info.json"

var (
	// ErrVersionExists is returned when saving an id that is already stored.
	ErrVersionExists = errors.New("version already exists")
	// ErrInvalidID is returned for ids that cannot name a record.
	ErrInvalidID = errors.New("invalid version id")
)

// Store persists grammar versions. Records are never modified once saved.
type Store interface {
	// Save durably writes v.
	Save(v *GrammarVersion) error
	// Load returns (nil, nil) when id is absent or its record is unreadable.
	Load(id string) (*GrammarVersion, error)
	// LoadLatest returns the most recently created version, or (nil, nil)
	// for an empty store.
	LoadLatest() (*GrammarVersion, error)
	// List returns all readable versions in creation order.
	List() ([]*GrammarVersion, error)
	// Backup copies every version into target and writes a manifest naming
	// currentID. A failure part way leaves the copied files in place.
	Backup(target string, currentID string) (*Manifest, error)
	Close() error
}

// Manifest describes a backup directory.
type Manifest struct {
	BackupID         string    `json:"backup_id"`
	Timestamp        time.Time `json:"backup_timestamp"`
	VersionsCount    int       `json:"versions_count"`
	CurrentVersionID string    `json:"current_version_id"`
	VersionIDs       []string  `json:"version_ids"`
}

// Option configures a store.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report skipped records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func createOptions(opts []Option) *options {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func writeBackup(target string, versions []*GrammarVersion, currentID string) (*Manifest, error) {
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	manifest := &Manifest{
		BackupID:         uuid.NewString(),
		Timestamp:        time.Now().UTC(),
		VersionsCount:    len(versions),
		CurrentVersionID: currentID,
		VersionIDs:       make([]string, 0, len(versions)),
	}
	for _, v := range versions {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal version %s: %w", v.ID, err)
		}
		if err := AtomicWriteFile(filepath.Join(target, v.ID+".json"), data, 0o644); err != nil {
			return nil, fmt.Errorf("copy version %s: %w", v.ID, err)
		}
		manifest.VersionIDs = append(manifest.VersionIDs, v.ID)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := AtomicWriteFile(filepath.Join(target, ManifestFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return manifest, nil
}

// ReadManifest loads the manifest of a backup directory. It returns
// (nil, nil) when the directory holds no manifest.
func ReadManifest(target string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(target, ManifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &manifest, nil
}

// BackupDue reports whether target has no backup newer than interval.
func BackupDue(target string, interval time.Duration, now time.Time) (bool, error) {
	manifest, err := ReadManifest(target)
	if err != nil {
		return false, err
	}
	if manifest == nil {
		return true, nil
	}
	return now.Sub(manifest.Timestamp) >= interval, nil
}
