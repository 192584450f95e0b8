package versionstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one JSON file per version in a directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens dir as a version store, creating it when missing.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("version directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create version directory: %w", err)
	}

	o := createOptions(opts)
	return &FileStore{dir: dir, logger: o.logger}, nil
}

// Dir returns the directory holding the records.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Save(v *GrammarVersion) error {
	if err := validateID(v.ID); err != nil {
		return err
	}

	path := s.path(v.ID)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrVersionExists, v.ID)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal version %s: %w", v.ID, err)
	}
	if err := AtomicWriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write version %s: %w", v.ID, err)
	}
	return nil
}

func (s *FileStore) Load(id string) (*GrammarVersion, error) {
	if err := validateID(id); err != nil {
		return nil, nil
	}
	return s.readRecord(s.path(id))
}

// readRecord returns (nil, nil) for missing or corrupt records.
func (s *FileStore) readRecord(path string) (*GrammarVersion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read version file: %w", err)
	}

	var v GrammarVersion
	if err := json.Unmarshal(data, &v); err != nil {
		s.logger.Warn("skipping unreadable version record", "path", path, "error", err)
		return nil, nil
	}
	return &v, nil
}

func (s *FileStore) List() ([]*GrammarVersion, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read version directory: %w", err)
	}

	var versions []*GrammarVersion
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == ManifestFile || !strings.HasSuffix(name, ".json") {
			continue
		}
		v, err := s.readRecord(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		if v != nil {
			versions = append(versions, v)
		}
	}

	sortVersions(versions)
	return versions, nil
}

func (s *FileStore) LoadLatest() (*GrammarVersion, error) {
	versions, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	return versions[len(versions)-1], nil
}

func (s *FileStore) Backup(target string, currentID string) (*Manifest, error) {
	versions, err := s.List()
	if err != nil {
		return nil, err
	}
	return writeBackup(target, versions, currentID)
}

func (s *FileStore) Close() error {
	return nil
}
