package versionstore

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps versions as rows of a single SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

const versionColumns = `version_id, grammar, description, created_by, created_at`

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS grammar_versions(
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		version_id TEXT NOT NULL UNIQUE,
		grammar TEXT NOT NULL,
		description TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create versions table: %w", err)
	}

	o := createOptions(opts)
	return &SQLiteStore{db: db, logger: o.logger}, nil
}

func (s *SQLiteStore) Save(v *GrammarVersion) error {
	if err := validateID(v.ID); err != nil {
		return err
	}

	_, err := s.db.Exec(
		`INSERT INTO grammar_versions(`+versionColumns+`) VALUES(?,?,?,?,?)`,
		v.ID, v.Grammar, v.Description, v.CreatedBy, v.CreatedAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrVersionExists, v.ID)
		}
		return fmt.Errorf("insert version %s: %w", v.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*GrammarVersion, error) {
	var (
		v         GrammarVersion
		createdAt int64
	)
	if err := row.Scan(&v.ID, &v.Grammar, &v.Description, &v.CreatedBy, &createdAt); err != nil {
		return nil, err
	}
	v.CreatedAt = time.Unix(0, createdAt).UTC()
	return &v, nil
}

func (s *SQLiteStore) Load(id string) (*GrammarVersion, error) {
	row := s.db.QueryRow(`SELECT `+versionColumns+` FROM grammar_versions WHERE version_id = ?`, id)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load version %s: %w", id, err)
	}
	return v, nil
}

func (s *SQLiteStore) LoadLatest() (*GrammarVersion, error) {
	row := s.db.QueryRow(`SELECT ` + versionColumns + ` FROM grammar_versions ORDER BY created_at DESC, seq DESC LIMIT 1`)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest version: %w", err)
	}
	return v, nil
}

func (s *SQLiteStore) List() ([]*GrammarVersion, error) {
	rows, err := s.db.Query(`SELECT ` + versionColumns + ` FROM grammar_versions ORDER BY created_at, seq`)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []*GrammarVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			s.logger.Warn("skipping unreadable version row", "error", err)
			continue
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

func (s *SQLiteStore) Backup(target string, currentID string) (*Manifest, error) {
	versions, err := s.List()
	if err != nil {
		return nil, err
	}
	return writeBackup(target, versions, currentID)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
