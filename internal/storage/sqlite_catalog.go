package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"habitquest/pkg/types"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	category_title  TEXT NOT NULL,
	category_icon   TEXT NOT NULL DEFAULT '',
	default_picture TEXT NOT NULL DEFAULT '',
	milestones      TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks(category_title);
`

// SQLiteCatalogStore is a CatalogStore over a local SQLite database. The
// catalog is admin-maintained reference data loaded in full per request,
// which stays cheap at catalog sizes of a few hundred tasks.
type SQLiteCatalogStore struct {
	db *sql.DB
}

// NewSQLiteCatalogStore opens (and if needed initializes) the catalog database
func NewSQLiteCatalogStore(path string) (*SQLiteCatalogStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	if _, err := db.Exec(catalogSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	return &SQLiteCatalogStore{db: db}, nil
}

// ListTasks returns the full catalog
func (s *SQLiteCatalogStore) ListTasks(ctx context.Context) ([]types.TaskCatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, category_title, category_icon, default_picture, milestones FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []types.TaskCatalogEntry
	for rows.Next() {
		entry, err := scanTaskRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return entries, nil
}

// GetTask returns one catalog entry by id
func (s *SQLiteCatalogStore) GetTask(ctx context.Context, taskID string) (*types.TaskCatalogEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, category_title, category_icon, default_picture, milestones FROM tasks WHERE id = ?`,
		taskID)

	entry, err := scanTaskRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get task %s: %w", taskID, ErrTaskNotFound)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// UpsertTask inserts or replaces a catalog entry, used by the seeding tool.
func (s *SQLiteCatalogStore) UpsertTask(ctx context.Context, entry *types.TaskCatalogEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid catalog entry: %w", err)
	}

	milestones, err := json.Marshal(entry.Milestones)
	if err != nil {
		return fmt.Errorf("encode milestones for task %s: %w", entry.ID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, category_title, category_icon, default_picture, milestones)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			category_title = excluded.category_title,
			category_icon = excluded.category_icon,
			default_picture = excluded.default_picture,
			milestones = excluded.milestones`,
		entry.ID, entry.Title, entry.CategoryTitle, entry.CategoryIcon,
		entry.DefaultPictureURL, string(milestones))
	if err != nil {
		return fmt.Errorf("upsert task %s: %w", entry.ID, err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteCatalogStore) Close() error {
	return s.db.Close()
}

func scanTaskRow(scan func(dest ...any) error) (*types.TaskCatalogEntry, error) {
	var entry types.TaskCatalogEntry
	var milestonesJSON string

	if err := scan(&entry.ID, &entry.Title, &entry.CategoryTitle,
		&entry.CategoryIcon, &entry.DefaultPictureURL, &milestonesJSON); err != nil {
		return nil, err
	}

	if milestonesJSON != "" && milestonesJSON != "{}" {
		if err := json.Unmarshal([]byte(milestonesJSON), &entry.Milestones); err != nil {
			return nil, fmt.Errorf("decode milestones for task %s: %w", entry.ID, err)
		}
	}
	return &entry, nil
}
