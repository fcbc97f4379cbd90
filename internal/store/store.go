// Package store persists projects and their journey state in a local
// sqlite database. Each project row carries the full state the wizard
// needs to resume: current stage, plan data, and chat transcript.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"venturemap/internal/catalog"
	"venturemap/internal/plan"
)

// ErrNotFound reports an operation on a project id with no row.
var ErrNotFound = errors.New("store: project not found")

// Project is the listing view of a stored project.
type Project struct {
	ID        string
	Name      string
	Stage     catalog.Stage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store manages the projects database. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Open creates or opens the projects database under dir.
func Open(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "venturemap.db")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		stage TEXT NOT NULL,
		data_json TEXT NOT NULL,
		messages_json TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Create inserts a new project positioned at the first content stage and
// returns its id. The name and initial idea are seeded into the plan data.
func (s *Store) Create(ctx context.Context, name, initialIdea string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	data := plan.Data{
		plan.KeyProjectName: name,
		plan.KeyInitialIdea: initialIdea,
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode project data: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, stage, data_json, messages_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, name, string(catalog.FirstContent()), dataJSON, "[]", now, now)
	if err != nil {
		return "", fmt.Errorf("failed to create project: %w", err)
	}
	return id, nil
}

// List returns all projects, most recently touched first.
func (s *Store) List(ctx context.Context) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, stage, created_at, updated_at
		FROM projects ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var stage string
		if err := rows.Scan(&p.ID, &p.Name, &stage, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		p.Stage = catalog.Stage(stage)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Get returns the listing view of one project.
func (s *Store) Get(ctx context.Context, projectID string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Project
	var stage string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, stage, created_at, updated_at FROM projects WHERE id = ?
	`, projectID).Scan(&p.ID, &p.Name, &stage, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("failed to load project: %w", err)
	}
	p.Stage = catalog.Stage(stage)
	return p, nil
}

// Rename updates a project's display name, both the listing column and the
// projectName field inside the stored plan data.
func (s *Store) Rename(ctx context.Context, projectID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dataJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT data_json FROM projects WHERE id = ?`, projectID).Scan(&dataJSON)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	data := plan.Data{}
	if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
		return fmt.Errorf("failed to decode project data: %w", err)
	}
	data[plan.KeyProjectName] = name
	updated, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode project data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, data_json = ?, updated_at = ? WHERE id = ?
	`, name, updated, time.Now().UTC(), projectID)
	if err != nil {
		return fmt.Errorf("failed to rename project: %w", err)
	}
	return nil
}

// Delete removes a project and all its journey state.
func (s *Store) Delete(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Load retrieves the full journey state of a project.
func (s *Store) Load(ctx context.Context, projectID string) (catalog.Stage, plan.Data, []plan.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stage, dataJSON, messagesJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT stage, data_json, messages_json FROM projects WHERE id = ?
	`, projectID).Scan(&stage, &dataJSON, &messagesJSON)
	if err == sql.ErrNoRows {
		return "", nil, nil, ErrNotFound
	}
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to load project: %w", err)
	}

	data := plan.Data{}
	if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
		return "", nil, nil, fmt.Errorf("failed to decode project data: %w", err)
	}
	var messages []plan.Message
	if err := json.Unmarshal([]byte(messagesJSON), &messages); err != nil {
		return "", nil, nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	return catalog.Stage(stage), data, messages, nil
}

// Save overwrites a project's journey state. Upsert: a missing row is
// created, so a save never fails on a fresh project id. The listing name
// follows the projectName field in the plan data.
func (s *Store) Save(ctx context.Context, projectID string, stage catalog.Stage, data plan.Data, messages []plan.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode project data: %w", err)
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	if messages == nil {
		messagesJSON = []byte("[]")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, stage, data_json, messages_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			stage = excluded.stage,
			data_json = excluded.data_json,
			messages_json = excluded.messages_json,
			updated_at = excluded.updated_at
	`, projectID, data[plan.KeyProjectName], string(stage), dataJSON, messagesJSON, now, now)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}
