// Package store persists terminal evaluation jobs to SQLite so the
// job listing survives process restarts. Live jobs stay in memory;
// only completed and failed jobs are archived here.
package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	db *sql.DB
}

// JobRecord is one archived job row.
type JobRecord struct {
	ID           string          `json:"job_id"`
	Status       string          `json:"status"`
	Pipeline     string          `json:"pipeline"`
	Algorithms   []string        `json:"algorithms"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	ParityPassed *bool           `json:"parity_passed,omitempty"`
	Error        string          `json:"error,omitempty"`
	Results      json.RawMessage `json:"results,omitempty"`
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		var applied int
		err := s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", f).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", f, err)
		}
		if applied > 0 {
			continue
		}
		content, err := migrationsFS.ReadFile("migrations/" + f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", f, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", f); err != nil {
			return fmt.Errorf("record migration %s: %w", f, err)
		}
	}
	return nil
}

// SaveJob upserts a terminal job record.
func (s *Store) SaveJob(rec JobRecord) error {
	// Fixed-width fraction so ORDER BY created_at is chronological;
	// RFC3339Nano trims trailing zeros and breaks that within a second.
	const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

	var completedAt any
	if rec.CompletedAt != nil {
		completedAt = rec.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	var parity any
	if rec.ParityPassed != nil {
		if *rec.ParityPassed {
			parity = 1
		} else {
			parity = 0
		}
	}
	_, err := s.db.Exec(`INSERT INTO jobs
		(id, status, pipeline, algorithms, created_at, completed_at, parity_passed, error, results)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			completed_at = excluded.completed_at,
			parity_passed = excluded.parity_passed,
			error = excluded.error,
			results = excluded.results`,
		rec.ID, rec.Status, rec.Pipeline, strings.Join(rec.Algorithms, ","),
		rec.CreatedAt.UTC().Format(createdAtLayout), completedAt, parity, rec.Error, []byte(rec.Results),
	)
	if err != nil {
		return fmt.Errorf("save job %s: %w", rec.ID, err)
	}
	return nil
}

// GetJob fetches one archived job, or nil when absent.
func (s *Store) GetJob(id string) (*JobRecord, error) {
	rows, err := s.db.Query(`SELECT id, status, pipeline, algorithms, created_at,
		completed_at, parity_passed, error, results FROM jobs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanJob(rows)
}

// ListJobs returns archived jobs newest-first with an optional status
// filter.
func (s *Store) ListJobs(limit, offset int, status string) ([]JobRecord, error) {
	q := `SELECT id, status, pipeline, algorithms, created_at, completed_at,
		parity_passed, error, results FROM jobs`
	var args []any
	if status != "" {
		q += " WHERE status = ?"
		args = append(args, status)
	}
	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []JobRecord
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanJob(rows *sql.Rows) (*JobRecord, error) {
	var rec JobRecord
	var algorithms, createdAt string
	var completedAt sql.NullString
	var parity sql.NullInt64
	var errStr sql.NullString
	var results []byte

	if err := rows.Scan(&rec.ID, &rec.Status, &rec.Pipeline, &algorithms, &createdAt,
		&completedAt, &parity, &errStr, &results); err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	if algorithms != "" {
		rec.Algorithms = strings.Split(algorithms, ",")
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, completedAt.String); err == nil {
			rec.CompletedAt = &t
		}
	}
	if parity.Valid {
		v := parity.Int64 == 1
		rec.ParityPassed = &v
	}
	rec.Error = errStr.String
	if len(results) > 0 {
		rec.Results = results
	}
	return &rec, nil
}
