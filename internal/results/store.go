// Package results persists OCR jobs and per-field results in an embedded
// sqlite database.
//
// The store is not safe for uncoordinated concurrent writers from outside
// the orchestrator: the orchestrator serializes its own writes, and each
// result insert is its own transaction so a mid-document failure leaves the
// already-committed rows visible and resumable rather than rolled back.
package results

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Job groups the results of one processing run (possibly many documents).
type Job struct {
	ID           int64     `json:"job_id"`
	TemplateName string    `json:"template_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Result is one persisted field extraction.
type Result struct {
	ID              int64   `json:"result_id"`
	JobID           int64   `json:"job_id"`
	ImageName       string  `json:"image_name"`
	ROIName         string  `json:"roi_name"`
	TextMini        string  `json:"text_mini"`
	TextNano        string  `json:"text_nano,omitempty"`
	FinalText       string  `json:"final_text"`
	ConfidenceScore float64 `json:"confidence_score"`
	Status          string  `json:"status"`
	CorrectedByUser bool    `json:"corrected_by_user"`
}

// Store wraps the sqlite connection.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS ocr_jobs (
			job_id INTEGER PRIMARY KEY AUTOINCREMENT,
			template_name TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ocr_results (
			result_id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id INTEGER NOT NULL,
			image_name TEXT NOT NULL,
			roi_name TEXT NOT NULL,
			text_mini TEXT,
			text_nano TEXT,
			final_text TEXT,
			confidence_score REAL,
			status TEXT,
			corrected_by_user INTEGER DEFAULT 0,
			FOREIGN KEY(job_id) REFERENCES ocr_jobs(job_id)
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// CreateJob inserts a new job and returns its id.
func (s *Store) CreateJob(templateName string, createdAt time.Time) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO ocr_jobs (template_name, created_at) VALUES (?, ?)",
		templateName, createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read job id: %w", err)
	}
	return id, nil
}

// AddResult inserts one field result and returns its assigned id. Each call
// commits on its own, so rows from a partially processed document survive a
// later failure.
func (s *Store) AddResult(r *Result) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO ocr_results (
			job_id, image_name, roi_name, text_mini, text_nano,
			final_text, confidence_score, status, corrected_by_user
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.JobID, r.ImageName, r.ROIName, r.TextMini, r.TextNano,
		r.FinalText, r.ConfidenceScore, r.Status, boolToInt(r.CorrectedByUser),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read result id: %w", err)
	}
	return id, nil
}

// FetchResults returns all results for a job.
func (s *Store) FetchResults(jobID int64) ([]Result, error) {
	rows, err := s.db.Query(
		`SELECT result_id, job_id, image_name, roi_name,
			COALESCE(text_mini, ''), COALESCE(text_nano, ''),
			COALESCE(final_text, ''), COALESCE(confidence_score, 0),
			COALESCE(status, ''), corrected_by_user
		FROM ocr_results WHERE job_id = ? ORDER BY result_id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		var corrected int
		if err := rows.Scan(
			&r.ID, &r.JobID, &r.ImageName, &r.ROIName,
			&r.TextMini, &r.TextNano, &r.FinalText,
			&r.ConfidenceScore, &r.Status, &corrected,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.CorrectedByUser = corrected != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListJobs returns all jobs, newest first.
func (s *Store) ListJobs() ([]Job, error) {
	rows, err := s.db.Query(
		"SELECT job_id, template_name, created_at FROM ocr_jobs ORDER BY job_id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var j Job
		var created string
		if err := rows.Scan(&j.ID, &j.TemplateName, &created); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, created); err == nil {
			j.CreatedAt = ts
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// UpdateResult records a human correction: it sets the final text, marks the
// row as corrected, and updates the status ("confirmed" by default). The
// original engine readings in text_mini and text_nano are left untouched.
func (s *Store) UpdateResult(resultID int64, newText, status string) error {
	if status == "" {
		status = "confirmed"
	}
	res, err := s.db.Exec(
		`UPDATE ocr_results
		SET final_text = ?, corrected_by_user = 1, status = ?
		WHERE result_id = ?`,
		newText, status, resultID,
	)
	if err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("result %d not found", resultID)
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
