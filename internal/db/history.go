package db

import (
	"database/sql"
	"errors"
	"time"
)

// Status is the processing state of a book
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Record is one processed book URL
type Record struct {
	ID           int64
	URL          string
	Title        string
	Authors      string
	Kind         string
	Status       Status
	Parts        int
	OutputPath   string
	ErrorMessage string
	Attempts     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// ErrNotFound is returned when no record matches
var ErrNotFound = errors.New("record not found")

const recordColumns = `id, url, title, authors, kind, status, parts, output_path,
	error_message, attempts, created_at, updated_at, completed_at`

// Start records that processing of url has begun, creating the row on first
// sight and counting an attempt either way
func (s *Store) Start(url string) error {
	_, err := s.db.Exec(`
		INSERT INTO books (url, status, attempts) VALUES (?, 'processing', 1)
		ON CONFLICT(url) DO UPDATE SET
			status = 'processing',
			error_message = NULL,
			attempts = attempts + 1,
			updated_at = CURRENT_TIMESTAMP`, url)
	return err
}

// SetBook stores the resolved metadata of url
func (s *Store) SetBook(url, title, authors, kind string, parts int) error {
	_, err := s.db.Exec(`
		UPDATE books SET title = ?, authors = ?, kind = ?, parts = ?, updated_at = CURRENT_TIMESTAMP
		WHERE url = ?`, title, authors, kind, parts, url)
	return err
}

// Complete marks url as saved to outputPath
func (s *Store) Complete(url, outputPath string) error {
	_, err := s.db.Exec(`
		UPDATE books SET
			status = 'completed',
			output_path = ?,
			error_message = NULL,
			completed_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP
		WHERE url = ?`, outputPath, url)
	return err
}

// Fail marks url as failed with errMsg
func (s *Store) Fail(url, errMsg string) error {
	_, err := s.db.Exec(`
		UPDATE books SET status = 'failed', error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE url = ?`, errMsg, url)
	return err
}

// Get retrieves the record of url
func (s *Store) Get(url string) (*Record, error) {
	r, err := scanRecord(s.db.QueryRow(`SELECT `+recordColumns+` FROM books WHERE url = ?`, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// List returns records, most recently updated first. An empty status lists
// every record; limit <= 0 means no limit.
func (s *Store) List(status Status, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = -1
	}

	var rows *sql.Rows
	var err error
	if status != "" {
		rows, err = s.db.Query(`SELECT `+recordColumns+` FROM books WHERE status = ?
			ORDER BY updated_at DESC, id DESC LIMIT ?`, status, limit)
	} else {
		rows, err = s.db.Query(`SELECT `+recordColumns+` FROM books
			ORDER BY updated_at DESC, id DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Failed returns the URLs whose last attempt failed, oldest first
func (s *Store) Failed() ([]string, error) {
	rows, err := s.db.Query(`SELECT url FROM books WHERE status = 'failed' ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// Delete removes the record of url
func (s *Store) Delete(url string) error {
	_, err := s.db.Exec(`DELETE FROM books WHERE url = ?`, url)
	return err
}

// Clear removes every record and returns how many were removed
func (s *Store) Clear() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM books`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	r := &Record{}
	var errMsg sql.NullString
	var completed sql.NullTime
	err := row.Scan(
		&r.ID, &r.URL, &r.Title, &r.Authors, &r.Kind, &r.Status, &r.Parts, &r.OutputPath,
		&errMsg, &r.Attempts, &r.CreatedAt, &r.UpdatedAt, &completed,
	)
	if err != nil {
		return nil, err
	}
	if errMsg.Valid {
		r.ErrorMessage = errMsg.String
	}
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	return r, nil
}
