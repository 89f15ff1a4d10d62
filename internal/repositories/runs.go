package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mossridge/ytup/internal/models"
)

// RunRepository persists run summaries in SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a RunRepository and ensures the schema exists.
func NewRunRepository(db *sql.DB) (*RunRepository, error) {
	r := &RunRepository{db: db}
	if err := r.ensureSchema(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RunRepository) ensureSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			collection_id TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			total_items INTEGER NOT NULL,
			pending_items INTEGER NOT NULL,
			uploaded_count INTEGER NOT NULL,
			uploaded_bytes INTEGER NOT NULL,
			skipped_count INTEGER NOT NULL,
			halted INTEGER NOT NULL,
			transfer_failures TEXT NOT NULL,
			caption_failures TEXT NOT NULL,
			playlist_failures TEXT NOT NULL,
			data_errors TEXT NOT NULL
		)
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	return nil
}

// Create inserts a finished run summary.
func (r *RunRepository) Create(summary *models.RunSummary) error {
	if summary.RunID == "" {
		return fmt.Errorf("run summary has no ID")
	}

	transfer, err := marshalFailures(summary.TransferFailures)
	if err != nil {
		return err
	}
	caption, err := marshalFailures(summary.CaptionFailures)
	if err != nil {
		return err
	}
	playlist, err := marshalFailures(summary.PlaylistFailures)
	if err != nil {
		return err
	}
	data, err := marshalFailures(summary.DataErrors)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO runs (
			id, collection, collection_id, started_at, finished_at,
			total_items, pending_items, uploaded_count, uploaded_bytes,
			skipped_count, halted, transfer_failures, caption_failures,
			playlist_failures, data_errors
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		summary.RunID,
		summary.Collection,
		summary.CollectionID,
		summary.StartedAt,
		summary.FinishedAt,
		summary.TotalItems,
		summary.PendingItems,
		summary.UploadedCount,
		summary.UploadedBytes,
		summary.SkippedCount,
		summary.Halted,
		transfer,
		caption,
		playlist,
		data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Get retrieves a run summary by ID.
func (r *RunRepository) Get(id string) (*models.RunSummary, error) {
	query := selectColumns + " FROM runs WHERE id = ?"

	summary, err := scanRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ListRecent retrieves the most recent runs, newest first. A limit of zero or
// less returns all runs. Pass collection to filter; empty matches everything.
func (r *RunRepository) ListRecent(collection string, limit int) ([]*models.RunSummary, error) {
	query := selectColumns + " FROM runs"
	args := []any{}

	if collection != "" {
		query += " WHERE collection = ?"
		args = append(args, collection)
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var summaries []*models.RunSummary
	for rows.Next() {
		summary, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return summaries, nil
}

const selectColumns = `
	SELECT
		id, collection, collection_id, started_at, finished_at,
		total_items, pending_items, uploaded_count, uploaded_bytes,
		skipped_count, halted, transfer_failures, caption_failures,
		playlist_failures, data_errors
`

// scanner abstracts sql.Row and sql.Rows for scanRun.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.RunSummary, error) {
	var (
		summary   models.RunSummary
		startedAt time.Time
		finished  time.Time
		transfer  string
		caption   string
		playlist  string
		data      string
	)

	err := row.Scan(
		&summary.RunID, &summary.Collection, &summary.CollectionID,
		&startedAt, &finished, &summary.TotalItems, &summary.PendingItems,
		&summary.UploadedCount, &summary.UploadedBytes, &summary.SkippedCount,
		&summary.Halted, &transfer, &caption, &playlist, &data,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	summary.StartedAt = startedAt
	summary.FinishedAt = finished
	if summary.TransferFailures, err = unmarshalFailures(transfer); err != nil {
		return nil, err
	}
	if summary.CaptionFailures, err = unmarshalFailures(caption); err != nil {
		return nil, err
	}
	if summary.PlaylistFailures, err = unmarshalFailures(playlist); err != nil {
		return nil, err
	}
	if summary.DataErrors, err = unmarshalFailures(data); err != nil {
		return nil, err
	}

	return &summary, nil
}

func marshalFailures(failures []models.ItemFailure) (string, error) {
	if failures == nil {
		failures = []models.ItemFailure{}
	}
	out, err := json.Marshal(failures)
	if err != nil {
		return "", fmt.Errorf("failed to encode failures: %w", err)
	}
	return string(out), nil
}

func unmarshalFailures(raw string) ([]models.ItemFailure, error) {
	var failures []models.ItemFailure
	if err := json.Unmarshal([]byte(raw), &failures); err != nil {
		return nil, fmt.Errorf("failed to decode failures: %w", err)
	}
	if len(failures) == 0 {
		return nil, nil
	}
	return failures, nil
}
