package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Record inserts a running entry for a freshly started transcription job.
func (s *Store) Record(ctx context.Context, sourceURL, model, speakers string) (*Entry, error) {
	if s == nil {
		return nil, nil
	}
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return nil, errors.New("source url is required")
	}

	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO transcriptions (
            created_at, source_url, model, speakers, status
        ) VALUES (?, ?, ?, ?, ?)`,
		now.Format(time.RFC3339Nano),
		sourceURL,
		nullableString(model),
		nullableString(speakers),
		StatusRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a history entry by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Entry, error) {
	if s == nil {
		return nil, nil
	}
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+entryColumns+` FROM transcriptions WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// MarkCompleted finalizes a running entry with the produced transcript details.
func (s *Store) MarkCompleted(ctx context.Context, id int64, title, outputPath string, duration time.Duration) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE transcriptions
         SET status = ?, completed_at = ?, title = ?, output_path = ?,
             duration_seconds = ?, error_message = NULL
         WHERE id = ?`,
		StatusCompleted,
		now.Format(time.RFC3339Nano),
		nullableString(title),
		nullableString(outputPath),
		duration.Seconds(),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// MarkFailed finalizes a running entry with the failure message.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE transcriptions
         SET status = ?, completed_at = ?, error_message = ?
         WHERE id = ?`,
		StatusFailed,
		now.Format(time.RFC3339Nano),
		nullableString(truncateMessage(message)),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// List returns history entries newest first. A limit of zero or less returns
// every entry.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	if s == nil {
		return nil, nil
	}
	query := `SELECT ` + entryColumns + ` FROM transcriptions ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ClearFinished removes completed and failed entries, keeping running ones.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	if s == nil {
		return 0, nil
	}
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM transcriptions WHERE status IN (?, ?)`,
		StatusCompleted,
		StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("clear finished: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all entries from the history.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	if s == nil {
		return 0, nil
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM transcriptions`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

const entryColumns = "id, created_at, completed_at, source_url, title, output_path, model, speakers, status, error_message, duration_seconds"

// maxErrorMessageLen keeps stored failure messages readable in table output.
const maxErrorMessageLen = 500

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id           int64
		createdRaw   sql.NullString
		completedRaw sql.NullString
		sourceURL    string
		title        sql.NullString
		outputPath   sql.NullString
		model        sql.NullString
		speakers     sql.NullString
		statusStr    string
		errorMessage sql.NullString
		durationSecs sql.NullFloat64
	)

	if err := scanner.Scan(
		&id,
		&createdRaw,
		&completedRaw,
		&sourceURL,
		&title,
		&outputPath,
		&model,
		&speakers,
		&statusStr,
		&errorMessage,
		&durationSecs,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:              id,
		SourceURL:       sourceURL,
		Title:           title.String,
		OutputPath:      outputPath.String,
		Model:           model.String,
		Speakers:        speakers.String,
		Status:          Status(statusStr),
		ErrorMessage:    errorMessage.String,
		DurationSeconds: durationSecs.Float64,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			entry.CompletedAt = &completed
		}
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func truncateMessage(message string) string {
	message = strings.TrimSpace(message)
	if len(message) <= maxErrorMessageLen {
		return message
	}
	return message[:maxErrorMessageLen]
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
