// Package postgres keeps a relational index of requests for fast listings
// and status lookups. The filesystem store remains the source of truth;
// rows here are derived data and can be rebuilt from it.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
)

type RequestCatalog struct {
	db *sql.DB
}

func NewRequestCatalog(db *sql.DB) *RequestCatalog {
	return &RequestCatalog{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (c *RequestCatalog) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS ocr_requests (
	id TEXT PRIMARY KEY,
	original_filename TEXT NOT NULL,
	file_type TEXT NOT NULL,
	file_size BIGINT NOT NULL,
	total_pages INTEGER NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_ocr_requests_status ON ocr_requests(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (c *RequestCatalog) Insert(ctx context.Context, req *domain.Request) error {
	_, err := c.db.ExecContext(ctx, `
INSERT INTO ocr_requests (
	id, original_filename, file_type, file_size, total_pages, status, error_message, description, created_at, completed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		req.ID, req.OriginalFilename, string(req.FileType), req.FileSize, req.TotalPages,
		string(req.Status), req.Error, req.Description, req.CreatedAt, req.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (c *RequestCatalog) GetByID(ctx context.Context, requestID string) (*domain.Request, error) {
	row := c.db.QueryRowContext(ctx, `
SELECT id, original_filename, file_type, file_size, total_pages, status, error_message, description, created_at, completed_at
FROM ocr_requests
WHERE id = $1
`, requestID)

	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrRequestNotFound, "catalog get", fmt.Errorf("id %s", requestID))
		}
		return nil, fmt.Errorf("scan request: %w", err)
	}
	return req, nil
}

func (c *RequestCatalog) UpdateStatus(ctx context.Context, requestID string, status domain.ProcessingStatus, errMessage string) error {
	var completedAt any
	if status == domain.StatusCompleted {
		completedAt = time.Now().UTC()
	}
	res, err := c.db.ExecContext(ctx, `
UPDATE ocr_requests
SET status = $2, error_message = $3, completed_at = COALESCE($4, completed_at)
WHERE id = $1
`, requestID, string(status), errMessage, completedAt)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrRequestNotFound, "update request status", fmt.Errorf("id %s", requestID))
	}
	return nil
}

// ListRecent returns up to limit requests, newest first. UUIDv7 ids order
// by creation time, so sorting on id descending is creation order.
func (c *RequestCatalog) ListRecent(ctx context.Context, limit int) ([]domain.Request, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.db.QueryContext(ctx, `
SELECT id, original_filename, file_type, file_size, total_pages, status, error_message, description, created_at, completed_at
FROM ocr_requests
ORDER BY id DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request row: %w", err)
		}
		out = append(out, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate request rows: %w", err)
	}
	return out, nil
}

func (c *RequestCatalog) Delete(ctx context.Context, requestID string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM ocr_requests WHERE id = $1`, requestID)
	if err != nil {
		return fmt.Errorf("delete request row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrRequestNotFound, "delete request row", fmt.Errorf("id %s", requestID))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.Request, error) {
	var req domain.Request
	var fileType, status string
	var completedAt sql.NullTime

	err := row.Scan(
		&req.ID, &req.OriginalFilename, &fileType, &req.FileSize, &req.TotalPages,
		&status, &req.Error, &req.Description, &req.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	req.FileType = domain.FileType(fileType)
	req.Status = domain.ProcessingStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		req.CompletedAt = &t
	}
	return &req, nil
}
