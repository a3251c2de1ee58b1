package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/user/price-service/internal/entity"
)

const failedExtractionsSchema = `
	CREATE TABLE IF NOT EXISTS failed_extractions (
		id                     BIGSERIAL PRIMARY KEY,
		url                    TEXT NOT NULL UNIQUE,
		site_id                TEXT NOT NULL,
		error_kind             TEXT NOT NULL,
		failure_reason         TEXT NOT NULL,
		http_status_code       INTEGER NOT NULL DEFAULT 0,
		last_attempt_timestamp TIMESTAMPTZ NOT NULL,
		retry_count            INTEGER NOT NULL DEFAULT 1,
		next_retry_at          TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_failed_extractions_next_retry_at ON failed_extractions (next_retry_at);
`

const failedExtractionColumns = `id, url, site_id, error_kind, failure_reason, http_status_code, last_attempt_timestamp, retry_count, next_retry_at`

// DBTX is the part of *pgxpool.Pool the repository needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// FailedExtractionRepoImpl provides a concrete implementation for the FailedExtractionRepository interface using PostgreSQL.
type FailedExtractionRepoImpl struct {
	db DBTX
}

// NewFailedExtractionRepo creates a new instance of FailedExtractionRepoImpl.
func NewFailedExtractionRepo(db DBTX) *FailedExtractionRepoImpl {
	return &FailedExtractionRepoImpl{db: db}
}

// EnsureSchema creates the failed_extractions table if it does not exist.
func (r *FailedExtractionRepoImpl) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, failedExtractionsSchema); err != nil {
		return fmt.Errorf("creating failed_extractions schema: %w", err)
	}
	return nil
}

// SaveOrUpdate creates or updates a record for a failed URL.
// It increments the retry_count on conflict.
func (r *FailedExtractionRepoImpl) SaveOrUpdate(ctx context.Context, failed *entity.FailedExtraction) error {
	query := `
		INSERT INTO failed_extractions (url, site_id, error_kind, failure_reason, http_status_code, last_attempt_timestamp, retry_count, next_retry_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7)
		ON CONFLICT (url) DO UPDATE SET
			site_id = EXCLUDED.site_id,
			error_kind = EXCLUDED.error_kind,
			failure_reason = EXCLUDED.failure_reason,
			http_status_code = EXCLUDED.http_status_code,
			last_attempt_timestamp = EXCLUDED.last_attempt_timestamp,
			retry_count = failed_extractions.retry_count + 1,
			next_retry_at = EXCLUDED.next_retry_at;
	`
	_, err := r.db.Exec(ctx, query,
		failed.URL,
		failed.SiteID,
		failed.ErrorKind,
		failed.FailureReason,
		failed.HTTPStatusCode,
		failed.LastAttemptTimestamp,
		failed.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("upserting failed extraction: %w", err)
	}
	return nil
}

// FindByURL returns nil without error when url has no record.
func (r *FailedExtractionRepoImpl) FindByURL(ctx context.Context, url string) (*entity.FailedExtraction, error) {
	query := `SELECT ` + failedExtractionColumns + ` FROM failed_extractions WHERE url = $1;`
	fe, err := scanFailedExtraction(r.db.QueryRow(ctx, query, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding failed extraction: %w", err)
	}
	return fe, nil
}

// FindRetryable retrieves a batch of URLs that are due for a retry.
func (r *FailedExtractionRepoImpl) FindRetryable(ctx context.Context, limit int) ([]*entity.FailedExtraction, error) {
	query := `
		SELECT ` + failedExtractionColumns + `
		FROM failed_extractions
		WHERE next_retry_at <= NOW()
		ORDER BY next_retry_at ASC
		LIMIT $1;
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying retryable extractions: %w", err)
	}
	defer rows.Close()

	var failed []*entity.FailedExtraction
	for rows.Next() {
		fe, err := scanFailedExtraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning retryable extraction: %w", err)
		}
		failed = append(failed, fe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating retryable extractions: %w", err)
	}

	return failed, nil
}

// Delete removes a failed URL record, typically after a successful extraction.
func (r *FailedExtractionRepoImpl) Delete(ctx context.Context, url string) error {
	query := `DELETE FROM failed_extractions WHERE url = $1;`
	if _, err := r.db.Exec(ctx, query, url); err != nil {
		return fmt.Errorf("deleting failed extraction: %w", err)
	}
	return nil
}

func scanFailedExtraction(row pgx.Row) (*entity.FailedExtraction, error) {
	var fe entity.FailedExtraction
	if err := row.Scan(
		&fe.ID,
		&fe.URL,
		&fe.SiteID,
		&fe.ErrorKind,
		&fe.FailureReason,
		&fe.HTTPStatusCode,
		&fe.LastAttemptTimestamp,
		&fe.RetryCount,
		&fe.NextRetryAt,
	); err != nil {
		return nil, err
	}
	return &fe, nil
}
