package entity

import "time"

// FailedExtraction mirrors the `failed_extractions` PostgreSQL table schema.
type FailedExtraction struct {
	ID                   int64     `json:"id"`
	URL                  string    `json:"url"`
	SiteID               string    `json:"site_id"`
	ErrorKind            string    `json:"error_kind"`
	FailureReason        string    `json:"failure_reason"`
	HTTPStatusCode       int       `json:"http_status_code"`
	LastAttemptTimestamp time.Time `json:"last_attempt_timestamp"`
	RetryCount           int       `json:"retry_count"`
	NextRetryAt          time.Time `json:"next_retry_at"`
}
