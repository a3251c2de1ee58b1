package repository

import (
	"context"

	"github.com/user/price-service/internal/entity"
)

// FailedExtractionRepository defines the interface for managing URLs whose price lookup failed.
type FailedExtractionRepository interface {
	// SaveOrUpdate creates or updates a record for a failed URL.
	SaveOrUpdate(ctx context.Context, failed *entity.FailedExtraction) error
	// FindByURL returns the record for url, or nil if there is none.
	FindByURL(ctx context.Context, url string) (*entity.FailedExtraction, error)
	// FindRetryable retrieves a batch of URLs that are due for a retry.
	FindRetryable(ctx context.Context, limit int) ([]*entity.FailedExtraction, error)
	// Delete removes a record, typically after a successful extraction.
	Delete(ctx context.Context, url string) error
}
