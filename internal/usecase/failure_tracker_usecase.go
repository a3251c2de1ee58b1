package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/price-service/internal/entity"
	"github.com/user/price-service/internal/extractor"
	"github.com/user/price-service/internal/repository"
	"github.com/user/price-service/pkg/metrics"
	"github.com/user/price-service/pkg/utils"
)

const jitterFactor = 0.2 // +/- 20%

// FailureTracker keeps a log of URLs whose lookup failed for reasons that may
// go away, with a backoff schedule for when a retry makes sense.
type FailureTracker interface {
	RecordFailure(ctx context.Context, url string, err error) error
	RecordSuccess(ctx context.Context, url string) error
	Retryable(ctx context.Context, limit int) ([]*entity.FailedExtraction, error)
}

type failureTrackerUseCase struct {
	repo           repository.FailedExtractionRepository
	catalog        *extractor.Catalog
	initialBackoff time.Duration
	maxBackoff     time.Duration
	now            func() time.Time
	jitter         func() float64
	logger         *zap.Logger
}

// NewFailureTracker creates a FailureTracker storing records in repo.
func NewFailureTracker(
	repo repository.FailedExtractionRepository,
	catalog *extractor.Catalog,
	initialBackoff, maxBackoff time.Duration,
	logger *zap.Logger,
) FailureTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &failureTrackerUseCase{
		repo:           repo,
		catalog:        catalog,
		initialBackoff: initialBackoff,
		maxBackoff:     maxBackoff,
		now:            time.Now,
		jitter:         rand.Float64,
		logger:         logger,
	}
}

// IsRetryable reports whether a later attempt could plausibly succeed.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, entity.ErrTimeout),
		errors.Is(err, entity.ErrConnection),
		errors.Is(err, entity.ErrPriceNotFound):
		return true
	case errors.Is(err, entity.ErrHTTPStatus):
		status := entity.StatusCode(err)
		return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
	}
	return false
}

func (uc *failureTrackerUseCase) RecordFailure(ctx context.Context, url string, extractErr error) error {
	if !IsRetryable(extractErr) {
		return nil
	}

	previous, err := uc.repo.FindByURL(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to look up failure record for %s: %w", url, err)
	}
	attempt := 0
	if previous != nil {
		attempt = previous.RetryCount
	}

	var httpStatusCode int
	if errors.Is(extractErr, entity.ErrHTTPStatus) {
		httpStatusCode = entity.StatusCode(extractErr)
	}

	now := uc.now()
	failed := &entity.FailedExtraction{
		URL:                  url,
		SiteID:               uc.catalog.Classify(url).SiteID,
		ErrorKind:            entity.KindName(extractErr),
		FailureReason:        extractErr.Error(),
		HTTPStatusCode:       httpStatusCode,
		LastAttemptTimestamp: now,
		NextRetryAt:          now.Add(uc.backoff(attempt)),
	}
	if err := uc.repo.SaveOrUpdate(ctx, failed); err != nil {
		return fmt.Errorf("failed to save or update failure record for %s: %w", url, err)
	}
	metrics.IncFailureRecorded(failed.ErrorKind)
	uc.logger.Info("failure recorded for retry",
		zap.String("url", url),
		zap.String("kind", failed.ErrorKind),
		zap.Int("attempt", attempt+1),
		zap.Time("next_retry_at", failed.NextRetryAt),
	)
	return nil
}

func (uc *failureTrackerUseCase) RecordSuccess(ctx context.Context, url string) error {
	if err := uc.repo.Delete(ctx, url); err != nil {
		return fmt.Errorf("failed to clear failure record for %s: %w", url, err)
	}
	return nil
}

func (uc *failureTrackerUseCase) Retryable(ctx context.Context, limit int) ([]*entity.FailedExtraction, error) {
	return uc.repo.FindRetryable(ctx, limit)
}

// backoff doubles the initial delay per previous attempt, caps it at
// maxBackoff and applies jitter.
func (uc *failureTrackerUseCase) backoff(attempt int) time.Duration {
	delay := float64(uc.initialBackoff) * math.Pow(2, float64(attempt))
	if delay > float64(uc.maxBackoff) {
		delay = float64(uc.maxBackoff)
	}
	delay += delay * jitterFactor * (2*uc.jitter() - 1)
	return time.Duration(delay)
}

type trackedPriceExtractor struct {
	next    PriceExtractor
	tracker FailureTracker
	logger  *zap.Logger
}

// WithFailureTracking records retryable failures of next and clears the
// record once the URL succeeds. Tracking errors are logged, never returned.
func WithFailureTracking(next PriceExtractor, tracker FailureTracker, logger *zap.Logger) PriceExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &trackedPriceExtractor{next: next, tracker: tracker, logger: logger}
}

func (t *trackedPriceExtractor) GetPrice(ctx context.Context, url string) (*entity.ExtractionResult, error) {
	result, err := t.next.GetPrice(ctx, url)
	if utils.HasScheme(url, testScheme) {
		return result, err
	}
	if err != nil {
		if trackErr := t.tracker.RecordFailure(ctx, url, err); trackErr != nil {
			t.logger.Warn("could not record failed extraction", zap.String("url", url), zap.Error(trackErr))
		}
		return nil, err
	}
	if trackErr := t.tracker.RecordSuccess(ctx, url); trackErr != nil {
		t.logger.Warn("could not clear failed extraction", zap.String("url", url), zap.Error(trackErr))
	}
	return result, nil
}
