package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/price-service/internal/entity"
	"github.com/user/price-service/internal/extractor"
)

func newTestTracker(repo *mockFailedRepo, now time.Time) *failureTrackerUseCase {
	tracker := NewFailureTracker(repo, extractor.DefaultCatalog(), time.Minute, 10*time.Minute, nil).(*failureTrackerUseCase)
	tracker.now = func() time.Time { return now }
	tracker.jitter = func() float64 { return 0.5 } // no jitter
	return tracker
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(entity.NewTimeoutError(nil)))
	assert.True(t, IsRetryable(entity.NewConnectionError(nil)))
	assert.True(t, IsRetryable(entity.NewPriceNotFoundError()))
	assert.True(t, IsRetryable(entity.NewHTTPStatusError(429)))
	assert.True(t, IsRetryable(entity.NewHTTPStatusError(503)))

	assert.False(t, IsRetryable(entity.NewHTTPStatusError(404)))
	assert.False(t, IsRetryable(entity.NewHTTPStatusError(403)))
	assert.False(t, IsRetryable(entity.NewInvalidURLError("Invalid URL format")))
	assert.False(t, IsRetryable(entity.NewUnexpectedError(errors.New("x"))))
}

func TestFailureTracker_BackoffDoublesAndCaps(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := newMockFailedRepo()
	tracker := newTestTracker(repo, now)
	url := "https://www.flipkart.com/p/itm"

	want := []time.Duration{time.Minute, 2 * time.Minute, 4 * time.Minute, 8 * time.Minute, 10 * time.Minute}
	for i, delay := range want {
		require.NoError(t, tracker.RecordFailure(context.Background(), url, entity.NewTimeoutError(nil)))
		rec := repo.records[url]
		assert.Equal(t, now.Add(delay), rec.NextRetryAt, "attempt %d", i+1)
		assert.Equal(t, i+1, rec.RetryCount)
	}

	rec := repo.records[url]
	assert.Equal(t, "flipkart", rec.SiteID)
	assert.Equal(t, "timeout", rec.ErrorKind)
}

func TestFailureTracker_JitterStaysWithinBand(t *testing.T) {
	tracker := newTestTracker(newMockFailedRepo(), time.Now())

	tracker.jitter = func() float64 { return 0 }
	assert.Equal(t, 48*time.Second, tracker.backoff(0))
	tracker.jitter = func() float64 { return 1 }
	assert.Equal(t, 72*time.Second, tracker.backoff(0))
}

func TestFailureTracker_SkipsPermanentFailures(t *testing.T) {
	repo := newMockFailedRepo()
	tracker := newTestTracker(repo, time.Now())

	require.NoError(t, tracker.RecordFailure(context.Background(), "https://www.ajio.com/p", entity.NewHTTPStatusError(404)))
	assert.Empty(t, repo.records)
}

func TestFailureTracker_RecordsHTTPStatus(t *testing.T) {
	repo := newMockFailedRepo()
	tracker := newTestTracker(repo, time.Now())
	url := "https://www.ajio.com/p"

	require.NoError(t, tracker.RecordFailure(context.Background(), url, entity.NewHTTPStatusError(503)))
	assert.Equal(t, 503, repo.records[url].HTTPStatusCode)
	assert.Equal(t, "http_error", repo.records[url].ErrorKind)
}

func TestWithFailureTracking(t *testing.T) {
	repo := newMockFailedRepo()
	tracker := newTestTracker(repo, time.Now())
	url := "https://www.myntra.com/shirt/1"

	failing := &mockFetcher{err: entity.NewConnectionError(errors.New("refused"))}
	uc := WithFailureTracking(newTestExtractor(failing), tracker, nil)
	_, err := uc.GetPrice(context.Background(), url)
	require.ErrorIs(t, err, entity.ErrConnection)
	require.Contains(t, repo.records, url)

	working := &mockFetcher{status: 200, body: []byte(`<span class="pdp-price">₹999</span>`)}
	uc = WithFailureTracking(newTestExtractor(working), tracker, nil)
	result, err := uc.GetPrice(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, 999.0, result.Price)
	assert.NotContains(t, repo.records, url)
}

func TestWithFailureTracking_IgnoresTestModeAndInvalidURLs(t *testing.T) {
	repo := newMockFailedRepo()
	tracker := newTestTracker(repo, time.Now())
	uc := WithFailureTracking(newTestExtractor(&mockFetcher{}), tracker, nil)

	_, err := uc.GetPrice(context.Background(), "test://x")
	require.NoError(t, err)
	_, err = uc.GetPrice(context.Background(), "mailto:a@b")
	require.ErrorIs(t, err, entity.ErrInvalidURL)

	assert.Empty(t, repo.records)
	assert.Empty(t, repo.deleted)
}

func TestWithFailureTracking_TrackerErrorsAreNotReturned(t *testing.T) {
	repo := newMockFailedRepo()
	repo.saveErr = errors.New("db down")
	tracker := newTestTracker(repo, time.Now())

	uc := WithFailureTracking(newTestExtractor(&mockFetcher{err: entity.NewTimeoutError(nil)}), tracker, nil)
	_, err := uc.GetPrice(context.Background(), "https://www.amazon.com/dp/x")
	require.ErrorIs(t, err, entity.ErrTimeout)
	assert.NotErrorIs(t, err, repo.saveErr)
}
