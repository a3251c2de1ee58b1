package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/price-service/internal/entity"
	"github.com/user/price-service/internal/extractor"
	"github.com/user/price-service/internal/repository"
	"github.com/user/price-service/pkg/metrics"
	"github.com/user/price-service/pkg/utils"
)

const (
	testScheme          = "test://"
	testProductName     = "Test Product"
	testModeSiteLabel   = "test"
	testModeOutcome     = "test_mode"
	successOutcome      = "success"
	invalidURLSiteLabel = "invalid"
)

var allowedSchemes = []string{"http://", "https://", testScheme}

// PriceExtractor defines the single operation of the extraction engine.
type PriceExtractor interface {
	GetPrice(ctx context.Context, url string) (*entity.ExtractionResult, error)
}

type priceExtractorUseCase struct {
	fetcher     repository.PageFetcher
	catalog     *extractor.Catalog
	chain       *extractor.Chain
	names       *extractor.NameExtractor
	logger      *zap.Logger
	randomPrice func() float64
}

// NewPriceExtractor wires the engine. catalog and validator are shared
// read-only across requests.
func NewPriceExtractor(
	fetcher repository.PageFetcher,
	catalog *extractor.Catalog,
	validator *extractor.Validator,
	logger *zap.Logger,
) PriceExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &priceExtractorUseCase{
		fetcher:     fetcher,
		catalog:     catalog,
		chain:       extractor.NewChain(catalog, validator, logger),
		names:       extractor.NewNameExtractor(catalog.SiteNames()),
		logger:      logger,
		randomPrice: testPrice,
	}
}

// testPrice is uniform over [10, 500) with two decimals.
func testPrice() float64 {
	return 10 + float64(rand.IntN(49000))/100
}

// GetPrice validates url, fetches the page and runs the strategy chain.
// test:// URLs return a synthetic result without touching the network.
func (uc *priceExtractorUseCase) GetPrice(ctx context.Context, url string) (*entity.ExtractionResult, error) {
	start := time.Now()

	if strings.TrimSpace(url) == "" {
		metrics.ObserveExtraction(invalidURLSiteLabel, entity.KindName(entity.ErrInvalidURL), time.Since(start).Seconds())
		return nil, entity.NewInvalidURLError("URL is required")
	}
	if !utils.HasScheme(url, allowedSchemes...) {
		metrics.ObserveExtraction(invalidURLSiteLabel, entity.KindName(entity.ErrInvalidURL), time.Since(start).Seconds())
		return nil, entity.NewInvalidURLError("Invalid URL format")
	}

	if utils.HasScheme(url, testScheme) {
		metrics.ObserveExtraction(testModeSiteLabel, testModeOutcome, time.Since(start).Seconds())
		return &entity.ExtractionResult{
			Price:          uc.randomPrice(),
			Currency:       extractor.DefaultCurrency,
			CurrencySymbol: extractor.DefaultSymbol,
			ProductName:    testProductName,
			IsTestMode:     true,
			SiteID:         testModeSiteLabel,
		}, nil
	}

	profile := uc.catalog.Classify(url)
	result, err := uc.extract(ctx, url, profile)
	duration := time.Since(start)

	if err != nil {
		metrics.ObserveExtraction(profile.SiteID, entity.KindName(err), duration.Seconds())
		uc.logger.Warn("price extraction failed",
			zap.String("url", url),
			zap.String("site", profile.SiteID),
			zap.String("kind", entity.KindName(err)),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.ObserveExtraction(profile.SiteID, successOutcome, duration.Seconds())
	metrics.IncStrategyHit(profile.SiteID, result.Strategy)
	uc.logger.Info("price extracted",
		zap.String("url", url),
		zap.String("site", profile.SiteID),
		zap.String("strategy", result.Strategy),
		zap.Float64("price", result.Price),
		zap.Int64("duration_ms", duration.Milliseconds()),
	)
	return result, nil
}

func (uc *priceExtractorUseCase) extract(ctx context.Context, url string, profile entity.SiteProfile) (*entity.ExtractionResult, error) {
	body, _, err := uc.fetcher.Fetch(ctx, url)
	if err != nil {
		var extractionErr *entity.ExtractionError
		if errors.As(err, &extractionErr) {
			return nil, err
		}
		return nil, entity.NewUnexpectedError(err)
	}

	doc, err := extractor.ParseDocument(body)
	if err != nil {
		return nil, entity.NewUnexpectedError(err)
	}

	candidate, ok := uc.chain.Extract(doc, profile)
	if !ok {
		uc.logger.Debug("strategies exhausted, scanning raw markup",
			zap.String("url", url),
			zap.String("site", profile.SiteID),
		)
		candidate, ok = uc.chain.ScanSource(doc, profile)
	}
	if !ok {
		return nil, entity.NewPriceNotFoundError()
	}

	title, _ := doc.Title()
	return &entity.ExtractionResult{
		Price:          candidate.Value,
		Currency:       profile.CurrencyCode,
		CurrencySymbol: profile.CurrencySymbol,
		ProductName:    uc.names.ExtractName(title),
		SiteID:         profile.SiteID,
		Strategy:       candidate.Strategy,
	}, nil
}
