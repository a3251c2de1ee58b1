package extractor

import (
	"go.uber.org/zap"

	"github.com/user/price-service/internal/entity"
)

// Chain runs a site's strategies in priority order, then the generic
// currency-symbol fallback, and returns the first accepted candidate.
type Chain struct {
	catalog   *Catalog
	validator *Validator
	logger    *zap.Logger
}

func NewChain(catalog *Catalog, validator *Validator, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{catalog: catalog, validator: validator, logger: logger}
}

// Extract tries every site strategy and then the generic full-text fallback.
// A structural match whose value fails plausibility does not stop the chain.
func (c *Chain) Extract(doc Document, profile entity.SiteProfile) (entity.PriceCandidate, bool) {
	for _, strategy := range profile.Strategies {
		if candidate, ok := c.attempt(doc, profile.SiteID, strategy); ok {
			return candidate, true
		}
	}
	for _, strategy := range c.catalog.FallbackStrategies(profile) {
		if candidate, ok := c.attempt(doc, profile.SiteID, strategy); ok {
			return candidate, true
		}
	}
	return entity.PriceCandidate{}, false
}

// ScanSource is the last resort: cross-currency patterns over the raw markup,
// scripts and attributes included.
func (c *Chain) ScanSource(doc Document, profile entity.SiteProfile) (entity.PriceCandidate, bool) {
	source := doc.Source()
	for _, strategy := range c.catalog.SourceStrategies() {
		if candidate, ok := c.scan(source, profile.SiteID, strategy); ok {
			return candidate, true
		}
	}
	return entity.PriceCandidate{}, false
}

func (c *Chain) attempt(doc Document, siteID string, strategy entity.Strategy) (entity.PriceCandidate, bool) {
	switch strategy.Kind {
	case entity.TagAttributeLookup:
		path := make([]entity.ElementMatch, 0, 2)
		if strategy.Within != nil {
			path = append(path, *strategy.Within)
		}
		path = append(path, strategy.Element)
		raw, found := doc.FindElementText(path...)
		if !found {
			return entity.PriceCandidate{}, false
		}
		return c.candidate(siteID, strategy, raw)

	case entity.ScopedRegex:
		node, found := doc.FindTextNode(strategy.Pattern)
		if !found {
			return entity.PriceCandidate{}, false
		}
		for _, match := range strategy.Pattern.FindAllStringSubmatch(node, -1) {
			if candidate, ok := c.candidate(siteID, strategy, match[1]); ok {
				return candidate, true
			}
		}
		return entity.PriceCandidate{}, false

	case entity.FullTextRegex:
		return c.scan(doc.Text(), siteID, strategy)
	}
	return entity.PriceCandidate{}, false
}

func (c *Chain) scan(text, siteID string, strategy entity.Strategy) (entity.PriceCandidate, bool) {
	var best entity.PriceCandidate
	found := false
	for _, match := range strategy.Pattern.FindAllStringSubmatch(text, -1) {
		candidate, ok := c.candidate(siteID, strategy, match[1])
		if !ok {
			continue
		}
		if strategy.TieBreak == entity.TieBreakFirst {
			return candidate, true
		}
		if !found || candidate.Value > best.Value {
			best = candidate
			found = true
		}
	}
	return best, found
}

func (c *Chain) candidate(siteID string, strategy entity.Strategy, raw string) (entity.PriceCandidate, bool) {
	value, ok := NormalizePrice(raw)
	candidate := entity.PriceCandidate{RawText: raw, Value: value, HasValue: ok, Strategy: strategy.Name}
	if !ok {
		return candidate, false
	}
	if !c.validator.Accept(siteID, strategy, value) {
		c.logger.Debug("candidate rejected by plausibility bounds",
			zap.String("site", siteID),
			zap.String("strategy", strategy.Name),
			zap.Float64("value", value),
		)
		return candidate, false
	}
	return candidate, true
}
