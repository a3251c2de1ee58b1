package extractor

import (
	"maps"

	"github.com/user/price-service/internal/entity"
)

// Validator accepts or rejects candidate prices against plausibility bounds.
// Bounds come from the strategy unless an override exists for "site/strategy".
type Validator struct {
	overrides map[string]entity.Bounds
}

func NewValidator(overrides map[string]entity.Bounds) *Validator {
	return &Validator{overrides: maps.Clone(overrides)}
}

func OverrideKey(siteID, strategyName string) string {
	return siteID + "/" + strategyName
}

func (v *Validator) Accept(siteID string, strategy entity.Strategy, value float64) bool {
	bounds := strategy.Bounds
	if o, ok := v.overrides[OverrideKey(siteID, strategy.Name)]; ok {
		bounds = o
	}
	return bounds.Contains(value)
}
