package extractor

import (
	"math"
	"regexp"
	"strings"

	"github.com/user/price-service/internal/entity"
	"github.com/user/price-service/pkg/utils"
)

const (
	UnknownSiteID   = "unknown"
	DefaultCurrency = "USD"
	DefaultSymbol   = "$"
)

// HostRule maps a hostname marker to a site identity. Rules are checked in
// order, so country-specific markers must precede generic ones.
type HostRule struct {
	Marker         string
	SiteID         string
	DisplayName    string
	CurrencyCode   string
	CurrencySymbol string
}

// SymbolScan is one currency pattern of the generic full-text fallback.
type SymbolScan struct {
	Symbol  string
	Pattern *regexp.Regexp
	Bounds  entity.Bounds
}

// Catalog is the immutable extraction configuration shared by all requests.
type Catalog struct {
	rules       []HostRule
	strategies  map[string][]entity.Strategy
	symbolScans []SymbolScan
	sourceScans []entity.Strategy
}

func NewCatalog(rules []HostRule, strategies map[string][]entity.Strategy, symbolScans []SymbolScan, sourceScans []entity.Strategy) *Catalog {
	return &Catalog{
		rules:       rules,
		strategies:  strategies,
		symbolScans: symbolScans,
		sourceScans: sourceScans,
	}
}

// Classify resolves the site profile for rawURL by case-insensitive substring
// match on its hostname. Unrecognised hosts get the USD default.
func (c *Catalog) Classify(rawURL string) entity.SiteProfile {
	host := strings.ToLower(utils.Hostname(rawURL))
	for _, rule := range c.rules {
		if strings.Contains(host, strings.ToLower(rule.Marker)) {
			return entity.SiteProfile{
				SiteID:         rule.SiteID,
				DisplayName:    rule.DisplayName,
				CurrencyCode:   rule.CurrencyCode,
				CurrencySymbol: rule.CurrencySymbol,
				Strategies:     c.strategies[rule.SiteID],
			}
		}
	}
	return entity.SiteProfile{
		SiteID:         UnknownSiteID,
		DisplayName:    "",
		CurrencyCode:   DefaultCurrency,
		CurrencySymbol: DefaultSymbol,
	}
}

// SiteNames lists the distinct display names of known sites.
func (c *Catalog) SiteNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, rule := range c.rules {
		if rule.DisplayName == "" || seen[rule.DisplayName] {
			continue
		}
		seen[rule.DisplayName] = true
		names = append(names, rule.DisplayName)
	}
	return names
}

// FallbackStrategies builds the generic full-text scan for a profile: the
// local currency symbol first, then every other configured symbol.
func (c *Catalog) FallbackStrategies(profile entity.SiteProfile) []entity.Strategy {
	ordered := make([]SymbolScan, 0, len(c.symbolScans))
	for _, scan := range c.symbolScans {
		if scan.Symbol == profile.CurrencySymbol {
			ordered = append(ordered, scan)
		}
	}
	for _, scan := range c.symbolScans {
		if scan.Symbol != profile.CurrencySymbol {
			ordered = append(ordered, scan)
		}
	}

	strategies := make([]entity.Strategy, 0, len(ordered))
	for _, scan := range ordered {
		strategies = append(strategies, entity.Strategy{
			Name:     "fallback_" + scan.Symbol,
			Kind:     entity.FullTextRegex,
			Pattern:  scan.Pattern,
			Bounds:   scan.Bounds,
			TieBreak: entity.TieBreakMax,
		})
	}
	return strategies
}

// SourceStrategies is the last-resort scan over the raw markup.
func (c *Catalog) SourceStrategies() []entity.Strategy {
	return c.sourceScans
}

var (
	positive     = entity.Bounds{Low: 0, High: math.Inf(1)}
	aboveTen     = entity.Bounds{Low: 10, High: math.Inf(1)}
	rupeeScoped  = entity.Bounds{Low: 50, High: 100000}
	rupeeListing = entity.Bounds{Low: 100, High: 100000}
	dollarScan   = entity.Bounds{Low: 1, High: 10000}
	sourceScan   = entity.Bounds{Low: 50, High: 100000}
)

func classLookup(name, tag, class string) entity.Strategy {
	return entity.Strategy{
		Name:    name,
		Kind:    entity.TagAttributeLookup,
		Element: entity.ElementMatch{Tag: tag, Attr: "class", Value: class},
		Bounds:  positive,
	}
}

// DefaultCatalog returns the built-in site rules and strategies.
func DefaultCatalog() *Catalog {
	rules := []HostRule{
		{Marker: "amazon.in", SiteID: "amazon", DisplayName: "Amazon", CurrencyCode: "INR", CurrencySymbol: "₹"},
		{Marker: "amazon.co.uk", SiteID: "amazon", DisplayName: "Amazon", CurrencyCode: "GBP", CurrencySymbol: "£"},
		{Marker: "amazon", SiteID: "amazon", DisplayName: "Amazon", CurrencyCode: "USD", CurrencySymbol: "$"},
		{Marker: "flipkart", SiteID: "flipkart", DisplayName: "Flipkart", CurrencyCode: "INR", CurrencySymbol: "₹"},
		{Marker: "myntra", SiteID: "myntra", DisplayName: "Myntra", CurrencyCode: "INR", CurrencySymbol: "₹"},
		{Marker: "ajio", SiteID: "ajio", DisplayName: "Ajio", CurrencyCode: "INR", CurrencySymbol: "₹"},
		{Marker: "meesho", SiteID: "meesho", DisplayName: "Meesho", CurrencyCode: "INR", CurrencySymbol: "₹"},
		{Marker: "snapdeal", SiteID: "snapdeal", DisplayName: "Snapdeal", CurrencyCode: "INR", CurrencySymbol: "₹"},
	}

	amazonWhole := classLookup("a_price_whole", "span", "a-price-whole")
	amazonWhole.Within = &entity.ElementMatch{Tag: "span", Attr: "class", Value: "a-price"}

	flipkartDataID := entity.Strategy{
		Name:    "data_id_price",
		Kind:    entity.TagAttributeLookup,
		Element: entity.ElementMatch{Tag: "div", Attr: "data-id", Value: "price"},
		Bounds:  aboveTen,
	}
	flipkartPrimary := classLookup("class_30jeq3", "div", "_30jeq3")
	flipkartPrimary.Bounds = aboveTen
	flipkartAlt := classLookup("class_Nx9bqj", "div", "Nx9bqj")
	flipkartAlt.Bounds = aboveTen

	strategies := map[string][]entity.Strategy{
		"amazon": {
			amazonWhole,
			classLookup("any_a_price_whole", "", "a-price-whole"),
			{
				Name:    "priceblock_ourprice",
				Kind:    entity.TagAttributeLookup,
				Element: entity.ElementMatch{Tag: "span", Attr: "id", Value: "priceblock_ourprice"},
				Bounds:  positive,
			},
			{
				Name:    "scoped_rupee",
				Kind:    entity.ScopedRegex,
				Pattern: regexp.MustCompile(`₹\s*([\d,]+\.?\d*)`),
				Bounds:  rupeeScoped,
			},
		},
		"flipkart": {
			flipkartPrimary,
			flipkartAlt,
			flipkartDataID,
			{
				Name:    "scoped_rupee",
				Kind:    entity.ScopedRegex,
				Pattern: regexp.MustCompile(`₹([\d,]+)`),
				Bounds:  rupeeListing,
			},
			{
				Name:     "full_text_rupee",
				Kind:     entity.FullTextRegex,
				Pattern:  regexp.MustCompile(`₹\s*([\d,]+)`),
				Bounds:   rupeeListing,
				TieBreak: entity.TieBreakMax,
			},
		},
		"myntra":   {classLookup("pdp_price", "span", "pdp-price")},
		"ajio":     {classLookup("prod_price", "span", "prod-price")},
		"meesho":   {classLookup("sc_product_price", "h3", "Sc-product-price")},
		"snapdeal": {classLookup("product_price", "span", "product-price")},
	}

	// After the local symbol, the fallback tries these in order.
	symbolScans := []SymbolScan{
		{Symbol: "$", Pattern: regexp.MustCompile(`\$\s*([\d,]+\.?\d*)`), Bounds: dollarScan},
		{Symbol: "£", Pattern: regexp.MustCompile(`£\s*([\d,]+\.?\d*)`), Bounds: dollarScan},
		{Symbol: "₹", Pattern: regexp.MustCompile(`₹\s*([\d,]+\.?\d*)`), Bounds: rupeeScoped},
	}

	var sourceScans []entity.Strategy
	for _, p := range []struct{ name, expr string }{
		{"source_rupee", `₹\s*([\d,]+\.?\d*)`},
		{"source_inr", `INR\s*([\d,]+\.?\d*)`},
		{"source_dollar", `\$\s*([\d,]+\.?\d*)`},
		{"source_usd", `USD\s*([\d,]+\.?\d*)`},
		{"source_pound", `£\s*([\d,]+\.?\d*)`},
		{"source_gbp", `GBP\s*([\d,]+\.?\d*)`},
	} {
		sourceScans = append(sourceScans, entity.Strategy{
			Name:     p.name,
			Kind:     entity.FullTextRegex,
			Pattern:  regexp.MustCompile(p.expr),
			Bounds:   sourceScan,
			TieBreak: entity.TieBreakMax,
		})
	}

	return NewCatalog(rules, strategies, symbolScans, sourceScans)
}
