package extractor

import (
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/price-service/internal/entity"
)

func newTestChain(catalog *Catalog) *Chain {
	return NewChain(catalog, NewValidator(nil), zap.NewNop())
}

func TestChain_SiteStrategyWins(t *testing.T) {
	catalog := DefaultCatalog()
	chain := newTestChain(catalog)
	doc := parseSample(t, samplePage)

	candidate, ok := chain.Extract(doc, catalog.Classify("https://www.amazon.in/dp/x"))
	require.True(t, ok)
	assert.Equal(t, 1299.0, candidate.Value)
	assert.Equal(t, "a_price_whole", candidate.Strategy)
}

func TestChain_ImplausibleStructuralMatchContinues(t *testing.T) {
	catalog := DefaultCatalog()
	chain := newTestChain(catalog)
	doc := parseSample(t, `<html><body>
		<div class="_30jeq3">₹5</div>
		<div class="Nx9bqj">₹749</div>
	</body></html>`)

	candidate, ok := chain.Extract(doc, catalog.Classify("https://www.flipkart.com/p/itm1"))
	require.True(t, ok)
	assert.Equal(t, 749.0, candidate.Value)
	assert.Equal(t, "class_Nx9bqj", candidate.Strategy)
}

func TestChain_BoundedMatchIsNeverReturned(t *testing.T) {
	strict := entity.Strategy{
		Name:    "strict",
		Kind:    entity.TagAttributeLookup,
		Element: entity.ElementMatch{Tag: "span", Attr: "class", Value: "price"},
		Bounds:  entity.Bounds{Low: 100, High: math.Inf(1)},
	}
	catalog := NewCatalog(
		[]HostRule{{Marker: "shop", SiteID: "shop", CurrencyCode: "USD", CurrencySymbol: "$"}},
		map[string][]entity.Strategy{"shop": {strict}},
		nil, nil,
	)
	chain := newTestChain(catalog)
	doc := parseSample(t, `<html><body><span class="price">5</span></body></html>`)

	_, ok := chain.Extract(doc, catalog.Classify("https://shop.test/item"))
	assert.False(t, ok)
}

func TestChain_UnparsableTextContinues(t *testing.T) {
	catalog := DefaultCatalog()
	chain := newTestChain(catalog)
	doc := parseSample(t, `<html><body>
		<span class="pdp-price">Price on request</span>
		<p>Now ₹1,899</p>
	</body></html>`)

	candidate, ok := chain.Extract(doc, catalog.Classify("https://www.myntra.com/x"))
	require.True(t, ok)
	assert.Equal(t, 1899.0, candidate.Value)
	assert.Equal(t, "fallback_₹", candidate.Strategy)
}

func TestChain_FullTextFallbackPicksLargestPlausible(t *testing.T) {
	catalog := DefaultCatalog()
	chain := newTestChain(catalog)
	doc := parseSample(t, `<html><body>
		<p>Deal ₹500</p>
		<p>Lifetime sales ₹5,000,000</p>
	</body></html>`)

	candidate, ok := chain.Extract(doc, catalog.Classify("https://unknown-shop.in/p"))
	require.True(t, ok)
	assert.Equal(t, 500.0, candidate.Value)
}

// The max heuristic prefers a crossed-out original price over a smaller
// discounted one. This pins the current behaviour.
func TestChain_FullTextFallbackMaxCanPickOriginalPrice(t *testing.T) {
	catalog := DefaultCatalog()
	chain := newTestChain(catalog)
	doc := parseSample(t, `<html><body>
		<p>You save ₹50</p>
		<p>Now ₹799</p>
		<p><s>₹1,299</s></p>
	</body></html>`)

	candidate, ok := chain.Extract(doc, catalog.Classify("https://www.flipkart.com/p/x"))
	require.True(t, ok)
	assert.Equal(t, 1299.0, candidate.Value)
	assert.Equal(t, "full_text_rupee", candidate.Strategy)
}

func TestChain_ScopedRegexLooksOnlyAtFirstMatchingNode(t *testing.T) {
	catalog := DefaultCatalog()
	chain := newTestChain(catalog)
	doc := parseSample(t, `<html><body>
		<p>Shipping ₹40</p>
		<p>Price ₹2,499</p>
	</body></html>`)

	candidate, ok := chain.Extract(doc, catalog.Classify("https://www.amazon.in/dp/x"))
	require.True(t, ok)
	// scoped_rupee rejects 40 and stops; the generic fallback finds 2,499.
	assert.Equal(t, 2499.0, candidate.Value)
	assert.Equal(t, "fallback_₹", candidate.Strategy)
}

func TestChain_FallbackSymbolOrder(t *testing.T) {
	catalog := DefaultCatalog()
	chain := newTestChain(catalog)
	doc := parseSample(t, `<html><body><p>£45.00 or $60.00</p></body></html>`)

	gbp, ok := chain.Extract(doc, catalog.Classify("https://www.amazon.co.uk/dp/x"))
	require.True(t, ok)
	assert.Equal(t, 45.0, gbp.Value)

	usd, ok := chain.Extract(doc, catalog.Classify("https://www.amazon.com/dp/x"))
	require.True(t, ok)
	assert.Equal(t, 60.0, usd.Value)
}

func TestChain_NothingFound(t *testing.T) {
	catalog := DefaultCatalog()
	chain := newTestChain(catalog)
	doc := parseSample(t, `<html><body><p>Out of stock</p></body></html>`)

	_, ok := chain.Extract(doc, catalog.Classify("https://www.ajio.com/p/x"))
	assert.False(t, ok)
}

func TestChain_ScanSourceReadsScripts(t *testing.T) {
	catalog := DefaultCatalog()
	chain := newTestChain(catalog)
	doc := parseSample(t, `<html><head>
		<script type="application/ld+json">{"offers":{"price":"INR 2,349"}}</script>
	</head><body><p>Loading...</p></body></html>`)
	profile := catalog.Classify("https://www.meesho.com/p/x")

	_, ok := chain.Extract(doc, profile)
	require.False(t, ok)

	candidate, ok := chain.ScanSource(doc, profile)
	require.True(t, ok)
	assert.Equal(t, 2349.0, candidate.Value)
	assert.Equal(t, "source_inr", candidate.Strategy)
}

func TestChain_TieBreakFirst(t *testing.T) {
	first := entity.Strategy{
		Name:     "first",
		Kind:     entity.FullTextRegex,
		Pattern:  regexp.MustCompile(`\$([\d.]+)`),
		Bounds:   entity.Bounds{Low: 1, High: 1000},
		TieBreak: entity.TieBreakFirst,
	}
	catalog := NewCatalog(
		[]HostRule{{Marker: "shop", SiteID: "shop", CurrencyCode: "USD", CurrencySymbol: "$"}},
		map[string][]entity.Strategy{"shop": {first}},
		nil, nil,
	)
	chain := newTestChain(catalog)
	doc := parseSample(t, `<html><body>$0.50 $12.00 $30.00</body></html>`)

	candidate, ok := chain.Extract(doc, catalog.Classify("https://shop.test/x"))
	require.True(t, ok)
	assert.Equal(t, 12.0, candidate.Value)
}

func TestChain_AdjacentElementsDoNotMergeIntoOneNumber(t *testing.T) {
	catalog := DefaultCatalog()
	chain := newTestChain(catalog)

	t.Run("unknown site dollar fallback", func(t *testing.T) {
		doc := parseSample(t, `<html><body><span>$24.99</span><span>4 sold</span></body></html>`)
		candidate, ok := chain.Extract(doc, catalog.Classify("https://shop.example.com/item"))
		require.True(t, ok)
		assert.Equal(t, 24.99, candidate.Value)
		assert.Equal(t, "fallback_$", candidate.Strategy)
	})

	t.Run("rupee fallback", func(t *testing.T) {
		doc := parseSample(t, `<html><body><div>₹799</div><div>20% off</div></body></html>`)
		candidate, ok := chain.Extract(doc, catalog.Classify("https://www.myntra.com/shirt/1"))
		require.True(t, ok)
		assert.Equal(t, 799.0, candidate.Value)
		assert.Equal(t, "fallback_₹", candidate.Strategy)
	})

	t.Run("symbol and digits in separate elements still pair up", func(t *testing.T) {
		doc := parseSample(t, `<html><body><span class="sym">₹</span><span class="amt">1,499</span></body></html>`)
		candidate, ok := chain.Extract(doc, catalog.Classify("https://www.ajio.com/p/1"))
		require.True(t, ok)
		assert.Equal(t, 1499.0, candidate.Value)
	})
}
