package extractor

import (
	"regexp"
	"strings"
)

// DefaultProductName is returned when a page has no usable title.
const DefaultProductName = "Product"

// NameExtractor derives a display name from a page title.
type NameExtractor struct {
	suffix *regexp.Regexp
}

// NewNameExtractor builds the trailing "- Site" / "| Site" matcher for the
// given site names. A domain tail such as ".in" or ".co.uk" is tolerated.
func NewNameExtractor(siteNames []string) *NameExtractor {
	if len(siteNames) == 0 {
		return &NameExtractor{}
	}
	quoted := make([]string, len(siteNames))
	for i, name := range siteNames {
		quoted[i] = regexp.QuoteMeta(name)
	}
	pattern := `(?i)\s*[-|–]\s*(?:` + strings.Join(quoted, "|") + `)(?:\.[a-z]{2,})*\s*$`
	return &NameExtractor{suffix: regexp.MustCompile(pattern)}
}

func (n *NameExtractor) ExtractName(title string) string {
	name := strings.TrimSpace(title)
	if n.suffix != nil {
		name = strings.TrimSpace(n.suffix.ReplaceAllString(name, ""))
	}
	if name == "" {
		return DefaultProductName
	}
	return name
}
