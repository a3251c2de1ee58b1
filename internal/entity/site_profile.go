package entity

import "regexp"

// StrategyKind tags the lookup a Strategy performs.
type StrategyKind int

const (
	TagAttributeLookup StrategyKind = iota
	ScopedRegex
	FullTextRegex
)

func (k StrategyKind) String() string {
	switch k {
	case TagAttributeLookup:
		return "tag_attribute"
	case ScopedRegex:
		return "scoped_regex"
	case FullTextRegex:
		return "full_text_regex"
	}
	return "unknown"
}

// TieBreak decides which of several valid full-text candidates wins.
type TieBreak int

const (
	TieBreakFirst TieBreak = iota
	TieBreakMax
)

// Bounds is a plausibility range, Low inclusive and High exclusive.
type Bounds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether v is a positive number inside the range.
func (b Bounds) Contains(v float64) bool {
	return v > 0 && v >= b.Low && v < b.High
}

// ElementMatch selects elements by tag and by a whitespace-separated word of
// an attribute value. An empty Tag matches any element.
type ElementMatch struct {
	Tag   string
	Attr  string
	Value string
}

// Strategy describes one way of locating a price on a page.
// Which fields apply depends on Kind:
//   - TagAttributeLookup: Element, optionally nested inside Within.
//   - ScopedRegex: Pattern, searched in the first visible text node it matches.
//   - FullTextRegex: Pattern over the whole text, TieBreak among valid matches.
//
// Regex patterns must capture the numeric part in group 1.
type Strategy struct {
	Name     string
	Kind     StrategyKind
	Element  ElementMatch
	Within   *ElementMatch
	Pattern  *regexp.Regexp
	Bounds   Bounds
	TieBreak TieBreak
}

// SiteProfile is the resolved identity and parsing configuration of a URL's site.
type SiteProfile struct {
	SiteID         string
	DisplayName    string
	CurrencyCode   string
	CurrencySymbol string
	Strategies     []Strategy
}
