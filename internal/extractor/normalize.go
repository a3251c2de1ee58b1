package extractor

import (
	"strconv"
	"strings"
)

// NormalizePrice keeps only ASCII digits and '.' from raw and parses the rest.
// The second return is false when nothing parsable remains, which callers
// treat as "try the next strategy" rather than as an error.
func NormalizePrice(raw string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
