package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameExtractor_ExtractName(t *testing.T) {
	names := NewNameExtractor(DefaultCatalog().SiteNames())

	tests := []struct {
		title string
		want  string
	}{
		{"Cool Shoes - Amazon.in", "Cool Shoes"},
		{"  Running Tee | FLIPKART  ", "Running Tee"},
		{"Kurta Set - Myntra", "Kurta Set"},
		{"Denim Jacket - Amazon.co.uk", "Denim Jacket"},
		{"Blue Mug - Some Shop", "Blue Mug - Some Shop"},
		{"Amazon Echo Dot", "Amazon Echo Dot"},
		{"", DefaultProductName},
		{"   ", DefaultProductName},
		{" - Amazon", DefaultProductName},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, names.ExtractName(tt.title))
		})
	}
}

func TestNameExtractor_NoSiteNames(t *testing.T) {
	names := NewNameExtractor(nil)
	assert.Equal(t, "Cool Shoes - Amazon.in", names.ExtractName("Cool Shoes - Amazon.in"))
	assert.Equal(t, DefaultProductName, names.ExtractName(""))
}
