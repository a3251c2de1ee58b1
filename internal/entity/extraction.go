package entity

// PriceCandidate is a value recovered from page text, not yet accepted.
type PriceCandidate struct {
	RawText  string
	Value    float64
	HasValue bool
	Strategy string
}

// ExtractionResult is what a successful GetPrice call returns.
type ExtractionResult struct {
	Price          float64 `json:"price"`
	Currency       string  `json:"currency"`
	CurrencySymbol string  `json:"currency_symbol"`
	ProductName    string  `json:"productName"`
	IsTestMode     bool    `json:"isTestMode"`
	SiteID         string  `json:"-"`
	Strategy       string  `json:"-"`
}
