package repository

import "context"

// PageFetcher defines the contract for retrieving a product page over the network.
type PageFetcher interface {
	// Fetch performs a single GET for url and returns the body and status code.
	// The body is decoded to UTF-8. Transport failures are returned as
	// *entity.ExtractionError values.
	Fetch(ctx context.Context, url string) ([]byte, int, error)
}
