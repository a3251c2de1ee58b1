package response

import (
	"time"

	"github.com/user/price-service/internal/entity"
)

// PriceResponse is the success body of POST /get-price.
type PriceResponse struct {
	Price          float64 `json:"price"`
	Currency       string  `json:"currency"`
	CurrencySymbol string  `json:"currency_symbol"`
	ProductName    string  `json:"productName"`
	IsTestMode     bool    `json:"isTestMode"`
}

func NewPriceResponse(result *entity.ExtractionResult) PriceResponse {
	return PriceResponse{
		Price:          result.Price,
		Currency:       result.Currency,
		CurrencySymbol: result.CurrencySymbol,
		ProductName:    result.ProductName,
		IsTestMode:     result.IsTestMode,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// FailedExtractionResponse is a DTO for one entry of the retry log.
type FailedExtractionResponse struct {
	URL                  string    `json:"url"`
	SiteID               string    `json:"site_id"`
	ErrorKind            string    `json:"error_kind"`
	FailureReason        string    `json:"failure_reason"`
	HTTPStatusCode       int       `json:"http_status_code,omitempty"`
	LastAttemptTimestamp time.Time `json:"last_attempt_timestamp"`
	RetryCount           int       `json:"retry_count"`
	NextRetryAt          time.Time `json:"next_retry_at"`
}

type RetryableFailuresResponse struct {
	Count    int                        `json:"count"`
	Failures []FailedExtractionResponse `json:"failures"`
}

func NewRetryableFailuresResponse(failed []*entity.FailedExtraction) RetryableFailuresResponse {
	resp := RetryableFailuresResponse{Failures: make([]FailedExtractionResponse, 0, len(failed))}
	for _, fe := range failed {
		resp.Failures = append(resp.Failures, FailedExtractionResponse{
			URL:                  fe.URL,
			SiteID:               fe.SiteID,
			ErrorKind:            fe.ErrorKind,
			FailureReason:        fe.FailureReason,
			HTTPStatusCode:       fe.HTTPStatusCode,
			LastAttemptTimestamp: fe.LastAttemptTimestamp,
			RetryCount:           fe.RetryCount,
			NextRetryAt:          fe.NextRetryAt,
		})
	}
	resp.Count = len(resp.Failures)
	return resp
}
