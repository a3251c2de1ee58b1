package entity

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds returned by the extraction engine. Match them with errors.Is.
var (
	ErrInvalidURL    = errors.New("invalid url")
	ErrTimeout       = errors.New("timeout")
	ErrConnection    = errors.New("connection error")
	ErrHTTPStatus    = errors.New("http error")
	ErrPriceNotFound = errors.New("price not found")
	ErrUnexpected    = errors.New("unexpected error")
)

// ExtractionError carries an error kind, a caller-facing message and the
// HTTP status a caller should translate it to.
type ExtractionError struct {
	Kind       error
	Message    string
	StatusCode int
	Err        error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExtractionError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func NewInvalidURLError(message string) *ExtractionError {
	return &ExtractionError{Kind: ErrInvalidURL, Message: message, StatusCode: http.StatusBadRequest}
}

func NewTimeoutError(err error) *ExtractionError {
	return &ExtractionError{
		Kind:       ErrTimeout,
		Message:    "Request timed out. Please try again.",
		StatusCode: http.StatusGatewayTimeout,
		Err:        err,
	}
}

func NewConnectionError(err error) *ExtractionError {
	return &ExtractionError{
		Kind:       ErrConnection,
		Message:    "Could not connect to the website. Please check the URL.",
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

// NewHTTPStatusError passes the origin's status through verbatim.
func NewHTTPStatusError(status int) *ExtractionError {
	return &ExtractionError{
		Kind:       ErrHTTPStatus,
		Message:    fmt.Sprintf("Failed to fetch page (Status: %d)", status),
		StatusCode: status,
	}
}

func NewPriceNotFoundError() *ExtractionError {
	return &ExtractionError{
		Kind:       ErrPriceNotFound,
		Message:    "Could not find price on this page. The website structure may have changed.",
		StatusCode: http.StatusNotFound,
	}
}

func NewUnexpectedError(err error) *ExtractionError {
	return &ExtractionError{
		Kind:       ErrUnexpected,
		Message:    "Error",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// StatusCode returns the HTTP status hint for err, 500 for foreign errors.
func StatusCode(err error) int {
	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) && extractionErr.StatusCode != 0 {
		return extractionErr.StatusCode
	}
	return http.StatusInternalServerError
}

// KindName is a stable label for err's kind, used in logs, metrics and the failure log.
func KindName(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidURL):
		return "invalid_url"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrConnection):
		return "connection_error"
	case errors.Is(err, ErrHTTPStatus):
		return "http_error"
	case errors.Is(err, ErrPriceNotFound):
		return "price_not_found"
	}
	return "unexpected_error"
}
