package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/user/price-service/internal/adapter/memory"
	"github.com/user/price-service/internal/delivery/http/handler"
	"github.com/user/price-service/internal/entity"
)

type fixedExtractor struct{}

func (fixedExtractor) GetPrice(context.Context, string) (*entity.ExtractionResult, error) {
	return &entity.ExtractionResult{Price: 42, Currency: "USD", CurrencySymbol: "$", ProductName: "Test Product", IsTestMode: true}, nil
}

func TestRouter_Routes(t *testing.T) {
	h := handler.NewHandler(fixedExtractor{}, nil, nil)
	srv := httptest.NewServer(New(h, nil, zap.NewNop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	if assert.NoError(t, err) {
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/get-price", "application/json", strings.NewReader(`{"url":"test://x"}`))
	if assert.NoError(t, err) {
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/get-price")
	if assert.NoError(t, err) {
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/failures/retryable")
	if assert.NoError(t, err) {
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "not mounted without a failure log")
	}
}

func TestRouter_RateLimit(t *testing.T) {
	h := handler.NewHandler(fixedExtractor{}, nil, nil)
	r := New(h, memory.NewRateLimiter(2), zap.NewNop())

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/get-price", strings.NewReader(`{"url":"test://x"}`))
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// Health checks are not limited.
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
