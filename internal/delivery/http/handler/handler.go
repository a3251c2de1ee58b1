package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/user/price-service/internal/delivery/http/request"
	"github.com/user/price-service/internal/delivery/http/response"
	"github.com/user/price-service/internal/entity"
	"github.com/user/price-service/internal/usecase"
)

const (
	defaultRetryableLimit = 50
	maxRetryableLimit     = 500
)

type Handler struct {
	prices   usecase.PriceExtractor
	failures usecase.FailureTracker
	logger   *zap.Logger
}

// NewHandler creates the HTTP handler. failures may be nil when no failure
// log is configured.
func NewHandler(prices usecase.PriceExtractor, failures usecase.FailureTracker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		prices:   prices,
		failures: failures,
		logger:   logger,
	}
}

// HasFailureLog reports whether the retry log endpoint can be served.
func (h *Handler) HasFailureLog() bool {
	return h.failures != nil
}

func (h *Handler) HandleGetPrice(w http.ResponseWriter, r *http.Request) {
	var req request.GetPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.prices.GetPrice(r.Context(), req.URL)
	if err != nil {
		h.writeExtractionError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewPriceResponse(result))
}

func (h *Handler) HandleRetryableFailures(w http.ResponseWriter, r *http.Request) {
	if h.failures == nil {
		h.writeJSONError(w, "Failure log is not enabled", http.StatusNotFound)
		return
	}

	limit := defaultRetryableLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxRetryableLimit)
	}

	failed, err := h.failures.Retryable(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list retryable extractions", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewRetryableFailuresResponse(failed))
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeExtractionError maps an engine error to its status hint. Origin
// statuses outside the error range become 502 so the body is still sent.
func (h *Handler) writeExtractionError(w http.ResponseWriter, err error) {
	var extractionErr *entity.ExtractionError
	if !errors.As(err, &extractionErr) {
		h.logger.Error("Unclassified extraction error", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	status := extractionErr.StatusCode
	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusBadGateway
	}
	h.writeJSONError(w, extractionErr.Message, status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
