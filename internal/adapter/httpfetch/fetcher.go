package httpfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/user/price-service/internal/entity"
)

const DefaultTimeout = 10 * time.Second

// browserHeaders are sent with every request so the origin serves the same
// markup it would give a desktop browser. User-Agent is added per request.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "max-age=0",
}

// Fetcher implements repository.PageFetcher with a resty client.
type Fetcher struct {
	client  *resty.Client
	agents  *UserAgentPool
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Fetcher. A non-positive timeout falls back to DefaultTimeout.
func New(timeout time.Duration, userAgents []string, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetRetryCount(0).
		SetLogger(logger.Sugar())

	return &Fetcher{
		client:  client,
		agents:  NewUserAgentPool(userAgents),
		timeout: timeout,
		logger:  logger,
	}
}

// Fetch performs one GET of url. The timeout is applied as a context deadline
// so that expiry aborts the in-flight request. Only a 200 response is success.
// The returned body is UTF-8.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req := f.client.R().
		SetContext(ctx).
		SetHeaders(browserHeaders)
	if ua := f.agents.Next(); ua != "" {
		req.SetHeader("User-Agent", ua)
	}

	start := time.Now()
	resp, err := req.Get(url)
	if err != nil {
		classified := classifyTransportError(err)
		f.logger.Warn("page fetch failed",
			zap.String("url", url),
			zap.String("kind", entity.KindName(classified)),
			zap.Error(err),
		)
		return nil, 0, classified
	}

	status := resp.StatusCode()
	f.logger.Debug("page fetched",
		zap.String("url", url),
		zap.Int("status", status),
		zap.Int("bytes", len(resp.Body())),
		zap.Duration("duration", time.Since(start)),
	)
	if status != http.StatusOK {
		return nil, status, entity.NewHTTPStatusError(status)
	}

	body, err := decodeBody(resp.Body(), resp.Header().Get("Content-Type"))
	if err != nil {
		f.logger.Warn("could not decode page, using raw bytes",
			zap.String("url", url),
			zap.String("content_type", resp.Header().Get("Content-Type")),
			zap.Error(err),
		)
		return resp.Body(), status, nil
	}
	return body, status, nil
}

// decodeBody converts body to UTF-8. The encoding comes from the
// Content-Type charset, then a <meta> declaration, then content sniffing.
func decodeBody(body []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("detecting charset: %w", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	return decoded, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return entity.NewTimeoutError(err)
	}
	if errors.Is(err, context.Canceled) {
		return entity.NewUnexpectedError(fmt.Errorf("request canceled: %w", err))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return entity.NewTimeoutError(err)
	}
	return entity.NewConnectionError(err)
}
