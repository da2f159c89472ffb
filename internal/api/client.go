// Package api is the typed HTTP client for the nexus backend.
//
// Every operation is a single round trip with no retries. Any failure
// (transport, non-2xx status, malformed body) is reported as an error
// wrapping ErrRequestFailed; callers get no other structure.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daviddao/nexus/internal/logging"
	"github.com/daviddao/nexus/internal/metrics"
	"github.com/daviddao/nexus/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRequestFailed is the only error kind the client returns.
var ErrRequestFailed = errors.New("request failed")

// Endpoint paths.
const (
	PathMenu      = "/api/mess-menu"
	PathSummarize = "/api/summarize"
	PathSentiment = "/api/analyze-sentiment"
	PathExtract   = "/api/extract-deadlines"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// Client issues requests against one backend base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Recorder
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(l)
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

// NewClient constructs a client for baseURL. The default HTTP client has no
// timeout of its own; only the caller's context bounds a request.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchMenu returns today's mess menu.
func (c *Client) FetchMenu(ctx context.Context) ([]types.MenuEntry, error) {
	var out []menuEntryWire
	if err := c.call(ctx, http.MethodGet, PathMenu, nil, &out); err != nil {
		return nil, err
	}
	return menuFromWire(out), nil
}

// Summarize condenses an email into an action item.
func (c *Client) Summarize(ctx context.Context, subject, body string) (types.MailSummary, error) {
	var out mailSummaryWire
	if err := c.call(ctx, http.MethodPost, PathSummarize, emailWire{Subject: subject, Body: body}, &out); err != nil {
		return types.MailSummary{}, err
	}
	return out.toType(), nil
}

// AnalyzeSentiment scores a piece of feedback.
func (c *Client) AnalyzeSentiment(ctx context.Context, text string) (types.SentimentResult, error) {
	var out sentimentWire
	if err := c.call(ctx, http.MethodPost, PathSentiment, feedbackWire{Text: text}, &out); err != nil {
		return types.SentimentResult{}, err
	}
	return out.toType(), nil
}

// ExtractDeadlines finds deadline and event sentences in an email.
func (c *Client) ExtractDeadlines(ctx context.Context, subject, body string) (types.ExtractionResult, error) {
	var out extractionWire
	if err := c.call(ctx, http.MethodPost, PathExtract, emailWire{Subject: subject, Body: body}, &out); err != nil {
		return types.ExtractionResult{}, err
	}
	return out.toType(), nil
}

// call performs one round trip and decodes the JSON response into out.
func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	start := time.Now()
	reqID := uuid.NewString()
	log := c.logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", reqID),
	)

	err := c.do(ctx, method, path, reqID, payload, out)
	elapsed := time.Since(start)

	outcome := types.OutcomeSuccess
	if err != nil {
		outcome = types.OutcomeFailed
		log.Warn("backend request failed", zap.Duration("elapsed", elapsed), zap.Error(err))
	} else {
		log.Debug("backend request", zap.Duration("elapsed", elapsed))
	}
	c.metrics.Observe(strings.TrimPrefix(path, "/api/"), outcome, elapsed)
	return err
}

func (c *Client) do(ctx context.Context, method, path, reqID string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%w: %s %s: encode payload: %v", ErrRequestFailed, method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused; the error body is not parsed.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("%w: %s %s: http %d", ErrRequestFailed, method, path, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: decode response: %v", ErrRequestFailed, method, path, err)
	}
	return nil
}
