// Package client talks to the external /api/* endpoints the core depends on.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/devbasics/internal/domain/model"
	"github.com/okian/devbasics/pkg/logger"
	"github.com/okian/devbasics/pkg/metrics"
)

// Endpoint paths.
const (
	PathAssessments = "/api/assessments"
	PathLogin       = "/api/auth/login"
	PathRegister    = "/api/auth/register"
	PathChat        = "/api/chat"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 1 << 20
)

// Client posts JSON to the external API.
type Client struct {
	base    *url.URL
	timeout time.Duration
	http    *http.Client
	log     logger.Logger
}

// New creates a client for baseURL with configuration options.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, baseURL)
	}

	c := &Client{
		base:    u,
		timeout: defaultTimeout,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// CreateAssessment submits a packaged assessment and returns its id.
func (c *Client) CreateAssessment(ctx context.Context, req AssessmentRequest) (RemoteID, error) { //nolint:gocritic // hugeParam: request is serialized once
	var resp assessmentResponse
	if err := c.postJSON(ctx, PathAssessments, req, &resp); err != nil {
		return "", err
	}
	if resp.Assessment == nil {
		return "", fmt.Errorf("%w: missing assessment.id", ErrBadResponse)
	}
	return resp.Assessment.ID, nil
}

// Login authenticates an existing account.
func (c *Client) Login(ctx context.Context, creds AuthRequest) (AuthResponse, error) {
	return c.auth(ctx, PathLogin, creds)
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, creds AuthRequest) (AuthResponse, error) {
	return c.auth(ctx, PathRegister, creds)
}

// Authenticate dispatches to Login or Register by mode.
func (c *Client) Authenticate(ctx context.Context, mode model.AuthMode, creds AuthRequest) (AuthResponse, error) {
	if mode.OrDefault() == model.ModeRegister {
		return c.Register(ctx, creds)
	}
	return c.Login(ctx, creds)
}

func (c *Client) auth(ctx context.Context, path string, creds AuthRequest) (AuthResponse, error) {
	var resp AuthResponse
	if err := c.postJSON(ctx, path, creds, &resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// SaveChat stores a transcript and returns its id.
func (c *Client) SaveChat(ctx context.Context, req ChatRequest) (RemoteID, error) {
	var resp chatResponse
	if err := c.postJSON(ctx, PathChat, req, &resp); err != nil {
		return "", err
	}
	if resp.Chat == nil {
		return "", fmt.Errorf("%w: missing chat.id", ErrBadResponse)
	}
	return resp.Chat.ID, nil
}

// postJSON sends body to path and decodes a 2xx response into out. A
// non-2xx status becomes *APIError.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String()+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s: %w", path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordUpstreamRequest(path, "transport_error", latency)
		c.log.Warn(ctx, "upstream request failed",
			logger.String("path", path),
			logger.String("request_id", requestID),
			logger.Error(err))
		return fmt.Errorf("%w: post %s: %w", ErrTransport, path, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(path, strconv.Itoa(resp.StatusCode), latency)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrTransport, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		// a body that is not JSON still yields an APIError, just without a message
		_ = json.Unmarshal(data, &eb)
		c.log.Debug(ctx, "upstream rejected request",
			logger.String("path", path),
			logger.Int("status", resp.StatusCode),
			logger.String("request_id", requestID))
		return &APIError{Status: resp.StatusCode, Message: eb.Error}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBadResponse, path, err)
	}
	return nil
}

// IsAPIError reports whether err is a server rejection rather than a
// transport failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
