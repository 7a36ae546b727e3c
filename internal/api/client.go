// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/pipdeck/internal/model"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	// DefaultBaseURL is where a locally started server listens
	DefaultBaseURL = "http://127.0.0.1:8282/api"

	// DefaultTimeout bounds every request
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the steady-state request budget per second
	DefaultRateLimit = 20

	// maxBodyBytes caps how much of a response is read
	maxBodyBytes = 32 << 20
)

// ClientConfig holds configuration options for the pipdeck client.
type ClientConfig struct {
	// BaseURL is the API root including the /api prefix
	BaseURL string

	// Timeout for each request (default: 30s)
	Timeout time.Duration

	// RateLimit in requests per second (default: 20, negative disables)
	RateLimit float64

	// Burst is the limiter bucket size (default: 5)
	Burst int

	// Logger receives one line per request when set
	Logger *log.Logger

	// HTTPClient overrides the transport, mainly for tests
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		RateLimit: DefaultRateLimit,
		Burst:     5,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the pipdeck server.
//
// The Client is thread-safe for concurrent use.
//
// Example:
//
//	client := api.NewClient()
//	entries, err := client.ListDependencies(ctx, true)
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config

	// Fill in defaults for any zero values
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit < 0 {
		limit = rate.Inf
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Per-request deadlines come from the context.
		httpClient = &http.Client{}
	}

	return &Client{
		config:     &cfg,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, cfg.Burst),
	}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// ListDependencies retrieves every installed package. With useCache the
// server may answer from its cache instead of querying pip.
func (c *Client) ListDependencies(ctx context.Context, useCache bool) ([]model.Entry, error) {
	q := url.Values{"useCache": {strconv.FormatBool(useCache)}}

	var entries []model.Entry
	if err := c.do(ctx, http.MethodGet, "/dependencies", q, nil, "", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetDependency retrieves a single package. A package that is no longer
// installed yields an error matching ErrEntryGone.
func (c *Client) GetDependency(ctx context.Context, name string, forceRefresh bool) (model.Entry, error) {
	q := url.Values{"force_refresh": {strconv.FormatBool(forceRefresh)}}

	var entry model.Entry
	err := c.do(ctx, http.MethodGet, "/dependency/"+url.PathEscape(name), q, nil, "", &entry)
	if err != nil {
		var ce *ClientError
		if errors.As(err, &ce) && ce.Type == ErrTypeInvalidResponse && ce.Status == 0 && ce.Cause == nil {
			// Empty or null body.
			return model.Entry{}, &ClientError{Type: ErrTypeNotFound, Message: name + " is not installed"}
		}
		return model.Entry{}, err
	}
	if entry.Key == "" {
		return model.Entry{}, &ClientError{Type: ErrTypeNotFound, Message: name + " is not installed"}
	}
	return entry, nil
}

// TaskProgress retrieves the progress of a background task.
func (c *Client) TaskProgress(ctx context.Context, taskID string) (*model.ProgressReport, error) {
	var report model.ProgressReport
	if err := c.do(ctx, http.MethodGet, "/task-progress/"+url.PathEscape(taskID), nil, nil, "", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Install installs a package by requirement specifier. The server
// completes the install before answering.
func (c *Client) Install(ctx context.Context, spec string) (*MutationResponse, error) {
	return c.mutate(ctx, "/install", installRequest{PackageName: spec})
}

// Uninstall removes a package. The server completes the removal before
// answering.
func (c *Client) Uninstall(ctx context.Context, name string) (*MutationResponse, error) {
	return c.mutate(ctx, "/uninstall", dependencyRequest{Dependency: name})
}

// Update upgrades a package to its latest version.
func (c *Client) Update(ctx context.Context, name string) (*MutationResponse, error) {
	return c.mutate(ctx, "/update", dependencyRequest{Dependency: name})
}

// SwitchVersion installs a specific version of a package.
func (c *Client) SwitchVersion(ctx context.Context, name, version string) (*MutationResponse, error) {
	return c.mutate(ctx, "/switch-version", switchVersionRequest{Dependency: name, Version: version})
}

// BatchUninstall removes several packages in one background task.
func (c *Client) BatchUninstall(ctx context.Context, names []string) (*MutationResponse, error) {
	return c.mutate(ctx, "/batch-uninstall", packagesRequest{Packages: names})
}

// UpdateSelected upgrades several packages in one background task.
func (c *Client) UpdateSelected(ctx context.Context, names []string) (*MutationResponse, error) {
	return c.mutate(ctx, "/update-selected", packagesRequest{Packages: names})
}

// CleanPipCache purges the server's pip cache.
func (c *Client) CleanPipCache(ctx context.Context) (*MutationResponse, error) {
	return c.mutate(ctx, "/clean-pip-cache", struct{}{})
}

// InstallWheel uploads a .whl file and installs it.
func (c *Client) InstallWheel(ctx context.Context, path string) (*MutationResponse, error) {
	return c.upload(ctx, "/install-whl", path)
}

// InstallRequirements uploads a requirements file and installs it.
func (c *Client) InstallRequirements(ctx context.Context, path string) (*MutationResponse, error) {
	return c.upload(ctx, "/install-requirements", path)
}

// =============================================================================
// SERVER INFORMATION
// =============================================================================

// CheckDescriptionUpdates asks whether package descriptions changed since
// lastUpdate. A zero lastUpdate marks the first check of a session.
func (c *Client) CheckDescriptionUpdates(ctx context.Context, lastUpdate time.Time) (bool, error) {
	ts := "0"
	if !lastUpdate.IsZero() {
		ts = strconv.FormatFloat(float64(lastUpdate.UnixMilli())/1000, 'f', 3, 64)
	}

	var result descriptionUpdates
	if err := c.do(ctx, http.MethodGet, "/check-description-updates", url.Values{"lastUpdate": {ts}}, nil, "", &result); err != nil {
		return false, err
	}
	return result.HasUpdates, nil
}

// SystemInfo retrieves the server's Python and pip versions.
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := c.do(ctx, http.MethodGet, "/system-info", nil, nil, "", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CacheInfo retrieves the server's cache metadata.
func (c *Client) CacheInfo(ctx context.Context) (map[string]interface{}, error) {
	var info map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/cache-info", nil, nil, "", &info); err != nil {
		return nil, err
	}
	return info, nil
}

// Categories retrieves the server's package category configuration.
func (c *Client) Categories(ctx context.Context) (map[string]interface{}, error) {
	var cats map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/dependency-categories", nil, nil, "", &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// CheckRunning verifies that the server is reachable.
func (c *Client) CheckRunning(ctx context.Context) error {
	_, err := c.SystemInfo(ctx)
	return err
}

// =============================================================================
// TRANSPORT
// =============================================================================

// mutate posts a JSON body and turns success:false into ErrTypeRejected.
func (c *Client) mutate(ctx context.Context, path string, body interface{}) (*MutationResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
	}

	var resp MutationResponse
	if err := c.do(ctx, http.MethodPost, path, nil, bytes.NewReader(data), "application/json", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "request rejected by server"
		}
		return &resp, &ClientError{Type: ErrTypeRejected, Message: msg}
	}
	return &resp, nil
}

// upload posts path as the multipart field "file".
func (c *Client) upload(ctx context.Context, endpoint, path string) (*MutationResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to open " + path, Cause: err}
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to build upload", Cause: err}
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to read " + path, Cause: err}
	}
	if err := w.Close(); err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to build upload", Cause: err}
	}

	var resp MutationResponse
	if err := c.do(ctx, http.MethodPost, endpoint, nil, &buf, w.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return &resp, &ClientError{Type: ErrTypeRejected, Message: resp.Message}
	}
	return &resp, nil
}

// do performs one request and decodes a JSON body into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return c.transportError(ctx, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	u := c.config.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(reqCtx, method, u, body)
	if err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "failed to create request", Cause: err}
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logf("%s %s failed after %s id=%s: %v", method, path, time.Since(start).Round(time.Millisecond), requestID, err)
		return c.transportError(ctx, err)
	}
	defer drainAndClose(resp.Body)
	c.logf("%s %s -> %d in %s id=%s", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond), requestID)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.transportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "empty response from " + path}
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// transportError classifies a failure that produced no HTTP response.
// parent is the caller's context, before the request timeout was applied.
func (c *Client) transportError(parent context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return &ClientError{Type: ErrTypeCanceled, Message: "request canceled", Cause: err}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	if strings.Contains(err.Error(), "would exceed context deadline") {
		// rate.Limiter refuses to wait past the deadline.
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeNotRunning, Message: "pipdeck server is not reachable", Cause: err}
}

// statusError builds the error for a non-2xx response.
func statusError(status int, data []byte) error {
	var body errorBody
	_ = json.Unmarshal(data, &body)

	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusNotFound:
		return &ClientError{Type: ErrTypeNotFound, Message: msg, Status: status}
	case body.Success != nil && !*body.Success:
		return &ClientError{Type: ErrTypeRejected, Message: msg, Status: status}
	default:
		return &ClientError{Type: ErrTypeInvalidResponse, Message: msg, Status: status}
	}
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Printf(format, args...)
	}
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, r)
	r.Close()
}
