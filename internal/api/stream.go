// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// VERSION CHECK STREAM
// =============================================================================

// ProgressFunc receives streamed progress, 0-100.
type ProgressFunc func(progress int)

// versionCheckLine is one line of the check-versions stream.
type versionCheckLine struct {
	Progress *int   `json:"progress"`
	Error    string `json:"error"`
}

// CheckVersions asks the server to look up the latest version of every
// user package. The server answers with newline-delimited JSON: a
// {"progress":N} line per step, or an {"error":"..."} line that ends the
// check as rejected. onProgress may be nil.
//
// The server stores the results in its dependency cache, so a list read
// with useCache picks them up.
func (c *Client) CheckVersions(ctx context.Context, onProgress ProgressFunc) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return c.transportError(ctx, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	const path = "/check-versions"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.config.BaseURL+path, http.NoBody)
	if err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "failed to create request", Cause: err}
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logf("POST %s failed after %s id=%s: %v", path, time.Since(start).Round(time.Millisecond), requestID, err)
		return c.transportError(ctx, err)
	}
	defer drainAndClose(resp.Body)
	c.logf("POST %s -> %d id=%s", path, resp.StatusCode, requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		return statusError(resp.StatusCode, data)
	}

	last := -1
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var msg versionCheckLine
		if err := json.Unmarshal(line, &msg); err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode version check progress", Cause: err}
		}
		if msg.Error != "" {
			return &ClientError{Type: ErrTypeRejected, Message: msg.Error}
		}
		if msg.Progress == nil {
			continue
		}
		p := clampProgress(*msg.Progress)
		if p > last {
			last = p
			if onProgress != nil {
				onProgress(p)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return c.transportError(ctx, err)
	}
	if last < 0 {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "empty response from " + path}
	}
	return nil
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
