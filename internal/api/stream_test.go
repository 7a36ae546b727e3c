// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckVersionsStreamsProgress(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/check-versions", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "{\"progress\": 0}\n\n{\"progress\": 40}\n{\"progress\": 25}\n{\"progress\": 100}\n")
	})

	var seen []int
	err := client.CheckVersions(context.Background(), func(p int) { seen = append(seen, p) })
	require.NoError(t, err)
	require.Equal(t, []int{0, 40, 100}, seen)
}

func TestCheckVersionsErrorLine(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{\"progress\": 0}\n{\"error\": \"index unreachable\"}\n")
	})

	err := client.CheckVersions(context.Background(), nil)
	require.Error(t, err)
	require.True(t, IsRejected(err))
	require.Contains(t, err.Error(), "index unreachable")
	require.False(t, IsTransient(err))
}

func TestCheckVersionsEmptyAndMalformed(t *testing.T) {
	empty := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	err := empty.CheckVersions(context.Background(), nil)
	require.ErrorIs(t, err, &ClientError{Type: ErrTypeInvalidResponse})

	garbage := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not json\n")
	})
	err = garbage.CheckVersions(context.Background(), nil)
	require.ErrorIs(t, err, &ClientError{Type: ErrTypeInvalidResponse})
}

func TestCheckVersionsHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "busy"})
	})

	err := client.CheckVersions(context.Background(), nil)
	require.True(t, IsRejected(err))
}

func TestCheckVersionsServerDown(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://127.0.0.1:1/api", RateLimit: -1})
	err := client.CheckVersions(context.Background(), nil)
	require.True(t, IsNotRunning(err))
}
