// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/pipdeck/internal/model"
)

// newTestClient points a client at handler.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: srv.URL + "/api", RateLimit: -1})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// LIST / ENTRY
// =============================================================================

func TestListDependencies(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/dependencies", r.URL.Path)
		require.Equal(t, "true", r.URL.Query().Get("useCache"))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `[
			{"name":"numpy","version":"1.26.4","latestVersion":"2.0.0","isLatest":false,"isCore":true},
			{"name":"pip","version":"24.0","isLatest":true,"isSystem":true,"description":"The PyPA tool"}
		]`)
	})

	entries, err := client.ListDependencies(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "numpy", entries[0].Key)
	require.True(t, entries[0].IsCore)
	require.True(t, entries[0].HasUpdate())
	require.True(t, entries[1].Protected())
	require.Equal(t, "The PyPA tool", entries[1].Description)
}

func TestGetDependency(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/dependency/rich":
			require.Equal(t, "true", r.URL.Query().Get("force_refresh"))
			writeJSON(w, http.StatusOK, model.Entry{Key: "rich", Version: "13.7.1"})
		case "/api/dependency/gone":
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "gone is not installed"})
		case "/api/dependency/null":
			_, _ = io.WriteString(w, "null")
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	ctx := context.Background()

	e, err := client.GetDependency(ctx, "rich", true)
	require.NoError(t, err)
	require.Equal(t, "13.7.1", e.Version)

	for _, name := range []string{"gone", "null", "empty"} {
		_, err := client.GetDependency(ctx, name, true)
		require.Error(t, err, name)
		require.True(t, IsNotFound(err), "%s: %v", name, err)
		require.True(t, errors.Is(err, ErrEntryGone), name)
	}
}

func TestTaskProgress(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/task-progress/t1":
			_, _ = io.WriteString(w, `{"progress":60,"status":"running","message":"Uninstalling","errors":["torch: not installed"]}`)
		default:
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "task not found"})
		}
	})

	report, err := client.TaskProgress(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 60, report.Progress)
	require.Equal(t, model.TaskStatusRunning, report.Status)
	require.Equal(t, []model.ErrorRecord{{Package: "torch", Error: "not installed"}}, report.Errors)

	_, err = client.TaskProgress(context.Background(), "missing")
	require.True(t, IsNotFound(err))
	require.True(t, IsTransient(err))
}

// =============================================================================
// MUTATIONS
// =============================================================================

func TestMutationBodies(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotPath = r.URL.Path
		gotBody = nil
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeJSON(w, http.StatusOK, MutationResponse{Success: true, TaskID: "abc"})
	})
	ctx := context.Background()

	tests := []struct {
		name string
		call func() (*MutationResponse, error)
		path string
		body map[string]interface{}
	}{
		{"uninstall", func() (*MutationResponse, error) { return client.Uninstall(ctx, "scipy") },
			"/api/uninstall", map[string]interface{}{"dependency": "scipy"}},
		{"install", func() (*MutationResponse, error) { return client.Install(ctx, "rich==13.0") },
			"/api/install", map[string]interface{}{"packageName": "rich==13.0"}},
		{"update", func() (*MutationResponse, error) { return client.Update(ctx, "rich") },
			"/api/update", map[string]interface{}{"dependency": "rich"}},
		{"switch", func() (*MutationResponse, error) { return client.SwitchVersion(ctx, "rich", "12.0.0") },
			"/api/switch-version", map[string]interface{}{"dependency": "rich", "version": "12.0.0"}},
		{"batch", func() (*MutationResponse, error) { return client.BatchUninstall(ctx, []string{"a", "b"}) },
			"/api/batch-uninstall", map[string]interface{}{"packages": []interface{}{"a", "b"}}},
		{"update selected", func() (*MutationResponse, error) { return client.UpdateSelected(ctx, []string{"a"}) },
			"/api/update-selected", map[string]interface{}{"packages": []interface{}{"a"}}},
		{"clean cache", func() (*MutationResponse, error) { return client.CleanPipCache(ctx) },
			"/api/clean-pip-cache", map[string]interface{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.call()
			require.NoError(t, err)
			require.True(t, resp.Async())
			require.Equal(t, "abc", resp.TaskID)
			require.Equal(t, tt.path, gotPath)
			require.Equal(t, tt.body, gotBody)
		})
	}
}

func TestMutationRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/install" {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "no such package"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "message": "pip failed"})
	})
	ctx := context.Background()

	_, err := client.Install(ctx, "nope")
	require.True(t, IsRejected(err))
	require.Contains(t, err.Error(), "no such package")
	require.False(t, IsTransient(err))

	resp, err := client.Uninstall(ctx, "rich")
	require.True(t, IsRejected(err))
	require.NotNil(t, resp)
	require.False(t, resp.Success)
	require.Equal(t, "pip failed", resp.Message)
}

func TestSynchronousMutationHasNoTask(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "removed scipy"})
	})

	resp, err := client.Uninstall(context.Background(), "scipy")
	require.NoError(t, err)
	require.False(t, resp.Async())
	require.Equal(t, "removed scipy", resp.Message)
}

func TestInstallWheelUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo-1.0-py3-none-any.whl")
	require.NoError(t, os.WriteFile(path, []byte("wheel-bytes"), 0600))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/install-whl", r.URL.Path)
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		require.Equal(t, "demo-1.0-py3-none-any.whl", hdr.Filename)
		require.Equal(t, "wheel-bytes", string(data))

		writeJSON(w, http.StatusOK, MutationResponse{Success: true, TaskID: "w1"})
	})

	resp, err := client.InstallWheel(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "w1", resp.TaskID)

	_, err = client.InstallRequirements(context.Background(), filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}

// =============================================================================
// SERVER INFORMATION
// =============================================================================

func TestServerInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/system-info":
			writeJSON(w, http.StatusOK, SystemInfo{PythonVersion: "3.11.8", PipVersion: "24.0"})
		case "/api/cache-info":
			writeJSON(w, http.StatusOK, map[string]interface{}{"last_update": 1700000000.5})
		case "/api/dependency-categories":
			writeJSON(w, http.StatusOK, map[string]interface{}{"core": []string{"numpy"}})
		case "/api/check-description-updates":
			writeJSON(w, http.StatusOK, map[string]bool{"hasUpdates": r.URL.Query().Get("lastUpdate") != "0"})
		}
	})
	ctx := context.Background()

	info, err := client.SystemInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, "3.11.8", info.PythonVersion)
	require.NoError(t, client.CheckRunning(ctx))

	cache, err := client.CacheInfo(ctx)
	require.NoError(t, err)
	require.Contains(t, cache, "last_update")

	cats, err := client.Categories(ctx)
	require.NoError(t, err)
	require.Contains(t, cats, "core")

	has, err := client.CheckDescriptionUpdates(ctx, time.Time{})
	require.NoError(t, err)
	require.False(t, has)

	has, err = client.CheckDescriptionUpdates(ctx, time.Unix(1700000000, 0))
	require.NoError(t, err)
	require.True(t, has)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestNotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url + "/api"})
	_, err := client.ListDependencies(context.Background(), false)
	require.True(t, IsNotRunning(err), "%v", err)
	require.True(t, IsTransient(err))
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := client.SystemInfo(context.Background())
	require.True(t, IsTimeout(err), "%v", err)
}

func TestCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SystemInfo(ctx)
	require.True(t, errors.Is(err, ErrCanceled), "%v", err)
	require.False(t, IsTransient(err))
}

func TestInvalidResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>not json</html>")
	})

	_, err := client.ListDependencies(context.Background(), false)
	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, ErrTypeInvalidResponse, ce.Type)
}

func TestClientErrorFormatting(t *testing.T) {
	err := &ClientError{Type: ErrTypeRejected, Message: "bad", Status: 400, Cause: errors.New("x")}
	require.Equal(t, "bad (HTTP 400): x", err.Error())
	require.Equal(t, "rejected", err.Type.String())
	require.False(t, errors.Is(err, ErrTimeout))
}
