// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

// =============================================================================
// REQUEST TYPES
// =============================================================================

// dependencyRequest is the body of uninstall and update.
type dependencyRequest struct {
	Dependency string `json:"dependency"`
}

// installRequest is the body of install.
type installRequest struct {
	PackageName string `json:"packageName"`
}

// switchVersionRequest is the body of switch-version.
type switchVersionRequest struct {
	Dependency string `json:"dependency"`
	Version    string `json:"version"`
}

// packagesRequest is the body of batch-uninstall and update-selected.
type packagesRequest struct {
	Packages []string `json:"packages"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// MutationResponse is returned by every mutating endpoint.
//
// Endpoints that run the job in the background return a TaskID. Install
// and uninstall finish before responding and return only Success and
// Message.
type MutationResponse struct {
	Success bool   `json:"success" yaml:"success"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	TaskID  string `json:"taskId,omitempty" yaml:"task_id,omitempty"`
}

// Async reports whether the job continues in the background.
func (r *MutationResponse) Async() bool {
	return r.TaskID != ""
}

// SystemInfo describes the server's Python environment.
type SystemInfo struct {
	PythonVersion string `json:"pythonVersion" yaml:"python_version"`
	PipVersion    string `json:"pipVersion" yaml:"pip_version"`
}

// descriptionUpdates is the body of check-description-updates.
type descriptionUpdates struct {
	HasUpdates bool `json:"hasUpdates"`
}

// errorBody is the envelope the server uses for failures.
type errorBody struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}
