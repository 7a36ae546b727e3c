// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
)

// TaskStatus is the server-side status of a long-running job.
type TaskStatus string

const (
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusError     TaskStatus = "error"
)

// ErrorRecord is one per-package failure inside a task.
type ErrorRecord struct {
	Package string `json:"package" yaml:"package"`
	Error   string `json:"error" yaml:"error"`
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

// UnmarshalJSON accepts both the structured form and the plain
// "package: message" strings some server versions send.
func (r *ErrorRecord) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		pkg, msg, found := strings.Cut(s, ":")
		if found {
			r.Package = strings.TrimSpace(pkg)
			r.Error = strings.TrimSpace(msg)
		} else {
			r.Error = strings.TrimSpace(s)
		}
		return nil
	}

	type plain ErrorRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = ErrorRecord(p)
	return nil
}

// String renders the record on one line.
func (r ErrorRecord) String() string {
	var b strings.Builder
	if r.Package != "" {
		b.WriteString(r.Package)
		b.WriteString(": ")
	}
	b.WriteString(r.Error)
	if r.Details != "" {
		b.WriteString(" (")
		b.WriteString(r.Details)
		b.WriteString(")")
	}
	return b.String()
}

// ProgressReport is the body of GET /task-progress/{id}.
type ProgressReport struct {
	Progress int           `json:"progress"`
	Status   TaskStatus    `json:"status"`
	Message  string        `json:"message,omitempty"`
	Errors   []ErrorRecord `json:"errors,omitempty"`

	// Error is set by servers that report a hard failure out of band
	Error string `json:"error,omitempty"`
}

// Failed reports whether the server declared the task failed.
func (p *ProgressReport) Failed() bool {
	return p.Status == TaskStatusError || p.Error != ""
}

// FailureMessage returns the best human-readable reason for a failure.
func (p *ProgressReport) FailureMessage() string {
	switch {
	case p.Error != "":
		return p.Error
	case p.Message != "":
		return p.Message
	default:
		return "task failed"
	}
}
