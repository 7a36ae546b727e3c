// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the pipdeck client.
type ClientError struct {
	Type    ErrorType
	Message string

	// Status is the HTTP status code, or 0 if no response was received
	Status int

	Cause error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same type, so errors.Is(err, ErrTimeout)
// holds for every timeout regardless of message or cause.
func (e *ClientError) Is(target error) bool {
	var t *ClientError
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeNotFound
	ErrTypeInvalidResponse
	ErrTypeRejected
	ErrTypeCanceled
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeNotRunning:
		return "not-running"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeNotFound:
		return "not-found"
	case ErrTypeInvalidResponse:
		return "invalid-response"
	case ErrTypeRejected:
		return "rejected"
	case ErrTypeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrNotRunning = &ClientError{Type: ErrTypeNotRunning, Message: "pipdeck server is not running"}
	ErrTimeout    = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrEntryGone  = &ClientError{Type: ErrTypeNotFound, Message: "package is not installed"}
	ErrRejected   = &ClientError{Type: ErrTypeRejected, Message: "request rejected by server"}
	ErrCanceled   = &ClientError{Type: ErrTypeCanceled, Message: "request canceled"}
)

// IsNotFound checks if an error means the resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryGone)
}

// IsNotRunning checks if an error indicates the server is unreachable.
func IsNotRunning(err error) bool {
	return errors.Is(err, ErrNotRunning)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsRejected checks if the server answered success:false.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// IsTransient reports whether retrying the same request could succeed.
// Rejections and cancellations are final; everything else is not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClientError
	if !errors.As(err, &ce) {
		return true
	}
	switch ce.Type {
	case ErrTypeRejected, ErrTypeCanceled:
		return false
	default:
		return true
	}
}
