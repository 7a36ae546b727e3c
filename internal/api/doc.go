// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the pipdeck package server.
//
// Every call is bounded by the client timeout (30s by default) and by a
// client-side rate limiter. Each request carries a fresh X-Request-ID.
//
// # Errors
//
// All failures are *ClientError values and match the sentinels with
// errors.Is:
//
//	entry, err := client.GetDependency(ctx, "scipy", true)
//	if api.IsNotFound(err) {
//	    // no longer installed
//	}
package api
