// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reconcile submits package mutations and brings the client's list
// back in line with the server once they finish.
//
// Uninstalls remove the entry directly. Installs, updates, and version
// switches re-fetch the one entry that changed. Batch operations and any
// outcome the server did not confirm reload the whole list. The active
// filter and search query survive all of these.
package reconcile
