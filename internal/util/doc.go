// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across peakabot packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
//   - RemoveIfExists: delete a file, treating "already gone" as success
//   - TruncateWidth: display-width aware truncation for terminal columns
//   - OneLine: collapse multi-line text for single-row display
//
// # Usage
//
//	err := util.AtomicWriteFile(path, []byte(key), 0600)
//	label := util.TruncateWidth(util.OneLine(thread.DisplayName), 28)
package util
