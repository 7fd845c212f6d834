// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the Peaka chat client.
//
// # Key Types
//
//   - Session: Authenticated context derived from a validated API key
//   - Thread: A single remote conversation, identified by an opaque ID
//   - ChatMessage: One turn in a thread, tagged user or assistant
//   - Role: Message role enumeration (user, assistant)
//   - Format: How message content should be rendered (markdown, json)
//
// # Usage
//
//	thread := model.NewThread("Hello", session.ProjectID)
//	msg := model.NewUserMessage("Hello", thread.ThreadID)
package model
