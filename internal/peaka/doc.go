// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package peaka is the HTTP client for the Peaka partner API.
//
// It covers the four endpoints the chat client needs: key info, the thread
// list, a thread's history and the chat endpoint. The client holds no key;
// every call takes the key of the session it acts for.
//
// # Key Types
//
//   - Client: paced HTTP client with bounded response bodies
//   - RawMessage: one agent message as stored by the remote service
//   - APIError: non-2xx response that maps to no sentinel
//
// # Usage
//
//	client := peaka.NewClient(peaka.DefaultBaseURL).WithTimeout(30 * time.Second)
//	info, err := client.Info(ctx, key)
//	if errors.Is(err, peaka.ErrUnauthorized) {
//	    // key rejected
//	}
//
// # Security
//
// API keys are never logged. Only a SHA-256 fingerprint appears in debug
// output, and all requests use TLS 1.2+.
package peaka
