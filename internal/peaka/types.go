// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package peaka

import (
	"encoding/json"
)

// InfoResponse is the body of GET /api/v1/info.
type InfoResponse struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	UserID      string `json:"userId"`
	Email       string `json:"email"`
}

// ThreadRecord is one entry of the thread list.
type ThreadRecord struct {
	ThreadID    string `json:"threadId"`
	DisplayName string `json:"displayName"`
	ProjectID   string `json:"projectId"`
}

// ChatRequest is the body of POST .../chat.
type ChatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"threadId"`
}

// Message type markers found in RawMessage.ID.
const (
	MarkerHuman    = "HumanMessage"
	MarkerAI       = "AIMessage"
	MarkerFunction = "FunctionMessage"
)

// RawMessage is an agent message in the serialized form the remote service
// stores: a class path stack plus constructor arguments.
type RawMessage struct {
	ID     []string `json:"id"`
	Kwargs struct {
		// Content is usually a JSON string but may be a list of content parts.
		Content json.RawMessage `json:"content"`
	} `json:"kwargs"`
}

// Marker returns the last element of the id stack, or "" when it is empty.
func (m RawMessage) Marker() string {
	if len(m.ID) == 0 {
		return ""
	}
	return m.ID[len(m.ID)-1]
}

// HasMarker reports whether any element of the id stack equals one of names.
func (m RawMessage) HasMarker(names ...string) bool {
	for _, id := range m.ID {
		for _, n := range names {
			if id == n {
				return true
			}
		}
	}
	return false
}

type threadsResponse struct {
	Threads []ThreadRecord `json:"threads"`
}

type historyResponse struct {
	Result struct {
		Values struct {
			Messages []RawMessage `json:"messages"`
		} `json:"values"`
	} `json:"result"`
}

type chatResponse struct {
	Result struct {
		Messages []RawMessage `json:"messages"`
	} `json:"result"`
}

// apiErrorResponse covers the error shapes the partner API returns.
type apiErrorResponse struct {
	Message string `json:"message"`
	Error   any    `json:"error"`
}
