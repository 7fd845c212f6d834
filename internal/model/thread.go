// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"github.com/google/uuid"
)

// Thread is a single remote conversation.
type Thread struct {
	ThreadID    string `json:"threadId" yaml:"thread_id"`
	DisplayName string `json:"displayName" yaml:"display_name"`
	ProjectID   string `json:"projectId" yaml:"project_id"`
}

// NewThread creates a locally started thread with a fresh UUIDv4 ID.
// The display name is the first user message, verbatim.
func NewThread(displayName, projectID string) Thread {
	return Thread{
		ThreadID:    uuid.NewString(),
		DisplayName: displayName,
		ProjectID:   projectID,
	}
}

// CloneThreads returns a copy of threads that shares no backing array.
func CloneThreads(threads []Thread) []Thread {
	out := make([]Thread, len(threads))
	copy(out, threads)
	return out
}

// FindThread returns the index of the thread with the given ID, or -1.
func FindThread(threads []Thread, threadID string) int {
	for i, t := range threads {
		if t.ThreadID == threadID {
			return i
		}
	}
	return -1
}
