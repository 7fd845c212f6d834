// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestRoleDisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "Peaka AI Assistant"},
		{Role("tool"), "tool"},
	}
	for _, tt := range tests {
		if got := tt.role.DisplayName(); got != tt.want {
			t.Errorf("%q.DisplayName() = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestNewThread(t *testing.T) {
	th := NewThread("  Hello there  ", "proj-1")

	if _, err := uuid.Parse(th.ThreadID); err != nil {
		t.Fatalf("ThreadID %q is not a UUID: %v", th.ThreadID, err)
	}
	if th.DisplayName != "  Hello there  " {
		t.Errorf("DisplayName = %q, want verbatim input", th.DisplayName)
	}
	if th.ProjectID != "proj-1" {
		t.Errorf("ProjectID = %q, want proj-1", th.ProjectID)
	}

	other := NewThread("Hello there", "proj-1")
	if other.ThreadID == th.ThreadID {
		t.Error("two new threads share an ID")
	}
}

func TestSessionInvalidated(t *testing.T) {
	s := NewSession("key-123", Identity{ProjectID: "p", Email: "a@b.c"})
	inv := s.Invalidated()

	if inv.Valid {
		t.Error("Invalidated() session is still valid")
	}
	if inv.Key != "key-123" || inv.ProjectID != "p" {
		t.Errorf("Invalidated() dropped fields: %+v", inv)
	}
	if !s.Valid {
		t.Error("Invalidated() modified the receiver")
	}

	var nilSession *Session
	if nilSession.IsValid() {
		t.Error("nil session reported valid")
	}
	if nilSession.Invalidated() != nil {
		t.Error("nil.Invalidated() should be nil")
	}
}

func TestFingerprint(t *testing.T) {
	if got := Fingerprint(""); got != "none" {
		t.Errorf("Fingerprint(\"\") = %q, want none", got)
	}
	fp := Fingerprint("secret-key")
	if len(fp) != 8 {
		t.Errorf("Fingerprint length = %d, want 8", len(fp))
	}
	if fp == "secret-key" {
		t.Error("fingerprint leaks the key")
	}
}

func TestCloneMessages(t *testing.T) {
	src := []ChatMessage{NewUserMessage("hi", "t1")}
	cp := CloneMessages(src)
	cp[0].Content = "changed"
	if src[0].Content != "hi" {
		t.Error("CloneMessages shares backing array")
	}
	if CloneMessages(nil) == nil {
		t.Error("CloneMessages(nil) should be non-nil")
	}
}

func TestFindThread(t *testing.T) {
	threads := []Thread{{ThreadID: "a"}, {ThreadID: "b"}}
	if got := FindThread(threads, "b"); got != 1 {
		t.Errorf("FindThread(b) = %d, want 1", got)
	}
	if got := FindThread(threads, "z"); got != -1 {
		t.Errorf("FindThread(z) = %d, want -1", got)
	}
}
