// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// =============================================================================
// SESSION TYPE
// =============================================================================

// Identity is the project and user information returned by the info endpoint.
type Identity struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	UserID      string `json:"userId"`
	Email       string `json:"email"`
}

// Session is the authenticated context derived from an API key.
// Only Key is ever persisted; everything else is re-derived on validation.
type Session struct {
	Key   string
	Valid bool
	Identity
}

// NewSession creates a valid session for key and identity.
func NewSession(key string, id Identity) *Session {
	return &Session{
		Key:      key,
		Valid:    true,
		Identity: id,
	}
}

// IsValid reports whether s is non-nil and validated.
func (s *Session) IsValid() bool {
	return s != nil && s.Valid
}

// Invalidated returns a copy of s with Valid cleared.
// The key and identity are kept so the UI can still show what was typed.
func (s *Session) Invalidated() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Valid = false
	return &cp
}

// Clone returns a copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// KeyFingerprint returns a short SHA-256 fingerprint of the key for logging.
// SECURITY: Never log the key itself.
func (s *Session) KeyFingerprint() string {
	if s == nil {
		return "none"
	}
	return Fingerprint(s.Key)
}

// Fingerprint returns the first 4 bytes of the SHA-256 of key, hex encoded.
func Fingerprint(key string) string {
	if key == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:4])
}
