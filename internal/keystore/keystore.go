// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package keystore provides the durable single-value credential slot.
//
// The slot holds exactly one opaque API key. It is read once at startup,
// written after a successful validation and erased on logout.
package keystore

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jeranaias/peakabot-tui/internal/config"
	"github.com/jeranaias/peakabot-tui/internal/util"
)

// =============================================================================
// SLOT INTERFACE
// =============================================================================

// Slot defines the interface for credential storage.
type Slot interface {
	// Get returns the stored key, or "" when the slot is empty.
	Get() (string, error)
	// Set replaces the stored key.
	Set(key string) error
	// Clear empties the slot. Clearing an empty slot is not an error.
	Clear() error
	// Path is the file backing the slot, or "" for in-memory slots.
	Path() string
	// Close releases backend resources.
	Close() error
}

// Open returns the slot selected by cfg.Credentials.
func Open(cfg *config.Config) (Slot, error) {
	path, err := cfg.CredentialsPath()
	if err != nil {
		return nil, err
	}
	switch cfg.Credentials.Backend {
	case config.BackendSQLite:
		return OpenSQLite(path)
	case config.BackendFile, "":
		return NewFileSlot(path), nil
	default:
		return nil, fmt.Errorf("unknown credential backend %q", cfg.Credentials.Backend)
	}
}

// =============================================================================
// FILE SLOT
// =============================================================================

// FileSlot stores the key in a single file with 0600 permissions.
type FileSlot struct {
	path string
}

// NewFileSlot creates a file-backed slot at path.
func NewFileSlot(path string) *FileSlot {
	return &FileSlot{path: path}
}

// Get reads the key file. A missing file is an empty slot.
func (f *FileSlot) Get() (string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Set writes the key file.
// RELIABILITY: Atomic write with fsync prevents a torn key on crash.
func (f *FileSlot) Set(key string) error {
	if err := util.AtomicWriteFile(f.path, []byte(key), 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

// Clear removes the key file.
func (f *FileSlot) Clear() error {
	if err := util.RemoveIfExists(f.path); err != nil {
		return fmt.Errorf("failed to delete key file: %w", err)
	}
	return nil
}

// Path returns the key file path.
func (f *FileSlot) Path() string { return f.path }

// Close is a no-op.
func (f *FileSlot) Close() error { return nil }

// =============================================================================
// MEMORY SLOT
// =============================================================================

// MemorySlot keeps the key in process memory. Used in tests and when the
// user opts out of persistence.
type MemorySlot struct {
	mu  sync.Mutex
	key string

	// Fail, when set, is returned by every Set call.
	Fail error
}

// NewMemorySlot returns a slot preloaded with key.
func NewMemorySlot(key string) *MemorySlot {
	return &MemorySlot{key: key}
}

func (m *MemorySlot) Get() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.key, nil
}

func (m *MemorySlot) Set(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.key = key
	return nil
}

func (m *MemorySlot) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = ""
	return nil
}

func (m *MemorySlot) Path() string { return "" }

func (m *MemorySlot) Close() error { return nil }
