// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package keystore

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/peakabot-tui/internal/config"
)

func testSlots(t *testing.T) map[string]Slot {
	t.Helper()
	dir := t.TempDir()

	sqliteSlot, err := OpenSQLite(filepath.Join(dir, "db", "peakabot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteSlot.Close() })

	return map[string]Slot{
		"file":   NewFileSlot(filepath.Join(dir, "keys", "api_key")),
		"sqlite": sqliteSlot,
		"memory": NewMemorySlot(""),
	}
}

func TestSlot_RoundTrip(t *testing.T) {
	for name, slot := range testSlots(t) {
		t.Run(name, func(t *testing.T) {
			got, err := slot.Get()
			require.NoError(t, err)
			assert.Empty(t, got, "new slot should be empty")

			require.NoError(t, slot.Set("first-key"))
			require.NoError(t, slot.Set("second-key"))

			got, err = slot.Get()
			require.NoError(t, err)
			assert.Equal(t, "second-key", got)

			require.NoError(t, slot.Clear())
			got, err = slot.Get()
			require.NoError(t, err)
			assert.Empty(t, got)

			assert.NoError(t, slot.Clear(), "clearing an empty slot is fine")
		})
	}
}

func TestFileSlot_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions only")
	}
	path := filepath.Join(t.TempDir(), "api_key")
	slot := NewFileSlot(path)
	require.NoError(t, slot.Set("secret"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileSlot_TrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api_key")
	require.NoError(t, os.WriteFile(path, []byte("hand-edited\n"), 0600))

	got, err := NewFileSlot(path).Get()
	require.NoError(t, err)
	assert.Equal(t, "hand-edited", got)
}

func TestSQLiteSlot_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peakabot.db")

	s1, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s1.Set("durable"))
	require.NoError(t, s1.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get()
	require.NoError(t, err)
	assert.Equal(t, "durable", got)
}

func TestMemorySlot_Fail(t *testing.T) {
	m := NewMemorySlot("old")
	m.Fail = errors.New("disk full")

	assert.Error(t, m.Set("new"))
	got, _ := m.Get()
	assert.Equal(t, "old", got)
	assert.Empty(t, m.Path())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Credentials.Path = filepath.Join(dir, "api_key")

	slot, err := Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileSlot{}, slot)

	cfg.Credentials.Backend = config.BackendSQLite
	cfg.Credentials.Path = filepath.Join(dir, "kv.db")
	slot, err = Open(cfg)
	require.NoError(t, err)
	defer slot.Close()
	assert.IsType(t, &SQLiteSlot{}, slot)

	cfg.Credentials.Backend = "keychain"
	_, err = Open(cfg)
	assert.Error(t, err)
}

func TestWatcher_ReportsExternalClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api_key")
	slot := NewFileSlot(path)
	require.NoError(t, slot.Set("key"))

	changed := make(chan struct{}, 4)
	w, err := NewWatcher(slot, 30*time.Millisecond, zerolog.Nop(), func() {
		changed <- struct{}{}
	})
	require.NoError(t, err)
	defer w.Close()

	// Another process logs out.
	require.NoError(t, NewFileSlot(path).Clear())

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not report the change")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	slot := NewFileSlot(filepath.Join(dir, "api_key"))

	changed := make(chan struct{}, 4)
	w, err := NewWatcher(slot, 20*time.Millisecond, zerolog.Nop(), func() {
		changed <- struct{}{}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("x"), 0600))

	select {
	case <-changed:
		t.Fatal("unrelated file triggered the watcher")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_TinyDebounce(t *testing.T) {
	assert.Equal(t, time.Millisecond, tickInterval(time.Nanosecond))
	assert.Equal(t, time.Millisecond, tickInterval(2*time.Nanosecond))
	assert.Equal(t, 50*time.Millisecond, tickInterval(DefaultDebounce))

	path := filepath.Join(t.TempDir(), "api_key")
	slot := NewFileSlot(path)
	require.NoError(t, slot.Set("key"))

	changed := make(chan struct{}, 4)
	w, err := NewWatcher(slot, time.Nanosecond, zerolog.Nop(), func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, NewFileSlot(path).Clear())

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not report the change")
	}
}

func TestWatcher_MemorySlot(t *testing.T) {
	_, err := NewWatcher(NewMemorySlot(""), 0, zerolog.Nop(), nil)
	assert.ErrorIs(t, err, ErrNoBackingFile)
}
