// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package keystore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces the burst of events an atomic rename produces.
const DefaultDebounce = 150 * time.Millisecond

// minTick bounds how often pending events are checked.
const minTick = time.Millisecond

// ErrNoBackingFile is returned when watching an in-memory slot.
var ErrNoBackingFile = errors.New("slot has no backing file")

// Watcher reports changes to a slot's backing file made by other processes,
// e.g. `peakabot logout` run in another terminal.
//
// The parent directory is watched rather than the file: atomic writes
// replace the file, which would silently end a watch on the file itself.
type Watcher struct {
	watcher  *fsnotify.Watcher
	base     string
	debounce time.Duration
	onChange func()
	log      zerolog.Logger

	mu      sync.Mutex
	pending bool
	last    time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   sync.WaitGroup
}

// NewWatcher starts watching slot. onChange runs on the watcher goroutine
// after each debounced burst of changes.
func NewWatcher(slot Slot, debounce time.Duration, log zerolog.Logger, onChange func()) (*Watcher, error) {
	path := slot.Path()
	if path == "" {
		return nil, ErrNoBackingFile
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		watcher:  fsw,
		base:     filepath.Base(path),
		debounce: debounce,
		onChange: onChange,
		log:      log.With().Str("component", "keystore.watcher").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}

	w.done.Add(2)
	go w.processEvents()
	go w.processPending()
	return w, nil
}

// relevant matches the slot file and SQLite's -wal/-shm/-journal siblings.
func (w *Watcher) relevant(name string) bool {
	return strings.HasPrefix(filepath.Base(name), w.base)
}

func (w *Watcher) processEvents() {
	defer w.done.Done()
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.last = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) processPending() {
	defer w.done.Done()
	ticker := time.NewTicker(tickInterval(w.debounce))
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case now := <-ticker.C:
			w.mu.Lock()
			fire := w.pending && now.Sub(w.last) >= w.debounce
			if fire {
				w.pending = false
			}
			w.mu.Unlock()

			if fire && w.onChange != nil {
				w.log.Debug().Msg("credential slot changed")
				w.onChange()
			}
		}
	}
}

// tickInterval is a third of debounce, never below minTick.
func tickInterval(debounce time.Duration) time.Duration {
	return max(debounce/3, minTick)
}

// Close stops watching and waits for the goroutines to exit.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.done.Wait()
	return err
}
