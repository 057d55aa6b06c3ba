// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package knowledge

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// INBOX WATCHER
// =============================================================================

// InboxWatcher watches a directory and imports files dropped into it as
// knowledge documents. Editors emit bursts of write events while saving, so
// imports are debounced per file.
type InboxWatcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time // file path -> last change time

	ctx    context.Context
	cancel context.CancelFunc

	// OnImport, if set, is called after each successful import with the
	// documents that were stored.
	OnImport func(docs []Document)
}

// NewInboxWatcher creates a watcher over dir feeding the given store.
func NewInboxWatcher(store *Store, dir string, debounce time.Duration) (*InboxWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &InboxWatcher{
		store:    store,
		watcher:  watcher,
		dir:      dir,
		debounce: debounce,
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching the inbox directory.
func (w *InboxWatcher) Watch() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}
	go w.processEvents()
	go w.processPending()
	return nil
}

// Close stops watching and releases resources.
func (w *InboxWatcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

// processEvents records create/write events for debounced import.
func (w *InboxWatcher) processEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if shouldIgnore(event.Name) {
				continue
			}
			w.mu.Lock()
			w.pending[event.Name] = time.Now()
			w.mu.Unlock()
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next event or poll recovers.
		}
	}
}

// processPending imports files whose last event has settled past the
// debounce window.
func (w *InboxWatcher) processPending() {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.importSettled()
		}
	}
}

func (w *InboxWatcher) importSettled() {
	now := time.Now()

	w.mu.Lock()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	if len(ready) == 0 {
		return
	}

	docs, err := w.store.DocumentsFromFiles(ready)
	if err != nil || len(docs) == 0 {
		return
	}
	if _, err := w.store.UpsertMany(docs); err != nil {
		return
	}
	if w.OnImport != nil {
		w.OnImport(docs)
	}
}

// shouldIgnore filters temp and hidden files out of the inbox.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".tmp")
}
