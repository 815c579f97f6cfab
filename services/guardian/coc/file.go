// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package coc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
)

// fileNames maps each format to its expected filename inside the
// configured directory.
var fileNames = map[datatypes.TextFormat]string{
	datatypes.FormatPlain:    "CODE_OF_CONDUCT.txt",
	datatypes.FormatMarkdown: "CODE_OF_CONDUCT.md",
	datatypes.FormatHTML:     "CODE_OF_CONDUCT.html",
}

// FileProvider serves code of conduct documents from a local directory.
// Loaded documents are cached in memory; an fsnotify watcher drops the
// cache when a file in the directory changes, so edits take effect
// without a restart.
type FileProvider struct {
	dir     string
	watcher *fsnotify.Watcher

	mu    sync.RWMutex
	cache map[datatypes.TextFormat]string
}

// NewFileProvider creates a provider over the given directory. The
// directory must exist. Watching is best-effort: if the watcher cannot
// be created the provider still works, reading files on every miss.
func NewFileProvider(dir string) (*FileProvider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("code of conduct directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("code of conduct path %s is not a directory", dir)
	}

	p := &FileProvider{
		dir:   dir,
		cache: make(map[datatypes.TextFormat]string),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("File watcher unavailable, code of conduct files will be re-read on cache miss only",
			"dir", dir,
			"error", err)
		return p, nil
	}
	if err := watcher.Add(dir); err != nil {
		slog.Warn("Could not watch code of conduct directory", "dir", dir, "error", err)
		watcher.Close()
		return p, nil
	}
	p.watcher = watcher
	go p.watch()

	slog.Info("Initialized file code of conduct provider", "dir", dir)
	return p, nil
}

// Supports reports whether the file for the format exists.
func (p *FileProvider) Supports(ctx context.Context, format datatypes.TextFormat) bool {
	name, ok := fileNames[format]
	if !ok {
		return false
	}
	p.mu.RLock()
	_, cached := p.cache[format]
	p.mu.RUnlock()
	if cached {
		return true
	}
	_, err := os.Stat(filepath.Join(p.dir, name))
	return err == nil
}

// Text reads the file for the format, serving repeated requests from the
// in-memory cache until the watcher observes a change.
func (p *FileProvider) Text(ctx context.Context, format datatypes.TextFormat) (string, error) {
	name, ok := fileNames[format]
	if !ok {
		return "", fmt.Errorf("unsupported format %s: %w", format.String(), ErrNotFound)
	}

	p.mu.RLock()
	content, cached := p.cache[format]
	p.mu.RUnlock()
	if cached {
		return content, nil
	}

	data, err := os.ReadFile(filepath.Join(p.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no %s in %s: %w", name, p.dir, ErrNotFound)
		}
		return "", fmt.Errorf("reading code of conduct file: %w", err)
	}

	p.mu.Lock()
	p.cache[format] = string(data)
	p.mu.Unlock()
	return string(data), nil
}

// Close stops the directory watcher.
func (p *FileProvider) Close() error {
	if p.watcher != nil {
		return p.watcher.Close()
	}
	return nil
}

// watch drops the cache whenever a file in the directory is written,
// created, renamed, or removed.
func (p *FileProvider) watch() {
	for {
		select {
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				slog.Info("Code of conduct file changed, dropping cache", "file", event.Name)
				p.mu.Lock()
				p.cache = make(map[datatypes.TextFormat]string)
				p.mu.Unlock()
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Code of conduct watcher error", "error", err)
		}
	}
}

var _ Provider = (*FileProvider)(nil)
