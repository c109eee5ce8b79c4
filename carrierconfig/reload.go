// Copyright 2024 Louis Royer and the go-dataconn contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package carrierconfig

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Reloadable watches a configuration file and swaps the parsed value
// atomically on change. Readers always see a complete configuration.
type Reloadable struct {
	path     string
	current  atomic.Pointer[Config]
	mu       sync.RWMutex
	watchers []func(old, new *Config)
	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewStatic wraps a fixed configuration without file watching. Useful for
// tests and embedders that manage configuration themselves.
func NewStatic(cfg *Config) *Reloadable {
	if cfg == nil {
		cfg = Default()
	}
	r := &Reloadable{stopCh: make(chan struct{})}
	r.current.Store(cfg)
	return r
}

// NewReloadable loads path and starts watching it for changes.
func NewReloadable(path string) (*Reloadable, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("initial config load: %w", err)
	}

	r := &Reloadable{
		path:   path,
		stopCh: make(chan struct{}),
	}
	r.current.Store(cfg)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch config file: %w", err)
	}
	r.watcher = watcher
	go r.watchLoop()

	return r, nil
}

// Get returns the current configuration.
func (r *Reloadable) Get() *Config {
	return r.current.Load()
}

// Watch registers a callback invoked with the old and new configuration
// after each successful reload.
func (r *Reloadable) Watch(fn func(old, new *Config)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers = append(r.watchers, fn)
}

// Reload forces a reload from disk. A file that fails to load or validate
// leaves the previous configuration in place.
func (r *Reloadable) Reload() error {
	newCfg, err := Load(r.path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	oldCfg := r.current.Swap(newCfg)

	r.mu.RLock()
	watchers := make([]func(old, new *Config), len(r.watchers))
	copy(watchers, r.watchers)
	r.mu.RUnlock()
	for _, fn := range watchers {
		fn(oldCfg, newCfg)
	}
	return nil
}

// Stop ends the file watch.
func (r *Reloadable) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if r.watcher != nil {
			r.watcher.Close()
		}
	})
}

func (r *Reloadable) watchLoop() {
	for {
		select {
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := r.Reload(); err != nil {
				logrus.WithError(err).Warn("Carrier config reload failed, keeping previous")
			} else {
				logrus.WithFields(logrus.Fields{"path": r.path}).Info("Carrier config reloaded")
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			logrus.WithError(err).Warn("Carrier config watcher error")
		case <-r.stopCh:
			return
		}
	}
}
