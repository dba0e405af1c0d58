// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"os"
	"path"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/fault"
)

// Watcher - deliver configuration file events
type Watcher interface {
	Start() error
	Change() <-chan struct{}
	Remove() <-chan struct{}
	Stop()
}

type watcherData struct {
	log      *logger.L
	watcher  *fsnotify.Watcher
	filePath string
	change   chan struct{}
	remove   chan struct{}
}

// NewWatcher - watch one configuration file for modification
func NewWatcher(targetFile string, log *logger.L) (Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		log.Errorf("new watcher error: %s", err)
		return nil, err
	}

	filePath, err := filepath.Abs(filepath.Clean(targetFile))
	if nil != err {
		log.Errorf("parse file %s error: %s", targetFile, err)
		return nil, err
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fault.DataDirectoryIsMissing
	}

	return &watcherData{
		log:      log,
		watcher:  watcher,
		filePath: filePath,
		change:   make(chan struct{}, 1),
		remove:   make(chan struct{}, 1),
	}, nil
}

func (w *watcherData) Change() <-chan struct{} {
	return w.change
}

func (w *watcherData) Remove() <-chan struct{} {
	return w.remove
}

func (w *watcherData) Start() error {
	err := w.watcher.Add(w.filePath)
	if nil != err {
		w.log.Errorf("watcher add error: %s", err)
		return err
	}

	go func() {
		for event := range w.watcher.Events {
			w.log.Infof("file event: %v", event)

			if eventIsRemove(event) {
				w.log.Errorf("file %s removed, stop", w.filePath)
				w.sendEvent(w.remove, "remove")
				return
			}

			if path.Base(event.Name) != path.Base(w.filePath) {
				continue
			}

			if eventIsChange(event) {
				w.sendEvent(w.change, "change")
			}
		}
	}()

	return nil
}

func (w *watcherData) Stop() {
	_ = w.watcher.Close()
}

// events are advisory, drop them rather than block the notify loop
func (w *watcherData) sendEvent(ch chan struct{}, name string) {
	select {
	case ch <- struct{}{}:
	default:
		w.log.Infof("event channel %s full, discard event", name)
	}
}

func eventIsRemove(event fsnotify.Event) bool {
	return "" == event.Name || event.Op&fsnotify.Remove == fsnotify.Remove
}

func eventIsChange(event fsnotify.Event) bool {
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Chmod == fsnotify.Chmod
}
