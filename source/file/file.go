// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package file implements a source.Loader backed by a local directory
// holding a manifest.json file, the on-disk counterpart to source/gcs.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vartree/jst/event"
	"github.com/vartree/jst/source"
)

// Loader is a source.Loader that reads dir/manifest.json once and caches the
// result.
type Loader struct {
	path string

	once     sync.Once
	manifest *source.Manifest
	loadErr  error
}

// New returns a Loader reading manifest.json out of dir.
func New(dir string) *Loader {
	return &Loader{path: filepath.Join(dir, "manifest.json")}
}

func (l *Loader) load() (*source.Manifest, error) {
	l.once.Do(func() {
		body, err := os.ReadFile(l.path)
		if err != nil {
			l.loadErr = fmt.Errorf("reading %s: %v", l.path, err)
			return
		}
		var m source.Manifest
		if err := json.Unmarshal(body, &m); err != nil {
			l.loadErr = fmt.Errorf("decoding %s: %v", l.path, err)
			return
		}
		l.manifest = &m
	})
	return l.manifest, l.loadErr
}

// LoadReference implements source.Loader.
func (l *Loader) LoadReference(ctx context.Context) ([]byte, error) {
	m, err := l.load()
	if err != nil {
		return nil, err
	}
	return []byte(m.Reference), nil
}

// LoadEvents implements source.Loader.
func (l *Loader) LoadEvents(ctx context.Context) ([]event.Event, error) {
	m, err := l.load()
	if err != nil {
		return nil, err
	}
	return m.ToEvents()
}

// SampleCount implements source.Loader.
func (l *Loader) SampleCount(ctx context.Context) (int, error) {
	m, err := l.load()
	if err != nil {
		return 0, err
	}
	return m.SampleCount, nil
}
