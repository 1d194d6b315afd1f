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

// Package memory implements a source.Loader backed by already-parsed,
// in-process values. It is the seam a VCF/FASTA parser would plug into, and
// lets tests supply a Loader without any I/O dependency.
package memory

import (
	"context"

	"github.com/vartree/jst/event"
)

// Loader is a source.Loader that returns the reference, events and sample
// count it was constructed with.
type Loader struct {
	reference []byte
	events    []event.Event
	samples   int
}

// New returns a Loader over the given reference, events and sample count.
// The reference and events slices are not copied; callers must not mutate
// them after passing them to New.
func New(reference []byte, events []event.Event, samples int) *Loader {
	return &Loader{reference: reference, events: events, samples: samples}
}

// LoadReference implements source.Loader.
func (l *Loader) LoadReference(ctx context.Context) ([]byte, error) {
	return l.reference, nil
}

// LoadEvents implements source.Loader.
func (l *Loader) LoadEvents(ctx context.Context) ([]event.Event, error) {
	return l.events, nil
}

// SampleCount implements source.Loader.
func (l *Loader) SampleCount(ctx context.Context) (int, error) {
	return l.samples, nil
}
