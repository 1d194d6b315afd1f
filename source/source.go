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

// Package source defines the Loader interface that external collaborators
// (file directories, GCS buckets) implement to hand a reference, an event
// set and a sample count to the jst core. The core itself never does file
// or wire I/O; Loader is the seam where that I/O happens.
package source

import (
	"context"

	"github.com/vartree/jst/coverage"
	"github.com/vartree/jst/event"
)

// Loader supplies the three inputs a jst.Tree is built from. Implementations
// are expected to be read-only and safe for concurrent use.
type Loader interface {
	// LoadReference returns the reference sequence.
	LoadReference(ctx context.Context) ([]byte, error)

	// LoadEvents returns the shared events to build the tree's branches
	// from. Events need not be sorted; event.NewStore sorts them.
	LoadEvents(ctx context.Context) ([]event.Event, error)

	// SampleCount returns the fixed sample domain size the events' coverage
	// sets are defined over.
	SampleCount(ctx context.Context) (int, error)
}

// Manifest is the on-wire/on-disk shape a Loader typically decodes from:
// a reference string plus a flat list of events. It exists so source/file
// and source/gcs can share one JSON-friendly struct instead of duplicating
// the decode logic.
type Manifest struct {
	Reference   string          `json:"reference"`
	SampleCount int             `json:"sample_count"`
	Events      []ManifestEvent `json:"events"`
}

// ManifestEvent is the wire representation of a single event.Event: Coverage
// is a list of sample indices rather than a coverage.Set, since the set
// representation is an implementation detail of the core.
type ManifestEvent struct {
	Position uint64 `json:"position"`
	Kind     string `json:"kind"`
	Length   uint64 `json:"length"`
	Payload  string `json:"payload"`
	Coverage []int  `json:"coverage"`
}

// ParseKind maps a manifest's textual event kind to event.Kind.
func ParseKind(s string) (event.Kind, error) {
	switch s {
	case "substitution":
		return event.Substitution, nil
	case "insertion":
		return event.Insertion, nil
	case "deletion":
		return event.Deletion, nil
	default:
		return 0, &UnknownKindError{Kind: s}
	}
}

// UnknownKindError reports a manifest event kind that ParseKind does not
// recognize.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return "source: unknown event kind " + e.Kind
}

// ToEvents converts a Manifest's events into event.Event values, building
// each coverage set over the manifest's SampleCount.
func (m *Manifest) ToEvents() ([]event.Event, error) {
	out := make([]event.Event, 0, len(m.Events))
	for _, me := range m.Events {
		kind, err := ParseKind(me.Kind)
		if err != nil {
			return nil, err
		}
		out = append(out, event.Event{
			Position: me.Position,
			Kind:     kind,
			Length:   me.Length,
			Payload:  []byte(me.Payload),
			Coverage: coverageFromIndices(m.SampleCount, me.Coverage),
		})
	}
	return out, nil
}

func coverageFromIndices(n int, samples []int) coverage.Set {
	return coverage.FromSamples(n, samples)
}
