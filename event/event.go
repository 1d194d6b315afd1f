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

// Package event models the edit events shared across samples: the
// substitutions, insertions and deletions that, applied to a reference,
// reconstruct each sample's derived sequence.
package event

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vartree/jst/coverage"
)

// Errors returned by this package, per spec.md §7.
var (
	// ErrEmptyCoverage is returned when an event is constructed with a
	// coverage set that carries no samples; such an event could never
	// affect any reconstructed sequence and is rejected rather than
	// silently kept.
	ErrEmptyCoverage = errors.New("event: coverage is empty")
	// ErrInvalidEventSet is returned when two events with overlapping
	// reference spans also carry overlapping coverage: spec.md §9 resolves
	// this ambiguity by treating it as caller error at construction time.
	ErrInvalidEventSet = errors.New("event: overlapping reference span with overlapping coverage")
)

// Kind identifies the shape of an edit event.
type Kind int

const (
	// Substitution replaces Length reference bytes with Payload.
	Substitution Kind = iota
	// Insertion adds Payload at Position without consuming any reference
	// bytes.
	Insertion
	// Deletion removes Length reference bytes and contributes no payload.
	Deletion
)

func (k Kind) String() string {
	switch k {
	case Substitution:
		return "substitution"
	case Insertion:
		return "insertion"
	case Deletion:
		return "deletion"
	default:
		return fmt.Sprintf("event.Kind(%d)", int(k))
	}
}

// order fixes the tie-break applied when two events share Position: an
// insertion logically precedes a deletion or substitution anchored at the
// same reference coordinate, and a deletion precedes a substitution.
func (k Kind) order() int {
	switch k {
	case Insertion:
		return 0
	case Deletion:
		return 1
	default:
		return 2
	}
}

// Event is a single edit anchored at a reference position, carried by the
// set of samples in Coverage.
type Event struct {
	Position uint64
	Kind     Kind
	// Length is the number of reference bytes the event spans. It is 0 for
	// Insertion, and >= 0 for Substitution/Deletion.
	Length   uint64
	Payload  []byte
	Coverage coverage.Set
}

// End returns the reference position immediately following the span this
// event consumes.
func (e Event) End() uint64 {
	return e.Position + e.Length
}

// overlapsSpan reports whether e and other consume overlapping reference
// spans. Insertions consume no reference span and never overlap with
// anything by this measure; their ordering is governed by Kind.order
// instead.
func (e Event) overlapsSpan(other Event) bool {
	if e.Kind == Insertion || other.Kind == Insertion {
		return false
	}
	return e.Position < other.End() && other.Position < e.End()
}

// Store holds a validated, sorted collection of events.
type Store struct {
	events []Event
}

// NewStore validates and sorts events, per spec.md §4.3.
//
// Each event is rejected with ErrEmptyCoverage if its coverage carries no
// samples. Two events whose reference spans overlap must carry disjoint
// coverage, or the pair is rejected with ErrInvalidEventSet (spec.md §9).
func NewStore(events []Event) (*Store, error) {
	for _, e := range events {
		if e.Coverage == nil || e.Coverage.IsEmpty() {
			return nil, fmt.Errorf("%w: event at position %d", ErrEmptyCoverage, e.Position)
		}
	}
	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			if !events[i].overlapsSpan(events[j]) {
				continue
			}
			if events[i].Coverage.Intersect(events[j].Coverage).IsEmpty() {
				continue
			}
			return nil, fmt.Errorf("%w: events at positions %d and %d", ErrInvalidEventSet, events[i].Position, events[j].Position)
		}
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Position != sorted[j].Position {
			return sorted[i].Position < sorted[j].Position
		}
		return sorted[i].Kind.order() < sorted[j].Kind.order()
	})
	return &Store{events: sorted}, nil
}

// Len returns the number of events in the store.
func (s *Store) Len() int { return len(s.events) }

// At returns the i-th event in position order.
func (s *Store) At(i int) Event { return s.events[i] }

// All returns every event, in position order.
func (s *Store) All() []Event {
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Range returns the events whose reference position lies in [low, high).
func (s *Store) Range(low, high uint64) []Event {
	lo := sort.Search(len(s.events), func(i int) bool { return s.events[i].Position >= low })
	hi := sort.Search(len(s.events), func(i int) bool { return s.events[i].Position >= high })
	out := make([]Event, hi-lo)
	copy(out, s.events[lo:hi])
	return out
}
