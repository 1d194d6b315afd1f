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

package contextenum

import (
	"fmt"
	"testing"

	"github.com/vartree/jst/coverage"
	"github.com/vartree/jst/event"
	"github.com/vartree/jst/tree"
)

// buildPipeline composes the reference adapter order from spec.md §4.5:
// base | labelled | coloured | trim(w-1) | prune | left_extend(w-1) |
// merge | seek.
func buildPipeline(t *testing.T, ref []byte, store *event.Store, n, w int) tree.Tree {
	t.Helper()
	tt := tree.NewRootTree(ref, store, n)
	tt = tree.Labelled(tt)
	tt = tree.Coloured(tt)
	tt = tree.Trim(w - 1)(tt)
	tt = tree.Prune(tt)
	tt = tree.LeftExtend(w - 1)(tt)
	tt = tree.Merge(tt)
	tt = tree.SeekWith()(tt)
	return tt
}

func TestEnumeratorEmitsNoWindowWithoutCoverage(t *testing.T) {
	cov := coverage.FromSamples(2, []int{0, 1})
	store, err := event.NewStore([]event.Event{{Position: 1, Kind: event.Substitution, Length: 1, Payload: []byte("T"), Coverage: cov}})
	if err != nil {
		t.Fatalf("event.NewStore() = %v", err)
	}
	tt := buildPipeline(t, []byte("ACGT"), store, 2, 2)
	for _, win := range All(tt, 2) {
		if win.Coverage.IsEmpty() {
			t.Fatalf("emitted window with empty coverage: %q", win.Bytes)
		}
	}
}

func TestEnumeratorDistinctWindowsOnlyOnce(t *testing.T) {
	cov := coverage.FromSamples(2, []int{0})
	store, err := event.NewStore([]event.Event{{Position: 1, Kind: event.Substitution, Length: 1, Payload: []byte("T"), Coverage: cov}})
	if err != nil {
		t.Fatalf("event.NewStore() = %v", err)
	}
	tt := buildPipeline(t, []byte("ACGT"), store, 2, 2)
	seen := make(map[string]int)
	for _, win := range All(tt, 2) {
		key := fmt.Sprintf("%s@%d/%d", win.Bytes, win.Coordinate.ReferencePosition, win.Coordinate.Label)
		seen[key]++
	}
	for k, count := range seen {
		if count > 1 {
			t.Fatalf("window %q emitted %d times, want at most once", k, count)
		}
	}
}

// TestEnumeratorEmitsNothingWhenDeletionSpansEntireReference covers the
// spec's deletion-spanning-all scenario: a single deletion covering every
// sample removes the entire reference, so no sample has any length-4
// window left to emit.
func TestEnumeratorEmitsNothingWhenDeletionSpansEntireReference(t *testing.T) {
	cov := coverage.FromSamples(4, []int{0, 1, 2, 3})
	store, err := event.NewStore([]event.Event{{Position: 0, Kind: event.Deletion, Length: 10, Coverage: cov}})
	if err != nil {
		t.Fatalf("event.NewStore() = %v", err)
	}
	ref := []byte("aaaaaaaaaa")
	tt := buildPipeline(t, ref, store, 4, 4)
	if windows := All(tt, 4); len(windows) != 0 {
		t.Fatalf("All() = %v, want no windows (deletion spans entire reference for every sample)", windows)
	}
}

// TestEnumeratorSurvivesLongPreEventReferenceRun reproduces spec.md §8's S1:
// a reference run before the first event longer than w-1 bytes must not
// kill the event branch. A prior Trim implementation capped the budget
// starting at the tree root, so a pre-event run exceeding the budget
// returned no children at all and the enumerator emitted zero windows for
// this exact fixture.
func TestEnumeratorSurvivesLongPreEventReferenceRun(t *testing.T) {
	cov := coverage.FromSamples(4, []int{1, 2})
	store, err := event.NewStore([]event.Event{{Position: 5, Kind: event.Substitution, Length: 1, Payload: []byte("b"), Coverage: cov}})
	if err != nil {
		t.Fatalf("event.NewStore() = %v", err)
	}
	tt := buildPipeline(t, []byte("aaaaaaa"), store, 4, 4)
	windows := All(tt, 4)
	if len(windows) == 0 {
		t.Fatalf("All() = 0 windows, want at least one (pre-event reference run must not kill the event branch)")
	}
	var foundSubstituted bool
	for _, win := range windows {
		if string(win.Bytes) == "aaab" || string(win.Bytes) == "aaba" {
			foundSubstituted = true
			if win.Coverage.IsEmpty() {
				t.Fatalf("window %q has empty coverage", win.Bytes)
			}
		}
	}
	if !foundSubstituted {
		t.Fatalf("All() = %v, want a window carrying the substitution (\"aaab\" or \"aaba\")", windows)
	}
}

func TestEnumeratorFindsSubstitutedWindow(t *testing.T) {
	cov := coverage.FromSamples(2, []int{0})
	store, err := event.NewStore([]event.Event{{Position: 1, Kind: event.Substitution, Length: 1, Payload: []byte("T"), Coverage: cov}})
	if err != nil {
		t.Fatalf("event.NewStore() = %v", err)
	}
	tt := buildPipeline(t, []byte("ACGT"), store, 2, 2)

	var found bool
	for _, win := range All(tt, 2) {
		if string(win.Bytes) == "AT" {
			found = true
			if win.Coverage.IsEmpty() || !win.Coverage.Contains(0) {
				t.Fatalf("window %q coverage = %v, want to contain sample 0", win.Bytes, win.Coverage.Samples())
			}
		}
	}
	if !found {
		t.Fatalf("expected window \"AT\" (reference with substitution) to be emitted")
	}
}
