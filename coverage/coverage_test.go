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

package coverage

import "testing"

func TestDenseBasics(t *testing.T) {
	d := FromSamples(4, []int{0, 2})
	if !d.Contains(0) || !d.Contains(2) {
		t.Fatalf("expected samples 0 and 2 to be covered")
	}
	if d.Contains(1) || d.Contains(3) {
		t.Fatalf("expected samples 1 and 3 to be uncovered")
	}
	if d.IsEmpty() {
		t.Fatalf("expected non-empty coverage")
	}
	if got, want := d.Samples(), []int{0, 2}; !intSliceEqual(got, want) {
		t.Fatalf("Samples() = %v, want %v", got, want)
	}
}

func TestDenseIntersectEmptyAfterIntersect(t *testing.T) {
	a := FromSamples(4, []int{0, 1})
	b := FromSamples(4, []int{2, 3})
	got := a.Intersect(b)
	if !got.IsEmpty() {
		t.Fatalf("expected empty intersection, got %v", got.Samples())
	}
}

func TestDenseIntersectAndDifference(t *testing.T) {
	a := FromSamples(8, []int{0, 1, 2, 3})
	b := FromSamples(8, []int{2, 3, 4, 5})

	if got, want := a.Intersect(b).Samples(), []int{2, 3}; !intSliceEqual(got, want) {
		t.Fatalf("Intersect = %v, want %v", got, want)
	}
	if got, want := a.Difference(b).Samples(), []int{0, 1}; !intSliceEqual(got, want) {
		t.Fatalf("Difference = %v, want %v", got, want)
	}
}

func TestDenseUnion(t *testing.T) {
	a := FromSamples(4, []int{0})
	b := FromSamples(4, []int{3})
	got := a.Union(b)
	if want := []int{0, 3}; !intSliceEqual(got.Samples(), want) {
		t.Fatalf("Union = %v, want %v", got.Samples(), want)
	}
}

func TestDenseFromBits(t *testing.T) {
	// Mirrors spec.md S1: coverage "1100" over 4 samples.
	d := FromBits([]int{1, 1, 0, 0})
	if want := []int{0, 1}; !intSliceEqual(d.Samples(), want) {
		t.Fatalf("FromBits = %v, want %v", d.Samples(), want)
	}
}

func TestDenseMismatchedDomainPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on domain mismatch")
		}
	}()
	a := NewDense(4)
	b := NewDense(8)
	a.Intersect(b)
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
