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

package breakpoint

import (
	"testing"
)

func TestBreakpointSpanAndValid(t *testing.T) {
	bp := Breakpoint{Low: 2, High: 5}
	if !bp.Valid() {
		t.Fatalf("expected valid breakpoint")
	}
	if got, want := bp.Span(), uint64(3); got != want {
		t.Fatalf("Span() = %d, want %d", got, want)
	}

	zero := Breakpoint{Low: 4, High: 4}
	if got, want := zero.Span(), uint64(0); got != want {
		t.Fatalf("Span() = %d, want %d", got, want)
	}
}

func TestSliceBytesAndSplit(t *testing.T) {
	ref := []byte("aaaaaaa")
	s := FromReference(ref, 1, 4)
	if got, want := string(s.Bytes()), "aaaa"; got != want {
		t.Fatalf("Bytes() = %q, want %q", got, want)
	}

	prefix, suffix := s.Split(2)
	if got, want := string(prefix.Bytes()), "aa"; got != want {
		t.Fatalf("prefix = %q, want %q", got, want)
	}
	if got, want := string(suffix.Bytes()), "aa"; got != want {
		t.Fatalf("suffix = %q, want %q", got, want)
	}
}

func TestSliceFromLiteral(t *testing.T) {
	lit := []byte("bcde")
	s := FromLiteral(lit, 1, 2)
	if got, want := string(s.Bytes()), "cd"; got != want {
		t.Fatalf("Bytes() = %q, want %q", got, want)
	}
	if s.Source() != Literal {
		t.Fatalf("expected Literal source")
	}
}
