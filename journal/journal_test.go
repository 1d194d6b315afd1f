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

package journal

import (
	"testing"

	"github.com/vartree/jst/breakpoint"
)

func TestNewJournalIsSourceVerbatim(t *testing.T) {
	j := New([]byte("ACGT"))
	if got, want := j.Size(), 4; got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}
	if got, want := string(j.Bytes()), "ACGT"; got != want {
		t.Fatalf("Bytes() = %q, want %q", got, want)
	}
	// First record at 0, sentinel at Size(): P1.
	if err := j.checkInvariants(); err != nil {
		t.Fatalf("checkInvariants() = %v", err)
	}
}

func TestRecordInsertMiddle(t *testing.T) {
	j := New([]byte("ACGT"))
	end, err := j.Record(breakpoint.Breakpoint{Low: 2, High: 2}, []byte("TGCA"))
	if err != nil {
		t.Fatalf("Record() = %v", err)
	}
	if got, want := string(j.Bytes()), "ACTGCAGT"; got != want {
		t.Fatalf("Bytes() = %q, want %q", got, want)
	}
	pos, err := end.Position(j)
	if err != nil {
		t.Fatalf("Position() = %v", err)
	}
	if got, want := pos, 2; got != want {
		t.Fatalf("breakend position = %d, want %d", got, want)
	}
	if err := j.checkInvariants(); err != nil {
		t.Fatalf("checkInvariants() = %v", err)
	}
}

func TestRecordInsertAtBeginning(t *testing.T) {
	j := New([]byte("ACGT"))
	if _, err := j.Record(breakpoint.Breakpoint{Low: 0, High: 0}, []byte("TT")); err != nil {
		t.Fatalf("Record() = %v", err)
	}
	if got, want := string(j.Bytes()), "TTACGT"; got != want {
		t.Fatalf("Bytes() = %q, want %q", got, want)
	}
}

func TestRecordInsertAtEnd(t *testing.T) {
	j := New([]byte("ACGT"))
	end, err := j.Record(breakpoint.Breakpoint{Low: 4, High: 4}, []byte("TT"))
	if err != nil {
		t.Fatalf("Record() = %v", err)
	}
	if got, want := string(j.Bytes()), "ACGTTT"; got != want {
		t.Fatalf("Bytes() = %q, want %q", got, want)
	}
	pos, _ := end.Position(j)
	if got, want := pos, 4; got != want {
		t.Fatalf("breakend position = %d, want %d", got, want)
	}
}

func TestRecordDeleteMiddle(t *testing.T) {
	j := New([]byte("ACGTACGT"))
	end, err := j.Record(breakpoint.Breakpoint{Low: 2, High: 6}, nil)
	if err != nil {
		t.Fatalf("Record() = %v", err)
	}
	if got, want := string(j.Bytes()), "ACGT"; got != want {
		t.Fatalf("Bytes() = %q, want %q", got, want)
	}
	pos, _ := end.Position(j)
	if got, want := pos, 2; got != want {
		t.Fatalf("breakend position = %d, want %d", got, want)
	}
}

func TestRecordDeleteEntireSequence(t *testing.T) {
	j := New([]byte("ACGT"))
	if _, err := j.Record(breakpoint.Breakpoint{Low: 0, High: 4}, nil); err != nil {
		t.Fatalf("Record() = %v", err)
	}
	if got, want := j.Size(), 0; got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}
	if got, want := string(j.Bytes()), ""; got != want {
		t.Fatalf("Bytes() = %q, want %q", got, want)
	}
	if err := j.checkInvariants(); err != nil {
		t.Fatalf("checkInvariants() = %v", err)
	}
}

func TestRecordReplaceSpan(t *testing.T) {
	j := New([]byte("ACGTACGT"))
	if _, err := j.Record(breakpoint.Breakpoint{Low: 1, High: 3}, []byte("TTTT")); err != nil {
		t.Fatalf("Record() = %v", err)
	}
	if got, want := string(j.Bytes()), "ATTTTTACGT"; got != want {
		t.Fatalf("Bytes() = %q, want %q", got, want)
	}
}

func TestRecordChainedEditsRemainContiguous(t *testing.T) {
	j := New([]byte("ACGTACGTACGT"))
	if _, err := j.Record(breakpoint.Breakpoint{Low: 4, High: 8}, []byte("NN")); err != nil {
		t.Fatalf("Record() = %v", err)
	}
	if _, err := j.Record(breakpoint.Breakpoint{Low: 0, High: 0}, []byte("GG")); err != nil {
		t.Fatalf("Record() = %v", err)
	}
	if got, want := string(j.Bytes()), "GGACGTNNACGT"; got != want {
		t.Fatalf("Bytes() = %q, want %q", got, want)
	}
	if err := j.checkInvariants(); err != nil {
		t.Fatalf("checkInvariants() = %v", err)
	}
}

func TestSliceAcrossRecords(t *testing.T) {
	j := New([]byte("ACGT"))
	if _, err := j.Record(breakpoint.Breakpoint{Low: 2, High: 2}, []byte("TGCA")); err != nil {
		t.Fatalf("Record() = %v", err)
	}
	got, err := j.Slice(1, 6)
	if err != nil {
		t.Fatalf("Slice() = %v", err)
	}
	if want := "CTGCA"; string(got) != want {
		t.Fatalf("Slice(1, 6) = %q, want %q", got, want)
	}
}

func TestLocateOutOfRange(t *testing.T) {
	j := New([]byte("ACGT"))
	if _, err := j.Locate(-1); err != ErrOutOfRange {
		t.Fatalf("Locate(-1) = %v, want ErrOutOfRange", err)
	}
	if _, err := j.Locate(5); err != ErrOutOfRange {
		t.Fatalf("Locate(5) = %v, want ErrOutOfRange", err)
	}
	if _, err := j.Locate(4); err != nil {
		t.Fatalf("Locate(Size()) = %v, want nil", err)
	}
}

func TestBreakendInvalidatedByMutation(t *testing.T) {
	j := New([]byte("ACGT"))
	end, err := j.Locate(1)
	if err != nil {
		t.Fatalf("Locate() = %v", err)
	}
	if _, err := j.Record(breakpoint.Breakpoint{Low: 0, High: 0}, []byte("A")); err != nil {
		t.Fatalf("Record() = %v", err)
	}
	if _, err := end.Position(j); err != ErrJournalMutated {
		t.Fatalf("Position() = %v, want ErrJournalMutated", err)
	}
}

func TestFindLowerUpperBound(t *testing.T) {
	j := New([]byte("ACGT"))
	if _, err := j.Record(breakpoint.Breakpoint{Low: 2, High: 2}, []byte("TT")); err != nil {
		t.Fatalf("Record() = %v", err)
	}
	// Records now start at positions 0, 2, 4 (AC | TT | GT).
	if got, want := j.Find(3), 1; got != want {
		t.Fatalf("Find(3) = %d, want %d", got, want)
	}
	if got, want := j.LowerBound(2), 1; got != want {
		t.Fatalf("LowerBound(2) = %d, want %d", got, want)
	}
	if got, want := j.UpperBound(2), 2; got != want {
		t.Fatalf("UpperBound(2) = %d, want %d", got, want)
	}
}
