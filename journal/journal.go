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

// Package journal implements the inline sequence journal: a sorted
// partition of a derived sequence into non-overlapping slices that can be
// edited in place without touching the original source bytes.
package journal

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vartree/jst/breakpoint"
)

// Debug gates the O(n) invariant scan performed after every mutation. It
// defaults to true so tests exercise the checks; release binaries that have
// already been validated by the test suite may set it to false to skip the
// scan on every edit.
var Debug = true

// Errors returned by this package, per spec.md §7.
var (
	// ErrInvalidBreakend is returned when a Breakend does not belong to the
	// Journal it is used with.
	ErrInvalidBreakend = errors.New("journal: invalid breakend")
	// ErrOutOfRange is returned when a position lies outside [0, Size()).
	ErrOutOfRange = errors.New("journal: position out of range")
	// ErrJournalMutated is returned when a Breakend obtained before a
	// mutation is used afterwards.
	ErrJournalMutated = errors.New("journal: journal mutated since breakend was obtained")
)

// record is one entry of the journal: the position of its first character
// in the derived sequence, and the slice of bytes it contributes.
type record struct {
	position int
	slice    breakpoint.Slice
}

// Journal is a sorted sequence of records partitioning a derived sequence
// into non-overlapping slices (spec.md §4.2). The last record is always a
// zero-length sentinel positioned at Size().
type Journal struct {
	records    []record
	generation uint64
}

// New returns a Journal whose derived sequence equals ref. The bytes of ref
// are never copied; the journal only ever holds a view over them until an
// edit splits that view into smaller slices.
func New(ref []byte) *Journal {
	j := &Journal{}
	if len(ref) > 0 {
		j.records = append(j.records, record{position: 0, slice: breakpoint.FromReference(ref, 0, len(ref))})
	}
	j.records = append(j.records, record{position: len(ref), slice: breakpoint.Empty()})
	return j
}

// Size returns the length of the derived sequence, excluding the sentinel.
func (j *Journal) Size() int {
	return j.records[len(j.records)-1].position
}

// Breakend identifies a single position in a Journal's derived sequence: a
// record index plus an offset into that record's slice. It is invalidated
// by any mutation of the Journal that produced it.
type Breakend struct {
	j          *Journal
	generation uint64
	index      int
	offset     int
}

// Position converts the breakend to a global position in the derived
// sequence. It returns ErrInvalidBreakend if the breakend does not belong to
// j, and ErrJournalMutated if j has been mutated since the breakend was
// obtained.
func (b Breakend) Position(j *Journal) (int, error) {
	if b.j != j {
		return 0, ErrInvalidBreakend
	}
	if b.generation != j.generation {
		return 0, ErrJournalMutated
	}
	return j.records[b.index].position + b.offset, nil
}

// Locate returns the Breakend identifying position k in the derived
// sequence. k must satisfy 0 <= k <= Size().
func (j *Journal) Locate(k int) (Breakend, error) {
	if k < 0 || k > j.Size() {
		return Breakend{}, ErrOutOfRange
	}
	idx := j.findRecordContaining(k)
	return Breakend{j: j, generation: j.generation, index: idx, offset: k - j.records[idx].position}, nil
}

// findRecordContaining returns the index of the record containing position
// k: the last record (including the sentinel, if k == Size()) whose
// position is <= k.
func (j *Journal) findRecordContaining(k int) int {
	// The sentinel (last element) always has position == Size(); for k ==
	// Size() it is the answer. Otherwise search within the real records.
	n := len(j.records)
	i := sort.Search(n, func(i int) bool { return j.records[i].position > k })
	return i - 1
}

// LowerBound returns the index of the first real (non-sentinel) record
// whose position is not less than key, or the count of real records if
// there is none.
func (j *Journal) LowerBound(key int) int {
	n := len(j.records) - 1 // exclude sentinel
	return sort.Search(n, func(i int) bool { return j.records[i].position >= key })
}

// UpperBound returns the index of the first real (non-sentinel) record
// whose position is greater than key.
func (j *Journal) UpperBound(key int) int {
	n := len(j.records) - 1 // exclude sentinel
	return sort.Search(n, func(i int) bool { return j.records[i].position > key })
}

// Find returns the index of the last real (non-sentinel) record whose
// position is <= key, i.e. the record containing key (spec.md §4.2).
func (j *Journal) Find(key int) int {
	ub := j.UpperBound(key)
	return ub - 1
}

// Generation returns the number of mutations applied to j so far. Callers
// that cache positions derived from the journal can use it to detect
// staleness without going through a Breakend.
func (j *Journal) Generation() uint64 {
	return j.generation
}

// RecordCount returns the number of real (non-sentinel) records.
func (j *Journal) RecordCount() int {
	return len(j.records) - 1
}

// SliceAt returns the bytes of the real record at index i.
func (j *Journal) SliceAt(i int) []byte {
	return j.records[i].slice.Bytes()
}

// PositionAt returns the derived-sequence position of the real record at
// index i.
func (j *Journal) PositionAt(i int) int {
	return j.records[i].position
}

// Bytes materializes the entire derived sequence by concatenating every
// record's slice in order. It is provided for tests and small sequences;
// large callers should prefer Slice to avoid the allocation.
func (j *Journal) Bytes() []byte {
	out := make([]byte, 0, j.Size())
	for i := 0; i < len(j.records)-1; i++ {
		out = append(out, j.records[i].slice.Bytes()...)
	}
	return out
}

// Slice returns the bytes of the derived sequence in [low, high).
func (j *Journal) Slice(low, high int) ([]byte, error) {
	if low < 0 || high > j.Size() || low > high {
		return nil, ErrOutOfRange
	}
	out := make([]byte, 0, high-low)
	idx := j.findRecordContaining(low)
	for pos := low; pos < high; {
		rec := j.records[idx]
		recEnd := rec.position + rec.slice.Len()
		end := high
		if recEnd < end {
			end = recEnd
		}
		start := pos - rec.position
		out = append(out, rec.slice.Bytes()[start:start+(end-pos)]...)
		pos = end
		idx++
	}
	return out, nil
}

// Record overwrites the span identified by bp with newSeq, following the
// five steps of spec.md §4.2:
//
//  1. split the record at bp.Low and at bp.High,
//  2. drop every record strictly between the two splits,
//  3. overwrite the high split's slot with its suffix (preserving sentinel
//     identity when bp.High == Size()),
//  4. insert the non-empty low prefix (if any) followed by newSeq (if
//     non-empty) into the resulting gap,
//  5. shift the position of every remaining record by
//     len(newSeq) - bp.Span().
//
// It returns a Breakend pointing at the first newly inserted record, or at
// the high split's suffix if newSeq is empty.
func (j *Journal) Record(bp breakpoint.Breakpoint, newSeq []byte) (Breakend, error) {
	low, high := int(bp.Low), int(bp.High)
	if low > high || low < 0 || high > j.Size() {
		return Breakend{}, ErrOutOfRange
	}

	lowIdx := j.findRecordContaining(low)
	highIdx := j.findRecordContaining(high)

	lowRec := j.records[lowIdx]
	lowOffset := low - lowRec.position
	lowPrefix, _ := lowRec.slice.Split(lowOffset)
	lowSuffixPos := lowRec.position + lowOffset

	highRec := j.records[highIdx]
	highOffset := high - highRec.position
	_, highSuffix := highRec.slice.Split(highOffset)
	highSuffixPos := highRec.position + highOffset

	var inserted []record
	if lowPrefix.Len() > 0 {
		inserted = append(inserted, record{position: lowRec.position, slice: lowPrefix})
	}
	insertionLen := len(newSeq)
	literalIdx := -1
	if insertionLen > 0 {
		literalIdx = lowIdx + len(inserted)
		inserted = append(inserted, record{position: lowSuffixPos, slice: breakpoint.FromLiteral(newSeq, 0, insertionLen)})
	}

	j.records[highIdx] = record{position: highSuffixPos, slice: highSuffix}

	head := j.records[:lowIdx]
	tail := j.records[highIdx:]
	merged := make([]record, 0, len(head)+len(inserted)+len(tail))
	merged = append(merged, head...)
	merged = append(merged, inserted...)
	merged = append(merged, tail...)
	j.records = merged

	highSuffixIdx := lowIdx + len(inserted)
	offset := insertionLen - (high - low)
	if offset != 0 {
		for i := highSuffixIdx; i < len(j.records); i++ {
			j.records[i].position += offset
		}
	}

	j.generation++

	if Debug {
		if err := j.checkInvariants(); err != nil {
			panic(fmt.Sprintf("journal: invariant violated: %v", err))
		}
	}

	resultIdx := highSuffixIdx
	resultOffset := 0
	if insertionLen > 0 {
		resultIdx = literalIdx
	}
	return Breakend{j: j, generation: j.generation, index: resultIdx, offset: resultOffset}, nil
}

// checkInvariants implements spec.md §4.2's debug-only checks (P1): the
// first record starts at 0, adjacent records are contiguous, and the
// sentinel sits at Size() with an empty slice.
func (j *Journal) checkInvariants() error {
	if len(j.records) == 0 {
		return errors.New("journal has no records")
	}
	if j.records[0].position != 0 {
		return fmt.Errorf("first record position = %d, want 0", j.records[0].position)
	}
	for i := 0; i+1 < len(j.records); i++ {
		want := j.records[i].position + j.records[i].slice.Len()
		got := j.records[i+1].position
		if got != want {
			return fmt.Errorf("record %d ends at %d, record %d starts at %d", i, want, i+1, got)
		}
	}
	last := j.records[len(j.records)-1]
	if last.slice.Len() != 0 {
		return errors.New("sentinel record is non-empty")
	}
	return nil
}
