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

// Package sequence implements a journaled sequence: a mutable view over a
// source sequence that records edits in a journal instead of rewriting the
// source, the way the teacher's bgzf readers view an underlying byte stream
// without copying it (spec.md §4.2's supplemented JournaledSequence
// feature).
package sequence

import (
	"errors"

	"github.com/vartree/jst/breakpoint"
	"github.com/vartree/jst/journal"
)

// ErrStale is returned when an Iterator obtained before an edit is used
// afterwards.
var ErrStale = errors.New("sequence: iterator stale, sequence was mutated")

// Iterator addresses a single position of a JournaledSequence. It is a
// value type stamped with the generation the sequence had when it was
// obtained; using it after a further edit returns ErrStale.
type Iterator struct {
	position   int
	generation uint64
}

// Position returns the integer offset this iterator addresses.
func (it Iterator) Position() int { return it.position }

// JournaledSequence is a sequence that supports Insert, Erase and Replace
// without ever mutating the original source bytes: every edit is recorded
// as a new journal entry, and existing entries are only ever split, never
// rewritten in place (see original_source/test/api/libjst/sequence's
// journaled_sequence_test.cpp, which this package's semantics are grounded
// on).
type JournaledSequence struct {
	j *journal.Journal
}

// New returns a JournaledSequence initially identical to source. The bytes
// of source are not copied and must not be mutated by the caller afterwards.
func New(source []byte) *JournaledSequence {
	return &JournaledSequence{j: journal.New(source)}
}

// Len returns the number of bytes the sequence currently holds.
func (s *JournaledSequence) Len() int { return s.j.Size() }

// Begin returns an iterator to the first position of the sequence.
func (s *JournaledSequence) Begin() Iterator {
	return Iterator{position: 0, generation: s.j.Generation()}
}

// End returns an iterator one past the last position of the sequence.
func (s *JournaledSequence) End() Iterator {
	return Iterator{position: s.j.Size(), generation: s.j.Generation()}
}

// At returns the iterator addressing the i-th position of the sequence.
func (s *JournaledSequence) At(i int) (Iterator, error) {
	if i < 0 || i > s.j.Size() {
		return Iterator{}, journal.ErrOutOfRange
	}
	return Iterator{position: i, generation: s.j.Generation()}, nil
}

// check validates that it was obtained from s's current generation.
func (s *JournaledSequence) check(it Iterator) error {
	if it.generation != s.j.Generation() {
		return ErrStale
	}
	return nil
}

// Bytes returns the bytes addressed by [first, last).
func (s *JournaledSequence) Bytes(first, last Iterator) ([]byte, error) {
	if err := s.check(first); err != nil {
		return nil, err
	}
	if err := s.check(last); err != nil {
		return nil, err
	}
	return s.j.Slice(first.position, last.position)
}

// All returns every byte currently held by the sequence.
func (s *JournaledSequence) All() []byte {
	return s.j.Bytes()
}

// Insert records seq at the position addressed by at, without removing any
// existing bytes. It returns an iterator addressing the first inserted
// byte, and invalidates every other iterator previously obtained from s.
func (s *JournaledSequence) Insert(at Iterator, seq []byte) (Iterator, error) {
	if err := s.check(at); err != nil {
		return Iterator{}, err
	}
	return s.record(at.position, at.position, seq)
}

// Erase removes the bytes addressed by [first, last) and returns an
// iterator addressing the position immediately following the erased span.
func (s *JournaledSequence) Erase(first, last Iterator) (Iterator, error) {
	if err := s.check(first); err != nil {
		return Iterator{}, err
	}
	if err := s.check(last); err != nil {
		return Iterator{}, err
	}
	return s.record(first.position, last.position, nil)
}

// Replace overwrites the bytes addressed by [first, last) with seq and
// returns an iterator addressing the first byte of seq (or the position
// following the replaced span, if seq is empty).
func (s *JournaledSequence) Replace(first, last Iterator, seq []byte) (Iterator, error) {
	if err := s.check(first); err != nil {
		return Iterator{}, err
	}
	if err := s.check(last); err != nil {
		return Iterator{}, err
	}
	return s.record(first.position, last.position, seq)
}

func (s *JournaledSequence) record(low, high int, seq []byte) (Iterator, error) {
	end, err := s.j.Record(breakpoint.Breakpoint{Low: uint64(low), High: uint64(high)}, seq)
	if err != nil {
		return Iterator{}, err
	}
	pos, err := end.Position(s.j)
	if err != nil {
		return Iterator{}, err
	}
	return Iterator{position: pos, generation: s.j.Generation()}, nil
}
