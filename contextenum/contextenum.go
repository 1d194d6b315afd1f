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

// Package contextenum enumerates every distinct length-w window present in
// at least one sample's reconstructed sequence, by sliding the window
// across the cargo stream a traverser produces (spec.md §4.7).
package contextenum

import (
	"github.com/vartree/jst/coverage"
	"github.com/vartree/jst/traverse"
	"github.com/vartree/jst/tree"
)

// Window is one emission of the enumerator: w bytes of context, the
// samples that carry it, and the coordinate it starts at (the label of the
// node it was cut from, with ReferencePosition offset by the window's
// distance from that node's own run).
type Window struct {
	Bytes      []byte
	Coverage   coverage.Set
	Coordinate tree.Coordinate
}

// Enumerator slides a length-w window across a traversal, grounded on the
// pipeline spec.md §4.5 names: base | labelled | coloured | trim(w-1) |
// prune | left_extend(w-1) | merge | seek. Because that pipeline already
// bounds each branch to at most w-1 bytes past its last event and prepends
// w-1 bytes of left context at every branch point, windowing each cargo in
// isolation is sufficient: every window that can occur either lies wholly
// within one node's own run, or straddles a branch point and is covered by
// that branch's left-extended prefix. Windows wholly inside a prefix are
// skipped, since they were already emitted (at the correct coordinate)
// while visiting the ancestor the prefix was copied from.
type Enumerator struct {
	w        int
	walker   *traverse.Traverser
	pending  []Window
	emitted  map[string]bool
}

// New returns an Enumerator over t (expected to already carry the full
// adapter pipeline) with window size w.
func New(t tree.Tree, w int) *Enumerator {
	return &Enumerator{w: w, walker: traverse.New(t), emitted: make(map[string]bool)}
}

// Next returns the next window whose coverage is non-empty, or false once
// the traversal (and any windows it produced) is exhausted. Each distinct
// (window bytes, coordinate) pair is returned at most once across the
// whole enumeration (spec.md §4.7).
func (e *Enumerator) Next() (Window, bool) {
	for {
		if len(e.pending) > 0 {
			w := e.pending[0]
			e.pending = e.pending[1:]
			return w, true
		}
		if !e.walker.Advance() {
			return Window{}, false
		}
		cargo := e.walker.Cargo()
		e.pending = windowsFromCargo(cargo, e.w, e.emitted)
	}
}

func windowsFromCargo(cargo traverse.Cargo, w int, emitted map[string]bool) []Window {
	if cargo.Coverage.IsEmpty() || len(cargo.Sequence) < w {
		return nil
	}
	prefixLen := cargo.ContextPrefixLen
	var out []Window
	for start := 0; start+w <= len(cargo.Sequence); start++ {
		// A window wholly inside the left-context prefix was already
		// emitted while visiting the ancestor node those bytes came from;
		// skip it here rather than report it at the wrong coordinate.
		if start+w <= prefixLen {
			continue
		}
		b := cargo.Sequence[start : start+w]
		coord := cargo.Position
		// cargo.Position tags the first byte of the node's own run, i.e.
		// Sequence[prefixLen]; offset the signed distance from there, not
		// from Sequence[0], since LeftExtend's prefix precedes it.
		delta := int64(start) - int64(prefixLen)
		coord.ReferencePosition = uint64(int64(coord.ReferencePosition) + delta)
		key := string(b) + "\x00" + coordKey(coord)
		if emitted[key] {
			continue
		}
		emitted[key] = true
		out = append(out, Window{Bytes: append([]byte(nil), b...), Coverage: cargo.Coverage, Coordinate: coord})
	}
	return out
}

func coordKey(c tree.Coordinate) string {
	buf := make([]byte, 0, 16)
	buf = appendUint64(buf, c.ReferencePosition)
	buf = append(buf, '/')
	buf = appendUint64(buf, uint64(c.Label))
	return string(buf)
}

func appendUint64(buf []byte, v uint64) []byte {
	if v == 0 {
		return append(buf, '0')
	}
	var tmp [20]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(buf, tmp[i:]...)
}

// All drains e, returning every window it produces.
func All(t tree.Tree, w int) []Window {
	e := New(t, w)
	var out []Window
	for {
		win, ok := e.Next()
		if !ok {
			return out
		}
		out = append(out, win)
	}
}
