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

// Package jst is the facade tying the reference, events, tree adapters,
// traverser and context enumerator together into the pipeline spec.md §4.5
// names: base | labelled | coloured | trim(w-1) | prune | left_extend(w-1)
// | merge | seek.
package jst

import (
	"fmt"

	"github.com/vartree/jst/contextenum"
	"github.com/vartree/jst/event"
	"github.com/vartree/jst/traverse"
	"github.com/vartree/jst/tree"
)

// Tree is a built journaled sequence tree over one reference, ready to be
// adapted with WithPipeline for windowed enumeration, or queried directly
// for per-sample reconstruction via SequenceAt.
type Tree struct {
	ref         []byte
	events      *event.Store
	n           int
	base        tree.Tree
	reconstruct tree.Seekable
}

// Build constructs the base tree over ref, the given events and sample
// count n.
func Build(ref []byte, events *event.Store, n int) *Tree {
	base := tree.NewRootTree(ref, events, n)
	// SequenceAt needs exact reconstruction, so it runs against a labelled,
	// coloured, pruned, seekable tree that has not been lossily capped by
	// Trim or duplicated by LeftExtend — those two only make sense relative
	// to a window size, which windowed enumeration supplies via
	// WithPipeline. Labelled still runs first so PositionsAt's coordinates
	// are unique.
	reconstruct := tree.SeekWith()(tree.Prune(tree.Coloured(tree.Labelled(base))))
	return &Tree{ref: ref, events: events, n: n, base: base, reconstruct: reconstruct.(tree.Seekable)}
}

// SampleCount returns the number of samples the tree was built over.
func (t *Tree) SampleCount() int { return t.n }

// SequenceAt resolves the byte at derivedPos in sample's reconstructed
// sequence.
func (t *Tree) SequenceAt(sample int, derivedPos uint64) (byte, error) {
	n, offset, err := t.reconstruct.Seek(sample, derivedPos)
	if err != nil {
		return 0, err
	}
	seq := n.Sequence()
	if offset >= len(seq) {
		return 0, fmt.Errorf("jst: position %d for sample %d resolves to an empty node", derivedPos, sample)
	}
	return seq[offset], nil
}

// SequenceRangeAt resolves [from, to) in sample's reconstructed sequence.
func (t *Tree) SequenceRangeAt(sample int, from, to uint64) ([]byte, error) {
	if to < from {
		return nil, fmt.Errorf("jst: invalid range [%d, %d)", from, to)
	}
	out := make([]byte, 0, to-from)
	for p := from; p < to; p++ {
		b, err := t.SequenceAt(sample, p)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// SequencePositionsAt resolves an opaque coordinate produced by a traversal
// of t back into the derived-sequence offset it occupies in every sample
// whose path passes through it.
func (t *Tree) SequencePositionsAt(c tree.Coordinate) ([]tree.SamplePosition, error) {
	return tree.PositionsAt(t.reconstruct, c)
}

// PipelinedTree is a Tree adapted with the full reference pipeline for a
// given window size, ready for windowed context enumeration.
type PipelinedTree struct {
	w    int
	tree tree.Tree
}

// WithPipeline applies the reference adapter composition for window size w
// and returns the result, ready for ContextEnumerator.
func (t *Tree) WithPipeline(w int) (*PipelinedTree, error) {
	if w <= 0 {
		return nil, fmt.Errorf("jst: window size must be positive, got %d", w)
	}
	tt := tree.Labelled(t.base)
	tt = tree.Coloured(tt)
	tt = tree.Trim(w - 1)(tt)
	tt = tree.Prune(tt)
	tt = tree.LeftExtend(w - 1)(tt)
	tt = tree.Merge(tt)
	tt = tree.SeekWith()(tt)
	return &PipelinedTree{w: w, tree: tt}, nil
}

// ContextEnumerator returns an enumerator over every distinct length-w
// window the pipelined tree produces, per spec.md §4.7.
func (pt *PipelinedTree) ContextEnumerator() *contextenum.Enumerator {
	return contextenum.New(pt.tree, pt.w)
}

// Windows drains ContextEnumerator, returning every window it produces.
func (pt *PipelinedTree) Windows() []contextenum.Window {
	return contextenum.All(pt.tree, pt.w)
}

// Traverse returns a Traverser over the pipelined tree, for callers (a
// q-gram or pigeonhole filter, for instance) that need the raw cargo
// stream rather than ContextEnumerator's windowing (spec.md §6's External
// Interfaces).
func (pt *PipelinedTree) Traverse() *traverse.Traverser {
	return traverse.New(pt.tree)
}

// SequencePositionsAt resolves a coordinate produced by this pipeline's
// Windows or ContextEnumerator back into the derived-sequence offset it
// occupies in every sample whose path passes through it. A coordinate
// obtained from this PipelinedTree must be resolved through this method,
// not through the owning Tree's SequencePositionsAt: Labelled assigns
// labels by counting traversal structure, and Trim/Prune/Merge reshape
// that structure differently than the reconstruction tree SequenceAt uses,
// so the two trees do not agree on which label tags which logical node.
func (pt *PipelinedTree) SequencePositionsAt(c tree.Coordinate) ([]tree.SamplePosition, error) {
	return tree.PositionsAt(pt.tree, c)
}
