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

// Package traverse implements the depth-first, pull-based walk over a
// journaled sequence tree described in spec.md §4.6.
package traverse

import (
	"github.com/vartree/jst/coverage"
	"github.com/vartree/jst/tree"
)

// State identifies where a Traverser currently is in its state machine.
type State int

const (
	// Start is the initial state, before the first call to Advance.
	Start State = iota
	// AtNode indicates Cargo() reflects a freshly visited node.
	AtNode
	// End is the terminal state; Advance is idempotent once reached.
	End
)

// Cargo is produced at every visited node: the bytes it contributes, its
// active coverage, and the coordinate that Seek can resolve further.
// ContextPrefixLen is the number of leading Sequence bytes that are left
// context prepended by LeftExtend rather than the node's own run; Position
// refers to the first byte after that prefix, not to Sequence[0].
type Cargo struct {
	Sequence         []byte
	Coverage         coverage.Set
	Position         tree.Coordinate
	ContextPrefixLen int
}

// Traverser is a pull iterator over a Tree. Parent nodes are visited before
// their children; siblings are visited in the order Children returns them,
// which places alternates before the reference continuation (spec.md
// §4.6). The consumer cancels a traversal simply by no longer calling
// Advance; there is no asynchronous abort.
type Traverser struct {
	state   State
	stack   [][]tree.Node
	current tree.Node
}

// New returns a Traverser positioned at Start, over t.
func New(t tree.Tree) *Traverser {
	return &Traverser{state: Start, stack: [][]tree.Node{{t.Root()}}}
}

// State reports the traverser's current state.
func (tr *Traverser) State() State { return tr.state }

// Advance moves to the next node in depth-first, parent-before-children
// order. It returns false once the traversal is exhausted, after which the
// traverser is in the End state and further calls keep returning false.
func (tr *Traverser) Advance() bool {
	for len(tr.stack) > 0 {
		top := tr.stack[len(tr.stack)-1]
		if len(top) == 0 {
			tr.stack = tr.stack[:len(tr.stack)-1]
			continue
		}
		node := top[0]
		tr.stack[len(tr.stack)-1] = top[1:]
		tr.current = node
		tr.state = AtNode
		if children := node.Children(); len(children) > 0 {
			tr.stack = append(tr.stack, children)
		}
		return true
	}
	tr.state = End
	tr.current = nil
	return false
}

// Cargo returns the payload of the node Advance most recently visited. It
// panics if called before the first Advance or after the traversal ended.
func (tr *Traverser) Cargo() Cargo {
	if tr.current == nil {
		panic("traverse: Cargo called outside AtNode state")
	}
	var prefixLen int
	if cp, ok := tr.current.(tree.ContextPrefixer); ok {
		prefixLen = cp.ContextPrefixLen()
	}
	return Cargo{
		Sequence:         tr.current.Sequence(),
		Coverage:         tr.current.Coverage(),
		Position:         tr.current.Position(),
		ContextPrefixLen: prefixLen,
	}
}
