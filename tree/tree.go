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

// Package tree builds the journaled sequence tree over a reference and its
// shared edit events, and provides the composable adapters that shape it
// for traversal (spec.md §4.5).
package tree

import (
	"errors"
	"strings"

	"github.com/vartree/jst/coverage"
	"github.com/vartree/jst/event"
)

// ErrSeekOutOfRange is returned by Seekable.Seek when the requested
// derived position does not lie within the sample's reconstructed sequence.
var ErrSeekOutOfRange = errors.New("tree: seek position out of range for sample")

// Kind distinguishes a node contributing literal reference bytes from one
// contributing an event's payload.
type Kind int

const (
	// RefNode contributes a span of the reference sequence.
	RefNode Kind = iota
	// EventNode contributes an event's payload (a substitution or
	// insertion; deletions contribute an empty payload).
	EventNode
)

// Coordinate is the opaque position a node's cargo is tagged with. It can
// be resolved into per-sample positions by Seek.
type Coordinate struct {
	// ReferencePosition is the reference coordinate this node starts at.
	ReferencePosition uint64
	// Label is assigned by the Labelled adapter; zero if not applied.
	Label int
}

// Node is a single vertex of the journaled sequence tree.
type Node interface {
	// Sequence returns the bytes this node contributes.
	Sequence() []byte
	// Coverage returns the samples reaching this node. Its exact meaning
	// depends on which adapters have been applied: on the base tree it is
	// the edge coverage relative to the parent; after Coloured it is the
	// cumulative active coverage along the whole path.
	Coverage() coverage.Set
	// Children returns this node's children, in visit order: alternates
	// before the reference continuation, per spec.md §4.6.
	Children() []Node
	// Position returns this node's coordinate.
	Position() Coordinate
	// Kind reports whether this node is a reference span or an event
	// payload.
	Kind() Kind
}

// Tree is a journaled sequence tree, or one of its adapted views.
type Tree interface {
	Root() Node
}

// baseNode is the unadapted tree: every Coverage() is the edge coverage
// relative to the parent, not yet intersected with ancestors.
type baseNode struct {
	ref        []byte
	events     []event.Event
	seq        []byte // non-nil for EventNode; nil means derive from ref[refStart:refEnd]
	refStart   uint64
	refEnd     uint64
	eventIndex int
	coverage   coverage.Set
	kind       Kind
}

func (n *baseNode) Sequence() []byte {
	if n.seq != nil || n.kind == EventNode {
		return n.seq
	}
	return n.ref[n.refStart:n.refEnd]
}

func (n *baseNode) Coverage() coverage.Set { return n.coverage }

func (n *baseNode) Position() Coordinate { return Coordinate{ReferencePosition: n.refStart} }

func (n *baseNode) Kind() Kind { return n.kind }

func (n *baseNode) Children() []Node {
	if n.kind == EventNode {
		return []Node{newGapNode(n.ref, n.events, n.refEnd, n.eventIndex, n.coverage)}
	}
	if n.eventIndex >= len(n.events) {
		return nil
	}
	if n.events[n.eventIndex].Position != n.refEnd {
		return nil
	}
	return branchChildren(n.ref, n.events, n.refEnd, n.eventIndex, n.coverage)
}

// newGapNode returns the reference-contributing node that begins at
// refFrom, extending up to the next unconsidered event (or the end of the
// reference).
func newGapNode(ref []byte, events []event.Event, refFrom uint64, eventIndex int, cov coverage.Set) *baseNode {
	refTo := uint64(len(ref))
	if eventIndex < len(events) {
		refTo = events[eventIndex].Position
	}
	return &baseNode{
		ref: ref, events: events,
		refStart: refFrom, refEnd: refTo,
		eventIndex: eventIndex, coverage: cov, kind: RefNode,
	}
}

// branchChildren folds over every event anchored at boundaryPos (there may
// be several, e.g. a co-located insertion and deletion), producing one
// alternate child per event followed by exactly one reference-continuation
// child (spec.md §4.5).
func branchChildren(ref []byte, events []event.Event, boundaryPos uint64, startIdx int, cov coverage.Set) []Node {
	afterRun := startIdx
	for afterRun < len(events) && events[afterRun].Position == boundaryPos {
		afterRun++
	}

	var children []Node
	running := cov
	for idx := startIdx; idx < afterRun; idx++ {
		ev := events[idx]
		altCov := running.Intersect(ev.Coverage)
		refAfter := ev.End()
		if ev.Kind == event.Insertion {
			refAfter = boundaryPos
		}
		// Taking this alternate rules out every other event co-located at
		// the same boundary: the continuation resumes scanning for events
		// strictly after the whole co-located run, not merely after ev.
		children = append(children, &baseNode{
			ref: ref, events: events,
			seq: ev.Payload, refStart: boundaryPos, refEnd: refAfter,
			eventIndex: afterRun, coverage: altCov, kind: EventNode,
		})
		running = running.Difference(ev.Coverage)
	}
	children = append(children, newGapNode(ref, events, boundaryPos, afterRun, running))
	return children
}

// baseTree is the unadapted journaled sequence tree.
type baseTree struct {
	ref    []byte
	events []event.Event
	root   *baseNode
}

// NewRootTree builds the base tree over ref and events, covering n samples.
// The root's coverage is "all samples".
func NewRootTree(ref []byte, store *event.Store, n int) Tree {
	all := coverage.FromSamples(n, allIndices(n))
	var events []event.Event
	if store != nil {
		events = store.All()
	}
	root := newGapNode(ref, events, 0, 0, all)
	return &baseTree{ref: ref, events: events, root: root}
}

func (t *baseTree) Root() Node { return t.root }

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// unionSets combines two coverage sets. It requires both to be *coverage.
// Dense, the only representation this module ships (coverage.Set.Union is
// deliberately not part of the public interface; see coverage.Dense.Union).
func unionSets(a, b coverage.Set) coverage.Set {
	da, ok := a.(*coverage.Dense)
	if !ok {
		panic("tree: coverage representation must be *coverage.Dense")
	}
	return da.Union(b)
}

// ---- Labelled ------------------------------------------------------------

type labelledTree struct {
	inner   Tree
	counter *int
}

type labelledNode struct {
	inner Node
	tree  *labelledTree
	label int
}

// Labelled augments every node with a monotonically increasing label,
// assigned in visitation order as Children is called (spec.md §4.5).
// Numbering restarts at every Root call, so walks that call Children in the
// same order see the same labels.
func Labelled(t Tree) Tree {
	c := 0
	return &labelledTree{inner: t, counter: &c}
}

func (t *labelledTree) Root() Node {
	*t.counter = 0
	return &labelledNode{inner: t.inner.Root(), tree: t, label: 0}
}

func (n *labelledNode) Sequence() []byte      { return n.inner.Sequence() }
func (n *labelledNode) Coverage() coverage.Set { return n.inner.Coverage() }
func (n *labelledNode) Kind() Kind            { return n.inner.Kind() }
func (n *labelledNode) Position() Coordinate {
	c := n.inner.Position()
	c.Label = n.label
	return c
}
func (n *labelledNode) Children() []Node {
	kids := n.inner.Children()
	out := make([]Node, len(kids))
	for i, k := range kids {
		*n.tree.counter++
		out[i] = &labelledNode{inner: k, tree: n.tree, label: *n.tree.counter}
	}
	return out
}

// ---- Coloured -------------------------------------------------------------

type colouredTree struct{ inner Tree }

type colouredNode struct {
	inner  Node
	active coverage.Set
}

// Coloured replaces every node's Coverage() with the intersection of edge
// coverages along the path from the root (spec.md §4.5): the samples
// actually still present at this node.
func Coloured(t Tree) Tree {
	return &colouredTree{inner: t}
}

func (t *colouredTree) Root() Node {
	r := t.inner.Root()
	return &colouredNode{inner: r, active: r.Coverage()}
}

func (n *colouredNode) Sequence() []byte    { return n.inner.Sequence() }
func (n *colouredNode) Coverage() coverage.Set { return n.active }
func (n *colouredNode) Kind() Kind          { return n.inner.Kind() }
func (n *colouredNode) Position() Coordinate { return n.inner.Position() }
func (n *colouredNode) Children() []Node {
	kids := n.inner.Children()
	out := make([]Node, len(kids))
	for i, k := range kids {
		out[i] = &colouredNode{inner: k, active: n.active.Intersect(k.Coverage())}
	}
	return out
}

// ---- Trim -----------------------------------------------------------------

type trimTree struct {
	inner Tree
	w     int
}

type trimNode struct {
	inner       Node
	seq         []byte
	childBudget int
	w           int
}

// Trim returns an adapter capping every path at w reference-equivalent
// bytes past the last event (spec.md §4.5): once the budget is spent, the
// node's sequence is truncated and it reports no further children. The
// run from the tree root up to the first event is a special case: it
// precedes any event rather than following one, so the root's own bytes
// are never truncated or killed for exceeding the budget — only the
// budget handed down to its children is depleted (and floored at zero)
// by however much of it the root's run used.
func Trim(w int) func(Tree) Tree {
	return func(t Tree) Tree { return &trimTree{inner: t, w: w} }
}

func wrapTrim(n Node, budget, w int) *trimNode {
	seq := n.Sequence()
	if n.Kind() == EventNode {
		return &trimNode{inner: n, seq: seq, childBudget: w, w: w}
	}
	if len(seq) <= budget {
		return &trimNode{inner: n, seq: seq, childBudget: budget - len(seq), w: w}
	}
	return &trimNode{inner: n, seq: seq[:budget], childBudget: -1, w: w}
}

func (t *trimTree) Root() Node {
	n := t.inner.Root()
	seq := n.Sequence()
	budget := t.w - len(seq)
	if budget < 0 {
		budget = 0
	}
	return &trimNode{inner: n, seq: seq, childBudget: budget, w: t.w}
}

func (n *trimNode) Sequence() []byte       { return n.seq }
func (n *trimNode) Coverage() coverage.Set { return n.inner.Coverage() }
func (n *trimNode) Kind() Kind             { return n.inner.Kind() }
func (n *trimNode) Position() Coordinate   { return n.inner.Position() }
func (n *trimNode) Children() []Node {
	if n.childBudget < 0 {
		return nil
	}
	kids := n.inner.Children()
	out := make([]Node, len(kids))
	for i, k := range kids {
		out[i] = wrapTrim(k, n.childBudget, n.w)
	}
	return out
}

// ---- Prune ------------------------------------------------------------

type pruneTree struct{ inner Tree }

type pruneNode struct{ inner Node }

// Prune removes every subtree whose Coverage is empty (spec.md §4.5). It
// must be applied after Coloured so Coverage reflects the active, not
// merely the edge, coverage.
func Prune(t Tree) Tree { return &pruneTree{inner: t} }

func (t *pruneTree) Root() Node { return &pruneNode{inner: t.inner.Root()} }

func (n *pruneNode) Sequence() []byte     { return n.inner.Sequence() }
func (n *pruneNode) Coverage() coverage.Set { return n.inner.Coverage() }
func (n *pruneNode) Kind() Kind           { return n.inner.Kind() }
func (n *pruneNode) Position() Coordinate { return n.inner.Position() }
func (n *pruneNode) Children() []Node {
	kids := n.inner.Children()
	out := make([]Node, 0, len(kids))
	for _, k := range kids {
		if k.Coverage().IsEmpty() {
			continue
		}
		out = append(out, &pruneNode{inner: k})
	}
	return out
}

// ---- LeftExtend -------------------------------------------------------

type leftExtendTree struct {
	inner Tree
	w     int
}

type leftExtendNode struct {
	inner     Node
	resolved  []byte
	context   []byte
	prefixLen int
	w         int
}

// ContextPrefixer is implemented by nodes whose Sequence() has bytes of
// left context prepended ahead of the node's own reference/event run, so a
// consumer computing true reference positions within Sequence() knows how
// many leading bytes to discount.
type ContextPrefixer interface {
	ContextPrefixLen() int
}

// ContextPrefixLen reports how many leading bytes of Sequence() are
// context prepended by LeftExtend rather than this node's own run.
func (n *leftExtendNode) ContextPrefixLen() int { return n.prefixLen }

// LeftExtend returns an adapter that prepends up to w bytes of left
// context to every node produced at a branch point (a parent with more
// than one child), so a window-based matcher can read the full window
// ending anywhere within the branch (spec.md §4.5).
func LeftExtend(w int) func(Tree) Tree {
	return func(t Tree) Tree { return &leftExtendTree{inner: t, w: w} }
}

func wrapLeftExtend(n Node, parentContext []byte, prefixThis bool, w int) *leftExtendNode {
	raw := n.Sequence()
	resolved := raw
	prefixLen := 0
	if prefixThis && len(parentContext) > 0 {
		resolved = make([]byte, 0, len(parentContext)+len(raw))
		resolved = append(resolved, parentContext...)
		resolved = append(resolved, raw...)
		prefixLen = len(parentContext)
	}
	joined := append(append([]byte{}, parentContext...), raw...)
	context := lastBytes(joined, w)
	return &leftExtendNode{inner: n, resolved: resolved, context: context, prefixLen: prefixLen, w: w}
}

func lastBytes(b []byte, w int) []byte {
	if len(b) <= w {
		return b
	}
	return b[len(b)-w:]
}

func (t *leftExtendTree) Root() Node {
	return wrapLeftExtend(t.inner.Root(), nil, false, t.w)
}

func (n *leftExtendNode) Sequence() []byte     { return n.resolved }
func (n *leftExtendNode) Coverage() coverage.Set { return n.inner.Coverage() }
func (n *leftExtendNode) Kind() Kind           { return n.inner.Kind() }
func (n *leftExtendNode) Position() Coordinate { return n.inner.Position() }
func (n *leftExtendNode) Children() []Node {
	kids := n.inner.Children()
	branch := len(kids) > 1
	out := make([]Node, len(kids))
	for i, k := range kids {
		out[i] = wrapLeftExtend(k, n.context, branch, n.w)
	}
	return out
}

// ---- Merge --------------------------------------------------------------

// mergeNode eagerly materializes and deduplicates its subtree at wrap time:
// two sibling subtrees are merged when their sequence and (recursively)
// their own merged children are identical, per spec.md §4.5. This trades
// laziness for a straightforward correctness argument; by the time Merge
// runs in the reference pipeline, Trim and Prune have already bounded
// subtree size.
type mergeNode struct {
	inner    Node
	coverage coverage.Set
	children []Node
	sig      string
}

// Merge deduplicates observationally equivalent sibling subtrees, unioning
// their coverage so a context is reported once.
func Merge(t Tree) Tree { return &mergeTree{inner: t} }

type mergeTree struct{ inner Tree }

func (t *mergeTree) Root() Node { return wrapMerge(t.inner.Root()) }

func wrapMerge(n Node) *mergeNode {
	kids := n.Children()
	wrapped := make([]*mergeNode, len(kids))
	for i, k := range kids {
		wrapped[i] = wrapMerge(k)
	}

	order := make([]string, 0, len(wrapped))
	groups := make(map[string]*mergeNode, len(wrapped))
	for _, c := range wrapped {
		sig := c.signature()
		if existing, ok := groups[sig]; ok {
			existing.coverage = unionSets(existing.coverage, c.coverage)
			continue
		}
		groups[sig] = c
		order = append(order, sig)
	}
	merged := make([]Node, 0, len(order))
	for _, sig := range order {
		merged = append(merged, groups[sig])
	}
	return &mergeNode{inner: n, coverage: n.Coverage(), children: merged}
}

func (n *mergeNode) signature() string {
	if n.sig != "" {
		return n.sig
	}
	var b strings.Builder
	b.Write(n.inner.Sequence())
	b.WriteByte(0)
	for _, c := range n.children {
		b.WriteString(c.(*mergeNode).signature())
		b.WriteByte(0)
	}
	n.sig = b.String()
	return n.sig
}

func (n *mergeNode) Sequence() []byte       { return n.inner.Sequence() }
func (n *mergeNode) Coverage() coverage.Set { return n.coverage }
func (n *mergeNode) Kind() Kind             { return n.inner.Kind() }
func (n *mergeNode) Position() Coordinate   { return n.inner.Position() }
func (n *mergeNode) Children() []Node       { return n.children }

// ContextPrefixLen forwards to the wrapped node when it is itself
// left-extended, so Merge running after LeftExtend in the reference
// pipeline does not hide the prefix length from downstream consumers.
func (n *mergeNode) ContextPrefixLen() int {
	if cp, ok := n.inner.(ContextPrefixer); ok {
		return cp.ContextPrefixLen()
	}
	return 0
}

// ---- Seek -----------------------------------------------------------------

// Seekable is implemented by a tree adapted with SeekWith, adding the
// ability to jump directly to a sample's derived position.
type Seekable interface {
	Tree
	// Seek returns the node whose span contains derivedPos in the given
	// sample's reconstructed sequence, along with the byte offset into
	// that node's Sequence() addressing derivedPos exactly. It walks the
	// coloured, pruned tree, tracking derived-sequence length as it goes.
	Seek(sample int, derivedPos uint64) (Node, int, error)
}

type seekTree struct {
	inner Tree
}

// SeekWith returns an adapter exposing Seekable.Seek, implemented as a
// single coloured DFS walk restricted to the given sample (spec.md §4.5
// calls for an "auxiliary position index on events"; this walk is the
// straightforward realization of that index for the sizes this module
// targets).
func SeekWith() func(Tree) Tree {
	return func(t Tree) Tree { return &seekTree{inner: t} }
}

func (t *seekTree) Root() Node { return t.inner.Root() }

// Seek walks the tree along the single path sample follows, accumulating
// derived-sequence length node by node, until it finds the node whose span
// contains derivedPos.
func (t *seekTree) Seek(sample int, derivedPos uint64) (Node, int, error) {
	node := t.inner.Root()
	if !node.Coverage().Contains(sample) {
		return nil, 0, ErrSeekOutOfRange
	}
	consumed := uint64(0)
	for {
		seqLen := uint64(len(node.Sequence()))
		if derivedPos < consumed+seqLen {
			return node, int(derivedPos - consumed), nil
		}
		consumed += seqLen

		var next Node
		for _, k := range node.Children() {
			if k.Coverage().Contains(sample) {
				next = k
				break
			}
		}
		if next == nil {
			if derivedPos == consumed {
				return node, int(seqLen), nil
			}
			return nil, 0, ErrSeekOutOfRange
		}
		node = next
	}
}

// SamplePosition pairs a sample with the offset its reconstructed sequence
// reaches a given coordinate at.
type SamplePosition struct {
	Sample int
	Offset int
}

// PositionsAt resolves coordinate c, as tagged onto Cargo by a traversal or
// onto a contextenum.Window, back into the derived-sequence offset it
// occupies in every sample whose path passes through it (spec.md §6's
// Tree.sequence_positions_at). A window coordinate carries the label of the
// node it was cut from and a ReferencePosition shifted by the window's
// distance from that node's own run. t must be coloured so node coverage
// reflects each node's active samples.
func PositionsAt(t Tree, c Coordinate) ([]SamplePosition, error) {
	target, ok := findNodeByCoordinate(t.Root(), c)
	if !ok {
		return nil, ErrSeekOutOfRange
	}
	at := target.Position()
	shift := int(int64(c.ReferencePosition) - int64(at.ReferencePosition))
	var out []SamplePosition
	for _, sample := range target.Coverage().Samples() {
		offset, err := offsetAtCoordinate(t.Root(), sample, at)
		if err != nil {
			return nil, err
		}
		out = append(out, SamplePosition{Sample: sample, Offset: offset + shift})
	}
	return out, nil
}

// findNodeByCoordinate walks the whole tree (not just one sample's path)
// looking for the node tagged with c, or the node carrying c's label whose
// Sequence() a window at c starts in.
func findNodeByCoordinate(root Node, c Coordinate) (Node, bool) {
	stack := []Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		p := n.Position()
		d := int64(c.ReferencePosition) - int64(p.ReferencePosition)
		prefix := int64(prefixLen(n))
		if p == c || (p.Label == c.Label && d >= -prefix && d < int64(len(n.Sequence()))-prefix) {
			return n, true
		}
		stack = append(stack, n.Children()...)
	}
	return nil, false
}

func prefixLen(n Node) int {
	if cp, ok := n.(ContextPrefixer); ok {
		return cp.ContextPrefixLen()
	}
	return 0
}

// offsetAtCoordinate walks the single path sample follows, accumulating
// derived-sequence length (left-context prefixes excluded), until it
// reaches the node tagged with c.
func offsetAtCoordinate(root Node, sample int, c Coordinate) (int, error) {
	node := root
	consumed := 0
	for {
		if node.Position() == c {
			return consumed, nil
		}
		consumed += len(node.Sequence()) - prefixLen(node)

		var next Node
		for _, k := range node.Children() {
			if k.Coverage().Contains(sample) {
				next = k
				break
			}
		}
		if next == nil {
			return 0, ErrSeekOutOfRange
		}
		node = next
	}
}
