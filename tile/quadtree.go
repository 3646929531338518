// SPDX-License-Identifier: Unlicense OR MIT

package tile

import "github.com/rastercache/tilecache/f32"

// nodeIndex is an index into QuadTree.nodes. Nodes reference their
// children by index rather than by pointer, so the whole tree lives in
// one contiguous slice and Clear can reuse its backing array frame to
// frame without the allocator walking a pointer graph to free it.
type nodeIndex int32

const invalidNode nodeIndex = -1

type quadEntry struct {
	rect  f32.Rectangle
	index PrimitiveDependencyIndex
}

type quadNode struct {
	rect     f32.Rectangle
	depth    int
	children [4]nodeIndex
	entries  []quadEntry
}

func (n *quadNode) isLeaf() bool {
	return n.children[0] == invalidNode
}

// QuadTree bins a tile's primitives by picture-space bounding box, so
// that comparing two frames' descriptors can cheaply restrict the
// accumulated dirty rect to the bounds of primitives that actually
// changed, rather than invalidating the whole tile on any change.
type QuadTree struct {
	nodes             []quadNode
	root              nodeIndex
	maxEntriesPerLeaf int
	maxDepth          int
}

// NewQuadTree creates an empty QuadTree. maxEntriesPerLeaf and maxDepth
// bound how eagerly a leaf splits: a leaf only splits past
// maxEntriesPerLeaf entries, and never past maxDepth.
func NewQuadTree(maxEntriesPerLeaf, maxDepth int) *QuadTree {
	return &QuadTree{maxEntriesPerLeaf: maxEntriesPerLeaf, maxDepth: maxDepth}
}

// Clear resets the tree to a single leaf covering bounds, retaining the
// node slice's backing array.
func (q *QuadTree) Clear(bounds f32.Rectangle) {
	q.nodes = q.nodes[:0]
	q.root = q.allocLeaf(bounds, 0)
}

func (q *QuadTree) allocLeaf(rect f32.Rectangle, depth int) nodeIndex {
	q.nodes = append(q.nodes, quadNode{
		rect:     rect,
		depth:    depth,
		children: [4]nodeIndex{invalidNode, invalidNode, invalidNode, invalidNode},
	})
	return nodeIndex(len(q.nodes) - 1)
}

// AddPrim inserts a primitive's picture-space bounding rect into every
// leaf it overlaps. rect need not be clamped to the tree's bounds, but a
// rect entirely outside them is only kept while the root is still a
// leaf: it is dropped when that leaf splits (see split), and dropped at
// once if the root has already split.
func (q *QuadTree) AddPrim(rect f32.Rectangle, index PrimitiveDependencyIndex) {
	q.addPrim(q.root, rect, index)
}

func (q *QuadTree) addPrim(n nodeIndex, rect f32.Rectangle, index PrimitiveDependencyIndex) {
	if !q.nodes[n].isLeaf() {
		children := q.nodes[n].children
		for _, c := range children {
			if rectsOverlap(q.nodes[c].rect, rect) {
				q.addPrim(c, rect, index)
			}
		}
		return
	}
	q.nodes[n].entries = append(q.nodes[n].entries, quadEntry{rect: rect, index: index})
	if len(q.nodes[n].entries) > q.maxEntriesPerLeaf && q.nodes[n].depth < q.maxDepth {
		q.split(n)
	}
}

// split redistributes n's entries among four freshly allocated children
// by rect overlap. An entry whose rect doesn't overlap rect at all (a
// primitive entirely outside the tile) overlaps none of the four
// quadrants either, since they exactly partition rect, and is dropped
// rather than retained in some fallback bucket.
func (q *QuadTree) split(n nodeIndex) {
	rect := q.nodes[n].rect
	depth := q.nodes[n].depth
	entries := q.nodes[n].entries

	mid := f32.Point{X: (rect.Min.X + rect.Max.X) / 2, Y: (rect.Min.Y + rect.Max.Y) / 2}
	quadrants := [4]f32.Rectangle{
		{Min: rect.Min, Max: mid},
		{Min: f32.Point{X: mid.X, Y: rect.Min.Y}, Max: f32.Point{X: rect.Max.X, Y: mid.Y}},
		{Min: f32.Point{X: rect.Min.X, Y: mid.Y}, Max: f32.Point{X: mid.X, Y: rect.Max.Y}},
		{Min: mid, Max: rect.Max},
	}

	var children [4]nodeIndex
	for i, qr := range quadrants {
		children[i] = q.allocLeaf(qr, depth+1)
	}
	// n may have been reallocated by allocLeaf growing q.nodes; re-index.
	q.nodes[n].children = children
	q.nodes[n].entries = nil

	for _, e := range entries {
		for _, c := range children {
			if rectsOverlap(q.nodes[c].rect, e.rect) {
				q.addPrim(c, e.rect, e.index)
			}
		}
	}
}

func rectsOverlap(a, b f32.Rectangle) bool {
	return !a.Intersect(b).Empty()
}

// Leaves invokes visit once per leaf node with its bounds, in traversal
// order. Exposed for debug visualization; not used by UpdateDirtyRects
// itself, which walks the tree directly.
func (q *QuadTree) Leaves(visit func(rect f32.Rectangle)) {
	q.leaves(q.root, visit)
}

func (q *QuadTree) leaves(n nodeIndex, visit func(rect f32.Rectangle)) {
	node := &q.nodes[n]
	if node.isLeaf() {
		visit(node.rect)
		return
	}
	for _, c := range node.children {
		q.leaves(c, visit)
	}
}

// UpdateDirtyRects walks every leaf, invoking changed once per distinct
// primitive index (memoized, so a primitive spanning several leaves near
// a quadrant boundary is only compared once — both for efficiency and so
// the accumulated rect does not depend on leaf traversal order), and
// unions in that primitive's bounding rect wherever changed reports true.
// Returns the zero Rectangle if no primitive changed.
func (q *QuadTree) UpdateDirtyRects(changed func(PrimitiveDependencyIndex) bool) f32.Rectangle {
	memo := make(map[PrimitiveDependencyIndex]bool)
	var dirty f32.Rectangle
	var any bool
	q.updateDirtyRects(q.root, changed, memo, &dirty, &any)
	return dirty
}

func (q *QuadTree) updateDirtyRects(n nodeIndex, changed func(PrimitiveDependencyIndex) bool, memo map[PrimitiveDependencyIndex]bool, dirty *f32.Rectangle, any *bool) {
	node := &q.nodes[n]
	if node.isLeaf() {
		for _, e := range node.entries {
			isChanged, ok := memo[e.index]
			if !ok {
				isChanged = changed(e.index)
				memo[e.index] = isChanged
			}
			if !isChanged {
				continue
			}
			if !*any {
				*dirty = e.rect
				*any = true
			} else {
				*dirty = dirty.Union(e.rect)
			}
		}
		return
	}
	for _, c := range node.children {
		q.updateDirtyRects(c, changed, memo, dirty, any)
	}
}
