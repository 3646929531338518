// SPDX-License-Identifier: Unlicense OR MIT

package tile

// StableID is an opaque identifier assigned by the scene builder to a
// distinct primitive or clip template. Two primitives (or two clips) with
// the same StableID are guaranteed to have identical template content;
// the scene builder normalises primitive rects by the accumulated scroll
// offset before interning, so a StableID is invariant under scrolling.
//
// This package never constructs a StableID: it is always handed one by
// the scene builder, which lives outside this package.
type StableID uint64

// FrameID identifies a single frame build. Monotonically increasing;
// comparisons only need equality and the zero value as a sentinel.
type FrameID uint64

// InvalidFrameID is the sentinel used by a freshly-created TileDescriptor.
const InvalidFrameID FrameID = 0

// SpatialNodeID identifies a node in the (externally owned) spatial tree.
type SpatialNodeID uint32

// PropertyBindingID identifies an animated scene property (opacity or
// color) whose current value and "did it change this frame" flag are
// supplied by the host application via a BindingTable.
type PropertyBindingID uint64

// ImageKey identifies an image resource. Mirrors the (namespace, index)
// shape image keys commonly take in an interned-resource scene graph.
type ImageKey struct {
	Namespace uint32
	Index     uint32
}

// ImageGeneration is a monotonically increasing counter bumped by the
// resource cache every time the bitmap backing an ImageKey is replaced.
type ImageGeneration uint32

// ColorRGBA8 is a primitive color value, one byte per channel.
type ColorRGBA8 struct {
	R, G, B, A uint8
}
