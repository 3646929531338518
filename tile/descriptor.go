// SPDX-License-Identifier: Unlicense OR MIT

package tile

import (
	"fmt"
	"io"

	"github.com/rastercache/tilecache/f32"
)

// PrimitiveDependencyIndex is an index into a TileDescriptor's Prims slice.
type PrimitiveDependencyIndex uint32

// ClipScratch pairs a clip's stable identity with a scratch-buffer range
// for its (not yet quantized) corners, gathered while walking a
// primitive's clip chain.
type ClipScratch struct {
	ClipUID StableID
	Scratch VertRange
}

// PrimitiveDependencyInfo carries everything needed to add one primitive
// instance's dependencies to a tile: built once per primitive (outside
// the per-tile loop, since a primitive can intersect more than one
// tile), then passed to Tile.AddPrimDependency for each tile it touches.
type PrimitiveDependencyInfo struct {
	// PrimClipBox is the (conservative) clipped area in picture space
	// this primitive occupies. Used for LocalValidRect accumulation and
	// quadtree binning.
	PrimClipBox f32.Rectangle
	// PrimUID is this primitive instance's stable identity. See StableID
	// for the scroll-stability guarantee.
	PrimUID StableID
	// PrimScratch is a scratch-buffer range for the primitive's rect
	// corners in raster space (unquantized); quantized into the tile's
	// vert_data inside AddPrimDependency.
	PrimScratch VertRange
	// CovScratch is a scratch-buffer range for the coverage rect
	// (prim ∩ clip) corners. Tracked separately from PrimScratch: merging
	// them into a single intersection would hide a UV-mapped primitive's
	// rect changing size while the clip keeps the visible region
	// constant — the intersection is unchanged, but the primitive would
	// sample different source pixels.
	CovScratch VertRange
	// Clips is this primitive's clip chain, in application order.
	Clips []ClipScratch
	// Images are the image resources this primitive depends on.
	Images []ImageDependency
	// OpacityBindings are the opacity bindings this primitive depends on.
	OpacityBindings []OpacityBinding
	// ColorBinding is this primitive's color binding, if any.
	ColorBinding *ColorBinding
}

// NewPrimitiveDependencyInfo returns a PrimitiveDependencyInfo with both
// scratch ranges marked invalid, ready to be filled in.
func NewPrimitiveDependencyInfo(primUID StableID, primClipBox f32.Rectangle) PrimitiveDependencyInfo {
	return PrimitiveDependencyInfo{
		PrimUID:     primUID,
		PrimClipBox: primClipBox,
		PrimScratch: InvalidVertRange,
		CovScratch:  InvalidVertRange,
	}
}

// PrimitiveDescriptor is the content fingerprint of one primitive
// instance as recorded in a TileDescriptor.
type PrimitiveDescriptor struct {
	// PrimClipBox is picture-space bounds, clamped to the tile boundary.
	// Quadtree binning and LocalValidRect use the unclamped
	// PrimitiveDependencyInfo.PrimClipBox instead; this field is not used
	// for comparison either (PrimCorners/CoverageCorners cover position).
	PrimClipBox f32.Rectangle
	DepOffset   uint32
	DepCount    uint32
	// PrimUID is this primitive's stable identity.
	PrimUID StableID
	// PrimCorners ranges into the tile's vert_data for this primitive's
	// corners (local_prim_rect, in raster space).
	PrimCorners VertRange
	// CoverageCorners ranges into vert_data for the coverage rect
	// (prim ∩ clip) corners.
	CoverageCorners VertRange
}

// TileDescriptor uniquely describes the content of a tile, in a way that
// can be reasonably efficiently compared.
type TileDescriptor struct {
	// Prims is the list of primitive instances, in scene-builder
	// traversal order. Comparison between two descriptors is positional.
	Prims []PrimitiveDescriptor
	// LocalValidRect is the picture-space rect containing the valid
	// pixel region of this tile.
	LocalValidRect f32.Rectangle
	// LastUpdatedFrame is the last frame this tile had its dependencies
	// updated (skipped while the tile is off-screen).
	LastUpdatedFrame FrameID
	// DepData is the packed per-primitive dependency stream.
	DepData []byte
	// VertData is the per-tile quantized raster-space vertex data that
	// every VertRange in Prims (and in Clip dep records) indexes into.
	VertData []int32
}

// NewTileDescriptor returns an empty TileDescriptor.
func NewTileDescriptor() *TileDescriptor {
	return &TileDescriptor{LastUpdatedFrame: InvalidFrameID}
}

// Clear resets the descriptor for a rebuild, retaining the capacity of
// its slices across frames instead of reallocating.
func (d *TileDescriptor) Clear() {
	d.LocalValidRect = f32.Rectangle{}
	d.Prims = d.Prims[:0]
	d.DepData = d.DepData[:0]
	d.VertData = d.VertData[:0]
}

// Print writes a tree-structured debug dump of d to w.
func (d *TileDescriptor) Print(w io.Writer, indent string) {
	fmt.Fprintf(w, "%sdescriptor: %d prims, %d verts, %d dep bytes\n", indent, len(d.Prims), len(d.VertData), len(d.DepData))
	for i, p := range d.Prims {
		fmt.Fprintf(w, "%s  prim[%d] uid=%d clip=%v deps=[%d,%d)\n",
			indent, i, p.PrimUID, p.PrimClipBox, p.DepOffset, p.DepOffset+p.DepCount)
	}
}
