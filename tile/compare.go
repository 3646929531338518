// SPDX-License-Identifier: Unlicense OR MIT

package tile

import (
	"github.com/rastercache/tilecache/internal/depstream"
)

// PrimitiveCompareResult classifies why two primitive descriptors differ
// (or that they don't). Ordered the same way InvalidationReason is:
// callers generally want the first non-Equal result, not an exhaustive
// list, since one is already enough to invalidate the tile.
type PrimitiveCompareResult int

const (
	// CompareEqual means the two descriptors are indistinguishable: same
	// identity, same position, same dependencies.
	CompareEqual PrimitiveCompareResult = iota
	// CompareDescriptor means identity, position, or dep-stream shape
	// changed outright (new/removed primitive, moved, resized, or the
	// dependency list itself grew or shrank).
	CompareDescriptor
	// CompareClip means a clip in the chain changed identity or moved.
	CompareClip
	// CompareImage means an image dependency's key or generation changed.
	CompareImage
	// CompareOpacityBinding means an opacity binding's value or
	// liveness changed.
	CompareOpacityBinding
	// CompareColorBinding means a color binding's value or liveness
	// changed.
	CompareColorBinding
)

// PrimitiveComparisonKey identifies one (previous, current) primitive
// pairing, for memoizing PrimitiveComparer.Compare results across the
// quadtree traversal in Tile.updateDirtyRects.
type PrimitiveComparisonKey struct {
	PrevIndex PrimitiveDependencyIndex
	CurrIndex PrimitiveDependencyIndex
}

// PrimitiveComparer compares primitive descriptors between a tile's
// previous and current frame, consulting the host-owned resource cache
// and binding tables for dynamic content that isn't captured by the
// descriptor's static fields.
type PrimitiveComparer struct {
	prev, curr      *TileDescriptor
	resources       ResourceCache
	opacityBindings BindingTable[float32]
	colorBindings   BindingTable[ColorRGBA8]
}

// NewPrimitiveComparer builds a PrimitiveComparer for one frame's worth
// of comparisons between prev and curr.
func NewPrimitiveComparer(
	prev, curr *TileDescriptor,
	resources ResourceCache,
	opacityBindings BindingTable[float32],
	colorBindings BindingTable[ColorRGBA8],
) *PrimitiveComparer {
	return &PrimitiveComparer{
		prev:            prev,
		curr:            curr,
		resources:       resources,
		opacityBindings: opacityBindings,
		colorBindings:   colorBindings,
	}
}

// Compare decides whether two primitive descriptors describe the same
// content, in six short-circuiting steps: identity, rect corners,
// coverage corners, dependency count, then a lockstep walk of the
// dependency stream. The first difference found wins; callers needing
// only "did anything change" can stop reading as soon as the result is
// non-equal.
func (c *PrimitiveComparer) Compare(prevDesc, currDesc *PrimitiveDescriptor) PrimitiveCompareResult {
	if prevDesc.PrimUID != currDesc.PrimUID {
		return CompareDescriptor
	}

	if !c.vertsEqual(c.prev.VertData, prevDesc.PrimCorners, c.curr.VertData, currDesc.PrimCorners) {
		return CompareDescriptor
	}

	if !c.vertsEqual(c.prev.VertData, prevDesc.CoverageCorners, c.curr.VertData, currDesc.CoverageCorners) {
		return CompareDescriptor
	}

	if prevDesc.DepCount != currDesc.DepCount {
		return CompareDescriptor
	}

	prevData := c.prev.DepData[prevDesc.DepOffset:]
	currData := c.curr.DepData[currDesc.DepOffset:]

	for i := uint32(0); i < prevDesc.DepCount; i++ {
		var prevRec, currRec depstream.Record
		prevRec, prevData = depstream.Decode(prevData)
		currRec, currData = depstream.Decode(currData)

		if prevRec.Tag != currRec.Tag {
			return CompareDescriptor
		}

		switch prevRec.Tag {
		case depstream.TagClip:
			if prevRec.Clip.ClipUID != currRec.Clip.ClipUID {
				return CompareClip
			}
			prevRange := VertRange{Offset: prevRec.Clip.VertOffset, Count: prevRec.Clip.VertCount}
			currRange := VertRange{Offset: currRec.Clip.VertOffset, Count: currRec.Clip.VertCount}
			if !c.vertsEqual(c.prev.VertData, prevRange, c.curr.VertData, currRange) {
				return CompareClip
			}
		case depstream.TagImage:
			if prevRec.Image != currRec.Image {
				return CompareImage
			}
			key := ImageKey{Namespace: currRec.Image.KeyNamespace, Index: currRec.Image.KeyIndex}
			if c.resources.ImageGeneration(key) != ImageGeneration(currRec.Image.Generation) {
				return CompareImage
			}
		case depstream.TagOpacityBinding:
			if prevRec.Binding != currRec.Binding {
				return CompareOpacityBinding
			}
			curr := decodeOpacity(currRec.Binding)
			if curr.IsBound {
				info, ok := c.opacityBindings.Info(curr.ID)
				if !ok || info.Changed {
					return CompareOpacityBinding
				}
			}
		case depstream.TagColorBinding:
			if prevRec.Binding != currRec.Binding {
				return CompareColorBinding
			}
			curr := decodeColor(currRec.Binding)
			if curr.IsBound {
				info, ok := c.colorBindings.Info(curr.ID)
				if !ok || info.Changed {
					return CompareColorBinding
				}
			}
		}
	}

	return CompareEqual
}

func (c *PrimitiveComparer) vertsEqual(prevData []int32, prevRange VertRange, currData []int32, currRange VertRange) bool {
	if prevRange.Count != currRange.Count {
		return false
	}
	prevEnd := prevRange.Offset + prevRange.Count
	currEnd := currRange.Offset + currRange.Count
	if !prevRange.IsValid() && !currRange.IsValid() {
		return true
	}
	if prevEnd > uint32(len(prevData)) || currEnd > uint32(len(currData)) {
		return false
	}
	prevVerts := prevData[prevRange.Offset:prevEnd]
	currVerts := currData[currRange.Offset:currEnd]
	for i := range prevVerts {
		if prevVerts[i] != currVerts[i] {
			return false
		}
	}
	return true
}
