// SPDX-License-Identifier: Unlicense OR MIT

package tile

import (
	"github.com/rastercache/tilecache/f32"
)

// QuantizeScale is the default sub-pixel quantization scale: quarter-pixel
// precision. Chosen so that sub-pixel animations below 1/4 pixel do not
// retrigger invalidation, while remaining faithful enough for pixel-exact
// compositing. Overridable via Config.QuantizeScale.
const QuantizeScale float32 = 4.0

func quantize(v, scale float32) int32 {
	x := v * scale
	if x >= 0 {
		return int32(x + 0.5)
	}
	return -int32(-x + 0.5)
}

// VertRange is a reference into a buffer of raster-space vertex data:
// an offset and a count. For a range returned by CornersCache.ComputeToScratch
// (into the unquantized scratch buffer), Count is a number of points (2 or
// 4, or 0 if invalid). For a range returned by PushVerts/PushVertsClamped
// (into a tile's vert_data), Count is a number of int32 elements (4 or 8,
// or 0 if invalid) — two per point.
type VertRange struct {
	Offset uint32
	Count  uint32
}

// InvalidVertRange is the zero-count sentinel for a range that could not
// be computed, e.g. because a transform failed to invert.
var InvalidVertRange = VertRange{}

// IsValid reports whether r refers to a non-empty range.
func (r VertRange) IsValid() bool {
	return r.Count > 0
}

// MappingKind discriminates the three cases SpatialTree.RelativeTransform
// can return.
type MappingKind int

const (
	// MappingLocal means the two spatial nodes share a coordinate space:
	// no transform beyond the tile's local_to_raster is needed.
	MappingLocal MappingKind = iota
	// MappingScaleOffset means the relative transform is an axis-aligned
	// scale plus offset (no rotation, skew, or reflection).
	MappingScaleOffset
	// MappingTransform means the relative transform is a general affine
	// transform (rotation, skew, or a reflective scale promoted here).
	MappingTransform
)

// ScaleOffset is an axis-aligned scale-then-offset transform.
type ScaleOffset struct {
	Scale  f32.Point
	Offset f32.Point
}

// IsReflection reports whether so flips orientation on exactly one axis.
func (so ScaleOffset) IsReflection() bool {
	return so.Scale.X*so.Scale.Y < 0
}

// ToTransform promotes so to a general Affine2D, preserving its mapping
// exactly. Used when a ScaleOffset reflects, so that corner winding order
// survives the promotion.
func (so ScaleOffset) ToTransform() f32.Affine2D {
	return f32.NewAffine2D(so.Scale.X, 0, so.Offset.X, 0, so.Scale.Y, so.Offset.Y)
}

// Then composes so with next, so that applying the result to a point is
// equivalent to applying so, then next.
func (so ScaleOffset) Then(next ScaleOffset) ScaleOffset {
	return ScaleOffset{
		Scale: f32.Point{
			X: so.Scale.X * next.Scale.X,
			Y: so.Scale.Y * next.Scale.Y,
		},
		Offset: f32.Point{
			X: so.Offset.X*next.Scale.X + next.Offset.X,
			Y: so.Offset.Y*next.Scale.Y + next.Offset.Y,
		},
	}
}

// MapRect applies so to r. Callers must ensure so is non-reflective
// (IsReflection() == false) before calling MapRect, or promote it to a
// full Affine2D via ToTransform first — a reflective scale would flip
// Min/Max on one axis and silently produce a degenerate rectangle.
func (so ScaleOffset) MapRect(r f32.Rectangle) f32.Rectangle {
	return f32.Rectangle{
		Min: f32.Point{X: r.Min.X*so.Scale.X + so.Offset.X, Y: r.Min.Y*so.Scale.Y + so.Offset.Y},
		Max: f32.Point{X: r.Max.X*so.Scale.X + so.Offset.X, Y: r.Max.Y*so.Scale.Y + so.Offset.Y},
	}
}

// SpaceMapping is the relative transform between two spatial nodes, as
// reported by SpatialTree.RelativeTransform.
type SpaceMapping struct {
	Kind        MappingKind
	ScaleOffset ScaleOffset
	Transform   f32.Affine2D
}

// promoteReflection promotes a reflective ScaleOffset to a full Transform,
// so downstream code never has to special-case reflection.
func (m SpaceMapping) promoteReflection() SpaceMapping {
	if m.Kind == MappingScaleOffset && m.ScaleOffset.IsReflection() {
		return SpaceMapping{Kind: MappingTransform, Transform: m.ScaleOffset.ToTransform()}
	}
	return m
}

// CornersCache amortises two things across a frame's worth of
// add-prim-dependency calls: the unquantized scratch buffer used to
// accumulate a primitive's raw corners before quantization, and the
// relative-transform lookup for consecutive primitives sharing a spatial
// node.
type CornersCache struct {
	quantizeScale float32

	unquantized []f32.Point

	haveCachedNode bool
	cachedNode     SpatialNodeID
	cachedMapping  SpaceMapping
}

// NewCornersCache creates a CornersCache using the given quantization
// scale (default: 4, i.e. quarter-pixel precision).
func NewCornersCache(quantizeScale float32) *CornersCache {
	return &CornersCache{quantizeScale: quantizeScale}
}

// PreUpdate resets the spatial-node transform cache. Call once per frame,
// before any primitive's dependencies are computed.
func (c *CornersCache) PreUpdate() {
	c.haveCachedNode = false
}

// ClearScratch clears the unquantized scratch buffer, retaining capacity.
// Call once before computing the prim rect, coverage rect, and all clips
// for a single primitive.
func (c *CornersCache) ClearScratch() {
	c.unquantized = c.unquantized[:0]
}

// ComputeToScratch computes raster-space corners for localRect and
// appends them (unquantized) to the scratch buffer, returning a VertRange
// into the scratch. Returns InvalidVertRange if the relative transform is
// a general transform that turns out to be non-invertible.
//
// The relative transform for primSpatialNode is cached: consecutive
// calls with the same primSpatialNode skip the SpatialTree query.
func (c *CornersCache) ComputeToScratch(
	localRect f32.Rectangle,
	primSpatialNode, tileSpatialNode SpatialNodeID,
	localToRaster ScaleOffset,
	tree SpatialTree,
) VertRange {
	if !c.haveCachedNode || c.cachedNode != primSpatialNode {
		mapping := tree.RelativeTransform(primSpatialNode, tileSpatialNode).promoteReflection()
		c.cachedMapping = mapping
		c.cachedNode = primSpatialNode
		c.haveCachedNode = true
	}
	return c.appendCornersFromMapping(localRect, localToRaster)
}

func (c *CornersCache) appendCornersFromMapping(localRect f32.Rectangle, localToRaster ScaleOffset) VertRange {
	switch c.cachedMapping.Kind {
	case MappingLocal:
		r := localToRaster.MapRect(localRect)
		offset := uint32(len(c.unquantized))
		c.unquantized = append(c.unquantized, r.Min, r.Max)
		return VertRange{Offset: offset, Count: 2}
	case MappingScaleOffset:
		so := c.cachedMapping.ScaleOffset.Then(localToRaster)
		r := so.MapRect(localRect)
		offset := uint32(len(c.unquantized))
		c.unquantized = append(c.unquantized, r.Min, r.Max)
		return VertRange{Offset: offset, Count: 2}
	case MappingTransform:
		rasterM := localToRaster.ToTransform().Mul(c.cachedMapping.Transform)
		if rasterM.Determinant() == 0 {
			return InvalidVertRange
		}
		offset := uint32(len(c.unquantized))
		c.unquantized = append(c.unquantized,
			rasterM.Transform(localRect.Min),
			rasterM.Transform(f32.Point{X: localRect.Max.X, Y: localRect.Min.Y}),
			rasterM.Transform(f32.Point{X: localRect.Min.X, Y: localRect.Max.Y}),
			rasterM.Transform(localRect.Max),
		)
		return VertRange{Offset: offset, Count: 4}
	default:
		panic("tile: unknown mapping kind")
	}
}

// PushVerts quantizes the corners at scratchRange (from the scratch
// buffer) and appends them to dst, returning a VertRange into dst.
func (c *CornersCache) PushVerts(scratchRange VertRange, dst *[]int32) VertRange {
	if !scratchRange.IsValid() {
		return InvalidVertRange
	}
	corners := c.unquantized[scratchRange.Offset : scratchRange.Offset+scratchRange.Count]
	offset := uint32(len(*dst))
	for _, p := range corners {
		*dst = append(*dst, quantize(p.X, c.quantizeScale), quantize(p.Y, c.quantizeScale))
	}
	return VertRange{Offset: offset, Count: uint32(len(corners)) * 2}
}

// PushVertsClamped is like PushVerts but clamps each coordinate to
// tileRasterRect before quantizing.
func (c *CornersCache) PushVertsClamped(scratchRange VertRange, tileRasterRect f32.Rectangle, dst *[]int32) VertRange {
	if !scratchRange.IsValid() {
		return InvalidVertRange
	}
	corners := c.unquantized[scratchRange.Offset : scratchRange.Offset+scratchRange.Count]
	offset := uint32(len(*dst))
	for _, p := range corners {
		x := clampf(p.X, tileRasterRect.Min.X, tileRasterRect.Max.X)
		y := clampf(p.Y, tileRasterRect.Min.Y, tileRasterRect.Max.Y)
		*dst = append(*dst, quantize(x, c.quantizeScale), quantize(y, c.quantizeScale))
	}
	return VertRange{Offset: offset, Count: uint32(len(corners)) * 2}
}

func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
