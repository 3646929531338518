// SPDX-License-Identifier: Unlicense OR MIT

package tile

import (
	"fmt"
	"io"
	"math"

	lru "github.com/hashicorp/golang-lru"

	"github.com/rastercache/tilecache/f32"
)

// InvalidationReason records why a tile was invalidated. Sticky within a
// frame: PreUpdate clears it, and only the first call to Invalidate in a
// frame sets it.
type InvalidationReason int

const (
	// ReasonNone means the tile has not been invalidated this frame.
	ReasonNone InvalidationReason = iota
	// ReasonBackgroundColor means the tile's background color changed.
	ReasonBackgroundColor
	// ReasonScaleChanged means the picture cache's root transform scale
	// changed, forcing every tile to re-render regardless of content.
	ReasonScaleChanged
	// ReasonValidRectChanged means the accumulated local valid rect
	// differs from the previous frame's, even though no primitive
	// compared unequal.
	ReasonValidRectChanged
	// ReasonDescriptor mirrors CompareDescriptor: identity, position, or
	// dependency-stream shape changed.
	ReasonDescriptor
	// ReasonClip mirrors CompareClip.
	ReasonClip
	// ReasonImage mirrors CompareImage.
	ReasonImage
	// ReasonOpacityBinding mirrors CompareOpacityBinding.
	ReasonOpacityBinding
	// ReasonColorBinding mirrors CompareColorBinding.
	ReasonColorBinding
)

func reasonForCompare(r PrimitiveCompareResult) InvalidationReason {
	switch r {
	case CompareDescriptor:
		return ReasonDescriptor
	case CompareClip:
		return ReasonClip
	case CompareImage:
		return ReasonImage
	case CompareOpacityBinding:
		return ReasonOpacityBinding
	case CompareColorBinding:
		return ReasonColorBinding
	default:
		return ReasonNone
	}
}

// CompositeMode is an opaque compositing-mode tag carried by a SubGraph,
// owned and interpreted by the (out of scope) composite layer.
type CompositeMode int

// SurfaceIndex identifies an offscreen surface, owned by the (out of
// scope) composite layer.
type SurfaceIndex uint32

// SubGraph records a picture-space rect together with the chain of
// composite modes and surfaces a nested surface graph below a tile was
// drawn through. This package never populates the composite-mode chain
// itself — that's the composite layer's job — it only gives the slice a
// home that's created empty and cleared every frame, the same way
// invalidation_reason is.
type SubGraph struct {
	Rect    f32.Rectangle
	Modes   []CompositeMode
	Surface []SurfaceIndex
}

// CompositeState is the subset of the (out of scope) composite layer's
// state this package can signal into.
type CompositeState interface {
	// SetDirtyRectsAreValid is called with false whenever a tile's valid
	// rect changed from the previous frame's, whether or not any
	// primitive also compared unequal, so cached partial-tile dirty
	// rects from prior frames can no longer be trusted.
	SetDirtyRectsAreValid(valid bool)
}

// CompareCache memoises PrimitiveComparer.Compare results across one
// tile's UpdateContentValidity call, keyed by aligned (prev, curr)
// primitive index pairs, so a primitive spanning more than one quadtree
// leaf is only compared once. Backed by a bounded LRU rather than a
// plain map so a pathological tile with an enormous primitive count
// cannot grow the cache without limit.
type CompareCache struct {
	cache *lru.Cache
}

// NewCompareCache creates a CompareCache holding at most capacity
// entries.
func NewCompareCache(capacity int) *CompareCache {
	c, err := lru.New(capacity)
	if err != nil {
		// Only returns an error for capacity <= 0.
		panic(fmt.Sprintf("tile: invalid compare cache capacity: %v", err))
	}
	return &CompareCache{cache: c}
}

// Clear purges all entries. Call once per tile before UpdateContentValidity.
func (c *CompareCache) Clear() {
	c.cache.Purge()
}

func (c *CompareCache) get(key PrimitiveComparisonKey) (PrimitiveCompareResult, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return CompareEqual, false
	}
	return v.(PrimitiveCompareResult), true
}

func (c *CompareCache) put(key PrimitiveComparisonKey, result PrimitiveCompareResult) {
	c.cache.Add(key, result)
}

// TileUpdateDirtyContext is the immutable, per-frame context shared by
// every tile's UpdateContentValidity call.
type TileUpdateDirtyContext struct {
	OpacityBindings BindingTable[float32]
	ColorBindings   BindingTable[ColorRGBA8]
	// LocalRect is the local rect of the overall picture cache.
	LocalRect f32.Rectangle
	// InvalidateAll is true when the picture cache's root transform
	// scale changed this frame, forcing every tile to invalidate
	// regardless of its own content comparison.
	InvalidateAll bool
}

// TileUpdateDirtyState is the mutable, per-frame state shared by every
// tile's UpdateContentValidity call.
type TileUpdateDirtyState struct {
	Resources    ResourceCache
	Composite    CompositeState
	CompareCache *CompareCache
}

// infiniteEmptyRect is an "empty by union" sentinel for resetting
// LocalValidRect: min=+inf, max=-inf, so the first Union call behaves as
// plain insertion instead of including the origin the way unioning
// against the zero Rectangle would.
func infiniteEmptyRect() f32.Rectangle {
	return f32.Rectangle{
		Min: f32.Point{X: float32(math.Inf(1)), Y: float32(math.Inf(1))},
		Max: f32.Point{X: float32(math.Inf(-1)), Y: float32(math.Inf(-1))},
	}
}

// Tile tracks one picture-cache tile's content fingerprint across
// frames and decides, at the end of a frame, whether it needs to be
// re-rendered.
type Tile struct {
	Current, Previous *TileDescriptor
	IsValid            bool
	LocalDirtyRect     f32.Rectangle
	LocalValidRect     f32.Rectangle
	// LocalRect is this tile's full extent; Invalidate(nil, ...) sets
	// LocalDirtyRect to this.
	LocalRect          f32.Rectangle
	Root               *QuadTree
	BackgroundColor    *ColorRGBA8
	InvalidationReason InvalidationReason
	SubGraphs          []SubGraph
}

// NewTile creates an invalid, empty tile covering localRect.
func NewTile(localRect f32.Rectangle, maxEntriesPerLeaf, maxDepth int) *Tile {
	return &Tile{
		Current:   NewTileDescriptor(),
		Previous:  NewTileDescriptor(),
		LocalRect: localRect,
		Root:      NewQuadTree(maxEntriesPerLeaf, maxDepth),
	}
}

// Print writes a tree-structured debug dump of t to w.
func (t *Tile) Print(w io.Writer) {
	fmt.Fprintf(w, "tile: background_color=%v invalidation_reason=%v valid=%v\n", t.BackgroundColor, t.InvalidationReason, t.IsValid)
	t.Current.Print(w, "  ")
}

// PreUpdate resets per-frame state and swaps Current into Previous,
// ready for a fresh round of AddPrimDependency calls. If isVisible is
// false it returns immediately without swapping: Previous is preserved
// until the tile next becomes visible, at which point comparison
// resumes against the last frame it was actually built.
func (t *Tile) PreUpdate(backgroundColor *ColorRGBA8, localTileRect f32.Rectangle, frameID FrameID, isVisible bool) {
	t.LocalValidRect = infiniteEmptyRect()
	t.InvalidationReason = ReasonNone
	t.SubGraphs = t.SubGraphs[:0]

	if !isVisible {
		return
	}

	if !colorPtrEqual(backgroundColor, t.BackgroundColor) {
		t.Invalidate(nil, ReasonBackgroundColor)
		t.BackgroundColor = backgroundColor
	}

	t.Current, t.Previous = t.Previous, t.Current
	t.Current.Clear()
	t.Root.Clear(localTileRect)
	t.Current.LastUpdatedFrame = frameID
}

func colorPtrEqual(a, b *ColorRGBA8) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// AddPrimDependency records one primitive instance's dependencies
// against this tile: info was built once for the primitive, shared
// across every tile it intersects, so every per-tile clamping decision
// happens here rather than in the caller.
func (t *Tile) AddPrimDependency(
	info PrimitiveDependencyInfo,
	corners *CornersCache,
	primClampToTile bool,
	localRasterRect f32.Rectangle,
	localTileRect f32.Rectangle,
) {
	t.LocalValidRect = t.LocalValidRect.Union(info.PrimClipBox)

	primClipBox := f32.Rectangle{
		Min: f32.Point{
			X: clampf(info.PrimClipBox.Min.X, localTileRect.Min.X, localTileRect.Max.X),
			Y: clampf(info.PrimClipBox.Min.Y, localTileRect.Min.Y, localTileRect.Max.Y),
		},
		Max: f32.Point{
			X: clampf(info.PrimClipBox.Max.X, localTileRect.Min.X, localTileRect.Max.X),
			Y: clampf(info.PrimClipBox.Max.Y, localTileRect.Min.Y, localTileRect.Max.Y),
		},
	}

	var primCorners, coverageCorners VertRange
	if primClampToTile {
		primCorners = corners.PushVertsClamped(info.PrimScratch, localRasterRect, &t.Current.VertData)
		coverageCorners = corners.PushVertsClamped(info.CovScratch, localRasterRect, &t.Current.VertData)
	} else {
		primCorners = corners.PushVerts(info.PrimScratch, &t.Current.VertData)
		coverageCorners = corners.PushVerts(info.CovScratch, &t.Current.VertData)
	}

	primIndex := PrimitiveDependencyIndex(len(t.Current.Prims))

	depOffset := uint32(len(t.Current.DepData))
	var depCount uint32

	for _, clip := range info.Clips {
		depCount++
		// Clip corners are always clamped to the tile's raster rect,
		// regardless of primClampToTile: a clip's shape can extend far
		// beyond this tile, and a change to it entirely outside the
		// tile must not invalidate content the tile doesn't show.
		vr := corners.PushVertsClamped(clip.Scratch, localRasterRect, &t.Current.VertData)
		t.Current.DepData = encodeClip(t.Current.DepData, ClipDependency{ClipUID: clip.ClipUID, VertRange: vr})
	}
	for _, img := range info.Images {
		depCount++
		t.Current.DepData = encodeImage(t.Current.DepData, img)
	}
	for _, ob := range info.OpacityBindings {
		depCount++
		t.Current.DepData = encodeOpacity(t.Current.DepData, ob)
	}
	if info.ColorBinding != nil {
		depCount++
		t.Current.DepData = encodeColor(t.Current.DepData, *info.ColorBinding)
	}

	t.Current.Prims = append(t.Current.Prims, PrimitiveDescriptor{
		PrimClipBox:     primClipBox,
		DepOffset:       depOffset,
		DepCount:        depCount,
		PrimUID:         info.PrimUID,
		PrimCorners:     primCorners,
		CoverageCorners: coverageCorners,
	})

	t.Root.AddPrim(info.PrimClipBox, primIndex)
}

// updateDirtyRects walks the quadtree comparing aligned
// (Previous.Prims[i], Current.Prims[i]) pairs and returns the union of
// every changed primitive's clip box, recording the first non-equal
// reason into *reason.
func (t *Tile) updateDirtyRects(ctx *TileUpdateDirtyContext, state *TileUpdateDirtyState, reason *InvalidationReason) f32.Rectangle {
	comparer := NewPrimitiveComparer(t.Previous, t.Current, state.Resources, ctx.OpacityBindings, ctx.ColorBindings)

	changed := func(i PrimitiveDependencyIndex) bool {
		if int(i) >= len(t.Previous.Prims) {
			if *reason == ReasonNone {
				*reason = ReasonDescriptor
			}
			return true
		}
		key := PrimitiveComparisonKey{PrevIndex: i, CurrIndex: i}
		result, ok := state.CompareCache.get(key)
		if !ok {
			result = comparer.Compare(&t.Previous.Prims[i], &t.Current.Prims[i])
			state.CompareCache.put(key, result)
		}
		if result != CompareEqual {
			if *reason == ReasonNone {
				*reason = reasonForCompare(result)
			}
			return true
		}
		return false
	}

	return t.Root.UpdateDirtyRects(changed)
}

// UpdateContentValidity compares Previous against Current and, if
// anything changed, invalidates the tile. It copies LocalValidRect into
// Current first; on a frame where PreUpdate returned early (isVisible
// false), LocalValidRect holds the empty sentinel, and that sentinel
// replaces the valid rect of the retained descriptor.
func (t *Tile) UpdateContentValidity(ctx *TileUpdateDirtyContext, state *TileUpdateDirtyState) {
	state.CompareCache.Clear()
	t.Current.LocalValidRect = t.LocalValidRect

	// Reset to valid unless PreUpdate already invalidated the tile this
	// frame; any Invalidate call below flips this back to false. Keeps
	// is_valid <=> (local_dirty_rect empty && invalidation_reason == None)
	// an invariant of this call rather than something a caller has to
	// maintain by resetting it every frame themselves.
	if t.InvalidationReason == ReasonNone {
		t.IsValid = true
		t.LocalDirtyRect = f32.Rectangle{}
	}

	var reason InvalidationReason
	dirtyRect := t.updateDirtyRects(ctx, state, &reason)

	if !dirtyRect.Empty() {
		t.Invalidate(&dirtyRect, reason)
	}
	if ctx.InvalidateAll {
		t.Invalidate(nil, ReasonScaleChanged)
	}
	// A Previous that was never built has no valid rect to compare with.
	if t.Previous.LastUpdatedFrame != InvalidFrameID && t.Current.LocalValidRect != t.Previous.LocalValidRect {
		t.Invalidate(nil, ReasonValidRectChanged)
		state.Composite.SetDirtyRectsAreValid(false)
	}
}

// Invalidate marks the tile invalid. If rect is nil, the whole tile is
// invalidated; otherwise rect is unioned into the accumulated dirty
// rect. The reason is sticky: only the first call in a frame sets it.
func (t *Tile) Invalidate(rect *f32.Rectangle, reason InvalidationReason) {
	t.IsValid = false

	if rect != nil {
		if t.LocalDirtyRect.Empty() {
			t.LocalDirtyRect = *rect
		} else {
			t.LocalDirtyRect = t.LocalDirtyRect.Union(*rect)
		}
	} else {
		t.LocalDirtyRect = t.LocalRect
	}

	if t.InvalidationReason == ReasonNone {
		t.InvalidationReason = reason
	}
}
