// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"fmt"
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/rastercache/tilecache/f32"
	"github.com/rastercache/tilecache/tile"
)

// engine bundles the collaborators one scenario run needs. A fresh engine
// is built per scenario so scenarios never leak state into each other.
type engine struct {
	resources *resourceCache
	opacity   *bindingTable[float32]
	color     *bindingTable[tile.ColorRGBA8]
	composite *compositeState
	corners   *tile.CornersCache
	compare   *tile.CompareCache
}

func newEngine(cfg config) *engine {
	return &engine{
		resources: newResourceCache(),
		opacity:   newBindingTable[float32](),
		color:     newBindingTable[tile.ColorRGBA8](),
		composite: newCompositeState(),
		corners:   tile.NewCornersCache(cfg.Tile.QuantizeScale),
		compare:   tile.NewCompareCache(cfg.Tile.CompareCacheCapacity),
	}
}

// frame is one scenario frame's outcome, reported back to main for
// logging and visualization.
type frame struct {
	id        tile.FrameID
	tl        *tile.Tile
	tileRect  f32.Rectangle
	primRects []f32.Rectangle
	// note is an optional extra line logged alongside the frame, used by
	// scenarios that want to surface something beyond validity/dirty rect.
	note string
}

// scenario names a scene-builder story and the function that drives a
// freshly built Tile through it, returning one entry per frame.
type scenario struct {
	name string
	run  func(e *engine, tileRect f32.Rectangle) []frame
}

func rectInfo(e *engine, tree tile.SpatialTree, uid tile.StableID, rect f32.Rectangle) tile.PrimitiveDependencyInfo {
	e.corners.ClearScratch()
	info := tile.NewPrimitiveDependencyInfo(uid, rect)
	info.PrimScratch = e.corners.ComputeToScratch(rect, 0, 0, identityScaleOffset, tree)
	info.CovScratch = e.corners.ComputeToScratch(rect, 0, 0, identityScaleOffset, tree)
	return info
}

var identityScaleOffset = tile.ScaleOffset{Scale: f32.Point{X: 1, Y: 1}}

// rectInfoTransformed is like rectInfo, but for a primitive behind a
// general transform: PrimClipBox is the transform's conservative
// axis-aligned bound of rect, while PrimScratch/CovScratch still carry
// the exact (possibly non-axis-aligned) corners for comparison.
func rectInfoTransformed(e *engine, tree rotatedSpatialTree, uid tile.StableID, rect f32.Rectangle) tile.PrimitiveDependencyInfo {
	e.corners.ClearScratch()
	info := tile.NewPrimitiveDependencyInfo(uid, tree.transform.TransformRect(rect))
	info.PrimScratch = e.corners.ComputeToScratch(rect, 0, 0, identityScaleOffset, tree)
	info.CovScratch = e.corners.ComputeToScratch(rect, 0, 0, identityScaleOffset, tree)
	return info
}

func buildFrame(e *engine, tl *tile.Tile, tileRect f32.Rectangle, id tile.FrameID, fill func()) frame {
	tl.PreUpdate(nil, tileRect, id, true)
	e.corners.PreUpdate()
	fill()
	tl.UpdateContentValidity(&tile.TileUpdateDirtyContext{
		OpacityBindings: e.opacity,
		ColorBindings:   e.color,
	}, &tile.TileUpdateDirtyState{
		Resources:    e.resources,
		Composite:    e.composite,
		CompareCache: e.compare,
	})
	return frame{id: id, tl: tl, tileRect: tileRect}
}

// scenarios is the fixed set of named scene-builder stories this command
// demonstrates, one function per scenario named in the engine's testable
// properties.
var scenarios = []scenario{
	{name: "basic", run: runBasicScenario},
	{name: "composite_nop", run: runCompositeNopScenario},
	{name: "scroll_subpic", run: runScrollSubpicScenario},
	{name: "image_gen_bump", run: runImageGenBumpScenario},
	{name: "opacity_binding_change", run: runOpacityBindingChangeScenario},
	{name: "clip_outside_tile", run: runClipOutsideTileScenario},
	{name: "rotated_subpic", run: runRotatedSubpicScenario},
}

func runBasicScenario(e *engine, tileRect f32.Rectangle) []frame {
	tl := tile.NewTile(tileRect, 8, 4)
	tree := localSpatialTree{}
	primRect := f32.Rectangle{Min: f32.Point{X: 100, Y: 100}, Max: f32.Point{X: 600, Y: 200}}

	var frames []frame
	for _, id := range []tile.FrameID{1, 2, 3} {
		f := buildFrame(e, tl, tileRect, id, func() {
			info := rectInfo(e, tree, 1, primRect)
			tl.AddPrimDependency(info, e.corners, false, tileRect, tileRect)
		})
		f.primRects = []f32.Rectangle{primRect}
		frames = append(frames, f)
	}
	return frames
}

func runCompositeNopScenario(e *engine, tileRect f32.Rectangle) []frame {
	tl := tile.NewTile(tileRect, 8, 4)
	tree := localSpatialTree{}

	rects := []f32.Rectangle{
		{Min: f32.Point{X: 100, Y: 100}, Max: f32.Point{X: 600, Y: 200}},
		{Min: f32.Point{X: 100, Y: 120}, Max: f32.Point{X: 600, Y: 220}},
	}

	var frames []frame
	for i, r := range rects {
		id := tile.FrameID(i + 1)
		f := buildFrame(e, tl, tileRect, id, func() {
			info := rectInfo(e, tree, 1, r)
			tl.AddPrimDependency(info, e.corners, false, tileRect, tileRect)
		})
		f.primRects = []f32.Rectangle{r}
		frames = append(frames, f)
	}
	return frames
}

func runScrollSubpicScenario(e *engine, tileRect f32.Rectangle) []frame {
	tl := tile.NewTile(tileRect, 8, 4)
	tree := localSpatialTree{}
	scrollNormalizedRect := f32.Rectangle{Min: f32.Point{X: 50, Y: 50}, Max: f32.Point{X: 250, Y: 150}}

	var frames []frame
	for _, id := range []tile.FrameID{1, 2} {
		f := buildFrame(e, tl, tileRect, id, func() {
			info := rectInfo(e, tree, 42, scrollNormalizedRect)
			tl.AddPrimDependency(info, e.corners, false, tileRect, tileRect)
		})
		f.primRects = []f32.Rectangle{scrollNormalizedRect}
		frames = append(frames, f)
	}
	return frames
}

func runImageGenBumpScenario(e *engine, tileRect f32.Rectangle) []frame {
	tl := tile.NewTile(tileRect, 8, 4)
	tree := localSpatialTree{}
	key := tile.ImageKey{Namespace: 1, Index: 7}
	imgRect := f32.Rectangle{Min: f32.Point{X: 0, Y: 0}, Max: f32.Point{X: 100, Y: 100}}

	build := func(id tile.FrameID) frame {
		f := buildFrame(e, tl, tileRect, id, func() {
			info := rectInfo(e, tree, 9, imgRect)
			info.Images = append(info.Images, tile.ImageDependency{Key: key, Generation: e.resources.ImageGeneration(key)})
			tl.AddPrimDependency(info, e.corners, false, tileRect, tileRect)
		})
		f.primRects = []f32.Rectangle{imgRect}
		return f
	}

	var frames []frame
	frames = append(frames, build(1))
	e.resources.bump(key)
	frames = append(frames, build(2))
	return frames
}

func runOpacityBindingChangeScenario(e *engine, tileRect f32.Rectangle) []frame {
	tl := tile.NewTile(tileRect, 8, 4)
	tree := localSpatialTree{}
	const bindingID tile.PropertyBindingID = 5
	primRect := f32.Rectangle{Min: f32.Point{X: 0, Y: 0}, Max: f32.Point{X: 50, Y: 50}}

	// Drives the binding's value over three frames; the demo reports
	// "changed" whenever the tweened value actually moved since the last
	// frame, rather than an ad hoc oscillator.
	tween := gween.New(0, 1, 3, ease.Linear)
	prevValue := float32(0)

	var frames []frame
	for i := 0; i < 3; i++ {
		id := tile.FrameID(i + 1)
		value, _ := tween.Update(1)
		changed := value != prevValue
		prevValue = value

		f := buildFrame(e, tl, tileRect, id, func() {
			info := rectInfo(e, tree, 3, primRect)
			info.OpacityBindings = append(info.OpacityBindings, tile.BoundBinding[float32](bindingID))
			tl.AddPrimDependency(info, e.corners, false, tileRect, tileRect)
			e.opacity.set(bindingID, value, changed)
		})
		f.primRects = []f32.Rectangle{primRect}
		frames = append(frames, f)
	}
	return frames
}

func runRotatedSubpicScenario(e *engine, tileRect f32.Rectangle) []frame {
	tl := tile.NewTile(tileRect, 8, 4)
	tree := newRotatedSpatialTree(math.Pi / 6)
	sx, hx, ox, hy, sy, oy := tree.transform.Elems()
	note := fmt.Sprintf("transform=[%.3f %.3f %.3f / %.3f %.3f %.3f]", sx, hx, ox, hy, sy, oy)

	rects := []f32.Rectangle{
		{Min: f32.Point{X: 20, Y: 20}, Max: f32.Point{X: 80, Y: 60}},
		{Min: f32.Point{X: 20, Y: 20}, Max: f32.Point{X: 90, Y: 60}},
	}
	color := tile.ConstBinding[tile.ColorRGBA8](tile.ColorRGBA8{R: 200, G: 40, B: 40, A: 255})

	var frames []frame
	for i, r := range rects {
		id := tile.FrameID(i + 1)
		f := buildFrame(e, tl, tileRect, id, func() {
			info := rectInfoTransformed(e, tree, 21, r)
			info.ColorBinding = &color
			tl.AddPrimDependency(info, e.corners, false, tileRect, tileRect)
		})
		f.primRects = []f32.Rectangle{tree.transform.TransformRect(r)}
		f.note = note
		frames = append(frames, f)
	}
	return frames
}

func runClipOutsideTileScenario(e *engine, tileRect f32.Rectangle) []frame {
	tl := tile.NewTile(tileRect, 8, 4)
	tree := localSpatialTree{}
	primRect := f32.Rectangle{Min: f32.Point{X: 10, Y: 10}, Max: f32.Point{X: 40, Y: 40}}

	clipRects := []f32.Rectangle{
		{Min: f32.Point{X: -500, Y: -500}, Max: f32.Point{X: 50, Y: 50}},
		{Min: f32.Point{X: -900, Y: -900}, Max: f32.Point{X: 50, Y: 50}},
	}

	var frames []frame
	for i, clipRect := range clipRects {
		id := tile.FrameID(i + 1)
		f := buildFrame(e, tl, tileRect, id, func() {
			info := rectInfo(e, tree, 11, primRect)
			clipScratch := e.corners.ComputeToScratch(clipRect, 0, 0, identityScaleOffset, tree)
			info.Clips = append(info.Clips, tile.ClipScratch{ClipUID: 77, Scratch: clipScratch})
			tl.AddPrimDependency(info, e.corners, true, tileRect, tileRect)
		})
		f.primRects = []f32.Rectangle{primRect}
		frames = append(frames, f)
	}
	return frames
}
