// SPDX-License-Identifier: Unlicense OR MIT

package tile

import (
	"testing"

	"github.com/rastercache/tilecache/f32"
)

func TestQuantizeRoundsToQuarterPixel(t *testing.T) {
	cases := []struct {
		v    float32
		want int32
	}{
		{0, 0},
		{1, 4},
		{0.125, 1},
		{-0.125, -1},
		{0.1, 0},
		{-0.1, 0},
		{2.5, 10},
		{-2.5, -10},
	}
	for _, c := range cases {
		got := quantize(c.v, QuantizeScale)
		if got != c.want {
			t.Errorf("quantize(%v) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestComputeToScratchLocalIsTwoCorners(t *testing.T) {
	c := NewCornersCache(QuantizeScale)
	c.PreUpdate()
	c.ClearScratch()
	tree := fakeSpatialTree{}
	r := rect(10, 10, 20, 30)
	vr := c.ComputeToScratch(r, 0, 0, identityScaleOffset, tree)
	if vr.Count != 2 {
		t.Fatalf("count = %d, want 2 for a local mapping", vr.Count)
	}
}

type reflectingTree struct{}

func (reflectingTree) RelativeTransform(from, to SpatialNodeID) SpaceMapping {
	return SpaceMapping{
		Kind:        MappingScaleOffset,
		ScaleOffset: ScaleOffset{Scale: f32.Point{X: -1, Y: 1}},
	}
}

func TestReflectiveScaleOffsetPromotesToTransform(t *testing.T) {
	c := NewCornersCache(QuantizeScale)
	c.PreUpdate()
	c.ClearScratch()
	r := rect(0, 0, 10, 10)
	vr := c.ComputeToScratch(r, 1, 0, identityScaleOffset, reflectingTree{})
	if vr.Count != 4 {
		t.Fatalf("count = %d, want 4 corners after reflection promotion", vr.Count)
	}
}

type singularTree struct{}

func (singularTree) RelativeTransform(from, to SpatialNodeID) SpaceMapping {
	// A zero-scale general transform has zero determinant: non-invertible.
	return SpaceMapping{Kind: MappingTransform, Transform: f32.NewAffine2D(0, 0, 0, 0, 0, 0)}
}

func TestNonInvertibleTransformYieldsInvalidRange(t *testing.T) {
	c := NewCornersCache(QuantizeScale)
	c.PreUpdate()
	c.ClearScratch()
	r := rect(0, 0, 10, 10)
	vr := c.ComputeToScratch(r, 1, 0, identityScaleOffset, singularTree{})
	if vr.IsValid() {
		t.Fatalf("expected an invalid range for a non-invertible transform")
	}
}

func TestPushVertsClampedClampsToTileRect(t *testing.T) {
	c := NewCornersCache(QuantizeScale)
	c.PreUpdate()
	c.ClearScratch()
	r := rect(-50, -50, 10, 10)
	scratch := c.ComputeToScratch(r, 0, 0, identityScaleOffset, fakeSpatialTree{})

	var dst []int32
	tileRect := rect(0, 0, 100, 100)
	vr := c.PushVertsClamped(scratch, tileRect, &dst)
	if !vr.IsValid() {
		t.Fatalf("expected valid range")
	}
	got := dst[vr.Offset : vr.Offset+vr.Count]
	want := []int32{0, 0, int32(10 * QuantizeScale), int32(10 * QuantizeScale)}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dst = %v, want %v", got, want)
		}
	}
}

func TestQuadTreeAccumulatesDirtyRectForChangedPrims(t *testing.T) {
	q := NewQuadTree(2, 4)
	tileRect := rect(0, 0, 1000, 1000)
	q.Clear(tileRect)

	a := rect(0, 0, 10, 10)
	b := rect(900, 900, 910, 910)
	q.AddPrim(a, 0)
	q.AddPrim(b, 1)

	changed := func(i PrimitiveDependencyIndex) bool {
		return i == 1
	}
	dirty := q.UpdateDirtyRects(changed)
	if !rectEq(dirty, b) {
		t.Fatalf("dirty = %v, want %v", dirty, b)
	}
}

func TestQuadTreeNoChangeYieldsEmptyRect(t *testing.T) {
	q := NewQuadTree(2, 4)
	tileRect := rect(0, 0, 1000, 1000)
	q.Clear(tileRect)
	q.AddPrim(rect(0, 0, 10, 10), 0)

	dirty := q.UpdateDirtyRects(func(PrimitiveDependencyIndex) bool { return false })
	if !dirty.Empty() {
		t.Fatalf("dirty = %v, want empty", dirty)
	}
}

func TestQuadTreeMemoizesRepeatedEntries(t *testing.T) {
	// A primitive whose bounding box straddles a split boundary is
	// inserted into more than one leaf; changed must only be invoked
	// once for that index.
	q := NewQuadTree(1, 4)
	tileRect := rect(0, 0, 100, 100)
	q.Clear(tileRect)

	// Force a split by adding enough entries to one quadrant, then add
	// a wide entry spanning the split boundary.
	q.AddPrim(rect(0, 0, 10, 10), 0)
	q.AddPrim(rect(0, 0, 20, 20), 1)
	q.AddPrim(rect(40, 40, 60, 60), 2) // straddles the midpoint (50,50)

	calls := map[PrimitiveDependencyIndex]int{}
	q.UpdateDirtyRects(func(i PrimitiveDependencyIndex) bool {
		calls[i]++
		return false
	})
	for idx, n := range calls {
		if n != 1 {
			t.Fatalf("index %d compared %d times, want 1", idx, n)
		}
	}
}
