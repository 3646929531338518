// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"github.com/rastercache/tilecache/f32"
	"github.com/rastercache/tilecache/tile"
)

// localSpatialTree is the simplest possible SpatialTree: every primitive
// in this demo lives directly in the tile's own coordinate space, so
// every relative transform is the identity.
type localSpatialTree struct{}

func (localSpatialTree) RelativeTransform(from, to tile.SpatialNodeID) tile.SpaceMapping {
	return tile.SpaceMapping{Kind: tile.MappingLocal}
}

// rotatedSpatialTree puts every primitive behind a single fixed rotation,
// so ComputeToScratch takes the MappingTransform path instead of
// MappingLocal/MappingScaleOffset.
type rotatedSpatialTree struct {
	transform f32.Affine2D
}

func newRotatedSpatialTree(radians float32) rotatedSpatialTree {
	return rotatedSpatialTree{transform: f32.Affine2D{}.Rotate(f32.Point{}, radians)}
}

func (t rotatedSpatialTree) RelativeTransform(from, to tile.SpatialNodeID) tile.SpaceMapping {
	return tile.SpaceMapping{Kind: tile.MappingTransform, Transform: t.transform}
}

// resourceCache is an in-memory ResourceCache: bump(key) simulates an
// image's backing bitmap being replaced.
type resourceCache struct {
	generations map[tile.ImageKey]tile.ImageGeneration
}

func newResourceCache() *resourceCache {
	return &resourceCache{generations: map[tile.ImageKey]tile.ImageGeneration{}}
}

func (r *resourceCache) ImageGeneration(key tile.ImageKey) tile.ImageGeneration {
	return r.generations[key]
}

func (r *resourceCache) bump(key tile.ImageKey) {
	r.generations[key]++
}

// bindingTable is an in-memory BindingTable[T]: set records each id's
// value and changed flag for the current frame, and the flag stays as
// last set until the next set call for that id.
type bindingTable[T any] struct {
	values  map[tile.PropertyBindingID]T
	changed map[tile.PropertyBindingID]bool
}

func newBindingTable[T any]() *bindingTable[T] {
	return &bindingTable[T]{
		values:  map[tile.PropertyBindingID]T{},
		changed: map[tile.PropertyBindingID]bool{},
	}
}

func (b *bindingTable[T]) Info(id tile.PropertyBindingID) (tile.BindingInfo[T], bool) {
	v, ok := b.values[id]
	if !ok {
		return tile.BindingInfo[T]{}, false
	}
	return tile.BindingInfo[T]{Value: v, Changed: b.changed[id]}, true
}

// set records id's value for the current frame and whether it changed
// relative to the previous one.
func (b *bindingTable[T]) set(id tile.PropertyBindingID, v T, changed bool) {
	b.values[id] = v
	b.changed[id] = changed
}

// compositeState is a minimal CompositeState: it just remembers whether
// the picture cache's cached per-tile dirty rects are still trustworthy.
type compositeState struct {
	dirtyRectsValid bool
}

func newCompositeState() *compositeState {
	return &compositeState{dirtyRectsValid: true}
}

func (c *compositeState) SetDirtyRectsAreValid(valid bool) {
	c.dirtyRectsValid = valid
}
