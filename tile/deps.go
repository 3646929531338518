// SPDX-License-Identifier: Unlicense OR MIT

package tile

// SpatialTree is the read-only collaborator that provides relative
// transforms between coordinate spaces. Owned and updated by the scene
// builder; this package only ever queries it.
type SpatialTree interface {
	// RelativeTransform returns the mapping from the `from` spatial node
	// to the `to` spatial node.
	RelativeTransform(from, to SpatialNodeID) SpaceMapping
}

// ResourceCache is the read-only collaborator that owns image handles and
// their generation counters.
type ResourceCache interface {
	// ImageGeneration returns the current generation of key. Monotone:
	// any bitmap replacement bumps it.
	ImageGeneration(key ImageKey) ImageGeneration
}

// BindingInfo describes the current state of one animated scene property.
type BindingInfo[T any] struct {
	// Value is the current value retrieved from dynamic scene properties.
	Value T
	// Changed is true iff Value differs from the previous frame's value.
	Changed bool
}

// BindingTable is the read-only collaborator reporting per-frame state
// for animated opacity or color bindings.
type BindingTable[T any] interface {
	Info(id PropertyBindingID) (BindingInfo[T], bool)
}
