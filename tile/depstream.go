// SPDX-License-Identifier: Unlicense OR MIT

package tile

import (
	"math"

	"github.com/rastercache/tilecache/internal/depstream"
)

// Binding is either a constant value or a reference to an animated scene
// property. T must be comparable so two Bindings can be compared with ==,
// the same way the comparator needs to tell a changed constant from an
// unchanged one.
type Binding[T comparable] struct {
	IsBound bool
	Value   T
	ID      PropertyBindingID
}

// ConstBinding returns a Binding holding a constant value.
func ConstBinding[T comparable](v T) Binding[T] {
	return Binding[T]{Value: v}
}

// BoundBinding returns a Binding animated by the given property id.
func BoundBinding[T comparable](id PropertyBindingID) Binding[T] {
	return Binding[T]{IsBound: true, ID: id}
}

// OpacityBinding is a constant alpha or an animated opacity binding.
type OpacityBinding = Binding[float32]

// ColorBinding is a constant color or an animated color binding.
type ColorBinding = Binding[ColorRGBA8]

// ImageDependency is a primitive's reference to an image resource: the
// key plus the generation observed when the dependency was recorded.
type ImageDependency struct {
	Key        ImageKey
	Generation ImageGeneration
}

// ClipDependency is a primitive's reference to one clip in its clip
// chain: the clip's stable identity (covering its shape/mode) plus a
// VertRange into the tile's vert_data for the clip's own quantized
// corners (covering its position).
type ClipDependency struct {
	ClipUID   StableID
	VertRange VertRange
}

func encodeClip(dst []byte, c ClipDependency) []byte {
	return depstream.AppendClip(dst, depstream.Clip{
		ClipUID:    uint64(c.ClipUID),
		VertOffset: c.VertRange.Offset,
		VertCount:  c.VertRange.Count,
	})
}

func encodeImage(dst []byte, img ImageDependency) []byte {
	return depstream.AppendImage(dst, depstream.Image{
		KeyNamespace: img.Key.Namespace,
		KeyIndex:     img.Key.Index,
		Generation:   uint32(img.Generation),
	})
}

func encodeOpacity(dst []byte, b OpacityBinding) []byte {
	if b.IsBound {
		return depstream.AppendOpacityBinding(dst, depstream.Binding{Kind: depstream.BindingID, ID: uint64(b.ID)})
	}
	return depstream.AppendOpacityBinding(dst, depstream.Binding{Kind: depstream.BindingValue, Value: math.Float32bits(b.Value)})
}

func encodeColor(dst []byte, b ColorBinding) []byte {
	if b.IsBound {
		return depstream.AppendColorBinding(dst, depstream.Binding{Kind: depstream.BindingID, ID: uint64(b.ID)})
	}
	return depstream.AppendColorBinding(dst, depstream.Binding{Kind: depstream.BindingValue, Value: packColor(b.Value)})
}

func packColor(c ColorRGBA8) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

func unpackColor(v uint32) ColorRGBA8 {
	return ColorRGBA8{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}
}

func decodeOpacity(b depstream.Binding) OpacityBinding {
	if b.Kind == depstream.BindingID {
		return OpacityBinding{IsBound: true, ID: PropertyBindingID(b.ID)}
	}
	return OpacityBinding{Value: math.Float32frombits(b.Value)}
}

func decodeColor(b depstream.Binding) ColorBinding {
	if b.Kind == depstream.BindingID {
		return ColorBinding{IsBound: true, ID: PropertyBindingID(b.ID)}
	}
	return ColorBinding{Value: unpackColor(b.Value)}
}
