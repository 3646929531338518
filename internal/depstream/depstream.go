// SPDX-License-Identifier: Unlicense OR MIT

// Package depstream implements the byte-packed, tagged encoding used for a
// tile's per-primitive dependency stream. It plays the same role for the
// dependency stream that gioui.org/internal/opconst and
// gioui.org/internal/ops play for the op stream: a tag byte per record,
// a fixed payload size per tag, and a little-endian binary.Write-style
// encoding that avoids per-record allocation.
//
// Unlike the op stream, dependency records never nest and are never
// replayed out of order: a tile's dep_data is a flat sequence consumed
// strictly front-to-back, in lockstep between two descriptors.
package depstream

import "encoding/binary"

// Tag identifies the variant of a dependency record. Values start at a
// high number, matching opconst's firstOpIndex convention, so a stray
// zero byte (e.g. from an unwritten buffer) is never mistaken for a
// valid tag.
type Tag byte

const firstTag = 200

const (
	TagClip Tag = firstTag + iota
	TagImage
	TagOpacityBinding
	TagColorBinding
)

const (
	// sizeClip is ClipUID (uint64) + VertRange (2x uint32).
	sizeClip = 8 + 4 + 4
	// sizeImage is ImageKey (2x uint32) + ImageGeneration (uint32).
	sizeImage = 4 + 4 + 4
	// sizeBinding is a Kind byte + an 8 byte payload big enough to hold
	// either a float32/RGBA8 value or a PropertyBindingID.
	sizeBinding = 1 + 8
)

// Size returns the payload size in bytes for a tag, not including the
// tag byte itself.
func (t Tag) Size() int {
	switch t {
	case TagClip:
		return sizeClip
	case TagImage:
		return sizeImage
	case TagOpacityBinding, TagColorBinding:
		return sizeBinding
	default:
		panic("depstream: unknown tag")
	}
}

// BindingKind discriminates a Binding record's payload.
type BindingKind byte

const (
	BindingValue BindingKind = iota
	BindingID
)

// Clip is the decoded payload of a TagClip record.
type Clip struct {
	ClipUID      uint64
	VertOffset   uint32
	VertCount    uint32
}

// Image is the decoded payload of a TagImage record.
type Image struct {
	KeyNamespace uint32
	KeyIndex     uint32
	Generation   uint32
}

// Binding is the decoded payload of a TagOpacityBinding/TagColorBinding
// record. Value holds a float32 (opacity) or a packed RGBA8 (color) in
// its low 32 bits; ID holds a property binding id when Kind == BindingID.
type Binding struct {
	Kind  BindingKind
	Value uint32
	ID    uint64
}

// AppendClip appends a TagClip record to dst.
func AppendClip(dst []byte, c Clip) []byte {
	dst = append(dst, byte(TagClip))
	var buf [sizeClip]byte
	binary.LittleEndian.PutUint64(buf[0:8], c.ClipUID)
	binary.LittleEndian.PutUint32(buf[8:12], c.VertOffset)
	binary.LittleEndian.PutUint32(buf[12:16], c.VertCount)
	return append(dst, buf[:]...)
}

// AppendImage appends a TagImage record to dst.
func AppendImage(dst []byte, img Image) []byte {
	dst = append(dst, byte(TagImage))
	var buf [sizeImage]byte
	binary.LittleEndian.PutUint32(buf[0:4], img.KeyNamespace)
	binary.LittleEndian.PutUint32(buf[4:8], img.KeyIndex)
	binary.LittleEndian.PutUint32(buf[8:12], img.Generation)
	return append(dst, buf[:]...)
}

// AppendOpacityBinding appends a TagOpacityBinding record to dst.
func AppendOpacityBinding(dst []byte, b Binding) []byte {
	return appendBinding(dst, TagOpacityBinding, b)
}

// AppendColorBinding appends a TagColorBinding record to dst.
func AppendColorBinding(dst []byte, b Binding) []byte {
	return appendBinding(dst, TagColorBinding, b)
}

func appendBinding(dst []byte, tag Tag, b Binding) []byte {
	dst = append(dst, byte(tag))
	var buf [sizeBinding]byte
	buf[0] = byte(b.Kind)
	switch b.Kind {
	case BindingValue:
		binary.LittleEndian.PutUint32(buf[1:5], b.Value)
	case BindingID:
		binary.LittleEndian.PutUint64(buf[1:9], b.ID)
	}
	return append(dst, buf[:]...)
}

// Record is a decoded dependency record; Tag selects which field is valid.
type Record struct {
	Tag     Tag
	Clip    Clip
	Image   Image
	Binding Binding
}

// Decode reads a single tagged record from the front of data and returns
// it along with the remaining, unconsumed bytes. It panics if data is
// too short or the tag byte is unrecognised: callers must only invoke it
// exactly dep_count times per primitive, per the owning descriptor's
// (dep_offset, dep_count), which is the contract the encoder and decoder
// are built around.
func Decode(data []byte) (Record, []byte) {
	tag := Tag(data[0])
	n := tag.Size()
	payload := data[1 : 1+n]
	rest := data[1+n:]
	var rec Record
	rec.Tag = tag
	switch tag {
	case TagClip:
		rec.Clip = Clip{
			ClipUID:    binary.LittleEndian.Uint64(payload[0:8]),
			VertOffset: binary.LittleEndian.Uint32(payload[8:12]),
			VertCount:  binary.LittleEndian.Uint32(payload[12:16]),
		}
	case TagImage:
		rec.Image = Image{
			KeyNamespace: binary.LittleEndian.Uint32(payload[0:4]),
			KeyIndex:     binary.LittleEndian.Uint32(payload[4:8]),
			Generation:   binary.LittleEndian.Uint32(payload[8:12]),
		}
	case TagOpacityBinding, TagColorBinding:
		b := Binding{Kind: BindingKind(payload[0])}
		switch b.Kind {
		case BindingValue:
			b.Value = binary.LittleEndian.Uint32(payload[1:5])
		case BindingID:
			b.ID = binary.LittleEndian.Uint64(payload[1:9])
		}
		rec.Binding = b
	default:
		panic("depstream: unknown tag")
	}
	return rec, rest
}
