// SPDX-License-Identifier: Unlicense OR MIT

package f32

import "math"

// Affine2D is a 2D affine transformation matrix in row-major order:
//
//	sx  hx  ox
//	hy  sy  oy
//	 0   0   1
//
// The zero value of Affine2D is the identity transform, so it can be used
// directly without a constructor.
type Affine2D struct {
	// a and e store sx-1 and sy-1, so the zero value is the identity
	// while an all-zero matrix stays representable.
	a, b, c float32
	d, e, f float32
}

// NewAffine2D creates a new Affine2D transform from the matrix elements.
func NewAffine2D(sx, hx, ox, hy, sy, oy float32) Affine2D {
	return Affine2D{a: sx - 1, b: hx, c: ox, d: hy, e: sy - 1, f: oy}
}

// elems returns the matrix elements.
func (a Affine2D) elems() (sx, hx, ox, hy, sy, oy float32) {
	return a.a + 1, a.b, a.c, a.d, a.e + 1, a.f
}

// Elems returns the raw matrix elements.
func (a Affine2D) Elems() (sx, hx, ox, hy, sy, oy float32) {
	return a.elems()
}

// Offset the transformation by offset.
func (a Affine2D) Offset(offset Point) Affine2D {
	return NewAffine2D(1, 0, offset.X, 0, 1, offset.Y).Mul(a)
}

// Scale the transformation around a center point by factor.
func (a Affine2D) Scale(center, factor Point) Affine2D {
	s := NewAffine2D(factor.X, 0, 0, 0, factor.Y, 0)
	return s.aroundCenter(center).Mul(a)
}

// Rotate the transformation by angle (in radians), clockwise, around a
// center point.
func (a Affine2D) Rotate(center Point, radians float32) Affine2D {
	s, c := float32(math.Sin(float64(radians))), float32(math.Cos(float64(radians)))
	r := NewAffine2D(c, -s, 0, s, c, 0)
	return r.aroundCenter(center).Mul(a)
}

// Shear the transformation by the given angles (in radians) around a
// center point.
func (a Affine2D) Shear(center Point, radiansX, radiansY float32) Affine2D {
	tx, ty := float32(math.Tan(float64(radiansX))), float32(math.Tan(float64(radiansY)))
	sh := NewAffine2D(1, tx, 0, ty, 1, 0)
	return sh.aroundCenter(center).Mul(a)
}

// aroundCenter wraps a with translations so it is applied relative to
// center instead of the origin.
func (a Affine2D) aroundCenter(center Point) Affine2D {
	if center == (Point{}) {
		return a
	}
	pre := NewAffine2D(1, 0, -center.X, 0, 1, -center.Y)
	post := NewAffine2D(1, 0, center.X, 0, 1, center.Y)
	return post.Mul(a.Mul(pre))
}

// Mul returns the transform that applies b, then a: a.Mul(b).Transform(p)
// equals a.Transform(b.Transform(p)).
func (a Affine2D) Mul(b Affine2D) Affine2D {
	a1, b1, c1, d1, e1, f1 := a.elems()
	a2, b2, c2, d2, e2, f2 := b.elems()
	return NewAffine2D(
		a1*a2+b1*d2, a1*b2+b1*e2, a1*c2+b1*f2+c1,
		d1*a2+e1*d2, d1*b2+e1*e2, d1*c2+e1*f2+f1,
	)
}

// Transform applies the transformation to p.
func (a Affine2D) Transform(p Point) Point {
	sx, hx, ox, hy, sy, oy := a.elems()
	return Point{
		X: sx*p.X + hx*p.Y + ox,
		Y: hy*p.X + sy*p.Y + oy,
	}
}

// Invert returns the inverse transform of a.
func (a Affine2D) Invert() Affine2D {
	sx, hx, ox, hy, sy, oy := a.elems()
	det := sx*sy - hx*hy
	if det == 0 {
		return Affine2D{}
	}
	invDet := 1 / det
	isx := sy * invDet
	ihx := -hx * invDet
	ihy := -hy * invDet
	isy := sx * invDet
	iox := -(isx*ox + ihx*oy)
	ioy := -(ihy*ox + isy*oy)
	return NewAffine2D(isx, ihx, iox, ihy, isy, ioy)
}

// Determinant returns the determinant of the linear part of the
// transform. A negative determinant means the transform reverses
// winding order (a reflection).
func (a Affine2D) Determinant() float32 {
	sx, hx, _, hy, sy, _ := a.elems()
	return sx*sy - hx*hy
}

// TransformRect applies the transform to each corner of r and returns the
// axis-aligned bounding box of the result. Use this only when the caller
// doesn't need the individual (possibly non-axis-aligned) corners.
func (a Affine2D) TransformRect(r Rectangle) Rectangle {
	p0 := a.Transform(r.Min)
	p1 := a.Transform(Point{X: r.Max.X, Y: r.Min.Y})
	p2 := a.Transform(Point{X: r.Min.X, Y: r.Max.Y})
	p3 := a.Transform(r.Max)
	min := p0
	max := p0
	for _, p := range [...]Point{p1, p2, p3} {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return Rectangle{Min: min, Max: max}
}
