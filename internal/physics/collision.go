package physics

import "math"

// Contact describes Body touching Other. Normal points from Other toward Body.
type Contact struct {
	Body        *Body
	Other       *Body
	Point       Vec3
	Normal      Vec3
	Penetration float64
	// RelativeVelocity is Body's velocity relative to Other, measured before resolution.
	RelativeVelocity Vec3
}

// Flip returns the same contact seen from Other.
func (c Contact) Flip() Contact {
	return Contact{
		Body:             c.Other,
		Other:            c.Body,
		Point:            c.Point,
		Normal:           c.Normal.Mul(-1),
		Penetration:      c.Penetration,
		RelativeVelocity: c.RelativeVelocity.Mul(-1),
	}
}

type pairKey struct {
	a, b int
}

func keyOf(a, b *Body) pairKey {
	if a.ID > b.ID {
		a, b = b, a
	}
	return pairKey{a: a.ID, b: b.ID}
}

// detect returns the contact between a and b, if they touch.
func detect(a, b *Body) (Contact, bool) {
	switch {
	case a.Shape == ShapeSphere && b.Shape == ShapeSphere:
		return sphereSphere(a, b)
	case a.Shape == ShapeSphere && b.Shape == ShapePlane:
		return spherePlane(a, b)
	case a.Shape == ShapePlane && b.Shape == ShapeSphere:
		c, ok := spherePlane(b, a)
		if !ok {
			return Contact{}, false
		}
		return c.Flip(), true
	default:
		return Contact{}, false
	}
}

func spherePlane(sphere, plane *Body) (Contact, bool) {
	gap := sphere.Position.Y() - plane.Position.Y() - sphere.Radius
	if gap > ContactSlop {
		return Contact{}, false
	}
	return Contact{
		Body:             sphere,
		Other:            plane,
		Point:            Vec3{sphere.Position.X(), plane.Position.Y(), sphere.Position.Z()},
		Normal:           Up,
		Penetration:      math.Max(-gap, 0),
		RelativeVelocity: sphere.LinearVelocity.Sub(plane.LinearVelocity),
	}, true
}

func sphereSphere(a, b *Body) (Contact, bool) {
	delta := a.Position.Sub(b.Position)
	dist := delta.Len()
	minDist := a.Radius + b.Radius
	if dist-minDist > ContactSlop {
		return Contact{}, false
	}
	normal := Up
	if dist > CollisionAxisTolerance {
		normal = delta.Mul(1 / dist)
	}
	return Contact{
		Body:             a,
		Other:            b,
		Point:            b.Position.Add(normal.Mul(b.Radius)),
		Normal:           normal,
		Penetration:      math.Max(minDist-dist, 0),
		RelativeVelocity: a.LinearVelocity.Sub(b.LinearVelocity),
	}, true
}
