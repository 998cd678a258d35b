package physics

import "math"

// resolveContact separates the pair along the contact normal and applies the bounce,
// friction and rolling response. Static bodies never move.
func resolveContact(c Contact, gravity float64, dt float64) {
	a, b := c.Body, c.Other
	invA, invB := a.inverseMass(), b.inverseMass()
	invSum := invA + invB
	if invSum == 0 {
		return
	}

	if c.Penetration > 0 {
		a.Position = a.Position.Add(c.Normal.Mul(c.Penetration * invA / invSum))
		b.Position = b.Position.Sub(c.Normal.Mul(c.Penetration * invB / invSum))
	}

	rel := a.LinearVelocity.Sub(b.LinearVelocity)
	vn := rel.Dot(c.Normal)
	if vn >= 0 {
		return
	}

	restitution := math.Min(a.Restitution, b.Restitution)
	if -vn < RestingBounceSpeed {
		restitution = 0
	}
	j := -(1 + restitution) * vn / invSum
	a.LinearVelocity = a.LinearVelocity.Add(c.Normal.Mul(j * invA))
	b.LinearVelocity = b.LinearVelocity.Sub(c.Normal.Mul(j * invB))

	friction := math.Sqrt(a.Friction * b.Friction)
	applyFriction(a, c.Normal, friction, gravity, dt)
	applyFriction(b, c.Normal.Mul(-1), friction, gravity, dt)
}

// applyFriction removes up to friction*g*dt of tangential speed and pulls the angular
// velocity toward rolling without slipping.
func applyFriction(body *Body, normal Vec3, friction, gravity, dt float64) {
	if body.Static || body.Shape != ShapeSphere {
		return
	}
	vt := tangential(body.LinearVelocity, normal)
	speed := vt.Len()
	if speed > CollisionAxisTolerance {
		drop := math.Min(speed, friction*gravity*dt)
		vt = vt.Mul((speed - drop) / speed)
		body.LinearVelocity = body.LinearVelocity.Sub(tangential(body.LinearVelocity, normal)).Add(vt)
	}

	rolling := normal.Cross(vt).Mul(1 / body.Radius)
	body.AngularVelocity = body.AngularVelocity.Add(rolling.Sub(body.AngularVelocity).Mul(RollingCoupling))
}
