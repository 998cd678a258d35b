package physics

import "github.com/go-gl/mathgl/mgl64"

// Vec3 is the vector type shared by the world and everything layered on top of it.
type Vec3 = mgl64.Vec3

var (
	Zero = Vec3{}
	One  = Vec3{1, 1, 1}
	Up   = Vec3{0, 1, 0}
)

// Lerp returns a + (b-a)*t without clamping t.
func Lerp(a, b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Hadamard multiplies a and b component-wise.
func Hadamard(a, b Vec3) Vec3 {
	return Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func Clamp01(v float64) float64 {
	return mgl64.Clamp(v, 0, 1)
}

func tangential(v, normal Vec3) Vec3 {
	return v.Sub(normal.Mul(v.Dot(normal)))
}
