package physics

type Shape uint8

const (
	ShapeSphere Shape = iota
	// ShapePlane is an infinite horizontal plane at Position.Y with normal +Y.
	ShapePlane
)

func (s Shape) String() string {
	switch s {
	case ShapeSphere:
		return "Sphere"
	case ShapePlane:
		return "Plane"
	default:
		return "Unknown"
	}
}

type Body struct {
	ID    int
	Name  string
	Tag   string
	Shape Shape

	Position        Vec3
	LinearVelocity  Vec3
	AngularVelocity Vec3

	Radius      float64
	Mass        float64
	Restitution float64
	Friction    float64
	Static      bool
}

// NewSphere returns a dynamic sphere. Non-positive radius or mass fall back to defaults.
func NewSphere(name, tag string, position Vec3, radius, mass float64) *Body {
	if radius <= 0 {
		radius = DefaultRadius
	}
	if mass <= 0 {
		mass = DefaultMass
	}
	return &Body{
		Name:        name,
		Tag:         tag,
		Shape:       ShapeSphere,
		Position:    position,
		Radius:      radius,
		Mass:        mass,
		Restitution: DefaultRestitution,
		Friction:    DefaultFriction,
	}
}

// NewGroundPlane returns a static plane at the given height.
func NewGroundPlane(name, tag string, height float64) *Body {
	return &Body{
		Name:        name,
		Tag:         tag,
		Shape:       ShapePlane,
		Position:    Vec3{0, height, 0},
		Restitution: 1,
		Friction:    1,
		Static:      true,
	}
}

func (b *Body) inverseMass() float64 {
	if b == nil || b.Static || b.Mass <= 0 {
		return 0
	}
	return 1 / b.Mass
}

// Speed returns the magnitude of the linear velocity.
func (b *Body) Speed() float64 {
	if b == nil {
		return 0
	}
	return b.LinearVelocity.Len()
}
