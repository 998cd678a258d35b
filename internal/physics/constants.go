package physics

const (
	GravityAcceleration = 9.81

	DefaultRadius      = 0.5
	DefaultMass        = 1.0
	DefaultRestitution = 0.6
	DefaultFriction    = 0.4

	// Normal speeds below this bounce with zero restitution so resting contact settles.
	RestingBounceSpeed = 0.5
	// Bodies within this distance of a surface still count as touching it.
	ContactSlop = 1e-3
	// Fraction of the gap to the rolling angular velocity closed per contact step.
	RollingCoupling = 0.25

	CollisionAxisTolerance = 1e-9
)
