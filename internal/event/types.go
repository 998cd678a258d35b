package event

import "github.com/Versifine/softball/internal/physics"

const (
	EventCollisionEnter = "collision.enter"
	EventDeformStart    = "deform.start"
	EventDeformRecover  = "deform.recover"
	EventDeformEnd      = "deform.end"
	EventImpactIgnored  = "impact.ignored"
	EventBodyRest       = "body.rest"
)

type CollisionEvent struct {
	Object   string
	Other    string
	OtherTag string
	Speed    float64
	Time     float64
}

// DeformEvent is published when a deformation starts, turns to recovery, or ends.
type DeformEvent struct {
	Object    string
	Speed     float64
	Intensity float64
	Normal    physics.Vec3
	Target    physics.Vec3
	Scale     physics.Vec3
}

type IgnoredImpactReason int

const (
	ReasonNotGround IgnoredImpactReason = iota
	ReasonTooWeak
)

func (r IgnoredImpactReason) String() string {
	switch r {
	case ReasonNotGround:
		return "NotGround"
	case ReasonTooWeak:
		return "TooWeak"
	default:
		return "Unknown"
	}
}

type IgnoredImpactEvent struct {
	Object string
	Other  string
	Speed  float64
	Reason IgnoredImpactReason
}

// RestEvent is published when a damped body reaches zero linear and angular velocity.
// Time is simulated seconds since the damper started.
type RestEvent struct {
	Object string
	Time   float64
}
