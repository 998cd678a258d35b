package config

import "fmt"

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "auto"

	DefaultFixedStep  = 0.02
	DefaultFrameStep  = 1.0 / 60
	DefaultDuration   = 10.0
	DefaultGravity    = 9.81
	DefaultGroundName = "Ground"
	DefaultGroundTag  = "Ground"

	DefaultVelocityThreshold = 0.01

	DefaultMaxDeformation    = 0.4
	DefaultDeformationSpeed  = 20.0
	DefaultRecoverySpeed     = 8.0
	DefaultMinImpactVelocity = 1.5

	DefaultBallRadius = 0.5
	DefaultBallMass   = 1.0
	DefaultBallHeight = 5.0

	// Beyond this the Y scale of a fully deformed ball would reach zero.
	MaxDeformationLimit = 1 / 1.2
)

var DefaultBehaviors = []string{"damping", "deformation"}

// Float returns a pointer to v, for the optional numeric fields.
func Float(v float64) *float64 { return &v }

// ApplyDefaults fills every zero-valued field with its default.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	sim := &c.Simulation
	if sim.FixedStep == 0 {
		sim.FixedStep = DefaultFixedStep
	}
	if sim.FrameStep == 0 {
		sim.FrameStep = DefaultFrameStep
	}
	if sim.Duration == 0 {
		sim.Duration = DefaultDuration
	}
	if sim.Gravity == 0 {
		sim.Gravity = DefaultGravity
	}
	if sim.GroundName == "" {
		sim.GroundName = DefaultGroundName
	}
	if sim.GroundTag == "" {
		sim.GroundTag = DefaultGroundTag
	}

	if c.Damping.VelocityThreshold == nil {
		c.Damping.VelocityThreshold = Float(DefaultVelocityThreshold)
	}

	def := &c.Deformation
	if def.MaxDeformation == nil {
		def.MaxDeformation = Float(DefaultMaxDeformation)
	}
	if def.DeformationSpeed == 0 {
		def.DeformationSpeed = DefaultDeformationSpeed
	}
	if def.RecoverySpeed == 0 {
		def.RecoverySpeed = DefaultRecoverySpeed
	}
	if def.MinImpactVelocity == 0 {
		def.MinImpactVelocity = DefaultMinImpactVelocity
	}

	if len(c.Balls) == 0 {
		c.Balls = []BallConfig{{Position: Vec3{0, DefaultBallHeight, 0}}}
	}
	for i := range c.Balls {
		b := &c.Balls[i]
		if b.Name == "" {
			b.Name = fmt.Sprintf("ball-%d", i+1)
		}
		if b.Radius == 0 {
			b.Radius = DefaultBallRadius
		}
		if b.Mass == 0 {
			b.Mass = DefaultBallMass
		}
		if b.Scale == (Vec3{}) {
			b.Scale = Vec3{1, 1, 1}
		}
		if b.Behaviors == nil {
			b.Behaviors = append([]string(nil), DefaultBehaviors...)
		}
	}
}

// Validate reports the first invalid field, wrapping ErrInvalid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}

	switch c.Logging.Format {
	case "auto", "console", "json", "text":
	default:
		return invalid("logging.format %q", c.Logging.Format)
	}

	sim := c.Simulation
	if sim.FixedStep <= 0 {
		return invalid("simulation.fixed_step must be > 0, got %v", sim.FixedStep)
	}
	if sim.FrameStep <= 0 {
		return invalid("simulation.frame_step must be > 0, got %v", sim.FrameStep)
	}
	if sim.Duration < 0 {
		return invalid("simulation.duration must be >= 0, got %v", sim.Duration)
	}
	if sim.Gravity < 0 {
		return invalid("simulation.gravity must be >= 0, got %v", sim.Gravity)
	}

	if c.Damping.VelocityThreshold == nil || *c.Damping.VelocityThreshold < 0 {
		return invalid("damping.velocity_threshold must be set and >= 0")
	}

	def := c.Deformation
	if def.MaxDeformation == nil || *def.MaxDeformation < 0 || *def.MaxDeformation >= MaxDeformationLimit {
		return invalid("deformation.max_deformation must be set and in [0, %.4f)", MaxDeformationLimit)
	}
	if def.DeformationSpeed <= 0 {
		return invalid("deformation.deformation_speed must be > 0, got %v", def.DeformationSpeed)
	}
	if def.RecoverySpeed <= 0 {
		return invalid("deformation.recovery_speed must be > 0, got %v", def.RecoverySpeed)
	}
	if def.MinImpactVelocity < 0 {
		return invalid("deformation.min_impact_velocity must be >= 0, got %v", def.MinImpactVelocity)
	}

	seen := make(map[string]bool, len(c.Balls))
	for i, b := range c.Balls {
		if seen[b.Name] {
			return invalid("balls[%d].name %q is duplicated", i, b.Name)
		}
		seen[b.Name] = true
		if b.Name == sim.GroundName {
			return invalid("balls[%d].name %q collides with the ground name", i, b.Name)
		}
		if b.Radius <= 0 || b.Mass <= 0 {
			return invalid("balls[%d] radius and mass must be > 0", i)
		}
		if b.Restitution != nil && (*b.Restitution < 0 || *b.Restitution > 1) {
			return invalid("balls[%d].restitution must be in [0,1], got %v", i, *b.Restitution)
		}
		if b.Friction != nil && *b.Friction < 0 {
			return invalid("balls[%d].friction must be >= 0, got %v", i, *b.Friction)
		}
	}
	return nil
}
