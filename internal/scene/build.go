package scene

import (
	"fmt"

	"github.com/Versifine/softball/internal/behavior"
	"github.com/Versifine/softball/internal/config"
	"github.com/Versifine/softball/internal/event"
	"github.com/Versifine/softball/internal/physics"
)

// Build assembles a scene from cfg: a ground plane plus one object per configured ball,
// each carrying the behaviors it names.
func Build(cfg *config.Config, bus *event.Bus) (*Scene, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}
	sim := cfg.Simulation

	world := physics.NewWorld()
	world.Gravity = physics.Vec3{0, -sim.Gravity, 0}

	s, err := New(world, sim.FixedStep, bus)
	if err != nil {
		return nil, err
	}

	ground := NewGameObject(sim.GroundName, sim.GroundTag, physics.One,
		physics.NewGroundPlane(sim.GroundName, sim.GroundTag, sim.GroundHeight))
	if err := s.Add(ground); err != nil {
		return nil, err
	}

	settings := behavior.Settings{
		Damping: behavior.DamperConfig{
			VelocityThreshold: *cfg.Damping.VelocityThreshold,
		},
		Deformation: behavior.DeformerConfig{
			MaxDeformation:    *cfg.Deformation.MaxDeformation,
			DeformationSpeed:  cfg.Deformation.DeformationSpeed,
			RecoverySpeed:     cfg.Deformation.RecoverySpeed,
			MinImpactVelocity: cfg.Deformation.MinImpactVelocity,
		},
		GroundTag: sim.GroundTag,
		Bus:       bus,
	}

	for _, bc := range cfg.Balls {
		obj, err := buildBall(bc, settings)
		if err != nil {
			return nil, err
		}
		if err := s.Add(obj); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func buildBall(bc config.BallConfig, settings behavior.Settings) (*GameObject, error) {
	body := physics.NewSphere(bc.Name, bc.Tag, physics.Vec3(bc.Position), bc.Radius, bc.Mass)
	body.LinearVelocity = physics.Vec3(bc.Velocity)
	body.AngularVelocity = physics.Vec3(bc.AngularVelocity)
	if bc.Restitution != nil {
		body.Restitution = *bc.Restitution
	}
	if bc.Friction != nil {
		body.Friction = *bc.Friction
	}

	obj := NewGameObject(bc.Name, bc.Tag, physics.Vec3(bc.Scale), body)
	for _, name := range bc.Behaviors {
		b, err := behavior.New(name, settings)
		if err != nil {
			return nil, fmt.Errorf("ball %s: %w", bc.Name, err)
		}
		obj.AddBehavior(b)
	}
	return obj, nil
}
