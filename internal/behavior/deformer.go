package behavior

import (
	"fmt"
	"log/slog"

	"github.com/Versifine/softball/internal/event"
	"github.com/Versifine/softball/internal/physics"
)

const (
	KindDeformation = "deformation"

	DefaultGroundTag = "Ground"

	DefaultMaxDeformation    = 0.4
	DefaultDeformationSpeed  = 20.0
	DefaultRecoverySpeed     = 8.0
	DefaultMinImpactVelocity = 1.5

	// Impact speed at which the deformation reaches maxDeformation.
	FullImpactSpeed = 10.0
	// Horizontal bulge and vertical squash per unit of deform intensity.
	WidenFactor   = 0.8
	FlattenFactor = 1.2
)

type DeformerConfig struct {
	MaxDeformation    float64
	DeformationSpeed  float64
	RecoverySpeed     float64
	MinImpactVelocity float64
}

func DefaultDeformerConfig() DeformerConfig {
	return DeformerConfig{
		MaxDeformation:    DefaultMaxDeformation,
		DeformationSpeed:  DefaultDeformationSpeed,
		RecoverySpeed:     DefaultRecoverySpeed,
		MinImpactVelocity: DefaultMinImpactVelocity,
	}
}

func init() {
	Register(KindDeformation, func(s Settings) Behavior {
		return NewImpactDeformer(s.Deformation, s.GroundTag, s.Bus)
	})
}

type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseDeforming
	PhaseRecovering
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseDeforming:
		return "Deforming"
	case PhaseRecovering:
		return "Recovering"
	default:
		return "Unknown"
	}
}

// DeformationState is the per-ball animation state. OriginalScale is fixed at start.
type DeformationState struct {
	OriginalScale physics.Vec3
	TargetScale   physics.Vec3
	Progress      float64
	Phase         Phase
}

func (s DeformationState) Animating() bool {
	return s.Phase != PhaseIdle
}

// DeformIntensity maps an impact speed to a squash amount in [0, maxDeformation].
func DeformIntensity(speed, maxDeformation float64) float64 {
	return physics.Clamp01(speed/FullImpactSpeed) * maxDeformation
}

// DeformedScale flattens original along Y and widens it along X and Z.
func DeformedScale(original physics.Vec3, intensity float64) physics.Vec3 {
	return physics.Hadamard(original, physics.Vec3{
		1 + intensity*WidenFactor,
		1 - intensity*FlattenFactor,
		1 + intensity*WidenFactor,
	})
}

// ImpactDeformer squashes the ball when it hits the ground hard enough, then lets it
// spring back. Collisions only set the target; Update owns all progress.
type ImpactDeformer struct {
	cfg       DeformerConfig
	groundTag string
	bus       Publisher

	name      string
	body      VelocityBody
	transform ScaleTransform
	enabled   bool
	state     DeformationState
	impact    event.DeformEvent
}

func NewImpactDeformer(cfg DeformerConfig, groundTag string, bus Publisher) *ImpactDeformer {
	if groundTag == "" {
		groundTag = DefaultGroundTag
	}
	return &ImpactDeformer{cfg: cfg, groundTag: groundTag, bus: publisherOr(bus)}
}

func (d *ImpactDeformer) Kind() string { return KindDeformation }

func (d *ImpactDeformer) Enabled() bool { return d != nil && d.enabled }

func (d *ImpactDeformer) State() DeformationState {
	if d == nil {
		return DeformationState{}
	}
	return d.state
}

func (d *ImpactDeformer) Start(obj Object) error {
	if d == nil {
		return fmt.Errorf("deformer is nil")
	}
	d.enabled = false
	if obj == nil {
		return fmt.Errorf("start deformer: %w", ErrMissingBody)
	}
	d.name = obj.Name()
	body := obj.Body()
	if body == nil {
		slog.Error("Rigid body missing, deformer disabled", "object", d.name)
		return fmt.Errorf("start deformer on %s: %w", d.name, ErrMissingBody)
	}
	transform := obj.Transform()
	if transform == nil {
		slog.Error("Transform missing, deformer disabled", "object", d.name)
		return fmt.Errorf("start deformer on %s: transform is nil", d.name)
	}

	d.body = body
	d.transform = transform
	original := transform.Scale()
	d.state = DeformationState{
		OriginalScale: original,
		TargetScale:   original,
		Phase:         PhaseIdle,
	}
	d.enabled = true
	slog.Debug("Deformer initialized", "object", d.name, "scale", original)
	return nil
}

func (d *ImpactDeformer) OnCollisionEnter(c Collision) {
	if !d.Enabled() {
		return
	}
	slog.Debug("Collision detected", "object", d.name, "other", c.Other.Name, "tag", c.Other.Tag)

	contact, ok := d.groundContact(c)
	speed := d.body.LinearVelocity().Len()
	if !ok {
		slog.Debug("Contact partner is not ground", "object", d.name, "other", c.Other.Name, "ground_tag", d.groundTag)
		d.bus.Publish(event.EventImpactIgnored, &event.IgnoredImpactEvent{
			Object: d.name, Other: c.Other.Name, Speed: speed, Reason: event.ReasonNotGround,
		})
		return
	}

	slog.Debug("Ground impact", "object", d.name, "speed", speed)
	if speed < d.cfg.MinImpactVelocity {
		slog.Debug("Impact too weak", "object", d.name, "speed", speed, "min", d.cfg.MinImpactVelocity)
		d.bus.Publish(event.EventImpactIgnored, &event.IgnoredImpactEvent{
			Object: d.name, Other: c.Other.Name, Speed: speed, Reason: event.ReasonTooWeak,
		})
		return
	}
	d.Impact(speed, contact.Normal)
}

// groundContact returns the first contact point of a collision with a ground-tagged partner.
func (d *ImpactDeformer) groundContact(c Collision) (ContactPoint, bool) {
	if !c.CompareTag(d.groundTag) || len(c.Contacts) == 0 {
		return ContactPoint{}, false
	}
	return c.Contacts[0], true
}

// Impact starts a deformation for the given impact speed. An impact while an animation
// is running restarts it from the original scale.
func (d *ImpactDeformer) Impact(speed float64, normal physics.Vec3) {
	if !d.Enabled() {
		return
	}
	intensity := DeformIntensity(speed, d.cfg.MaxDeformation)
	d.state.TargetScale = DeformedScale(d.state.OriginalScale, intensity)
	d.state.Progress = 0
	d.state.Phase = PhaseDeforming

	d.impact = event.DeformEvent{
		Object:    d.name,
		Speed:     speed,
		Intensity: intensity,
		Normal:    normal,
		Target:    d.state.TargetScale,
		Scale:     d.transform.Scale(),
	}
	slog.Debug("Deformation applied", "object", d.name, "intensity", intensity, "target", d.state.TargetScale)
	evt := d.impact
	d.bus.Publish(event.EventDeformStart, &evt)
}

func (d *ImpactDeformer) Update(dt float64) {
	if !d.Enabled() {
		return
	}
	switch d.state.Phase {
	case PhaseDeforming:
		d.state.Progress += dt * d.cfg.DeformationSpeed
		scale := physics.Lerp(d.state.OriginalScale, d.state.TargetScale, physics.Clamp01(d.state.Progress))
		d.transform.SetScale(scale)
		if d.state.Progress >= 1 {
			d.state.Progress = 0
			d.state.TargetScale = d.state.OriginalScale
			d.state.Phase = PhaseRecovering
			d.publishPhase(event.EventDeformRecover, scale)
		}
	case PhaseRecovering:
		d.state.Progress += dt * d.cfg.RecoverySpeed
		if d.state.Progress >= 1 {
			d.transform.SetScale(d.state.OriginalScale)
			d.state.Progress = 0
			d.state.Phase = PhaseIdle
			d.publishPhase(event.EventDeformEnd, d.state.OriginalScale)
			return
		}
		d.transform.SetScale(physics.Lerp(d.transform.Scale(), d.state.OriginalScale, d.state.Progress))
	}
}

func (d *ImpactDeformer) publishPhase(name string, scale physics.Vec3) {
	evt := d.impact
	evt.Scale = scale
	d.bus.Publish(name, &evt)
}
