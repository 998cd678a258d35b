package behavior

import (
	"fmt"
	"log/slog"

	"github.com/Versifine/softball/internal/event"
	"github.com/Versifine/softball/internal/physics"
)

const (
	KindDamping = "damping"

	SoftBrakeSpeed     = 0.2
	LinearBrakeFactor  = 0.95
	AngularBrakeFactor = 0.9

	DefaultVelocityThreshold = 0.01
)

type DamperConfig struct {
	VelocityThreshold float64
}

func DefaultDamperConfig() DamperConfig {
	return DamperConfig{VelocityThreshold: DefaultVelocityThreshold}
}

func init() {
	Register(KindDamping, func(s Settings) Behavior {
		return NewVelocityDamper(s.Damping, s.Bus)
	})
}

// VelocityDamper bleeds off the small residual velocities a solver leaves behind so a
// ball actually comes to rest.
type VelocityDamper struct {
	cfg     DamperConfig
	bus     Publisher
	name    string
	body    VelocityBody
	enabled bool
	resting bool
	elapsed float64
}

func NewVelocityDamper(cfg DamperConfig, bus Publisher) *VelocityDamper {
	return &VelocityDamper{cfg: cfg, bus: publisherOr(bus)}
}

func (d *VelocityDamper) Kind() string { return KindDamping }

func (d *VelocityDamper) Enabled() bool { return d != nil && d.enabled }

func (d *VelocityDamper) Start(obj Object) error {
	if d == nil {
		return fmt.Errorf("damper is nil")
	}
	d.enabled = false
	if obj == nil {
		return fmt.Errorf("start damper: %w", ErrMissingBody)
	}
	d.name = obj.Name()
	body := obj.Body()
	if body == nil {
		slog.Error("Rigid body missing, damper disabled", "object", d.name)
		return fmt.Errorf("start damper on %s: %w", d.name, ErrMissingBody)
	}
	d.body = body
	d.enabled = true
	return nil
}

func (d *VelocityDamper) FixedUpdate(dt float64) {
	if !d.Enabled() {
		return
	}
	d.elapsed += dt
	Damp(d.body, d.cfg.VelocityThreshold)

	rest := d.body.LinearVelocity() == physics.Zero && d.body.AngularVelocity() == physics.Zero
	if rest && !d.resting {
		slog.Debug("Body came to rest", "object", d.name, "time", d.elapsed)
		d.bus.Publish(event.EventBodyRest, &event.RestEvent{Object: d.name, Time: d.elapsed})
	}
	d.resting = rest
}

// Damp applies one damping step. The soft brakes run first; the hard stops re-measure
// afterwards and may zero what the brakes just scaled.
func Damp(body VelocityBody, threshold float64) {
	if body == nil {
		return
	}
	if v := body.LinearVelocity(); v.Len() < SoftBrakeSpeed {
		body.SetLinearVelocity(v.Mul(LinearBrakeFactor))
	}
	if w := body.AngularVelocity(); w.Len() < SoftBrakeSpeed {
		body.SetAngularVelocity(w.Mul(AngularBrakeFactor))
	}
	if body.LinearVelocity().Len() < threshold {
		body.SetLinearVelocity(physics.Zero)
	}
	if body.AngularVelocity().Len() < threshold {
		body.SetAngularVelocity(physics.Zero)
	}
}
