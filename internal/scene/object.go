package scene

import (
	"log/slog"

	"github.com/Versifine/softball/internal/behavior"
	"github.com/Versifine/softball/internal/physics"
)

// Transform holds the object's local scale.
type Transform struct {
	scale physics.Vec3
}

func (t *Transform) Scale() physics.Vec3     { return t.scale }
func (t *Transform) SetScale(s physics.Vec3) { t.scale = s }

// bodyHandle exposes a physics body through behavior.VelocityBody.
type bodyHandle struct {
	b *physics.Body
}

func (h bodyHandle) LinearVelocity() physics.Vec3      { return h.b.LinearVelocity }
func (h bodyHandle) SetLinearVelocity(v physics.Vec3)  { h.b.LinearVelocity = v }
func (h bodyHandle) AngularVelocity() physics.Vec3     { return h.b.AngularVelocity }
func (h bodyHandle) SetAngularVelocity(v physics.Vec3) { h.b.AngularVelocity = v }

type GameObject struct {
	name      string
	tag       string
	transform *Transform
	body      *physics.Body
	behaviors []behavior.Behavior
}

// NewGameObject creates an object. body may be nil for objects without physics.
func NewGameObject(name, tag string, scale physics.Vec3, body *physics.Body) *GameObject {
	if body != nil {
		body.Name = name
		body.Tag = tag
	}
	return &GameObject{
		name:      name,
		tag:       tag,
		transform: &Transform{scale: scale},
		body:      body,
	}
}

func (g *GameObject) Name() string { return g.name }

func (g *GameObject) Tag() string { return g.tag }

func (g *GameObject) Body() behavior.VelocityBody {
	if g.body == nil {
		return nil
	}
	return bodyHandle{b: g.body}
}

func (g *GameObject) Transform() behavior.ScaleTransform {
	return g.transform
}

func (g *GameObject) Scale() physics.Vec3 { return g.transform.scale }

// PhysicsBody returns the underlying body, or nil.
func (g *GameObject) PhysicsBody() *physics.Body { return g.body }

func (g *GameObject) AddBehavior(b behavior.Behavior) {
	if b == nil {
		return
	}
	g.behaviors = append(g.behaviors, b)
}

func (g *GameObject) Behaviors() []behavior.Behavior {
	return append([]behavior.Behavior(nil), g.behaviors...)
}

func (g *GameObject) start() {
	for _, b := range g.behaviors {
		if err := b.Start(g); err != nil {
			slog.Warn("Behavior disabled", "object", g.name, "behavior", b.Kind(), "error", err)
		}
	}
}

func (g *GameObject) fixedUpdate(dt float64) {
	for _, b := range g.behaviors {
		if u, ok := b.(behavior.FixedUpdater); ok && b.Enabled() {
			u.FixedUpdate(dt)
		}
	}
}

func (g *GameObject) update(dt float64) {
	for _, b := range g.behaviors {
		if u, ok := b.(behavior.Updater); ok && b.Enabled() {
			u.Update(dt)
		}
	}
}

func (g *GameObject) collisionEnter(c behavior.Collision) {
	for _, b := range g.behaviors {
		if l, ok := b.(behavior.CollisionListener); ok && b.Enabled() {
			l.OnCollisionEnter(c)
		}
	}
}
