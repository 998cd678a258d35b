// Package behavior holds per-object scripts driven by the scene: they react to physics
// state and never own the physics themselves.
package behavior

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Versifine/softball/internal/physics"
)

var ErrMissingBody = errors.New("missing rigid body")

// VelocityBody is the slice of a rigid body a behavior may read and write.
type VelocityBody interface {
	LinearVelocity() physics.Vec3
	SetLinearVelocity(v physics.Vec3)
	AngularVelocity() physics.Vec3
	SetAngularVelocity(v physics.Vec3)
}

// ScaleTransform exposes the object's local scale.
type ScaleTransform interface {
	Scale() physics.Vec3
	SetScale(s physics.Vec3)
}

// Object is what the host hands a behavior at start. Body may return nil.
type Object interface {
	Name() string
	Body() VelocityBody
	Transform() ScaleTransform
}

// Behavior is started once by the host. A behavior whose Start fails stays disabled
// and receives no further callbacks.
type Behavior interface {
	Kind() string
	Start(obj Object) error
	Enabled() bool
}

type FixedUpdater interface {
	FixedUpdate(dt float64)
}

type Updater interface {
	Update(dt float64)
}

type CollisionListener interface {
	OnCollisionEnter(c Collision)
}

type Publisher interface {
	Publish(eventName string, evt any)
}

type ContactPoint struct {
	Point  physics.Vec3
	Normal physics.Vec3
}

type Partner struct {
	Name string
	Tag  string
}

// Collision is handed to listeners on the step two objects start touching.
type Collision struct {
	Other    Partner
	Contacts []ContactPoint
}

func (c Collision) CompareTag(tag string) bool {
	return c.Other.Tag == tag
}

// Settings carries the tunables every factory may draw from.
type Settings struct {
	Damping     DamperConfig
	Deformation DeformerConfig
	GroundTag   string
	Bus         Publisher
}

type Factory func(Settings) Behavior

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a behavior constructible by name. Registering a name twice panics.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("behavior: Register called twice for " + name)
	}
	registry[name] = factory
}

func New(name string, settings Settings) (Behavior, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown behavior %q", name)
	}
	return factory(settings), nil
}

// Registered returns the sorted names of all registered behaviors.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

func publisherOr(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
