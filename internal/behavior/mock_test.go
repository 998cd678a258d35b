package behavior

import (
	"math"
	"testing"

	"github.com/Versifine/softball/internal/physics"
)

type mockBody struct {
	linear  physics.Vec3
	angular physics.Vec3
}

func (m *mockBody) LinearVelocity() physics.Vec3      { return m.linear }
func (m *mockBody) SetLinearVelocity(v physics.Vec3)  { m.linear = v }
func (m *mockBody) AngularVelocity() physics.Vec3     { return m.angular }
func (m *mockBody) SetAngularVelocity(v physics.Vec3) { m.angular = v }

type mockTransform struct {
	scale physics.Vec3
	sets  int
}

func (m *mockTransform) Scale() physics.Vec3 { return m.scale }
func (m *mockTransform) SetScale(s physics.Vec3) {
	m.scale = s
	m.sets++
}

type mockObject struct {
	name      string
	body      *mockBody
	transform *mockTransform
}

func (m *mockObject) Name() string { return m.name }

func (m *mockObject) Body() VelocityBody {
	if m.body == nil {
		return nil
	}
	return m.body
}

func (m *mockObject) Transform() ScaleTransform {
	if m.transform == nil {
		return nil
	}
	return m.transform
}

func newMockObject(scale physics.Vec3) *mockObject {
	return &mockObject{
		name:      "ball",
		body:      &mockBody{},
		transform: &mockTransform{scale: scale},
	}
}

type published struct {
	name string
	evt  any
}

type recordingBus struct {
	events []published
}

func (r *recordingBus) Publish(name string, evt any) {
	r.events = append(r.events, published{name: name, evt: evt})
}

func (r *recordingBus) names() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.name)
	}
	return out
}

func approxEqual(t *testing.T, got, want, tol float64, field string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %.8f, want %.8f (tol=%.8f)", field, got, want, tol)
	}
}

func approxVec(t *testing.T, got, want physics.Vec3, tol float64, field string) {
	t.Helper()
	for i := 0; i < 3; i++ {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("%s = %v, want %v (tol=%g)", field, got, want, tol)
		}
	}
}
