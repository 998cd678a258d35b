package physics

import "fmt"

// World is a minimal rigid-body sandbox: spheres, static ground planes and gravity.
type World struct {
	Gravity Vec3
	Bodies  []*Body

	nextID   int
	touching map[pairKey]bool
}

func NewWorld() *World {
	return &World{
		Gravity:  Vec3{0, -GravityAcceleration, 0},
		touching: make(map[pairKey]bool),
	}
}

// AddBody assigns the body an ID and appends it. Order is preserved.
func (w *World) AddBody(b *Body) error {
	if w == nil {
		return fmt.Errorf("world is nil")
	}
	if b == nil {
		return fmt.Errorf("body is nil")
	}
	w.nextID++
	b.ID = w.nextID
	w.Bodies = append(w.Bodies, b)
	return nil
}

// Step advances the world by dt seconds. onEnter is called once per body for every pair
// that starts touching this step, before the contact is resolved, so callers observe the
// velocities the bodies hit with.
func (w *World) Step(dt float64, onEnter func(Contact)) {
	if w == nil || dt <= 0 {
		return
	}
	w.integrate(dt)

	contacts := w.detectContacts()
	current := make(map[pairKey]bool, len(contacts))
	for _, c := range contacts {
		key := keyOf(c.Body, c.Other)
		current[key] = true
		if w.touching[key] || onEnter == nil {
			continue
		}
		onEnter(c)
		onEnter(c.Flip())
	}
	w.touching = current

	g := w.Gravity.Len()
	for _, c := range contacts {
		resolveContact(c, g, dt)
	}
}

// Touching reports whether a and b were in contact after the last step.
func (w *World) Touching(a, b *Body) bool {
	if w == nil || a == nil || b == nil {
		return false
	}
	return w.touching[keyOf(a, b)]
}

func (w *World) integrate(dt float64) {
	for _, b := range w.Bodies {
		if b.Static {
			continue
		}
		b.LinearVelocity = b.LinearVelocity.Add(w.Gravity.Mul(dt))
		b.Position = b.Position.Add(b.LinearVelocity.Mul(dt))
	}
}

func (w *World) detectContacts() []Contact {
	var contacts []Contact
	for i := 0; i < len(w.Bodies); i++ {
		for j := i + 1; j < len(w.Bodies); j++ {
			a, b := w.Bodies[i], w.Bodies[j]
			if a.Static && b.Static {
				continue
			}
			if a.Static {
				a, b = b, a
			}
			if c, ok := detect(a, b); ok {
				contacts = append(contacts, c)
			}
		}
	}
	return contacts
}
