// Package report aggregates behavior events into a per-object run summary.
package report

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/Versifine/softball/internal/event"
)

// ObjectStats is the per-object summary. MinScaleY is only meaningful when Squashed is
// set, and RestedAt only when Rests > 0.
type ObjectStats struct {
	Name             string
	Collisions       int
	Impacts          int
	IgnoredNotGround int
	IgnoredTooWeak   int
	CompletedCycles  int
	MaxImpactSpeed   float64
	MaxIntensity     float64
	Squashed         bool
	MinScaleY        float64
	Rests            int
	RestedAt         float64
}

// Collector must be attached before the scene runs. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	objects map[string]*ObjectStats
}

func NewCollector() *Collector {
	return &Collector{objects: make(map[string]*ObjectStats)}
}

// Attach subscribes the collector to every event it summarizes.
func (c *Collector) Attach(bus *event.Bus) {
	if c == nil || bus == nil {
		return
	}
	bus.Subscribe(event.EventCollisionEnter, c.onCollision)
	bus.Subscribe(event.EventDeformStart, c.onDeformStart)
	bus.Subscribe(event.EventDeformRecover, c.onDeformRecover)
	bus.Subscribe(event.EventDeformEnd, c.onDeformEnd)
	bus.Subscribe(event.EventImpactIgnored, c.onIgnored)
	bus.Subscribe(event.EventBodyRest, c.onRest)
}

func (c *Collector) stats(name string) *ObjectStats {
	s, ok := c.objects[name]
	if !ok {
		s = &ObjectStats{Name: name}
		c.objects[name] = s
	}
	return s
}

func (c *Collector) onCollision(raw any) {
	evt, ok := raw.(*event.CollisionEvent)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats(evt.Object).Collisions++
}

func (c *Collector) onDeformStart(raw any) {
	evt, ok := raw.(*event.DeformEvent)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats(evt.Object)
	s.Impacts++
	s.MaxImpactSpeed = max(s.MaxImpactSpeed, evt.Speed)
	s.MaxIntensity = max(s.MaxIntensity, evt.Intensity)
}

// onDeformRecover records the scale at the deepest point of the squash.
func (c *Collector) onDeformRecover(raw any) {
	evt, ok := raw.(*event.DeformEvent)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats(evt.Object)
	if !s.Squashed || evt.Scale.Y() < s.MinScaleY {
		s.MinScaleY = evt.Scale.Y()
	}
	s.Squashed = true
}

func (c *Collector) onDeformEnd(raw any) {
	evt, ok := raw.(*event.DeformEvent)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats(evt.Object).CompletedCycles++
}

func (c *Collector) onIgnored(raw any) {
	evt, ok := raw.(*event.IgnoredImpactEvent)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats(evt.Object)
	switch evt.Reason {
	case event.ReasonNotGround:
		s.IgnoredNotGround++
	case event.ReasonTooWeak:
		s.IgnoredTooWeak++
	}
}

func (c *Collector) onRest(raw any) {
	evt, ok := raw.(*event.RestEvent)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats(evt.Object)
	s.Rests++
	s.RestedAt = evt.Time
}

// Summary returns a snapshot sorted by object name.
func (c *Collector) Summary() []ObjectStats {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ObjectStats, 0, len(c.objects))
	for _, s := range c.objects {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Write prints the summary as an aligned table.
func (c *Collector) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%-12s %6s %7s %9s %7s %6s %9s %9s %8s %5s %9s\n",
		"object", "hits", "impacts", "notground", "tooweak", "cycles", "maxspeed", "intensity", "minscale", "rests", "rested_at"); err != nil {
		return err
	}
	for _, s := range c.Summary() {
		minScale := "-"
		if s.Squashed {
			minScale = fmt.Sprintf("%.3f", s.MinScaleY)
		}
		restedAt := "-"
		if s.Rests > 0 {
			restedAt = fmt.Sprintf("%.2f", s.RestedAt)
		}
		if _, err := fmt.Fprintf(w, "%-12s %6d %7d %9d %7d %6d %9.3f %9.3f %8s %5d %9s\n",
			s.Name, s.Collisions, s.Impacts, s.IgnoredNotGround, s.IgnoredTooWeak,
			s.CompletedCycles, s.MaxImpactSpeed, s.MaxIntensity, minScale, s.Rests, restedAt); err != nil {
			return err
		}
	}
	return nil
}
