package scene

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Versifine/softball/internal/behavior"
	"github.com/Versifine/softball/internal/event"
	"github.com/Versifine/softball/internal/physics"
)

// Frames longer than this are clamped so a stall cannot trigger a burst of fixed steps.
const maxFrameDelta = 0.25

// Scene drives its objects the way a game loop would: fixed steps for physics and
// damping, one variable frame update per Advance, collisions in between.
type Scene struct {
	world     *physics.World
	bus       *event.Bus
	fixedStep float64

	objects []*GameObject
	byBody  map[*physics.Body]*GameObject

	accumulator float64
	elapsed     float64
	fixedSteps  int
	frames      int
	started     bool
}

func New(world *physics.World, fixedStep float64, bus *event.Bus) (*Scene, error) {
	if world == nil {
		return nil, fmt.Errorf("world is nil")
	}
	if fixedStep <= 0 {
		return nil, fmt.Errorf("fixed step must be > 0, got %v", fixedStep)
	}
	return &Scene{
		world:     world,
		bus:       bus,
		fixedStep: fixedStep,
		byBody:    make(map[*physics.Body]*GameObject),
	}, nil
}

// Add registers the object and its body. Objects cannot be added after Start.
func (s *Scene) Add(obj *GameObject) error {
	if s == nil {
		return fmt.Errorf("scene is nil")
	}
	if obj == nil {
		return fmt.Errorf("object is nil")
	}
	if s.started {
		return fmt.Errorf("scene already started")
	}
	for _, o := range s.objects {
		if o.name == obj.name {
			return fmt.Errorf("duplicate object name %q", obj.name)
		}
	}
	if obj.body != nil {
		if err := s.world.AddBody(obj.body); err != nil {
			return fmt.Errorf("add %s: %w", obj.name, err)
		}
		s.byBody[obj.body] = obj
	}
	s.objects = append(s.objects, obj)
	return nil
}

func (s *Scene) Object(name string) (*GameObject, bool) {
	if s == nil {
		return nil, false
	}
	for _, o := range s.objects {
		if o.name == name {
			return o, true
		}
	}
	return nil, false
}

func (s *Scene) Objects() []*GameObject {
	if s == nil {
		return nil
	}
	return append([]*GameObject(nil), s.objects...)
}

// Elapsed returns simulated seconds.
func (s *Scene) Elapsed() float64 { return s.elapsed }

func (s *Scene) FixedSteps() int { return s.fixedSteps }

func (s *Scene) Frames() int { return s.frames }

// Start calls every behavior's Start once. Advance calls it implicitly.
func (s *Scene) Start() {
	if s == nil || s.started {
		return
	}
	s.started = true
	for _, o := range s.objects {
		o.start()
	}
	slog.Info("Scene started", "objects", len(s.objects), "fixed_step", s.fixedStep)
}

// Advance runs as many fixed steps as frameDt covers, then one frame update.
func (s *Scene) Advance(frameDt float64) error {
	if s == nil {
		return fmt.Errorf("scene is nil")
	}
	if frameDt < 0 {
		return fmt.Errorf("negative frame delta %v", frameDt)
	}
	s.Start()
	if frameDt > maxFrameDelta {
		frameDt = maxFrameDelta
	}

	s.accumulator += frameDt
	for s.accumulator >= s.fixedStep {
		s.step()
		s.accumulator -= s.fixedStep
	}

	for _, o := range s.objects {
		o.update(frameDt)
	}
	s.frames++
	return nil
}

func (s *Scene) step() {
	for _, o := range s.objects {
		o.fixedUpdate(s.fixedStep)
	}
	s.world.Step(s.fixedStep, s.dispatchContact)
	s.fixedSteps++
	s.elapsed += s.fixedStep
}

func (s *Scene) dispatchContact(c physics.Contact) {
	self, ok := s.byBody[c.Body]
	if !ok {
		return
	}
	other := s.byBody[c.Other]
	partner := behavior.Partner{Name: c.Other.Name, Tag: c.Other.Tag}
	if other != nil {
		partner = behavior.Partner{Name: other.name, Tag: other.tag}
	}

	s.bus.Publish(event.EventCollisionEnter, &event.CollisionEvent{
		Object:   self.name,
		Other:    partner.Name,
		OtherTag: partner.Tag,
		Speed:    c.Body.Speed(),
		Time:     s.elapsed,
	})
	self.collisionEnter(behavior.Collision{
		Other:    partner,
		Contacts: []behavior.ContactPoint{{Point: c.Point, Normal: c.Normal}},
	})
}

type RunOptions struct {
	// Duration in simulated seconds; zero runs until ctx is done.
	Duration float64
	// FrameStep is the frame delta in seconds.
	FrameStep float64
	// Realtime paces frames with a wall-clock ticker instead of running flat out.
	Realtime bool
	// OnFrame, if set, is called after every frame.
	OnFrame func(s *Scene)
}

// Run advances the scene until the duration elapses or ctx is cancelled.
func (s *Scene) Run(ctx context.Context, opts RunOptions) error {
	if s == nil {
		return fmt.Errorf("scene is nil")
	}
	if opts.FrameStep <= 0 {
		return fmt.Errorf("frame step must be > 0, got %v", opts.FrameStep)
	}
	if opts.Duration <= 0 && !opts.Realtime {
		return fmt.Errorf("a headless run needs a duration")
	}

	var tick <-chan time.Time
	if opts.Realtime {
		ticker := time.NewTicker(time.Duration(opts.FrameStep * float64(time.Second)))
		defer ticker.Stop()
		tick = ticker.C
	}

	for opts.Duration <= 0 || s.elapsed < opts.Duration {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return nil
		}
		if err := s.Advance(opts.FrameStep); err != nil {
			return err
		}
		if opts.OnFrame != nil {
			opts.OnFrame(s)
		}
	}
	return nil
}
