package scene

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Versifine/softball/internal/behavior"
	"github.com/Versifine/softball/internal/config"
	"github.com/Versifine/softball/internal/event"
	"github.com/Versifine/softball/internal/physics"
)

// recorder logs every lifecycle callback it receives.
type recorder struct {
	calls   *[]string
	enabled bool
	fail    bool
}

func (r *recorder) Kind() string  { return "recorder" }
func (r *recorder) Enabled() bool { return r.enabled }

func (r *recorder) Start(obj behavior.Object) error {
	*r.calls = append(*r.calls, "start")
	if r.fail || obj.Body() == nil {
		return behavior.ErrMissingBody
	}
	r.enabled = true
	return nil
}

func (r *recorder) FixedUpdate(float64) { *r.calls = append(*r.calls, "fixed") }
func (r *recorder) Update(float64)      { *r.calls = append(*r.calls, "update") }
func (r *recorder) OnCollisionEnter(c behavior.Collision) {
	*r.calls = append(*r.calls, "collision:"+c.Other.Tag)
}

func newTestScene(t *testing.T, fixedStep float64, bus *event.Bus) *Scene {
	t.Helper()
	s, err := New(physics.NewWorld(), fixedStep, bus)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ground := NewGameObject("Ground", "Ground", physics.One, physics.NewGroundPlane("Ground", "Ground", 0))
	if err := s.Add(ground); err != nil {
		t.Fatalf("Add ground: %v", err)
	}
	return s
}

func TestNewRejectsBadArgs(t *testing.T) {
	if _, err := New(nil, 0.02, nil); err == nil {
		t.Fatalf("New(nil world) error = nil")
	}
	if _, err := New(physics.NewWorld(), 0, nil); err == nil {
		t.Fatalf("New(fixedStep=0) error = nil")
	}
}

func TestAddRejectsDuplicatesAndLateObjects(t *testing.T) {
	s := newTestScene(t, 0.02, nil)
	if err := s.Add(NewGameObject("Ground", "", physics.One, nil)); err == nil {
		t.Fatalf("duplicate name accepted")
	}
	if err := s.Add(nil); err == nil {
		t.Fatalf("nil object accepted")
	}
	s.Start()
	if err := s.Add(NewGameObject("late", "", physics.One, nil)); err == nil {
		t.Fatalf("object added after start")
	}
}

func TestAdvanceCallbackOrder(t *testing.T) {
	s := newTestScene(t, 0.02, nil)
	var calls []string
	ball := NewGameObject("ball", "", physics.One, physics.NewSphere("", "", physics.Vec3{0, 0.55, 0}, 0.5, 1))
	ball.PhysicsBody().LinearVelocity = physics.Vec3{0, -3, 0}
	ball.AddBehavior(&recorder{calls: &calls})
	if err := s.Add(ball); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.Advance(0.02); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	want := []string{"start", "fixed", "collision:Ground", "update"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
	if s.FixedSteps() != 1 || s.Frames() != 1 {
		t.Fatalf("fixed=%d frames=%d, want 1/1", s.FixedSteps(), s.Frames())
	}
}

func TestAdvanceAccumulatesFixedSteps(t *testing.T) {
	s := newTestScene(t, 0.02, nil)
	for i := 0; i < 10; i++ {
		if err := s.Advance(0.01); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	if s.FixedSteps() < 4 || s.FixedSteps() > 5 {
		t.Fatalf("fixed steps = %d after 0.1s of 0.02 steps", s.FixedSteps())
	}
	if s.Frames() != 10 {
		t.Fatalf("frames = %d, want 10", s.Frames())
	}

	if err := s.Advance(-1); err == nil {
		t.Fatalf("negative delta accepted")
	}
	before := s.FixedSteps()
	_ = s.Advance(10)
	limit := int(math.Ceil(maxFrameDelta / 0.02))
	if got := s.FixedSteps() - before; got > limit {
		t.Fatalf("long frame ran %d fixed steps, want it clamped", got)
	}
}

func TestDisabledBehaviorGetsNoCallbacks(t *testing.T) {
	s := newTestScene(t, 0.02, nil)
	var calls []string
	ghost := NewGameObject("ghost", "", physics.One, nil)
	ghost.AddBehavior(&recorder{calls: &calls})
	deformer := behavior.NewImpactDeformer(behavior.DefaultDeformerConfig(), "", nil)
	ghost.AddBehavior(deformer)
	if err := s.Add(ghost); err != nil {
		t.Fatalf("Add: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := s.Advance(0.02); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	if len(calls) != 1 || calls[0] != "start" {
		t.Fatalf("calls = %v, want only start", calls)
	}
	if deformer.Enabled() {
		t.Fatalf("deformer without a body should stay disabled")
	}
}

func TestBallCollisionIsIgnoredByDeformer(t *testing.T) {
	bus := event.NewBus()
	var ignored []*event.IgnoredImpactEvent
	bus.Subscribe(event.EventImpactIgnored, func(raw any) {
		ignored = append(ignored, raw.(*event.IgnoredImpactEvent))
	})

	world := physics.NewWorld()
	world.Gravity = physics.Zero
	s, err := New(world, 0.01, bus)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, tc := range []struct {
		name string
		x, v float64
	}{{"left", -0.6, 4}, {"right", 0.6, -4}} {
		body := physics.NewSphere("", "", physics.Vec3{tc.x, 5, 0}, 0.5, 1)
		body.LinearVelocity = physics.Vec3{tc.v, 0, 0}
		obj := NewGameObject(tc.name, "Ball", physics.One, body)
		obj.AddBehavior(behavior.NewImpactDeformer(behavior.DefaultDeformerConfig(), "", bus))
		if err := s.Add(obj); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	for i := 0; i < 10; i++ {
		_ = s.Advance(0.01)
	}

	if len(ignored) != 2 {
		t.Fatalf("ignored impacts = %d, want 2", len(ignored))
	}
	for _, e := range ignored {
		if e.Reason != event.ReasonNotGround || e.Other == "" {
			t.Fatalf("ignored = %+v, want NotGround with partner name", e)
		}
	}
	for _, o := range s.Objects() {
		if o.Scale() != physics.One {
			t.Fatalf("%s scale = %v, want unchanged", o.Name(), o.Scale())
		}
	}
}

func TestBuildAndRunDroppedBall(t *testing.T) {
	cfg := config.Default()
	cfg.Balls[0].Name = "red"
	cfg.Balls[0].Position = config.Vec3{0, 3, 0}
	cfg.Simulation.Duration = 8

	bus := event.NewBus()
	var starts, ends int
	var firstIntensity float64
	bus.Subscribe(event.EventDeformStart, func(raw any) {
		if starts == 0 {
			firstIntensity = raw.(*event.DeformEvent).Intensity
		}
		starts++
	})
	bus.Subscribe(event.EventDeformEnd, func(any) { ends++ })

	s, err := Build(cfg, bus)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	red, ok := s.Object("red")
	if !ok {
		t.Fatalf("red not in scene")
	}

	minY := 1.0
	err = s.Run(context.Background(), RunOptions{
		Duration:  cfg.Simulation.Duration,
		FrameStep: cfg.Simulation.FrameStep,
		OnFrame: func(*Scene) {
			if y := red.Scale().Y(); y < minY {
				minY = y
			}
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if starts == 0 {
		t.Fatalf("dropped ball never deformed")
	}
	if starts != ends {
		t.Fatalf("deform starts=%d ends=%d, want every cycle completed", starts, ends)
	}
	// sqrt(2 * 9.81 * 2.5) ~ 7 m/s -> intensity ~ 0.28.
	if firstIntensity < 0.25 || firstIntensity > 0.3 {
		t.Fatalf("first intensity = %.3f, want ~0.28", firstIntensity)
	}
	if minY > 1-1.2*0.25 {
		t.Fatalf("min scale.y = %.3f, want visible squash", minY)
	}
	if red.Scale() != physics.One {
		t.Fatalf("final scale = %v, want (1,1,1)", red.Scale())
	}
	for _, b := range red.Behaviors() {
		if d, ok := b.(*behavior.ImpactDeformer); ok && d.State().Phase != behavior.PhaseIdle {
			t.Fatalf("deformer phase = %v, want Idle", d.State().Phase)
		}
	}
	body := red.PhysicsBody()
	if body.LinearVelocity != physics.Zero || body.AngularVelocity != physics.Zero {
		t.Fatalf("ball still moving: v=%v w=%v", body.LinearVelocity, body.AngularVelocity)
	}
	if s.Elapsed() < cfg.Simulation.Duration {
		t.Fatalf("elapsed = %v, want >= %v", s.Elapsed(), cfg.Simulation.Duration)
	}
}

func TestBuildZeroMaxDeformationKeepsScale(t *testing.T) {
	cfg := config.Default()
	cfg.Balls[0].Name = "red"
	cfg.Balls[0].Position = config.Vec3{0, 3, 0}
	cfg.Deformation.MaxDeformation = config.Float(0)

	bus := event.NewBus()
	starts := 0
	bus.Subscribe(event.EventDeformStart, func(any) { starts++ })

	s, err := Build(cfg, bus)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	red, _ := s.Object("red")
	err = s.Run(context.Background(), RunOptions{
		Duration:  2,
		FrameStep: cfg.Simulation.FrameStep,
		OnFrame: func(*Scene) {
			if red.Scale() != physics.One {
				t.Fatalf("scale = %v with max_deformation 0, want (1,1,1)", red.Scale())
			}
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if starts == 0 {
		t.Fatalf("ground impact never reached the deformer")
	}
}

func TestBuildUnknownBehavior(t *testing.T) {
	cfg := config.Default()
	cfg.Balls[0].Behaviors = []string{"wobble"}
	if _, err := Build(cfg, nil); err == nil {
		t.Fatalf("Build with unknown behavior error = nil")
	}
	if _, err := Build(nil, nil); err == nil {
		t.Fatalf("Build(nil) error = nil")
	}
	if _, err := Build(&config.Config{}, nil); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("Build without defaults error = %v, want ErrInvalid", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newTestScene(t, 0.02, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Run(ctx, RunOptions{Duration: 100, FrameStep: 0.02}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Frames() != 0 {
		t.Fatalf("frames = %d after cancelled run, want 0", s.Frames())
	}
	if err := s.Run(ctx, RunOptions{Realtime: true, FrameStep: 0.01}); err != nil {
		t.Fatalf("realtime Run: %v", err)
	}
}

func TestRunRejectsBadOptions(t *testing.T) {
	s := newTestScene(t, 0.02, nil)
	if err := s.Run(context.Background(), RunOptions{Duration: 1}); err == nil {
		t.Fatalf("FrameStep=0 accepted")
	}
	if err := s.Run(context.Background(), RunOptions{FrameStep: 0.02}); err == nil {
		t.Fatalf("headless run without duration accepted")
	}
}
