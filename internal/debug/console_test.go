package debug

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Versifine/softball/internal/behavior"
	"github.com/Versifine/softball/internal/config"
	"github.com/Versifine/softball/internal/physics"
	"github.com/Versifine/softball/internal/scene"
)

// newTestConsole 构建一个含 red、blue 两个球的场景，输出写入缓冲区
func newTestConsole(t *testing.T) (*Console, *scene.Scene, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Balls[0].Name = "red"
	blue := cfg.Balls[0]
	blue.Name = "blue"
	blue.Position = config.Vec3{2, 5, 0}
	cfg.Balls = append(cfg.Balls, blue)

	s, err := scene.Build(cfg, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s.Start()

	c := NewConsole(s, cfg.Simulation.FrameStep)
	out := &bytes.Buffer{}
	c.out = out
	return c, s, out
}

func press(c *Console, keys string) {
	reader := bufio.NewReader(strings.NewReader(""))
	for i := 0; i < len(keys); i++ {
		c.handleKey(reader, keys[i])
	}
}

func command(c *Console, cmd string) {
	press(c, ":"+cmd+"\r")
}

// TestSelection 测试数字键与 Tab 切换选中的球，并且索引会回绕
func TestSelection(t *testing.T) {
	c, s, _ := newTestConsole(t)

	if got := c.selectedBall(s).Name(); got != "red" {
		t.Fatalf("默认选中 = %s, 期望 red", got)
	}
	press(c, "2")
	if got := c.selectedBall(s).Name(); got != "blue" {
		t.Fatalf("按 2 后选中 = %s, 期望 blue", got)
	}
	press(c, "\t")
	if got := c.selectedBall(s).Name(); got != "red" {
		t.Fatalf("Tab 回绕后选中 = %s, 期望 red", got)
	}

	reader := bufio.NewReader(strings.NewReader("[D"))
	c.handleKey(reader, 27)
	if got := c.selectedBall(s).Name(); got != "blue" {
		t.Fatalf("左方向键后选中 = %s, 期望 blue", got)
	}
}

// TestKeyActions 测试按键产生的动作只在 drain 时作用于场景
func TestKeyActions(t *testing.T) {
	c, s, _ := newTestConsole(t)
	red, _ := s.Object("red")
	body := red.PhysicsBody()
	body.LinearVelocity = physics.Zero

	press(c, " d")
	if body.LinearVelocity != physics.Zero {
		t.Fatalf("drain 前速度 = %v, 期望未改变", body.LinearVelocity)
	}
	c.drain(s)
	want := physics.Vec3{defaultPushSpeed, defaultKickSpeed, 0}
	if !body.LinearVelocity.ApproxEqual(want) {
		t.Fatalf("速度 = %v, 期望 %v", body.LinearVelocity, want)
	}

	body.AngularVelocity = physics.Vec3{1, 0, 0}
	press(c, "x")
	c.drain(s)
	if body.LinearVelocity != physics.Zero || body.AngularVelocity != physics.Zero {
		t.Fatalf("X 后 v=%v w=%v, 期望全部为零", body.LinearVelocity, body.AngularVelocity)
	}
}

// TestImpactKey 测试 F 键触发满速撞击形变
func TestImpactKey(t *testing.T) {
	c, s, _ := newTestConsole(t)
	red, _ := s.Object("red")

	press(c, "f")
	c.drain(s)

	d := deformerOf(red)
	if d == nil {
		t.Fatalf("red 缺少 deformer")
	}
	st := d.State()
	if st.Phase != behavior.PhaseDeforming {
		t.Fatalf("phase = %v, 期望 Deforming", st.Phase)
	}
	want := behavior.DeformedScale(physics.One, behavior.DefaultMaxDeformation)
	if !st.TargetScale.ApproxEqual(want) {
		t.Fatalf("target = %v, 期望 %v", st.TargetScale, want)
	}
}

// TestCommands 测试命令模式的解析与执行
func TestCommands(t *testing.T) {
	c, s, out := newTestConsole(t)
	blue, _ := s.Object("blue")

	command(c, "select blue")
	command(c, "tp 1 2 3")
	command(c, "kick 0 4 0")
	c.drain(s)

	if got := c.selectedBall(s).Name(); got != "blue" {
		t.Fatalf("选中 = %s, 期望 blue", got)
	}
	body := blue.PhysicsBody()
	if body.Position != (physics.Vec3{1, 2, 3}) {
		t.Fatalf("位置 = %v, 期望 (1,2,3)", body.Position)
	}
	if body.LinearVelocity.Y() != 4 {
		t.Fatalf("速度 = %v, 期望 y=4", body.LinearVelocity)
	}

	command(c, "impact 5")
	command(c, "state")
	c.drain(s)
	if !strings.Contains(out.String(), "deform phase=Deforming") {
		t.Fatalf("state 输出缺少形变状态: %q", out.String())
	}

	tests := []struct {
		cmd  string
		want string
	}{
		{"tp 1 2", "usage: :tp"},
		{"kick a b c", "usage: :kick"},
		{"impact -1", "invalid impact speed"},
		{"select", "usage: :select"},
		{"wobble", "unknown command: wobble"},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			out.Reset()
			command(c, tt.cmd)
			if !strings.Contains(out.String(), tt.want) {
				t.Fatalf("输出 %q, 期望包含 %q", out.String(), tt.want)
			}
		})
	}
}

// TestCommandEditing 测试退格与 ESC 取消
func TestCommandEditing(t *testing.T) {
	c, _, out := newTestConsole(t)

	press(c, ":tpx")
	press(c, string([]byte{127}))
	if got := string(c.commandBuf); got != "tp" {
		t.Fatalf("退格后 = %q, 期望 tp", got)
	}
	press(c, string([]byte{27}))
	if c.isCommandMode() {
		t.Fatalf("ESC 后仍处于命令模式")
	}
	if !strings.Contains(out.String(), "command cancelled") {
		t.Fatalf("输出缺少取消提示: %q", out.String())
	}
	if len(c.actions) != 0 {
		t.Fatalf("取消的命令不应排入动作, got %d", len(c.actions))
	}
}

// TestStatusLine 测试状态栏显示选中球的名称与形变阶段
func TestStatusLine(t *testing.T) {
	c, s, out := newTestConsole(t)

	line := c.statusLine(s)
	if !strings.HasPrefix(line, "[red 1/2") || !strings.Contains(line, "Idle") {
		t.Fatalf("状态栏 = %q", line)
	}

	c.renderStatusLine(s)
	first := out.Len()
	out.Reset()
	press(c, "2")
	c.renderStatusLine(s)
	if out.Len() < first {
		t.Fatalf("较短的状态行应补空格覆盖旧内容")
	}

	press(c, ":")
	out.Reset()
	c.renderStatusLine(s)
	if out.Len() != 0 {
		t.Fatalf("命令模式下不应渲染状态栏")
	}
}

// TestQuit 测试 Q 键取消上下文
func TestQuit(t *testing.T) {
	c, _, _ := newTestConsole(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.cancel = cancel

	press(c, "q")
	if ctx.Err() == nil {
		t.Fatalf("Q 后上下文未取消")
	}
}

// TestStartValidation 测试 Start 的参数检查
func TestStartValidation(t *testing.T) {
	var nilConsole *Console
	if err := nilConsole.Start(context.Background()); err == nil {
		t.Fatalf("nil console 期望返回错误")
	}
	if err := NewConsole(nil, 0.1).Start(context.Background()); err == nil {
		t.Fatalf("nil scene 期望返回错误")
	}
	c, _, _ := newTestConsole(t)
	c.frameStep = 0
	if err := c.Start(context.Background()); err == nil {
		t.Fatalf("frame step 为 0 期望返回错误")
	}
}
