package debug

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/Versifine/softball/internal/behavior"
	"github.com/Versifine/softball/internal/physics"
	"github.com/Versifine/softball/internal/scene"
	"golang.org/x/term"
)

const (
	defaultKickSpeed = 6.0
	defaultPushSpeed = 2.0
	actionQueueSize  = 64
)

// action runs on the goroutine that owns the scene.
type action func(s *scene.Scene)

// Console drives a scene in real time from raw terminal input.
type Console struct {
	scene     *scene.Scene
	frameStep float64
	kickSpeed float64
	pushSpeed float64
	out       io.Writer
	actions   chan action

	outMu sync.Mutex

	mu          sync.Mutex
	selected    int
	commandMode bool
	commandBuf  []rune
	statusWidth int
	cancel      context.CancelFunc
}

func NewConsole(scn *scene.Scene, frameStep float64) *Console {
	return &Console{
		scene:     scn,
		frameStep: frameStep,
		kickSpeed: defaultKickSpeed,
		pushSpeed: defaultPushSpeed,
		out:       os.Stdout,
		actions:   make(chan action, actionQueueSize),
	}
}

// Start puts stdin into raw mode and runs the scene until ctx is done or the user quits.
func (c *Console) Start(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("console is nil")
	}
	if c.scene == nil {
		return fmt.Errorf("console scene is nil")
	}
	if c.frameStep <= 0 {
		return fmt.Errorf("console frame step must be > 0, got %v", c.frameStep)
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("console needs a terminal on stdin")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set terminal raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		c.printf("\r\n")
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	c.printf("[debug] console started (1-9 select, Tab next, Space kick, W/A/S/D push, F impact, X stop, : command, Q quit)\r\n")

	// The reader stays blocked on stdin after the loop ends; the process exits right after.
	go c.readLoop(ctx, bufio.NewReader(os.Stdin))

	return c.scene.Run(ctx, scene.RunOptions{
		FrameStep: c.frameStep,
		Realtime:  true,
		OnFrame:   c.onFrame,
	})
}

func (c *Console) readLoop(ctx context.Context, reader *bufio.Reader) {
	for {
		b, err := reader.ReadByte()
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("Console input closed", "error", err)
				c.quit()
			}
			return
		}
		c.handleKey(reader, b)
	}
}

func (c *Console) onFrame(s *scene.Scene) {
	c.drain(s)
	c.renderStatusLine(s)
}

func (c *Console) drain(s *scene.Scene) {
	for {
		select {
		case a := <-c.actions:
			a(s)
		default:
			return
		}
	}
}

func (c *Console) enqueue(a action) {
	select {
	case c.actions <- a:
	default:
		slog.Debug("debug action dropped, queue full")
	}
}

func (c *Console) handleKey(reader *bufio.Reader, b byte) {
	if c.isCommandMode() {
		c.handleCommandByte(b)
		return
	}

	if b >= '1' && b <= '9' {
		c.selectIndex(int(b - '1'))
		return
	}

	switch b {
	case ':':
		c.enterCommandMode()
	case 'q', 'Q', 3: // Ctrl-C arrives as a byte in raw mode
		c.quit()
	case '\t', 'n', 'N':
		c.selectNext(1)
	case ' ':
		c.enqueue(c.push(physics.Vec3{0, c.kickSpeed, 0}))
	case 'w', 'W':
		c.enqueue(c.push(physics.Vec3{0, 0, -c.pushSpeed}))
	case 's', 'S':
		c.enqueue(c.push(physics.Vec3{0, 0, c.pushSpeed}))
	case 'a', 'A':
		c.enqueue(c.push(physics.Vec3{-c.pushSpeed, 0, 0}))
	case 'd', 'D':
		c.enqueue(c.push(physics.Vec3{c.pushSpeed, 0, 0}))
	case 'f', 'F':
		c.enqueue(c.impact(behavior.FullImpactSpeed))
	case 'x', 'X':
		c.enqueue(c.stop)
	case 27: // ESC + arrow sequence
		next, err := reader.ReadByte()
		if err != nil || next != '[' {
			return
		}
		arrow, err := reader.ReadByte()
		if err != nil {
			return
		}
		switch arrow {
		case 'D': // left
			c.selectNext(-1)
		case 'C': // right
			c.selectNext(1)
		case 'A': // up
			c.enqueue(c.push(physics.Vec3{0, c.kickSpeed, 0}))
		case 'B': // down
			c.enqueue(c.push(physics.Vec3{0, -c.kickSpeed, 0}))
		}
	}
}

func (c *Console) enterCommandMode() {
	c.mu.Lock()
	c.commandMode = true
	c.commandBuf = c.commandBuf[:0]
	c.mu.Unlock()
	c.printf("\r\n:")
}

func (c *Console) handleCommandByte(b byte) {
	switch b {
	case 13, 10: // Enter
		c.mu.Lock()
		cmd := strings.TrimSpace(string(c.commandBuf))
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()

		c.printf("\r\n")
		if cmd != "" {
			c.executeCommand(cmd)
		}
		return
	case 27: // ESC cancel command mode
		c.mu.Lock()
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()
		c.printf("\r\n[debug] command cancelled\r\n")
		return
	case 8, 127: // Backspace
		c.mu.Lock()
		if len(c.commandBuf) > 0 {
			c.commandBuf = c.commandBuf[:len(c.commandBuf)-1]
		}
		buf := string(c.commandBuf)
		c.mu.Unlock()
		c.printf("\r:%s ", buf)
		c.printf("\r:%s", buf)
		return
	default:
		if b < 32 || b > 126 {
			return
		}
		c.mu.Lock()
		c.commandBuf = append(c.commandBuf, rune(b))
		buf := string(c.commandBuf)
		c.mu.Unlock()
		c.printf("\r:%s", buf)
	}
}

func (c *Console) executeCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "help":
		c.printHelp()
	case "list":
		c.enqueue(c.list)
	case "select":
		if len(parts) != 2 {
			c.printf("[debug] usage: :select <name>\r\n")
			return
		}
		name := parts[1]
		c.enqueue(func(s *scene.Scene) { c.selectName(s, name) })
	case "state":
		c.enqueue(c.state)
	case "tp":
		v, ok := parseVec(parts[1:])
		if !ok {
			c.printf("[debug] usage: :tp <x> <y> <z>\r\n")
			return
		}
		c.enqueue(c.teleport(v))
	case "kick":
		v, ok := parseVec(parts[1:])
		if !ok {
			c.printf("[debug] usage: :kick <vx> <vy> <vz>\r\n")
			return
		}
		c.enqueue(c.push(v))
	case "impact":
		speed := behavior.FullImpactSpeed
		if len(parts) == 2 {
			parsed, err := strconv.ParseFloat(parts[1], 64)
			if err != nil || parsed < 0 {
				c.printf("[debug] invalid impact speed\r\n")
				return
			}
			speed = parsed
		}
		c.enqueue(c.impact(speed))
	default:
		c.printf("[debug] unknown command: %s\r\n", parts[0])
	}
}

func (c *Console) printHelp() {
	c.printf("[debug] keys:\r\n")
	c.printf("  1-9: select ball\r\n")
	c.printf("  Tab/N, Arrow Left/Right: cycle selection\r\n")
	c.printf("  Space, Arrow Up: kick up\r\n")
	c.printf("  Arrow Down: slam down\r\n")
	c.printf("  W/S/A/D: push horizontally\r\n")
	c.printf("  F: full-speed impact on the deformer\r\n")
	c.printf("  X: stop the ball\r\n")
	c.printf("  Q: quit\r\n")
	c.printf("  : enter command mode\r\n")
	c.printf("[debug] commands:\r\n")
	c.printf("  :list\r\n")
	c.printf("  :select <name>\r\n")
	c.printf("  :state\r\n")
	c.printf("  :tp <x> <y> <z>\r\n")
	c.printf("  :kick <vx> <vy> <vz>\r\n")
	c.printf("  :impact [speed]\r\n")
	c.printf("  :help\r\n")
}

func (c *Console) push(delta physics.Vec3) action {
	return func(s *scene.Scene) {
		obj := c.selectedBall(s)
		if obj == nil {
			return
		}
		b := obj.PhysicsBody()
		b.LinearVelocity = b.LinearVelocity.Add(delta)
		slog.Debug("debug push", "object", obj.Name(), "delta", delta)
	}
}

func (c *Console) teleport(pos physics.Vec3) action {
	return func(s *scene.Scene) {
		obj := c.selectedBall(s)
		if obj == nil {
			return
		}
		obj.PhysicsBody().Position = pos
		c.printf("\r\n[debug] %s moved to %s\r\n", obj.Name(), formatVec(pos))
	}
}

func (c *Console) impact(speed float64) action {
	return func(s *scene.Scene) {
		obj := c.selectedBall(s)
		if obj == nil {
			return
		}
		d := deformerOf(obj)
		if d == nil || !d.Enabled() {
			c.printf("\r\n[debug] %s has no active deformer\r\n", obj.Name())
			return
		}
		d.Impact(speed, physics.Up)
	}
}

func (c *Console) stop(s *scene.Scene) {
	obj := c.selectedBall(s)
	if obj == nil {
		return
	}
	b := obj.PhysicsBody()
	b.LinearVelocity = physics.Zero
	b.AngularVelocity = physics.Zero
}

func (c *Console) list(s *scene.Scene) {
	selected := c.selectedBall(s)
	c.printf("\r\n")
	for i, obj := range balls(s) {
		marker := " "
		if obj == selected {
			marker = "*"
		}
		c.printf("[debug] %s %d %s tag=%s\r\n", marker, i+1, obj.Name(), obj.Tag())
	}
}

func (c *Console) state(s *scene.Scene) {
	obj := c.selectedBall(s)
	if obj == nil {
		c.printf("\r\n[debug] no ball selected\r\n")
		return
	}
	b := obj.PhysicsBody()
	c.printf("\r\n[debug] %s pos=%s vel=%s spin=%s scale=%s t=%.2f\r\n",
		obj.Name(),
		formatVec(b.Position),
		formatVec(b.LinearVelocity),
		formatVec(b.AngularVelocity),
		formatVec(obj.Scale()),
		s.Elapsed(),
	)
	if d := deformerOf(obj); d != nil {
		st := d.State()
		c.printf("[debug] deform phase=%s progress=%.2f target=%s original=%s\r\n",
			st.Phase, st.Progress, formatVec(st.TargetScale), formatVec(st.OriginalScale))
	}
}

func (c *Console) renderStatusLine(s *scene.Scene) {
	c.mu.Lock()
	if c.commandMode {
		c.mu.Unlock()
		return
	}
	width := c.statusWidth
	c.mu.Unlock()

	line := c.statusLine(s)
	padding := ""
	if width > len(line) {
		padding = strings.Repeat(" ", width-len(line))
	}
	c.printf("\r%s%s", line, padding)

	c.mu.Lock()
	if len(line) > c.statusWidth {
		c.statusWidth = len(line)
	}
	c.mu.Unlock()
}

func (c *Console) statusLine(s *scene.Scene) string {
	all := balls(s)
	obj := c.selectedBall(s)
	if obj == nil {
		return fmt.Sprintf("[no balls | t=%.2f]", s.Elapsed())
	}
	phase := "-"
	if d := deformerOf(obj); d != nil {
		phase = d.State().Phase.String()
	}
	b := obj.PhysicsBody()
	return fmt.Sprintf(
		"[%s %d/%d | Y:%.2f SPD:%.2f | %s SCL:%.2f/%.2f | t=%.2f]",
		obj.Name(),
		c.selectedIndex(len(all))+1,
		len(all),
		b.Position.Y(),
		b.Speed(),
		phase,
		obj.Scale().X(),
		obj.Scale().Y(),
		s.Elapsed(),
	)
}

func (c *Console) selectIndex(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = i
}

func (c *Console) selectNext(step int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected += step
}

func (c *Console) selectName(s *scene.Scene, name string) {
	for i, obj := range balls(s) {
		if obj.Name() == name {
			c.selectIndex(i)
			c.printf("\r\n[debug] selected %s\r\n", name)
			return
		}
	}
	c.printf("\r\n[debug] ball %q not found\r\n", name)
}

// selectedIndex wraps the raw selection into [0, n).
func (c *Console) selectedIndex(n int) int {
	if n == 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.selected % n
	if i < 0 {
		i += n
	}
	return i
}

func (c *Console) selectedBall(s *scene.Scene) *scene.GameObject {
	all := balls(s)
	if len(all) == 0 {
		return nil
	}
	return all[c.selectedIndex(len(all))]
}

func (c *Console) quit() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Console) isCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandMode
}

func (c *Console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// balls returns the scene's dynamic objects in insertion order.
func balls(s *scene.Scene) []*scene.GameObject {
	var out []*scene.GameObject
	for _, obj := range s.Objects() {
		if b := obj.PhysicsBody(); b != nil && !b.Static {
			out = append(out, obj)
		}
	}
	return out
}

func deformerOf(obj *scene.GameObject) *behavior.ImpactDeformer {
	for _, b := range obj.Behaviors() {
		if d, ok := b.(*behavior.ImpactDeformer); ok {
			return d
		}
	}
	return nil
}

func parseVec(args []string) (physics.Vec3, bool) {
	if len(args) != 3 {
		return physics.Vec3{}, false
	}
	var v physics.Vec3
	for i, arg := range args {
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return physics.Vec3{}, false
		}
		v[i] = f
	}
	return v, true
}

func formatVec(v physics.Vec3) string {
	return fmt.Sprintf("(%.2f,%.2f,%.2f)", v.X(), v.Y(), v.Z())
}
