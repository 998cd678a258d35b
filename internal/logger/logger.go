package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/term"
)

type Config struct {
	Level  string
	Format string // "auto", "console", "json", "text"
	File   string // optional, appended to in addition to Output
	Output io.Writer
}

var (
	once   sync.Once
	lg     *slog.Logger
	closer io.Closer
)

// Init installs the process-wide logger once. Later calls are no-ops.
func Init(cfg Config) error {
	var err error
	once.Do(func() {
		var l *slog.Logger
		l, closer, err = New(cfg)
		if err != nil {
			return
		}
		lg = l
		slog.SetDefault(lg)
	})
	return err
}

func L() *slog.Logger {
	if lg == nil {
		_ = Init(Config{Level: "debug", Format: "console"})
	}
	if lg == nil {
		return slog.Default()
	}
	return lg
}

// Close releases the log file opened by Init, if any.
func Close() error {
	if closer == nil {
		return nil
	}
	return closer.Close()
}

// New builds a logger without touching the process default. The returned closer is
// nil unless cfg.File was opened.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	format := resolveFormat(cfg.Format, cfg.Output)

	out := cfg.Output
	var file *os.File
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		out = io.MultiWriter(cfg.Output, f)
	}

	level := parseLevel(cfg.Level)
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	default:
		handler = &consoleHandler{mu: &sync.Mutex{}, w: out, level: level}
	}
	if file == nil {
		return slog.New(handler), nil, nil
	}
	return slog.New(handler), file, nil
}

// resolveFormat turns "auto" into console on a terminal and json otherwise.
func resolveFormat(format string, w io.Writer) string {
	if format != "auto" {
		return format
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "console"
	}
	return "json"
}

func parseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// consoleHandler outputs human-friendly log lines:
//
//	12:00:00 INFO  Deformation applied  object=red intensity=0.4 target=(1.32, 0.52, 1.32)
type consoleHandler struct {
	mu    *sync.Mutex // shared with handlers derived by WithAttrs and WithGroup
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
	group string
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.Format(time.TimeOnly))
	b.WriteByte(' ')
	b.WriteString(levelTag(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		b.WriteString(formatAttr(h.group, a))
	}
	r.Attrs(func(a slog.Attr) bool {
		b.WriteString(formatAttr(h.group, a))
		return true
	})
	b.WriteByte('\n')

	if h.mu != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
	}
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &consoleHandler{
		mu:    h.mu,
		w:     h.w,
		level: h.level,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
		group: h.group,
	}
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	prefix := name
	if h.group != "" {
		prefix = h.group + "." + name
	}
	return &consoleHandler{
		mu:    h.mu,
		w:     h.w,
		level: h.level,
		attrs: append([]slog.Attr{}, h.attrs...),
		group: prefix,
	}
}

func levelTag(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN "
	case l >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}

func formatAttr(group string, a slog.Attr) string {
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	return "  " + key + "=" + formatValue(a.Value.Resolve())
}

// formatValue keeps floats and vectors short enough to scan at a glance.
func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', 4, 64)
	case slog.KindAny:
		if vec, ok := v.Any().(mgl64.Vec3); ok {
			return fmt.Sprintf("(%s, %s, %s)",
				strconv.FormatFloat(vec[0], 'g', 4, 64),
				strconv.FormatFloat(vec[1], 'g', 4, 64),
				strconv.FormatFloat(vec[2], 'g', 4, 64))
		}
	}
	return v.String()
}
