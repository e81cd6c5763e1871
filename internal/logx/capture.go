package logx

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// LoggerKey is the attribute naming the emitting logger ("team", "root", ...).
const LoggerKey = "logger"

const captureTimeFormat = "2006-01-02 15:04:05.000"

// Capture is an slog.Handler that keeps formatted records in memory, in
// emission order. A Capture belongs to one run: it is handed to that run's
// logger and dropped with it, so nothing global is ever touched.
type Capture struct {
	buf    *captureBuf
	level  slog.Leveler
	name   string
	pre    []string
	groups []string
	noTime bool
}

type captureBuf struct {
	mu    sync.Mutex
	lines []string
}

type CaptureOption func(*Capture)

// WithCaptureLevel sets the minimum captured level. Default is info.
func WithCaptureLevel(l slog.Leveler) CaptureOption {
	return func(c *Capture) { c.level = l }
}

// WithoutTime drops the timestamp prefix from captured lines.
func WithoutTime() CaptureOption {
	return func(c *Capture) { c.noTime = true }
}

func NewCapture(opts ...CaptureOption) *Capture {
	c := &Capture{
		buf:   &captureBuf{},
		level: slog.LevelInfo,
		name:  "root",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Lines returns a copy of everything captured so far.
func (c *Capture) Lines() []string {
	c.buf.mu.Lock()
	defer c.buf.mu.Unlock()
	out := make([]string, len(c.buf.lines))
	copy(out, c.buf.lines)
	return out
}

func (c *Capture) Enabled(_ context.Context, level slog.Level) bool {
	return level >= c.level.Level()
}

func (c *Capture) Handle(_ context.Context, r slog.Record) error {
	name := c.name
	kv := append([]string{}, c.pre...)
	r.Attrs(func(a slog.Attr) bool {
		if a.Equal(slog.Attr{}) {
			return true
		}
		if a.Key == LoggerKey && len(c.groups) == 0 {
			name = a.Value.String()
			return true
		}
		kv = append(kv, formatAttr(c.groups, a))
		return true
	})

	var b strings.Builder
	if !c.noTime && !r.Time.IsZero() {
		b.WriteString(r.Time.Format(captureTimeFormat))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "[%s] %s: %s", r.Level.String(), name, r.Message)
	for _, s := range kv {
		b.WriteByte(' ')
		b.WriteString(s)
	}

	c.buf.mu.Lock()
	c.buf.lines = append(c.buf.lines, b.String())
	c.buf.mu.Unlock()
	return nil
}

func (c *Capture) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *c
	cp.pre = append([]string{}, c.pre...)
	for _, a := range attrs {
		if a.Equal(slog.Attr{}) {
			continue
		}
		if a.Key == LoggerKey && len(c.groups) == 0 {
			cp.name = a.Value.String()
			continue
		}
		cp.pre = append(cp.pre, formatAttr(c.groups, a))
	}
	return &cp
}

func (c *Capture) WithGroup(name string) slog.Handler {
	if name == "" {
		return c
	}
	cp := *c
	cp.groups = append(append([]string{}, c.groups...), name)
	return &cp
}

func formatAttr(groups []string, a slog.Attr) string {
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		parts := make([]string, 0, len(v.Group()))
		for _, ga := range v.Group() {
			parts = append(parts, formatAttr(append(append([]string{}, groups...), a.Key), ga))
		}
		return strings.Join(parts, " ")
	}
	s := v.String()
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		s = strconv.Quote(s)
	}
	return key + "=" + s
}
