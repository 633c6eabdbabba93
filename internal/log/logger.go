/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides the slog-based application logger. Every record carries
// the app name and version; editor code adds component, operation and item
// attributes through the helpers below, and request-scoped attributes (such as
// the current show) travel in the context.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/davidroberthoare/lightsup/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger initialization.
// Environment variables read by FromEnv:
//   - LUP_LOG_LEVEL=debug|info|warn|error
//   - LUP_LOG_FORMAT=console|json
//   - LUP_LOG_FILE=<path> (enables rotating file output)
//   - LUP_LOG_SOURCE=true|false
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string
	// Rotation settings for File; zero values fall back to 10 MB / 3 backups / 28 days.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu      sync.RWMutex
	current *slog.Logger
)

// L returns the application logger, initializing it from the environment on first use.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Init configures the application logger and installs it as slog.Default.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	hopts := &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}

	var handlers []slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		handlers = append(handlers, slog.NewJSONHandler(os.Stderr, hopts))
	} else {
		handlers = append(handlers, &consoleHandler{level: lvl, addSource: opts.AddSource, w: os.Stderr})
	}
	if path := strings.TrimSpace(opts.File); path != "" {
		handlers = append(handlers, slog.NewJSONHandler(rotatingWriter(path, opts), hopts))
	}

	var h slog.Handler = &contextHandler{next: fanout(handlers)}
	logger := slog.New(h).With(
		slog.String("app", "lightsup"),
		slog.String("ver", version.Version),
		slog.Time("ts_init", time.Now()),
	)

	mu.Lock()
	current = logger
	mu.Unlock()
	slog.SetDefault(logger)
}

func rotatingWriter(path string, opts Options) io.Writer {
	w := &lj.Logger{Filename: path, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
	if opts.MaxSizeMB > 0 {
		w.MaxSize = opts.MaxSizeMB
	}
	if opts.MaxBackups > 0 {
		w.MaxBackups = opts.MaxBackups
	}
	if opts.MaxAgeDays > 0 {
		w.MaxAge = opts.MaxAgeDays
	}
	return w
}

// FromEnv builds Options from LUP_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     getenv("LUP_LOG_LEVEL", "info"),
		Format:    getenv("LUP_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(getenv("LUP_LOG_SOURCE", "false"), "true"),
		File:      os.Getenv("LUP_LOG_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

// WithItem annotates the logger with a plot item id.
func WithItem(l *slog.Logger, id string) *slog.Logger { return l.With(slog.String("item", id)) }

type ctxAttrsKey struct{}

// ContextWith returns a context whose log records (via the *Context logging
// methods) carry attrs in addition to their own.
func ContextWith(ctx context.Context, attrs ...slog.Attr) context.Context {
	prev, _ := ctx.Value(ctxAttrsKey{}).([]slog.Attr)
	merged := make([]slog.Attr, 0, len(prev)+len(attrs))
	merged = append(merged, prev...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, ctxAttrsKey{}, merged)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextHandler copies attributes stored by ContextWith onto each record.
type contextHandler struct{ next slog.Handler }

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if attrs, ok := ctx.Value(ctxAttrsKey{}).([]slog.Attr); ok && len(attrs) > 0 {
			r = r.Clone()
			r.AddAttrs(attrs...)
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}

// fanout sends each record to every handler; a single handler is returned as is.
func fanout(hs []slog.Handler) slog.Handler {
	if len(hs) == 1 {
		return hs[0]
	}
	return multi(hs)
}

type multi []slog.Handler

func (m multi) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multi) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m multi) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multi, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m multi) WithGroup(name string) slog.Handler {
	out := make(multi, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}

// consoleHandler writes one human-readable line per record:
// "<rfc3339> <LVL> <msg> k=v ...".
type consoleHandler struct {
	level     slog.Level
	addSource bool
	w         io.Writer
	attrs     []slog.Attr
	prefix    string
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool { return level >= h.level }

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.Grow(256)
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ts.Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(levelString(r.Level))
	if r.Message != "" {
		b.WriteByte(' ')
		b.WriteString(r.Message)
	}
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	if h.addSource {
		if r.PC != 0 {
			f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
			b.WriteString(" src=")
			b.WriteString(f.File)
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(f.Line))
		}
	}
	b.WriteByte('\n')
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	na := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	na = append(na, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		na = append(na, a)
	}
	c := *h
	c.attrs = na
	return &c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(valueString(a.Value.Resolve()))
}

func levelString(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "DBG"
	case slog.LevelInfo:
		return "INF"
	case slog.LevelWarn:
		return "WRN"
	case slog.LevelError:
		return "ERR"
	default:
		return l.String()
	}
}

func valueString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return v.String()
	}
}
