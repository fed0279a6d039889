// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger configures the process-wide slog logger.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Output formats.
const (
	FormatSimple  = "simple"
	FormatVerbose = "verbose"
	FormatJSON    = "json"
)

const modulePrefix = "github.com/supportbuddy/agentctl"

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
)

// ParseLevel converts debug, info, warn or error to a slog.Level.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", levelStr)
	}
}

// ParseFormat validates a format name. The empty string selects simple.
func ParseFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "":
		return FormatSimple, nil
	case FormatSimple, FormatVerbose, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want simple, verbose or json)", format)
	}
}

// filteringHandler drops records logged outside this module unless the
// level is debug.
type filteringHandler struct {
	handler  slog.Handler
	minLevel slog.Level
}

func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.minLevel && h.handler.Enabled(ctx, level)
}

func (h *filteringHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.minLevel > slog.LevelDebug && !fromModule(record.PC) {
		return nil
	}
	return h.handler.Handle(ctx, record)
}

func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &filteringHandler{handler: h.handler.WithAttrs(attrs), minLevel: h.minLevel}
}

func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{handler: h.handler.WithGroup(name), minLevel: h.minLevel}
}

func fromModule(pc uintptr) bool {
	if pc == 0 {
		return false
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return false
	}
	return strings.HasPrefix(fn.Name(), modulePrefix)
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "\033[31m"
	case level >= slog.LevelWarn:
		return "\033[33m"
	case level >= slog.LevelInfo:
		return "\033[36m"
	default:
		return "\033[90m"
	}
}

func levelName(level slog.Level) string {
	s := strings.ToUpper(level.String())
	if s == "WARNING" {
		return "WARN"
	}
	return s
}

// textHandler writes "LEVEL message key=value ...", optionally prefixed with
// a timestamp and with the level colored.
type textHandler struct {
	opts    slog.HandlerOptions
	mu      *sync.Mutex
	w       io.Writer
	color   bool
	time    bool
	attrs   []slog.Attr
	groupPf string
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *textHandler) Handle(_ context.Context, record slog.Record) error {
	var buf strings.Builder
	if h.time && !record.Time.IsZero() {
		buf.WriteString(record.Time.Format("2006/01/02 15:04:05 "))
	}
	if h.color {
		buf.WriteString(levelColor(record.Level))
		buf.WriteString(levelName(record.Level))
		buf.WriteString("\033[0m")
	} else {
		buf.WriteString(levelName(record.Level))
	}
	buf.WriteString(" ")
	buf.WriteString(record.Message)

	write := func(prefix string, a slog.Attr) {
		buf.WriteString(" ")
		buf.WriteString(prefix)
		buf.WriteString(a.Key)
		buf.WriteString("=")
		buf.WriteString(a.Value.Resolve().String())
	}
	for _, a := range h.attrs {
		write("", a)
	}
	record.Attrs(func(a slog.Attr) bool {
		write(h.groupPf, a)
		return true
	})
	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr(nil), h.attrs...), prefixed(h.groupPf, attrs)...)
	return &c
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groupPf = h.groupPf + name + "."
	return &c
}

func prefixed(prefix string, attrs []slog.Attr) []slog.Attr {
	if prefix == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	return out
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// New builds a logger writing to output in the given format. Colors are used
// for text formats when output is a terminal.
func New(level slog.Level, output io.Writer, format string) *slog.Logger {
	opts := slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, &opts)
	default:
		handler = &textHandler{
			opts:  opts,
			mu:    &sync.Mutex{},
			w:     output,
			color: IsTerminal(output),
			time:  format == FormatVerbose,
		}
	}

	return slog.New(&filteringHandler{handler: handler, minLevel: level})
}

// Init installs a logger built by New as the slog default.
func Init(level slog.Level, output io.Writer, format string) *slog.Logger {
	l := New(level, output, format)

	mu.Lock()
	defaultLogger = l
	mu.Unlock()

	slog.SetDefault(l)
	return l
}

// OpenLogFile opens path for appending, creating it if needed. The returned
// function closes it.
func OpenLogFile(path string) (*os.File, func(), error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return file, func() { file.Close() }, nil
}

// GetLogger returns the logger installed by Init, initializing an info-level
// simple logger on stderr if there is none.
func GetLogger() *slog.Logger {
	mu.Lock()
	l := defaultLogger
	mu.Unlock()
	if l == nil {
		return Init(slog.LevelInfo, os.Stderr, FormatSimple)
	}
	return l
}
