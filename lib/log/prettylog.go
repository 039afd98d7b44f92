//
// See the file COPYRIGHT for copyright information.
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
//

// Package log holds a human-friendly slog.Handler for terminal output. It
// prints the time, a colored level and the message, followed by any
// attributes as one JSON object.
package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
)

const (
	reset = "\033[0m"

	lightGray    = 37
	darkGray     = 90
	lightRed     = 91
	lightYellow  = 93
	lightBlue    = 94
	lightMagenta = 95
	white        = 97

	timeFormat = "[15:04:05.000]"
)

func colorize(colorCode int, v string) string {
	return "\033[" + strconv.Itoa(colorCode) + "m" + v + reset
}

type Handler struct {
	h                slog.Handler
	r                func([]string, slog.Attr) slog.Attr
	b                *bytes.Buffer
	m                *sync.Mutex
	writer           io.Writer
	colorize         bool
	outputEmptyAttrs bool
}

type Option func(h *Handler)

// WithDestinationWriter sends output to writer rather than stdout.
func WithDestinationWriter(writer io.Writer) Option {
	return func(h *Handler) {
		h.writer = writer
	}
}

// WithColor turns on ANSI colors.
func WithColor() Option {
	return func(h *Handler) {
		h.colorize = true
	}
}

// WithOutputEmptyAttrs prints "{}" for records without attributes.
func WithOutputEmptyAttrs() Option {
	return func(h *Handler) {
		h.outputEmptyAttrs = true
	}
}

func New(handlerOptions *slog.HandlerOptions, options ...Option) *Handler {
	if handlerOptions == nil {
		handlerOptions = &slog.HandlerOptions{}
	}
	buf := &bytes.Buffer{}
	handler := &Handler{
		b: buf,
		h: slog.NewJSONHandler(buf, &slog.HandlerOptions{
			Level:       handlerOptions.Level,
			AddSource:   handlerOptions.AddSource,
			ReplaceAttr: suppressDefaults(handlerOptions.ReplaceAttr),
		}),
		r:      handlerOptions.ReplaceAttr,
		m:      &sync.Mutex{},
		writer: os.Stdout,
	}
	for _, opt := range options {
		opt(handler)
	}
	return handler
}

// NewHandler is New with colors on, for interactive use.
func NewHandler(opts *slog.HandlerOptions) *Handler {
	return New(opts, WithColor())
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		h:                h.h.WithAttrs(attrs),
		b:                h.b,
		r:                h.r,
		m:                h.m,
		writer:           h.writer,
		colorize:         h.colorize,
		outputEmptyAttrs: h.outputEmptyAttrs,
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		h:                h.h.WithGroup(name),
		b:                h.b,
		r:                h.r,
		m:                h.m,
		writer:           h.writer,
		colorize:         h.colorize,
		outputEmptyAttrs: h.outputEmptyAttrs,
	}
}

func (h *Handler) computeAttrs(ctx context.Context, r slog.Record) (map[string]any, error) {
	h.m.Lock()
	defer func() {
		h.b.Reset()
		h.m.Unlock()
	}()
	if err := h.h.Handle(ctx, r); err != nil {
		return nil, fmt.Errorf("[Handle]: %w", err)
	}
	var attrs map[string]any
	if err := json.Unmarshal(h.b.Bytes(), &attrs); err != nil {
		return nil, fmt.Errorf("[json.Unmarshal]: %w", err)
	}
	return attrs, nil
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	var level string
	levelAttr := slog.Attr{Key: slog.LevelKey, Value: slog.AnyValue(r.Level)}
	if h.r != nil {
		levelAttr = h.r([]string{}, levelAttr)
	}
	if !levelAttr.Equal(slog.Attr{}) {
		level = levelAttr.Value.String() + ":"
		if h.colorize {
			switch {
			case r.Level <= slog.LevelDebug:
				level = colorize(lightGray, level)
			case r.Level < slog.LevelWarn:
				level = colorize(lightBlue, level)
			case r.Level < slog.LevelError:
				level = colorize(lightYellow, level)
			case r.Level <= slog.LevelError+1:
				level = colorize(lightRed, level)
			default:
				level = colorize(lightMagenta, level)
			}
		}
	}

	var timestamp string
	timeAttr := slog.Attr{Key: slog.TimeKey, Value: slog.StringValue(r.Time.Format(timeFormat))}
	if h.r != nil {
		timeAttr = h.r([]string{}, timeAttr)
	}
	if !timeAttr.Equal(slog.Attr{}) {
		timestamp = timeAttr.Value.String()
		if h.colorize {
			timestamp = colorize(lightGray, timestamp)
		}
	}

	var msg string
	msgAttr := slog.Attr{Key: slog.MessageKey, Value: slog.StringValue(r.Message)}
	if h.r != nil {
		msgAttr = h.r([]string{}, msgAttr)
	}
	if !msgAttr.Equal(slog.Attr{}) {
		msg = msgAttr.Value.String()
		if h.colorize {
			msg = colorize(white, msg)
		}
	}

	attrs, err := h.computeAttrs(ctx, r)
	if err != nil {
		return err
	}
	var attrsAsBytes []byte
	if h.outputEmptyAttrs || len(attrs) > 0 {
		attrsAsBytes, err = json.Marshal(attrs)
		if err != nil {
			return fmt.Errorf("[json.Marshal]: %w", err)
		}
	}

	out := bytes.Buffer{}
	if len(timestamp) > 0 {
		out.WriteString(timestamp)
		out.WriteString(" ")
	}
	if len(level) > 0 {
		out.WriteString(level)
		out.WriteString(" ")
	}
	if len(msg) > 0 {
		out.WriteString(msg)
		out.WriteString(" ")
	}
	if len(attrsAsBytes) > 0 {
		s := string(attrsAsBytes)
		if h.colorize {
			s = colorize(darkGray, s)
		}
		out.WriteString(s)
	}
	out.WriteString("\n")

	// one Write per record, so concurrent records don't interleave
	h.m.Lock()
	defer h.m.Unlock()
	if _, err = io.Copy(h.writer, &out); err != nil {
		return fmt.Errorf("[io.Copy]: %w", err)
	}
	return nil
}

// suppressDefaults drops the built-in keys from the inner JSON handler, since
// Handle prints them itself.
func suppressDefaults(next func([]string, slog.Attr) slog.Attr) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey ||
			a.Key == slog.LevelKey ||
			a.Key == slog.MessageKey {
			return slog.Attr{}
		}
		if next == nil {
			return a
		}
		return next(groups, a)
	}
}
