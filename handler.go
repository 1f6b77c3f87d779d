// Copyright 2025 Patrick J. Scruggs
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

package slograygun

import (
	"context"
	"log/slog"
	"maps"
	"slices"
)

// Middleware adapts a [slog.Handler]. See [Handler.Middleware].
type Middleware func(slog.Handler) slog.Handler

// Handler is a [slog.Handler] that reports records at or above its level to
// Raygun through a [Forwarder].
//
// Attributes are flattened into the report's custom data with group names
// joined by ".", and the first error-valued attribute becomes the reported
// error chain.
type Handler struct {
	fwd    *Forwarder
	owned  bool
	prefix string
	attrs  map[string]string
	err    error
}

// NewHandler builds a Handler and the Forwarder behind it from environment
// variables and opts.
func NewHandler(opts ...Option) (*Handler, error) {
	fwd, err := NewForwarder(opts...)
	if err != nil {
		return nil, err
	}
	return &Handler{fwd: fwd, owned: true}, nil
}

// NewHandlerWithForwarder returns a Handler reporting through fwd. Closing the
// handler does not close fwd.
func NewHandlerWithForwarder(fwd *Forwarder) *Handler {
	return &Handler{fwd: fwd}
}

// Enabled reports whether records at level are forwarded.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.fwd.levelVar.Level()
}

// Handle forwards r to Raygun. Contextual values come from the MDC stored in
// ctx, then the handler's attributes, then the record's own attributes, later
// sources overriding earlier ones.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	data := MDC(ctx)
	if data == nil {
		data = make(map[string]string, len(h.attrs)+r.NumAttrs())
	}
	maps.Copy(data, h.attrs)

	var recordErr error
	r.Attrs(func(a slog.Attr) bool {
		collectAttr(h.prefix, a, data, &recordErr)
		return true
	})
	if recordErr == nil {
		recordErr = h.err
	}

	ev := Event{
		Message:   r.Message,
		Throwable: FromError(recordErr),
		Logger:    h.fwd.loggerName,
		Time:      r.Time,
		Context:   data,
		PC:        r.PC,
	}
	return h.fwd.Forward(ctx, ev)
}

// WithAttrs returns a Handler that adds attrs to every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := h.clone()
	if next.attrs == nil {
		next.attrs = make(map[string]string, len(attrs))
	}
	for _, a := range attrs {
		collectAttr(h.prefix, a, next.attrs, &next.err)
	}
	return next
}

// WithGroup returns a Handler that qualifies subsequent attribute keys with
// name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.prefix = joinKey(h.prefix, name)
	return next
}

func (h *Handler) clone() *Handler {
	return &Handler{
		fwd:    h.fwd,
		prefix: h.prefix,
		attrs:  maps.Clone(h.attrs),
		err:    h.err,
	}
}

// SetLevel changes the minimum level forwarded. Derived handlers share it.
func (h *Handler) SetLevel(level slog.Level) {
	h.fwd.levelVar.Set(level)
}

// Level returns the minimum level forwarded.
func (h *Handler) Level() slog.Level {
	return h.fwd.levelVar.Level()
}

// LevelVar exposes the shared level variable.
func (h *Handler) LevelVar() *slog.LevelVar {
	return h.fwd.levelVar
}

// Forwarder returns the Forwarder this handler reports through.
func (h *Handler) Forwarder() *Forwarder {
	return h.fwd
}

// Close releases the Forwarder's poster when the handler created the
// Forwarder.
func (h *Handler) Close() error {
	if !h.owned {
		return nil
	}
	return h.fwd.Close()
}

// Middleware returns a Middleware that sends every record both to the handler
// it wraps and to h, so an existing logging pipeline keeps its output and
// also reports to Raygun.
func (h *Handler) Middleware() Middleware {
	return func(next slog.Handler) slog.Handler {
		return teeHandler{primary: next, reporter: h}
	}
}

// teeHandler fans records out to a primary handler and the Raygun reporter.
type teeHandler struct {
	primary  slog.Handler
	reporter slog.Handler
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return t.primary.Enabled(ctx, level) || t.reporter.Enabled(ctx, level)
}

// Handle passes r to the primary handler and, when enabled, to the reporter.
// The primary handler's error takes precedence.
func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var primaryErr error
	if t.primary.Enabled(ctx, r.Level) {
		primaryErr = t.primary.Handle(ctx, r.Clone())
	}
	var reportErr error
	if t.reporter.Enabled(ctx, r.Level) {
		reportErr = t.reporter.Handle(ctx, r)
	}
	if primaryErr != nil {
		return primaryErr
	}
	return reportErr
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return teeHandler{
		primary:  t.primary.WithAttrs(slices.Clone(attrs)),
		reporter: t.reporter.WithAttrs(attrs),
	}
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return teeHandler{
		primary:  t.primary.WithGroup(name),
		reporter: t.reporter.WithGroup(name),
	}
}

// collectAttr flattens a into data under prefix, recording the first error
// value it meets in errp.
func collectAttr(prefix string, a slog.Attr, data map[string]string, errp *error) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix = joinKey(prefix, a.Key)
		}
		for _, ga := range a.Value.Group() {
			collectAttr(groupPrefix, ga, data, errp)
		}
		return
	}

	key := joinKey(prefix, a.Key)
	if a.Value.Kind() == slog.KindAny {
		if err, ok := a.Value.Any().(error); ok && err != nil {
			if *errp == nil {
				*errp = err
			}
			data[key] = err.Error()
			return
		}
	}
	data[key] = a.Value.String()
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
