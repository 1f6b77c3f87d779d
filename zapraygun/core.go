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

// Package zapraygun reports zap log entries to Raygun through a shared
// [slograygun.Forwarder].
//
// The core is meant to be teed alongside an existing one:
//
//	core := zapcore.NewTee(existing, zapraygun.NewCore(fwd, zapcore.ErrorLevel))
//	logger := zap.New(core, zap.AddCaller())
package zapraygun

import (
	"context"
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/pjscruggs/slograygun"
)

// DefaultLoggerName is reported as the logger for entries from an unnamed
// zap.Logger.
const DefaultLoggerName = "zap"

// Core is a zapcore.Core that forwards entries to Raygun.
type Core struct {
	zapcore.LevelEnabler

	fwd    *slograygun.Forwarder
	fields []zapcore.Field
}

var _ zapcore.Core = (*Core)(nil)

// NewCore returns a Core forwarding entries enabled by level. A nil level
// defaults to zapcore.ErrorLevel.
func NewCore(fwd *slograygun.Forwarder, level zapcore.LevelEnabler) *Core {
	if level == nil {
		level = zapcore.ErrorLevel
	}
	return &Core{LevelEnabler: level, fwd: fwd}
}

// With returns a Core that adds fields to every entry.
func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	next := &Core{
		LevelEnabler: c.LevelEnabler,
		fwd:          c.fwd,
		fields:       make([]zapcore.Field, 0, len(c.fields)+len(fields)),
	}
	next.fields = append(next.fields, c.fields...)
	next.fields = append(next.fields, fields...)
	return next
}

// Check adds the core to ce when the entry's level is enabled.
func (c *Core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write forwards ent. The first error field of the entry, or failing that of
// the core's accumulated fields, becomes the reported error chain.
func (c *Core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	err := firstError(fields)
	if err == nil {
		err = firstError(c.fields)
	}

	logger := ent.LoggerName
	if logger == "" {
		logger = DefaultLoggerName
	}

	ev := slograygun.Event{
		Message:   ent.Message,
		Throwable: slograygun.FromError(err),
		Logger:    logger,
		Time:      ent.Time,
		Context:   stringify(enc.Fields),
	}
	if ent.Caller.Defined {
		ev.PC = ent.Caller.PC
	}
	return c.fwd.Forward(context.Background(), ev)
}

// Sync is a no-op; delivery is synchronous.
func (c *Core) Sync() error { return nil }

func firstError(fields []zapcore.Field) error {
	for _, f := range fields {
		if f.Type != zapcore.ErrorType {
			continue
		}
		if err, ok := f.Interface.(error); ok && err != nil {
			return err
		}
	}
	return nil
}

func stringify(fields map[string]any) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
