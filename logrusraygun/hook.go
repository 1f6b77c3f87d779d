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

// Package logrusraygun reports logrus entries to Raygun through a shared
// [slograygun.Forwarder].
//
//	logger := logrus.New()
//	logger.SetReportCaller(true)
//	logger.AddHook(logrusraygun.NewHook(fwd))
package logrusraygun

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pjscruggs/slograygun"
)

// DefaultLevels are the levels a Hook fires for when none are given.
var DefaultLevels = []logrus.Level{
	logrus.PanicLevel,
	logrus.FatalLevel,
	logrus.ErrorLevel,
}

// LoggerName is reported as the logger for every entry.
const LoggerName = "logrus"

// Hook is a logrus.Hook forwarding entries to Raygun.
type Hook struct {
	fwd    *slograygun.Forwarder
	levels []logrus.Level
}

var _ logrus.Hook = (*Hook)(nil)

// NewHook returns a Hook firing for levels, or [DefaultLevels] when empty.
func NewHook(fwd *slograygun.Forwarder, levels ...logrus.Level) *Hook {
	if len(levels) == 0 {
		levels = DefaultLevels
	}
	return &Hook{fwd: fwd, levels: levels}
}

// Levels implements logrus.Hook.
func (h *Hook) Levels() []logrus.Level {
	return h.levels
}

// Fire forwards entry. The error stored under logrus.ErrorKey becomes the
// reported error chain; other fields and MDC values on the entry's context
// become custom data. The caller is only reported precisely when the logger
// has ReportCaller enabled.
func (h *Hook) Fire(entry *logrus.Entry) error {
	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	data := slograygun.MDC(ctx)
	if data == nil {
		data = make(map[string]string, len(entry.Data))
	}
	for k, v := range entry.Data {
		if e, ok := v.(error); ok && k == logrus.ErrorKey {
			err = e
			data[k] = e.Error()
			continue
		}
		if s, ok := v.(string); ok {
			data[k] = s
			continue
		}
		data[k] = fmt.Sprint(v)
	}

	ev := slograygun.Event{
		Message:   entry.Message,
		Throwable: slograygun.FromError(err),
		Logger:    LoggerName,
		Time:      entry.Time,
		Context:   data,
	}
	if entry.Caller != nil {
		ev.PC = entry.Caller.PC
	}

	return h.fwd.Forward(ctx, ev)
}
