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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Custom data keys attached to every report.
const (
	ThreadKey        = "thread"
	LoggerKey        = "logger"
	ApplicationIDKey = "applicationId"
	DatetimeKey      = "datetime"
	MDCPrefix        = "mdc:"

	unnamedApplication = "unnamed"

	// DatetimeLayout renders the datetime custom data value with a
	// zero-padded day of month.
	DatetimeLayout = "Mon Jan 02 15:04:05 MST 2006"
)

// ErrNoPoster indicates that no delivery transport was configured.
var ErrNoPoster = errors.New("slograygun: no poster configured; use WithPoster")

// Poster delivers a finished report. Post is called synchronously on the
// logging goroutine. The forwarder only logs a returned error.
type Poster interface {
	Post(ctx context.Context, apiKey string, msg *Message) error
}

// PosterFunc adapts a function to the [Poster] interface.
type PosterFunc func(ctx context.Context, apiKey string, msg *Message) error

// Post calls f.
func (f PosterFunc) Post(ctx context.Context, apiKey string, msg *Message) error {
	return f(ctx, apiKey, msg)
}

// Forwarder relays log events to Raygun. It is shared by the slog [Handler]
// and the zap and logrus adapters, and is safe for concurrent use: the key
// mapping and settings are immutable after construction and every event gets
// a freshly built report.
type Forwarder struct {
	keys           *Keys
	tags           []string
	applicationID  string
	appVersion     string
	loggerName     string
	machineName    string
	runtimeLabels  bool
	translator     *Translator
	poster         Poster
	levelVar       *slog.LevelVar
	internalLogger *slog.Logger

	closeOnce sync.Once
}

// NewForwarder builds a Forwarder from environment variables and opts. An
// invalid API key configuration is reported here rather than when events are
// logged.
func NewForwarder(opts ...Option) (*Forwarder, error) {
	builder := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(builder)
		}
	}

	internalLogger := builder.internalLogger
	if internalLogger == nil {
		internalLogger = slog.New(slog.DiscardHandler)
	}

	cfg := loadConfigFromEnv(internalLogger)
	applyOptions(&cfg, builder)

	keys, err := ParseKeys(cfg.APIKey)
	if err != nil {
		return nil, err
	}
	if builder.poster == nil {
		return nil, ErrNoPoster
	}

	levelVar := builder.levelVar
	if levelVar == nil {
		levelVar = new(slog.LevelVar)
	}
	levelVar.Set(cfg.Level)

	translatorOpts := append([]TranslatorOption{
		WithTranslatorApplicationID(cfg.ApplicationID),
		WithStackCapture(cfg.StackTrace),
	}, builder.translatorOpts...)

	f := &Forwarder{
		keys:           keys,
		tags:           cfg.Tags,
		applicationID:  cfg.ApplicationID,
		appVersion:     cfg.AppVersion,
		loggerName:     cfg.LoggerName,
		machineName:    cfg.MachineName,
		runtimeLabels:  cfg.RuntimeLabels,
		translator:     NewTranslator(translatorOpts...),
		poster:         builder.poster,
		levelVar:       levelVar,
		internalLogger: internalLogger,
	}
	if f.runtimeLabels {
		DetectRuntimeInfo()
	}
	return f, nil
}

// Forward reports ev if an API key applies to this machine. Events without a
// matching key are dropped, and delivery failures are logged to the internal
// logger; neither is an error. The only error returned is a failure to build
// the report.
func (f *Forwarder) Forward(ctx context.Context, ev Event) error {
	if ctx == nil {
		ctx = context.Background()
	}

	host := f.hostname()
	apiKey, ok := f.keys.Lookup(host)
	if !ok {
		logDiagnostic(f.internalLogger, slog.LevelDebug, "no API key for host; event dropped", slog.String("host", host))
		return nil
	}

	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	report, err := f.translator.BuildReport(ev)
	if err != nil {
		return fmt.Errorf("slograygun: build report: %w", err)
	}

	msg := f.newMessage(ctx, host, ev, report)
	if err := f.poster.Post(ctx, apiKey, msg); err != nil {
		logDiagnostic(f.internalLogger, slog.LevelWarn, "failed to deliver report", slog.String("host", host), slog.Any("error", err))
	}
	return nil
}

// newMessage wraps report with the client identity, machine and custom data.
func (f *Forwarder) newMessage(ctx context.Context, host string, ev Event, report *ErrorMessage) *Message {
	env := DetectEnvironment()
	return &Message{
		OccurredOn: ev.Time.UTC(),
		Details: Details{
			MachineName:    host,
			Version:        f.appVersion,
			Client:         clientInfo(),
			Error:          report,
			Environment:    &env,
			Tags:           slices.Clone(f.tags),
			UserCustomData: f.customData(ctx, ev),
		},
	}
}

// customData assembles the userCustomData map for ev.
func (f *Forwarder) customData(ctx context.Context, ev Event) map[string]string {
	data := make(map[string]string, len(ev.Context)+8)
	if f.runtimeLabels {
		runtimeLabelData(DetectRuntimeInfo(), data)
	}
	addTraceData(ctx, data)

	thread := ev.Thread
	if thread == "" {
		thread = goroutineName()
	}
	logger := ev.Logger
	if logger == "" {
		logger = f.loggerName
	}
	appID := f.applicationID
	if appID == "" {
		appID = unnamedApplication
	}

	data[ThreadKey] = thread
	data[LoggerKey] = logger
	data[ApplicationIDKey] = appID
	data[DatetimeKey] = ev.Time.Format(DatetimeLayout)
	for k, v := range ev.Context {
		data[MDCPrefix+k] = v
	}
	return data
}

// hostname returns the configured machine name or resolves it.
func (f *Forwarder) hostname() string {
	if f.machineName != "" {
		return f.machineName
	}
	return MachineName()
}

// Keys returns the API key mapping in use.
func (f *Forwarder) Keys() *Keys { return f.keys }

// Translator returns the translator building reports.
func (f *Forwarder) Translator() *Translator { return f.translator }

// LoggerName returns the configured default logger name.
func (f *Forwarder) LoggerName() string { return f.loggerName }

// Close releases the poster when it implements io.Closer. It is safe to call
// multiple times; only the first invocation performs work.
func (f *Forwarder) Close() error {
	var err error
	f.closeOnce.Do(func() {
		if c, ok := f.poster.(io.Closer); ok {
			if err = c.Close(); err != nil {
				f.internalLogger.Error("failed to close poster", slog.Any("error", err))
			}
		}
	})
	return err
}
