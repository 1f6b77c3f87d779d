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
	"os"
	"strconv"
	"strings"
)

const (
	envAPIKey        = "SLOGRAYGUN_API_KEY"
	envTags          = "SLOGRAYGUN_TAGS"
	envApplicationID = "SLOGRAYGUN_APPLICATION_ID"
	envAppVersion    = "SLOGRAYGUN_APP_VERSION"
	envLevel         = "SLOGRAYGUN_LEVEL"
	envLoggerName    = "SLOGRAYGUN_LOGGER_NAME"
	envRuntimeLabels = "SLOGRAYGUN_RUNTIME_LABELS"
	envStackTrace    = "SLOGRAYGUN_STACK_TRACE_ENABLED"

	defaultLoggerName = "slog"
	defaultAppVersion = "Not supplied"
)

// Option mutates Forwarder and Handler construction when supplied to
// [NewForwarder] or [NewHandler].
//
// Options follow the functional options pattern and are applied in the order
// they are provided by the caller. Options take precedence over environment
// variables.
type Option func(*options)

type options struct {
	apiKey         *string
	tags           *string
	applicationID  *string
	appVersion     *string
	level          *slog.Level
	levelVar       *slog.LevelVar
	loggerName     *string
	runtimeLabels  *bool
	stackTrace     *bool
	machineName    *string
	poster         Poster
	internalLogger *slog.Logger
	translatorOpts []TranslatorOption
}

type config struct {
	APIKey        string
	Tags          []string
	ApplicationID string
	AppVersion    string
	Level         slog.Level
	LoggerName    string
	RuntimeLabels bool
	StackTrace    bool
	MachineName   string
}

// WithAPIKey sets the API key configuration: either a single key, or
// space separated "host:key" pairs. See [ParseKeys].
func WithAPIKey(config string) Option {
	return func(o *options) {
		o.apiKey = &config
	}
}

// WithTags sets the comma separated tags attached to every report.
func WithTags(csv string) Option {
	return func(o *options) {
		o.tags = &csv
	}
}

// WithApplicationID prefixes report messages with "<id>: " and reports the id
// as the applicationId custom data entry.
func WithApplicationID(id string) Option {
	trimmed := strings.TrimSpace(id)
	return func(o *options) {
		o.applicationID = &trimmed
	}
}

// WithAppVersion sets the application version reported to Raygun.
func WithAppVersion(version string) Option {
	trimmed := strings.TrimSpace(version)
	return func(o *options) {
		o.appVersion = &trimmed
	}
}

// WithLevel sets the minimum slog level forwarded by the handler. The default
// is [slog.LevelError].
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = &level
	}
}

// WithLevelVar shares levelVar with the handler so the threshold can be
// changed at runtime. The handler inherits the LevelVar's current value after
// other options and environment overrides have been applied.
func WithLevelVar(levelVar *slog.LevelVar) Option {
	return func(o *options) {
		if levelVar != nil {
			o.levelVar = levelVar
		}
	}
}

// WithLoggerName sets the logger name reported in custom data.
func WithLoggerName(name string) Option {
	return func(o *options) {
		o.loggerName = &name
	}
}

// WithRuntimeLabels attaches platform labels from [DetectRuntimeInfo] to
// every report's custom data.
func WithRuntimeLabels(enabled bool) Option {
	return func(o *options) {
		o.runtimeLabels = &enabled
	}
}

// WithStackTraceEnabled toggles capturing the logging call's stack for
// errors that carry no stack of their own. Enabled by default.
func WithStackTraceEnabled(enabled bool) Option {
	return func(o *options) {
		o.stackTrace = &enabled
	}
}

// WithMachineName fixes the machine name instead of resolving the hostname
// for each event. Key lookups use the same name.
func WithMachineName(name string) Option {
	return func(o *options) {
		o.machineName = &name
	}
}

// WithPoster sets the transport used to deliver reports.
func WithPoster(p Poster) Option {
	return func(o *options) {
		o.poster = p
	}
}

// WithInternalLogger injects a logger for diagnostics about configuration,
// dropped events and delivery failures.
func WithInternalLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.internalLogger = logger
	}
}

// WithTranslatorOptions forwards options to the underlying [Translator].
func WithTranslatorOptions(opts ...TranslatorOption) Option {
	return func(o *options) {
		o.translatorOpts = append(o.translatorOpts, opts...)
	}
}

// loadConfigFromEnv reads configuration overrides from environment variables,
// logging invalid values to logger.
func loadConfigFromEnv(logger *slog.Logger) config {
	cfg := config{
		Level:      slog.LevelError,
		LoggerName: defaultLoggerName,
		AppVersion: defaultAppVersion,
		StackTrace: true,
	}

	cfg.APIKey = os.Getenv(envAPIKey)
	cfg.Tags = parseTags(os.Getenv(envTags))
	cfg.ApplicationID = strings.TrimSpace(os.Getenv(envApplicationID))
	if v := strings.TrimSpace(os.Getenv(envAppVersion)); v != "" {
		cfg.AppVersion = v
	}
	if v := strings.TrimSpace(os.Getenv(envLoggerName)); v != "" {
		cfg.LoggerName = v
	}
	cfg.Level = parseLevelEnv(os.Getenv(envLevel), cfg.Level, logger)
	cfg.RuntimeLabels = parseBoolEnv(os.Getenv(envRuntimeLabels), cfg.RuntimeLabels, logger)
	cfg.StackTrace = parseBoolEnv(os.Getenv(envStackTrace), cfg.StackTrace, logger)
	return cfg
}

// applyOptions merges user-supplied options into the environment-derived
// configuration.
func applyOptions(cfg *config, o *options) {
	if o.apiKey != nil {
		cfg.APIKey = *o.apiKey
	}
	if o.tags != nil {
		cfg.Tags = parseTags(*o.tags)
	}
	if o.applicationID != nil {
		cfg.ApplicationID = *o.applicationID
	}
	if o.appVersion != nil && *o.appVersion != "" {
		cfg.AppVersion = *o.appVersion
	}
	if o.level != nil {
		cfg.Level = *o.level
	}
	if o.levelVar != nil {
		cfg.Level = o.levelVar.Level()
	}
	if o.loggerName != nil {
		cfg.LoggerName = *o.loggerName
	}
	if o.runtimeLabels != nil {
		cfg.RuntimeLabels = *o.runtimeLabels
	}
	if o.stackTrace != nil {
		cfg.StackTrace = *o.stackTrace
	}
	if o.machineName != nil {
		cfg.MachineName = *o.machineName
	}
}

// parseTags splits a comma separated tag list. Tags are kept verbatim.
func parseTags(csv string) []string {
	if csv == "" {
		return nil
	}
	return strings.Split(csv, ",")
}

// parseBoolEnv interprets truthy environment variable values with validation
// diagnostics.
func parseBoolEnv(value string, current bool, logger *slog.Logger) bool {
	if strings.TrimSpace(value) == "" {
		return current
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		logDiagnostic(logger, slog.LevelWarn, "invalid boolean environment variable", slog.String("value", value), slog.Any("error", err))
		return current
	}
	return b
}

// parseLevelEnv parses slog levels from environment variables, retaining the
// current level on failure.
func parseLevelEnv(value string, current slog.Level, logger *slog.Logger) slog.Level {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return current
	}

	switch trimmed {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		if lv, err := strconv.Atoi(trimmed); err == nil {
			return slog.Level(lv)
		}
	}

	logDiagnostic(logger, slog.LevelWarn, "invalid log level environment variable", slog.String("value", value))
	return current
}

// logDiagnostic emits internal diagnostic messages, guarding against nil
// loggers in tests.
func logDiagnostic(logger *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if logger == nil {
		return
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}
