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

package raygunhttp

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a [Client] or the server [Middleware].
type Option func(*config)

type config struct {
	endpoint         string
	timeout          time.Duration
	baseTransport    http.RoundTripper
	compress         bool
	enableOTel       bool
	tracerProvider   trace.TracerProvider
	propagators      propagation.TextMapPropagator
	propagatorsSet   bool
	cloudTraceHeader bool

	requestHeaders    []string
	trustProxyHeaders bool
}

// defaultConfig returns the baseline client configuration.
func defaultConfig() *config {
	return &config{
		endpoint:   DefaultEndpoint,
		timeout:    DefaultTimeout,
		enableOTel: true,
	}
}

// applyOptions applies the provided options on top of defaultConfig.
func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithEndpoint overrides the ingestion URL. Tests point it at a
// [github.com/pjscruggs/slograygun/raygunmock] server.
func WithEndpoint(url string) Option {
	return func(cfg *config) {
		if url != "" {
			cfg.endpoint = url
		}
	}
}

// WithTimeout bounds each delivery attempt. Non-positive values disable the
// client timeout; the caller's context still applies.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = d
	}
}

// WithBaseTransport sets the RoundTripper that carries requests. The default
// is http.DefaultTransport.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(cfg *config) {
		cfg.baseTransport = rt
	}
}

// WithCompression gzips request bodies and sets Content-Encoding accordingly.
func WithCompression(enabled bool) Option {
	return func(cfg *config) {
		cfg.compress = enabled
	}
}

// WithOTel toggles wrapping the transport with otelhttp so every delivery
// produces a client span. Enabled by default.
func WithOTel(enabled bool) Option {
	return func(cfg *config) {
		cfg.enableOTel = enabled
	}
}

// WithTracerProvider installs the OpenTelemetry tracer provider used by the
// otelhttp transport.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.tracerProvider = tp
	}
}

// WithPropagators supplies the TextMapPropagator used to inject trace context
// into outbound requests. When omitted, [slograygun.EnsurePropagation] runs
// and otel.GetTextMapPropagator() is used. Passing nil disables injection.
func WithPropagators(p propagation.TextMapPropagator) Option {
	return func(cfg *config) {
		cfg.propagators = p
		cfg.propagatorsSet = true
	}
}

// WithCloudTraceHeader additionally injects the legacy X-Cloud-Trace-Context
// header for deployments that route through Google Cloud proxies.
func WithCloudTraceHeader(enabled bool) Option {
	return func(cfg *config) {
		cfg.cloudTraceHeader = enabled
	}
}

// WithRequestHeaders copies the named request headers into the mapped
// diagnostic context as "http.header.<name>" when [Middleware] serves a
// request. Absent headers are skipped.
func WithRequestHeaders(names ...string) Option {
	return func(cfg *config) {
		cfg.requestHeaders = append(cfg.requestHeaders, names...)
	}
}

// WithTrustProxyHeaders makes [Middleware] take the client address from the
// first X-Forwarded-For entry. Enable it only behind a proxy that sets the
// header.
func WithTrustProxyHeaders(enabled bool) Option {
	return func(cfg *config) {
		cfg.trustProxyHeaders = enabled
	}
}
