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
	"context"
	"net"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/pjscruggs/slograygun"
)

// Mapped diagnostic context keys set by [Middleware]. Reports carry them as
// "mdc:<key>".
const (
	MDCMethod       = "http.method"
	MDCTarget       = "http.target"
	MDCHost         = "http.host"
	MDCUserAgent    = "http.user_agent"
	MDCClientIP     = "http.client_ip"
	MDCHeaderPrefix = "http.header."
)

// Middleware returns server middleware that makes reports logged while
// serving a request identify that request. Inbound trace context is
// extracted so reports link to the caller's trace, and the request method,
// path, host, user agent and client address are added to the mapped
// diagnostic context.
//
// With OTel enabled (the default) the handler is wrapped in otelhttp and a
// server span is started. Otherwise the configured propagators extract trace
// context directly. Client-only options such as [WithEndpoint] are ignored.
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	cfg := applyOptions(opts)
	propagators := clientPropagators(cfg)

	return func(next http.Handler) http.Handler {
		handler := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !cfg.enableOTel && !trace.SpanContextFromContext(ctx).IsValid() {
				ctx = propagators.Extract(ctx, propagation.HeaderCarrier(r.Header))
			}
			ctx = requestMDC(ctx, cfg, r)
			next.ServeHTTP(w, r.WithContext(ctx))
		}))
		if cfg.enableOTel {
			handler = otelhttp.NewHandler(handler, "raygun.request", otelOptions(cfg, propagators, "HTTP ")...)
		}
		return handler
	}
}

// requestMDC adds the request details to ctx's mapped diagnostic context.
func requestMDC(ctx context.Context, cfg *config, r *http.Request) context.Context {
	set := func(key, value string) {
		if value != "" {
			ctx = slograygun.ContextWithMDC(ctx, key, value)
		}
	}

	set(MDCMethod, r.Method)
	if r.URL != nil {
		set(MDCTarget, r.URL.Path)
	}
	set(MDCHost, r.Host)
	set(MDCUserAgent, r.UserAgent())
	set(MDCClientIP, clientIP(r, cfg.trustProxyHeaders))
	for _, name := range cfg.requestHeaders {
		set(MDCHeaderPrefix+strings.ToLower(name), r.Header.Get(name))
	}
	return ctx
}

// clientIP returns the remote address without its port, or the first
// X-Forwarded-For entry when proxy headers are trusted.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
