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

// Package raygunhttp delivers slograygun reports to the Raygun ingestion API.
//
// A [Client] implements [slograygun.Poster]:
//
//	handler, err := slograygun.NewHandler(
//	    slograygun.WithAPIKey(key),
//	    slograygun.WithPoster(raygunhttp.New(raygunhttp.WithCompression(true))),
//	)
//
// Requests carry the API key in the X-ApiKey header. Outbound requests are
// instrumented with otelhttp unless [WithOTel] disables it, and trace
// context from the logging call's context is propagated to the endpoint.
//
// [Middleware] is the server-side counterpart: it extracts inbound trace
// context and records request details in the mapped diagnostic context.
package raygunhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	gcppropagator "github.com/GoogleCloudPlatform/opentelemetry-operations-go/propagator"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/pjscruggs/slograygun"
)

const (
	// DefaultEndpoint is the Raygun crash reporting ingestion URL.
	DefaultEndpoint = "https://api.raygun.com/entries"
	// DefaultTimeout bounds a single delivery attempt.
	DefaultTimeout = 10 * time.Second

	// APIKeyHeader carries the application's API key.
	APIKeyHeader = "X-ApiKey"
	// InstanceIDHeader identifies the client instance that sent a report.
	InstanceIDHeader = "X-Instance-ID"
)

// StatusError reports a non-2xx response from the ingestion endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("raygunhttp: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("raygunhttp: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client posts reports to Raygun. It is safe for concurrent use.
type Client struct {
	rc          *resty.Client
	endpoint    string
	compress    bool
	instanceID  string
	propagators propagation.TextMapPropagator
	injectTrace bool
}

var _ slograygun.Poster = (*Client)(nil)

// New builds a Client.
func New(opts ...Option) *Client {
	cfg := applyOptions(opts)

	propagators := clientPropagators(cfg)

	base := cfg.baseTransport
	if base == nil {
		base = http.DefaultTransport
	}
	transport := base
	if cfg.enableOTel {
		transport = otelhttp.NewTransport(base, otelOptions(cfg, propagators, "raygun ")...)
	}

	hc := &http.Client{Transport: transport}
	if cfg.timeout > 0 {
		hc.Timeout = cfg.timeout
	}

	rc := resty.NewWithClient(hc)
	rc.SetHeader("Content-Type", "application/json")
	rc.SetHeader("User-Agent", slograygun.UserAgent)

	return &Client{
		rc:          rc,
		endpoint:    cfg.endpoint,
		compress:    cfg.compress,
		instanceID:  uuid.NewString(),
		propagators: propagators,
		injectTrace: !cfg.enableOTel,
	}
}

// otelOptions builds the otelhttp options shared by the client transport and
// the server middleware. Spans are named prefix + method.
func otelOptions(cfg *config, propagators propagation.TextMapPropagator, prefix string) []otelhttp.Option {
	opts := []otelhttp.Option{
		otelhttp.WithPropagators(propagators),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return prefix + r.Method
		}),
	}
	if cfg.tracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.tracerProvider))
	}
	return opts
}

// clientPropagators resolves the propagator injected into outbound requests.
func clientPropagators(cfg *config) propagation.TextMapPropagator {
	p := cfg.propagators
	if !cfg.propagatorsSet {
		slograygun.EnsurePropagation()
		p = otel.GetTextMapPropagator()
	}
	if p == nil {
		p = propagation.NewCompositeTextMapPropagator()
	}
	if cfg.cloudTraceHeader {
		p = propagation.NewCompositeTextMapPropagator(p, gcppropagator.CloudTraceFormatPropagator{})
	}
	return p
}

// Post sends msg authenticated with apiKey. Any 2xx response is success;
// Raygun answers 202 Accepted.
func (c *Client) Post(ctx context.Context, apiKey string, msg *slograygun.Message) error {
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("raygunhttp: encode message: %w", err)
	}

	req := c.rc.R().
		SetContext(ctx).
		SetHeader(APIKeyHeader, apiKey).
		SetHeader(InstanceIDHeader, c.instanceID)

	if c.compress {
		body, err = gzipBody(body)
		if err != nil {
			return fmt.Errorf("raygunhttp: compress message: %w", err)
		}
		req.SetHeader("Content-Encoding", "gzip")
	}
	req.SetBody(body)

	if c.injectTrace {
		c.propagators.Inject(ctx, propagation.HeaderCarrier(req.Header))
	}

	resp, err := req.Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("raygunhttp: post report: %w", err)
	}
	if !resp.IsSuccess() {
		return &StatusError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}

// InstanceID returns the identifier sent in the X-Instance-ID header.
func (c *Client) InstanceID() string { return c.instanceID }

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.rc.GetClient().CloseIdleConnections()
	return nil
}

func gzipBody(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
