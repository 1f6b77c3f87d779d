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

// Package slograygun reports error-level log events to the Raygun crash
// reporting service. It builds on the standard library's [log/slog] package
// and ships adapters for zap and logrus in subpackages.
//
// The primary entry point is [NewHandler], which returns an [slog.Handler]
// that turns each record at or above its level into a Raygun report:
//   - The first error-valued attribute becomes the reported error, with every
//     error it wraps nested as an inner error.
//   - Records without an error are reported against the source location of
//     the logging call.
//   - Attributes and values stored with [ContextWithMDC] are attached as
//     custom data, together with the goroutine, logger name, application id
//     and timestamp.
//
// # API keys
//
// A single key applies to every machine. A space separated list of
// "host:key" pairs restricts reporting to the named hosts, so one
// configuration can be shared across environments:
//
//	SLOGRAYGUN_API_KEY="build01:AAAA prod-web:BBBB"
//
// Events logged on a host without a key are dropped silently.
//
// # Subpackages
//
//   - [github.com/pjscruggs/slograygun/raygunhttp] posts reports to the Raygun
//     ingestion API with optional gzip and OpenTelemetry instrumentation, and
//     provides server middleware that tags reports with request details.
//   - [github.com/pjscruggs/slograygun/zapraygun] and
//     [github.com/pjscruggs/slograygun/logrusraygun] forward zap and logrus
//     entries through a shared [Forwarder].
//   - [github.com/pjscruggs/slograygun/raygunmock] is an in-process Raygun
//     endpoint for tests.
//
// # Quick Start
//
//	handler, err := slograygun.NewHandler(
//	    slograygun.WithAPIKey(os.Getenv("RAYGUN_KEY")),
//	    slograygun.WithPoster(raygunhttp.New()),
//	)
//	if err != nil {
//	    log.Fatalf("create slograygun handler: %v", err)
//	}
//	defer handler.Close()
//
//	logger := slog.New(handler)
//	logger.Error("payment failed", "error", err)
//
// # Configuration
//
// Functional options such as [WithLevel], [WithTags], [WithApplicationID] and
// [WithRuntimeLabels] take precedence over the SLOGRAYGUN_* environment
// variables they correspond to.
package slograygun
