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
	"strconv"

	"go.opentelemetry.io/otel/trace"
)

// Custom data keys used when an OpenTelemetry span is active on the logging
// context.
const (
	TraceIDKey      = "trace_id"
	SpanIDKey       = "span_id"
	TraceSampledKey = "trace_sampled"
)

// addTraceData records the active span of ctx in data. Nothing is added when
// ctx carries no valid span context.
func addTraceData(ctx context.Context, data map[string]string) {
	if ctx == nil {
		return
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}
	data[TraceIDKey] = sc.TraceID().String()
	data[SpanIDKey] = sc.SpanID().String()
	data[TraceSampledKey] = strconv.FormatBool(sc.IsSampled())
}
