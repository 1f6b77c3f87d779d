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
	"maps"
)

type contextKey int

const (
	mdcContextKey contextKey = iota
)

// ContextWithMDC returns a child context carrying key=value in its mapped
// diagnostic context. Every event logged with the returned context reports the
// pair as "mdc:<key>". The parent context is not affected.
func ContextWithMDC(ctx context.Context, key, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	parent, _ := ctx.Value(mdcContextKey).(map[string]string)
	next := make(map[string]string, len(parent)+1)
	maps.Copy(next, parent)
	next[key] = value
	return context.WithValue(ctx, mdcContextKey, next)
}

// MDC returns a copy of the mapped diagnostic context stored in ctx. The
// result is nil when ctx carries none.
func MDC(ctx context.Context) map[string]string {
	if ctx == nil {
		return nil
	}
	values, _ := ctx.Value(mdcContextKey).(map[string]string)
	return maps.Clone(values)
}
