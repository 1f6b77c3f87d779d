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
)

// ErrorKey is the attribute key ReportError uses for the reported error.
const ErrorKey = "error"

// ReportError logs err at error level through logger so that a [Handler] in
// the logger's chain reports it together with its causes. When msg is empty
// the error text is used as the message. Nil loggers and errors are ignored.
func ReportError(ctx context.Context, logger *slog.Logger, err error, msg string, attrs ...slog.Attr) {
	if logger == nil || err == nil {
		return
	}
	if msg == "" {
		msg = err.Error()
	}
	all := make([]slog.Attr, 0, len(attrs)+1)
	all = append(all, slog.Any(ErrorKey, err))
	all = append(all, attrs...)
	logger.LogAttrs(ctx, slog.LevelError, msg, all...)
}
