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
	"runtime"
	"strings"
)

const (
	// DefaultMaxCauseDepth bounds how many links of an error chain are
	// expanded into nested reports and causal summaries.
	DefaultMaxCauseDepth = 32

	causedByMessage  = "Caused by"
	causedBySep      = "; caused by: "
	truncatedMessage = "..."
)

// TranslatorOption configures a [Translator].
type TranslatorOption func(*Translator)

// WithTranslatorApplicationID prefixes every report message with "<id>: ".
func WithTranslatorApplicationID(id string) TranslatorOption {
	return func(t *Translator) {
		t.applicationID = id
	}
}

// WithFrameFilter replaces [SkipInternalFrame] as the predicate deciding which
// frames are skipped while locating the call-site.
func WithFrameFilter(skip func(function string) bool) TranslatorOption {
	return func(t *Translator) {
		if skip != nil {
			t.skipFrame = skip
		}
	}
}

// WithMaxCauseDepth overrides [DefaultMaxCauseDepth]. Values below 1 are ignored.
func WithMaxCauseDepth(depth int) TranslatorOption {
	return func(t *Translator) {
		if depth > 0 {
			t.maxDepth = depth
		}
	}
}

// WithStackCapture fills the root report's stack trace from the logging
// call's stack when the reported error carries no frames of its own.
func WithStackCapture(enabled bool) TranslatorOption {
	return func(t *Translator) {
		t.captureStack = enabled
	}
}

// Translator turns log events into Raygun error messages. It holds no mutable
// state and is safe for concurrent use.
type Translator struct {
	applicationID string
	skipFrame     func(string) bool
	maxDepth      int
	captureStack  bool
}

// NewTranslator constructs a Translator.
func NewTranslator(opts ...TranslatorOption) *Translator {
	t := &Translator{
		skipFrame: SkipInternalFrame,
		maxDepth:  DefaultMaxCauseDepth,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// BuildReport builds the error message for ev. The message, class name, stack
// trace and nested errors are populated; everything else in the outgoing
// [Message] is the caller's concern.
//
// When ev carries no Throwable the stack trace holds a single frame for the
// logging call-site. ErrCallSiteNotFound is returned if that frame cannot be
// determined. With [WithStackCapture], a root Throwable without frames gets
// the stack of the goroutine calling BuildReport, so it must run on the
// logging goroutine.
func (t *Translator) BuildReport(ev Event) (*ErrorMessage, error) {
	return t.buildError(ev.Message, ev.Throwable, ev.PC, 1)
}

// buildError builds one link of the report; depth counts links from the root.
func (t *Translator) buildError(message string, th Throwable, pc uintptr, depth int) (*ErrorMessage, error) {
	var sb strings.Builder
	if t.applicationID != "" {
		sb.WriteString(t.applicationID)
		sb.WriteString(": ")
	}
	sb.WriteString(message)

	report := &ErrorMessage{}
	if th != nil {
		sb.WriteString("; ")
		sb.WriteString(t.causalString(th, t.maxDepth-depth+1))

		report.ClassName = th.ClassName()
		report.StackTrace = stackTraceLines(th.Frames())
		if depth == 1 && len(report.StackTrace) == 0 && t.captureStack {
			report.StackTrace = t.logSiteStack(pc)
		}

		if cause := th.Cause(); cause != nil && depth < t.maxDepth {
			inner, err := t.buildError(causedByMessage, cause, 0, depth+1)
			if err != nil {
				return nil, err
			}
			report.InnerError = inner
		}
	} else {
		frame, err := t.callSite(pc)
		if err != nil {
			return nil, err
		}
		line := stackTraceLine(newFrame(frame))
		report.StackTrace = []StackTraceLine{line}
		report.ClassName = line.ClassName
	}

	report.Message = sb.String()
	return report, nil
}

// logSiteStack returns the stack of the logging call, or the single frame at
// pc when the walk finds nothing outside the logging frameworks.
func (t *Translator) logSiteStack(pc uintptr) []StackTraceLine {
	if frames := captureStack(t.skipFrame); len(frames) > 0 {
		return stackTraceLines(frames)
	}
	if frame, ok := frameAt(pc); ok {
		return []StackTraceLine{stackTraceLine(newFrame(frame))}
	}
	return []StackTraceLine{}
}

// causalString renders "class: message; caused by: class: message ..." for
// the chain starting at th, truncating after limit links.
func (t *Translator) causalString(th Throwable, limit int) string {
	var sb strings.Builder
	for n := 0; th != nil; n++ {
		if n > 0 {
			sb.WriteString(causedBySep)
		}
		if n == limit {
			sb.WriteString(truncatedMessage)
			break
		}
		sb.WriteString(th.ClassName())
		if msg := th.Message(); msg != "" {
			sb.WriteString(": ")
			sb.WriteString(msg)
		}
		th = th.Cause()
	}
	return sb.String()
}

// callSite prefers the program counter recorded by the logging framework and
// falls back to walking the stack.
func (t *Translator) callSite(pc uintptr) (runtime.Frame, error) {
	if frame, ok := frameAt(pc); ok {
		return frame, nil
	}
	return locateCallSite(t.skipFrame)
}

// stackTraceLines converts frames one-to-one, preserving order.
func stackTraceLines(frames []Frame) []StackTraceLine {
	lines := make([]StackTraceLine, len(frames))
	for i, f := range frames {
		lines[i] = stackTraceLine(f)
	}
	return lines
}

// stackTraceLine converts a single frame.
func stackTraceLine(f Frame) StackTraceLine {
	return StackTraceLine{
		LineNumber: f.LineNumber,
		ClassName:  f.ClassName,
		FileName:   f.FileName,
		MethodName: f.MethodName,
	}
}
