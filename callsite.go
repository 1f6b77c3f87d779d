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
	"errors"
	"runtime"
	"strings"
	"sync"
)

const (
	// maxStackFrames caps both captured error stacks and the call-site walk.
	maxStackFrames = 64

	modulePath = "github.com/pjscruggs/slograygun"
)

// ErrCallSiteNotFound is returned when every frame on the stack belongs to
// this module or to the logging framework.
var ErrCallSiteNotFound = errors.New("slograygun: unable to determine call-site")

var stackPCPool = sync.Pool{
	New: func() any {
		buf := make([]uintptr, maxStackFrames)
		return &buf
	},
}

// internalFramePrefixes lists function name prefixes that never count as the
// call-site of a log statement.
var internalFramePrefixes = []string{
	modulePath + ".",
	modulePath + "/",
	"log/slog.",
	"log/slog/",
	"go.uber.org/zap.",
	"go.uber.org/zap/",
	"github.com/sirupsen/logrus.",
}

// SkipInternalFrame reports whether a frame belongs to slograygun, a supported
// logging framework, or the Go runtime. Test packages of this module are not
// skipped.
func SkipInternalFrame(function string) bool {
	if function == "" {
		return false
	}
	if strings.HasPrefix(function, "runtime.") {
		return true
	}
	if strings.HasSuffix(packagePath(function), "_test") {
		return false
	}
	for _, prefix := range internalFramePrefixes {
		if strings.HasPrefix(function, prefix) {
			return true
		}
	}
	return false
}

// packagePath extracts the import path from a fully qualified function name.
func packagePath(function string) string {
	if idx := strings.IndexByte(function, '['); idx >= 0 {
		function = function[:idx]
	}
	slash := strings.LastIndexByte(function, '/')
	dot := strings.IndexByte(function[slash+1:], '.')
	if dot < 0 {
		return function
	}
	return function[:slash+1+dot]
}

// locateCallSite walks the current goroutine stack and returns the first frame
// that skip does not reject.
func locateCallSite(skip func(string) bool) (runtime.Frame, error) {
	if skip == nil {
		skip = SkipInternalFrame
	}

	bufPtr := stackPCPool.Get().(*[]uintptr)
	defer stackPCPool.Put(bufPtr)
	pcs := (*bufPtr)[:cap(*bufPtr)]

	n := runtime.Callers(1, pcs)
	if n == 0 {
		return runtime.Frame{}, ErrCallSiteNotFound
	}

	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !skip(frame.Function) {
			return frame, nil
		}
		if !more {
			break
		}
	}
	return runtime.Frame{}, ErrCallSiteNotFound
}

// captureStack returns the current goroutine stack with the leading frames
// rejected by skip removed, so the first frame is the logging call-site. It
// returns nil when no frame survives.
func captureStack(skip func(string) bool) []Frame {
	if skip == nil {
		skip = SkipInternalFrame
	}

	bufPtr := stackPCPool.Get().(*[]uintptr)
	defer stackPCPool.Put(bufPtr)
	pcs := (*bufPtr)[:cap(*bufPtr)]

	n := runtime.Callers(1, pcs)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	out := make([]Frame, 0, n)
	for {
		frame, more := frames.Next()
		if frame.Function != "" && frame.Function != "runtime.goexit" {
			if len(out) > 0 || !skip(frame.Function) {
				out = append(out, newFrame(frame))
			}
		}
		if !more {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// frameAt resolves a single program counter, as recorded by slog and zap.
func frameAt(pc uintptr) (runtime.Frame, bool) {
	if pc == 0 {
		return runtime.Frame{}, false
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	return frame, frame.Function != ""
}

// framesFromPCs converts program counters into frames, dropping runtime exit
// frames and unnamed functions.
func framesFromPCs(pcs []uintptr) []Frame {
	if len(pcs) == 0 {
		return nil
	}

	out := make([]Frame, 0, len(pcs))
	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		if frame.Function != "" && frame.Function != "runtime.goexit" {
			out = append(out, newFrame(frame))
		}
		if !more || len(out) >= maxStackFrames {
			break
		}
	}
	return out
}

// newFrame maps a runtime frame onto the class/method shape used by Raygun.
func newFrame(f runtime.Frame) Frame {
	class, method := splitFunction(f.Function)
	return Frame{
		ClassName:  class,
		MethodName: method,
		FileName:   f.File,
		LineNumber: f.Line,
	}
}

// splitFunction divides "path/pkg.(*T).Method" into "path/pkg.(*T)" and
// "Method". A function without a receiver yields the package as its class.
func splitFunction(function string) (class, method string) {
	const generic = "[...]"
	name := strings.TrimSuffix(function, generic)
	suffix := function[len(name):]

	slash := strings.LastIndexByte(name, '/')
	dot := strings.LastIndexByte(name, '.')
	if dot <= slash {
		return function, ""
	}
	return name[:dot], name[dot+1:] + suffix
}

// goroutineName returns "goroutine N" for the calling goroutine, the closest
// Go analogue of a thread name.
func goroutineName() string {
	const fallback = "goroutine"

	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := string(buf[:n])
	if idx := strings.IndexByte(header, '['); idx > 0 {
		header = header[:idx]
	}
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, "goroutine ") {
		return fallback
	}
	return header
}
