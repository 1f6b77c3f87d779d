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
	"fmt"
	"slices"
)

// maxUnwrapDepth bounds how many links of an error chain FromError converts.
const maxUnwrapDepth = 256

// Throwable is a read-only view of one link in an error chain. Implementations
// must return a nil interface from Cause when there is no cause, and chains
// must be finite.
type Throwable interface {
	// ClassName identifies the kind of error, for example "*fs.PathError".
	ClassName() string
	// Message returns the error text; the empty string means no message.
	Message() string
	// Frames returns the stack frames recorded for this link, outermost call
	// first. The returned slice must not be modified.
	Frames() []Frame
	// Cause returns the wrapped error, or nil.
	Cause() Throwable
}

// Frame describes one stack frame of a Throwable.
type Frame struct {
	ClassName  string
	MethodName string
	FileName   string
	LineNumber int
}

// Exception is the immutable value implementation of [Throwable].
type Exception struct {
	className string
	message   string
	frames    []Frame
	cause     Throwable
}

// NewException builds an Exception. frames is copied; cause may be nil.
func NewException(className, message string, frames []Frame, cause Throwable) *Exception {
	return &Exception{
		className: className,
		message:   message,
		frames:    slices.Clone(frames),
		cause:     cause,
	}
}

// ClassName implements [Throwable].
func (e *Exception) ClassName() string { return e.className }

// Message implements [Throwable].
func (e *Exception) Message() string { return e.message }

// Frames implements [Throwable].
func (e *Exception) Frames() []Frame { return e.frames }

// Cause implements [Throwable].
func (e *Exception) Cause() Throwable { return e.cause }

// stackTracer is implemented by errors that carry the program counters of
// the point where they were created.
type stackTracer interface {
	StackTrace() []uintptr
}

// FromError converts err and the chain it wraps into a Throwable. It returns
// nil when err is nil.
//
// Each link uses the dynamic type of the error as its class name and
// err.Error() as its message. Frames are only present for errors that expose
// a StackTrace() []uintptr method. Errors wrapping several errors (errors.Join)
// continue with the first one.
func FromError(err error) Throwable {
	if err == nil {
		return nil
	}

	chain := make([]error, 0, 4)
	for e := err; e != nil && len(chain) < maxUnwrapDepth; e = unwrapFirst(e) {
		chain = append(chain, e)
	}

	var next *Exception
	for i := len(chain) - 1; i >= 0; i-- {
		e := chain[i]
		ex := &Exception{
			className: fmt.Sprintf("%T", e),
			message:   e.Error(),
			frames:    errorFrames(e),
		}
		if next != nil {
			ex.cause = next
		}
		next = ex
	}
	return next
}

// unwrapFirst returns the next error in the chain, following the first branch
// of multi-errors.
func unwrapFirst(err error) error {
	if next := errors.Unwrap(err); next != nil {
		return next
	}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range multi.Unwrap() {
			if e != nil {
				return e
			}
		}
	}
	return nil
}

// errorFrames returns the frames recorded by err itself, ignoring wrapped errors.
func errorFrames(err error) []Frame {
	st, ok := err.(stackTracer)
	if !ok {
		return nil
	}
	pcs := st.StackTrace()
	if len(pcs) > maxStackFrames {
		pcs = pcs[:maxStackFrames]
	}
	return framesFromPCs(pcs)
}
