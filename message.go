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

import "time"

// Event is one log event as seen by the forwarder. Adapters for each logging
// framework build an Event and never mutate it afterwards.
type Event struct {
	// Message is the formatted log message.
	Message string
	// Throwable is the logged error chain, or nil.
	Throwable Throwable
	// Thread names the goroutine that logged the event.
	Thread string
	// Logger names the logger that emitted the event.
	Logger string
	// Time is when the event was logged.
	Time time.Time
	// Context holds contextual key/values, reported with an "mdc:" prefix.
	Context map[string]string
	// PC optionally identifies the logging call-site. When zero the
	// call-site is found by walking the stack.
	PC uintptr
}

// Message is the payload posted to the Raygun entries endpoint.
type Message struct {
	OccurredOn time.Time `json:"occurredOn"`
	Details    Details   `json:"details"`
}

// Details carries the report body.
type Details struct {
	MachineName    string            `json:"machineName"`
	Version        string            `json:"version"`
	Client         ClientInfo        `json:"client"`
	Error          *ErrorMessage     `json:"error"`
	Environment    *Environment      `json:"environment,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	UserCustomData map[string]string `json:"userCustomData,omitempty"`
}

// ClientInfo identifies the submitting library.
type ClientInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	ClientURL string `json:"clientUrl"`
}

// ErrorMessage describes one link of the reported error chain.
type ErrorMessage struct {
	InnerError *ErrorMessage    `json:"innerError,omitempty"`
	ClassName  string           `json:"className"`
	Message    string           `json:"message"`
	StackTrace []StackTraceLine `json:"stackTrace"`
}

// StackTraceLine is one frame of an ErrorMessage stack trace.
type StackTraceLine struct {
	LineNumber int    `json:"lineNumber"`
	ClassName  string `json:"className"`
	FileName   string `json:"fileName"`
	MethodName string `json:"methodName"`
}

// Environment describes the machine that produced the report. Memory sizes
// are in megabytes.
type Environment struct {
	ProcessorCount          int     `json:"processorCount,omitempty"`
	OSVersion               string  `json:"osVersion,omitempty"`
	Architecture            string  `json:"architecture,omitempty"`
	TotalPhysicalMemory     uint64  `json:"totalPhysicalMemory,omitempty"`
	AvailablePhysicalMemory uint64  `json:"availablePhysicalMemory,omitempty"`
	UTCOffset               float64 `json:"utcOffset"`
}

// Depth returns the number of links in the chain starting at m.
func (m *ErrorMessage) Depth() int {
	n := 0
	for cur := m; cur != nil; cur = cur.InnerError {
		n++
	}
	return n
}
