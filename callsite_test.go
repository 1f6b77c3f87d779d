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
	"strings"
	"testing"
)

// TestSplitFunction covers receiver, package and generic function names.
func TestSplitFunction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in         string
		wantClass  string
		wantMethod string
	}{
		{"main.main", "main", "main"},
		{"github.com/acme/app/payments.(*Service).Charge", "github.com/acme/app/payments.(*Service)", "Charge"},
		{"github.com/acme/app/payments.Charge.func1", "github.com/acme/app/payments.Charge", "func1"},
		{"github.com/acme/app/payments.Map[...]", "github.com/acme/app/payments", "Map[...]"},
		{"github.com/acme/app.v2/pkg.Run", "github.com/acme/app.v2/pkg", "Run"},
		{"nodot", "nodot", ""},
	}

	for _, tt := range tests {
		class, method := splitFunction(tt.in)
		if class != tt.wantClass || method != tt.wantMethod {
			t.Errorf("splitFunction(%q) = (%q, %q), want (%q, %q)", tt.in, class, method, tt.wantClass, tt.wantMethod)
		}
	}
}

// TestSkipInternalFrame verifies module, framework and runtime frames are skipped.
func TestSkipInternalFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		function string
		want     bool
	}{
		{"runtime.goexit", true},
		{modulePath + ".(*Forwarder).Forward", true},
		{modulePath + "/zapraygun.(*Core).Write", true},
		{"log/slog.(*Logger).log", true},
		{"go.uber.org/zap.(*Logger).Error", true},
		{"go.uber.org/zap/zapcore.(*CheckedEntry).Write", true},
		{"github.com/sirupsen/logrus.(*Entry).log", true},
		{modulePath + "_test.TestHandler", false},
		{modulePath + "/zapraygun_test.TestCore", false},
		{"github.com/acme/app.main", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := SkipInternalFrame(tt.function); got != tt.want {
			t.Errorf("SkipInternalFrame(%q) = %v, want %v", tt.function, got, tt.want)
		}
	}
}

// TestPackagePath verifies import paths are isolated from symbol names.
func TestPackagePath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"main.main": "main",
		"github.com/acme/app/payments.(*Service).Charge": "github.com/acme/app/payments",
		"github.com/acme/app.v2/pkg.Run":                 "github.com/acme/app.v2/pkg",
		"github.com/acme/app/pkg.Map[...]":               "github.com/acme/app/pkg",
	}
	for in, want := range tests {
		if got := packagePath(in); got != want {
			t.Errorf("packagePath(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestFrameAtZero verifies a zero program counter is rejected.
func TestFrameAtZero(t *testing.T) {
	t.Parallel()

	if _, ok := frameAt(0); ok {
		t.Fatalf("frameAt(0) reported a frame")
	}
}

// TestGoroutineName verifies the goroutine header is parsed.
func TestGoroutineName(t *testing.T) {
	t.Parallel()

	name := goroutineName()
	if !strings.HasPrefix(name, "goroutine ") {
		t.Fatalf("goroutineName() = %q", name)
	}
	if strings.ContainsAny(name, "[]") {
		t.Fatalf("goroutineName() kept state: %q", name)
	}

	other := make(chan string)
	go func() { other <- goroutineName() }()
	if got := <-other; got == name {
		t.Fatalf("distinct goroutines share name %q", got)
	}
}

// TestFramesFromPCsCapsLength verifies conversion honours the frame limit.
func TestFramesFromPCsCapsLength(t *testing.T) {
	t.Parallel()

	if frames := framesFromPCs(nil); frames != nil {
		t.Fatalf("framesFromPCs(nil) = %v, want nil", frames)
	}

	frames := framesFromPCs(newTracedError("x").StackTrace())
	if len(frames) == 0 || len(frames) > maxStackFrames {
		t.Fatalf("len(frames) = %d", len(frames))
	}
	for _, f := range frames {
		if f.ClassName == "runtime" && f.MethodName == "goexit" {
			t.Fatalf("runtime.goexit frame not dropped")
		}
	}
}
