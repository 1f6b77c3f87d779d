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

package zapraygun_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pjscruggs/slograygun"
	"github.com/pjscruggs/slograygun/zapraygun"
)

type capturePoster struct {
	mu   sync.Mutex
	msgs []*slograygun.Message
}

func (p *capturePoster) Post(_ context.Context, _ string, msg *slograygun.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *capturePoster) messages() []*slograygun.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*slograygun.Message(nil), p.msgs...)
}

func newLogger(t *testing.T, opts ...zap.Option) (*zap.Logger, *capturePoster) {
	t.Helper()
	poster := &capturePoster{}
	fwd, err := slograygun.NewForwarder(
		slograygun.WithAPIKey("KEY"),
		slograygun.WithApplicationID(""),
		slograygun.WithPoster(poster),
	)
	if err != nil {
		t.Fatalf("NewForwarder returned %v", err)
	}
	return zap.New(zapraygun.NewCore(fwd, nil), opts...), poster
}

// TestCoreForwardsErrorChain verifies zap.Error fields become the reported chain.
func TestCoreForwardsErrorChain(t *testing.T) {
	t.Parallel()

	logger, poster := newLogger(t)
	logger = logger.Named("billing").With(zap.String("tenant", "acme"))

	logger.Error("invoice failed", zap.Error(fmt.Errorf("render: %w", errors.New("template missing"))), zap.Int("invoice", 7))

	msgs := poster.messages()
	if len(msgs) != 1 {
		t.Fatalf("posted %d messages, want 1", len(msgs))
	}
	report := msgs[0].Details.Error
	if report.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", report.Depth())
	}
	want := "invoice failed; *fmt.wrapError: render: template missing; caused by: *errors.errorString: template missing"
	if report.Message != want {
		t.Fatalf("Message = %q, want %q", report.Message, want)
	}

	data := msgs[0].Details.UserCustomData
	if data["logger"] != "billing" {
		t.Fatalf("logger = %q, want billing", data["logger"])
	}
	if data["mdc:tenant"] != "acme" || data["mdc:invoice"] != "7" {
		t.Fatalf("custom data = %v", data)
	}
}

// TestCoreUnnamedLogger verifies entries from an unnamed logger report the zap default name.
func TestCoreUnnamedLogger(t *testing.T) {
	t.Parallel()

	logger, poster := newLogger(t)
	logger.Error("unnamed")

	msgs := poster.messages()
	if len(msgs) != 1 {
		t.Fatalf("posted %d messages, want 1", len(msgs))
	}
	if got := msgs[0].Details.UserCustomData["logger"]; got != zapraygun.DefaultLoggerName {
		t.Fatalf("logger = %q, want %q", got, zapraygun.DefaultLoggerName)
	}
}

// TestCoreUsesCaller verifies the zap caller becomes the call-site frame.
func TestCoreUsesCaller(t *testing.T) {
	t.Parallel()

	logger, poster := newLogger(t, zap.AddCaller())
	logger.Error("no error attached")

	msgs := poster.messages()
	if len(msgs) != 1 {
		t.Fatalf("posted %d messages, want 1", len(msgs))
	}
	line := msgs[0].Details.Error.StackTrace[0]
	if line.MethodName != "TestCoreUsesCaller" {
		t.Fatalf("MethodName = %q", line.MethodName)
	}
}

// TestCoreLevelFiltering verifies entries below the enabler are not forwarded.
func TestCoreLevelFiltering(t *testing.T) {
	t.Parallel()

	logger, poster := newLogger(t)
	logger.Warn("ignored")
	logger.Info("ignored")

	if n := len(poster.messages()); n != 0 {
		t.Fatalf("posted %d messages, want 0", n)
	}
}

// TestCoreAccumulatedErrorFallback verifies an error added with With is used when the entry has none.
func TestCoreAccumulatedErrorFallback(t *testing.T) {
	t.Parallel()

	logger, poster := newLogger(t)
	logger.With(zap.Error(errors.New("from with"))).Error("m")

	msgs := poster.messages()
	if len(msgs) != 1 {
		t.Fatalf("posted %d messages, want 1", len(msgs))
	}
	if got := msgs[0].Details.Error.Message; got != "m; *errors.errorString: from with" {
		t.Fatalf("Message = %q", got)
	}
}

// TestCoreTee verifies the core composes with other cores.
func TestCoreTee(t *testing.T) {
	t.Parallel()

	poster := &capturePoster{}
	fwd, err := slograygun.NewForwarder(slograygun.WithAPIKey("KEY"), slograygun.WithPoster(poster))
	if err != nil {
		t.Fatalf("NewForwarder returned %v", err)
	}
	core := zapcore.NewTee(zapcore.NewNopCore(), zapraygun.NewCore(fwd, zapcore.WarnLevel))
	zap.New(core).Warn("disk nearly full")

	if n := len(poster.messages()); n != 1 {
		t.Fatalf("posted %d messages, want 1", n)
	}
	if err := core.Sync(); err != nil {
		t.Fatalf("Sync returned %v", err)
	}
}
