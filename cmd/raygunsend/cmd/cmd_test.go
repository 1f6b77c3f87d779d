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

package cmd

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/pjscruggs/slograygun/raygunmock"
)

// run executes the root command with args and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd returned %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir returned %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfgFile, verbose = "", false
	keysHost = ""
	sendMessage, sendError, sendTags = "raygunsend test report", "", nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), err
}

// TestKeysCommand verifies key resolution output for named and universal settings.
func TestKeysCommand(t *testing.T) {
	t.Setenv("RAYGUN_API_KEY", "build01:AAAABBBB prod:CCCCDDDD")

	out, err := run(t, "keys", "--host", "prod")
	if err != nil {
		t.Fatalf("keys returned %v", err)
	}
	if want := "mode: named (2 hosts)\nprod: ****DDDD\n"; out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}

	out, err = run(t, "keys", "--host", "laptop")
	if err != nil {
		t.Fatalf("keys returned %v", err)
	}
	if !strings.Contains(out, "laptop: no key") {
		t.Fatalf("output = %q", out)
	}

	t.Setenv("RAYGUN_API_KEY", "ABC")
	out, err = run(t, "keys", "--host", "anything")
	if err != nil {
		t.Fatalf("keys returned %v", err)
	}
	if want := "mode: universal\nanything: ABC\n"; out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

// TestKeysCommandRejectsMalformedConfig verifies parse errors fail the command.
func TestKeysCommandRejectsMalformedConfig(t *testing.T) {
	t.Setenv("RAYGUN_API_KEY", "build01:AAAA prod")

	if _, err := run(t, "keys"); err == nil {
		t.Fatalf("keys accepted a malformed key configuration")
	}
}

// TestSendCommand verifies a report reaches the endpoint with the configured tags.
func TestSendCommand(t *testing.T) {
	srv := raygunmock.NewServer(raygunmock.WithAPIKeys("KEY"))
	t.Cleanup(srv.Close)

	t.Setenv("RAYGUN_API_KEY", "sender:KEY")
	t.Setenv("RAYGUN_MACHINE_NAME", "sender")
	t.Setenv("RAYGUN_ENDPOINT", srv.URL())
	t.Setenv("RAYGUN_TAGS", "cli")

	out, err := run(t, "send", "--message", "smoke test", "--error", "boom", "--tag", "manual")
	if err != nil {
		t.Fatalf("send returned %v", err)
	}
	if !strings.Contains(out, "report accepted") {
		t.Fatalf("output = %q", out)
	}

	entries := srv.Entries()
	if len(entries) != 1 {
		t.Fatalf("server received %d entries, want 1", len(entries))
	}
	details := entries[0].Message.Details
	if got := details.Error.Message; got != "smoke test; *errors.errorString: boom" {
		t.Fatalf("Message = %q", got)
	}
	if strings.Join(details.Tags, ",") != "cli,manual" {
		t.Fatalf("Tags = %v", details.Tags)
	}
}

// TestSendCommandNoKeyForHost verifies nothing is sent when the host has no key.
func TestSendCommandNoKeyForHost(t *testing.T) {
	srv := raygunmock.NewServer()
	t.Cleanup(srv.Close)

	t.Setenv("RAYGUN_API_KEY", "other:KEY another:KEY2")
	t.Setenv("RAYGUN_MACHINE_NAME", "sender")
	t.Setenv("RAYGUN_ENDPOINT", srv.URL())

	out, err := run(t, "send")
	if err != nil {
		t.Fatalf("send returned %v", err)
	}
	if !strings.Contains(out, "nothing sent") {
		t.Fatalf("output = %q", out)
	}
	if n := len(srv.Entries()); n != 0 {
		t.Fatalf("server received %d entries, want 0", n)
	}
}

// TestMaskKey verifies only the trailing characters remain visible.
func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":          "",
		"abcd":      "abcd",
		"abcdefgh":  "****efgh",
		"123456789": "*****6789",
	}
	for in, want := range tests {
		if got := maskKey(in); got != want {
			t.Errorf("maskKey(%q) = %q, want %q", in, got, want)
		}
	}
}
