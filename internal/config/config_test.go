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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pjscruggs/slograygun/raygunhttp"
)

// chdir switches into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd returned %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir returned %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"RAYGUN_API_KEY", "RAYGUN_TAGS", "RAYGUN_APPLICATION_ID", "RAYGUN_APP_VERSION", "RAYGUN_LEVEL",
		"RAYGUN_LOGGER_NAME", "RAYGUN_MACHINE_NAME", "RAYGUN_ENDPOINT", "RAYGUN_TIMEOUT",
		"RAYGUN_COMPRESS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// TestLoadDefaults verifies defaults apply without any file or environment.
func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned %v", err)
	}
	want := &Config{
		Level:      "error",
		LoggerName: "raygunsend",
		Endpoint:   raygunhttp.DefaultEndpoint,
		Timeout:    raygunhttp.DefaultTimeout,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

// TestLoadFileAndEnvironment verifies file values, .env values and environment precedence.
func TestLoadFileAndEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	yaml := []byte("api_key: filekey\ntags: a,b\nlevel: warn\ntimeout: 3s\ncompress: true\n")
	if err := os.WriteFile(filepath.Join(dir, "raygun.yaml"), yaml, 0o600); err != nil {
		t.Fatalf("WriteFile returned %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("RAYGUN_APPLICATION_ID=dotenv\nRAYGUN_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatalf("WriteFile returned %v", err)
	}
	t.Setenv("RAYGUN_LEVEL", "info")
	t.Cleanup(func() { os.Unsetenv("RAYGUN_APPLICATION_ID") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned %v", err)
	}
	want := &Config{
		APIKey:        "filekey",
		Tags:          "a,b",
		ApplicationID: "dotenv",
		Level:         "info",
		LoggerName:    "raygunsend",
		Endpoint:      raygunhttp.DefaultEndpoint,
		Timeout:       3 * time.Second,
		Compress:      true,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

// TestLoadExplicitFile verifies --config paths and decode errors.
func TestLoadExplicitFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "custom.json")
	if err := os.WriteFile(path, []byte(`{"api_key":"json","endpoint":"http://localhost:9/entries"}`), 0o600); err != nil {
		t.Fatalf("WriteFile returned %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned %v", err)
	}
	if cfg.APIKey != "json" || cfg.Endpoint != "http://localhost:9/entries" {
		t.Fatalf("cfg = %+v", cfg)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("Load of a missing explicit file succeeded")
	}
}

// TestHandlerOptions verifies the level is validated and options are produced.
func TestHandlerOptions(t *testing.T) {
	t.Parallel()

	cfg := &Config{APIKey: "KEY", Level: "warn", MachineName: "m"}
	opts, err := cfg.HandlerOptions()
	if err != nil {
		t.Fatalf("HandlerOptions returned %v", err)
	}
	if len(opts) != 7 {
		t.Fatalf("len(opts) = %d, want 7", len(opts))
	}
	if len(cfg.HTTPOptions()) == 0 {
		t.Fatalf("HTTPOptions returned nothing")
	}

	cfg.Level = "chatty"
	if _, err := cfg.HandlerOptions(); err == nil {
		t.Fatalf("HandlerOptions accepted level %q", cfg.Level)
	}
}
