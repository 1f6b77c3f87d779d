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
	"testing"
	"time"

	"github.com/shirou/gopsutil/mem"
)

// TestDetectEnvironment verifies platform details and memory conversion to megabytes.
func TestDetectEnvironment(t *testing.T) {
	original := virtualMemory
	t.Cleanup(func() { virtualMemory = original })
	virtualMemory = func() (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 8 << 30, Available: 3 << 30}, nil
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	env := detectEnvironment(now)

	want := Environment{
		ProcessorCount:          runtime.NumCPU(),
		OSVersion:               runtime.GOOS,
		Architecture:            runtime.GOARCH,
		TotalPhysicalMemory:     8192,
		AvailablePhysicalMemory: 3072,
		UTCOffset:               5.5,
	}
	if env != want {
		t.Fatalf("detectEnvironment = %+v, want %+v", env, want)
	}
}

// TestDetectEnvironmentWithoutMemory verifies memory is omitted when unavailable.
func TestDetectEnvironmentWithoutMemory(t *testing.T) {
	original := virtualMemory
	t.Cleanup(func() { virtualMemory = original })
	virtualMemory = func() (*mem.VirtualMemoryStat, error) {
		return nil, errors.New("not implemented")
	}

	env := detectEnvironment(time.Now().UTC())
	if env.TotalPhysicalMemory != 0 || env.AvailablePhysicalMemory != 0 {
		t.Fatalf("memory = %d/%d, want 0/0", env.TotalPhysicalMemory, env.AvailablePhysicalMemory)
	}
	if env.UTCOffset != 0 {
		t.Fatalf("UTCOffset = %v, want 0", env.UTCOffset)
	}
}

// TestDetectEnvironmentSamplesAvailableMemory verifies available memory is read on every call.
func TestDetectEnvironmentSamplesAvailableMemory(t *testing.T) {
	original := virtualMemory
	t.Cleanup(func() { virtualMemory = original })

	var available uint64 = 1 << 30
	virtualMemory = func() (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 8 << 30, Available: available}, nil
	}

	first := DetectEnvironment()
	available = 2 << 30
	second := DetectEnvironment()

	if first.AvailablePhysicalMemory != 1024 {
		t.Fatalf("first AvailablePhysicalMemory = %d, want 1024", first.AvailablePhysicalMemory)
	}
	if second.AvailablePhysicalMemory != 2048 {
		t.Fatalf("second AvailablePhysicalMemory = %d, want 2048", second.AvailablePhysicalMemory)
	}
	if first.ProcessorCount != second.ProcessorCount || first.TotalPhysicalMemory != second.TotalPhysicalMemory {
		t.Fatalf("static fields changed: %+v then %+v", first, second)
	}
}
