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
	"sync"
	"time"

	"github.com/shirou/gopsutil/mem"
)

var (
	staticOnce        sync.Once
	staticEnvironment Environment

	virtualMemory = mem.VirtualMemory
)

// DetectEnvironment describes the current machine. Processor, platform and
// total memory are read once per process. The UTC offset and available
// memory are sampled on every call.
func DetectEnvironment() Environment {
	staticOnce.Do(func() {
		staticEnvironment = detectStatic()
	})
	env := staticEnvironment
	sampleEnvironment(&env, time.Now())
	return env
}

// detectEnvironment gathers processor, platform and memory details without
// the process cache. Memory figures are omitted when the platform does not
// expose them.
func detectEnvironment(now time.Time) Environment {
	env := detectStatic()
	sampleEnvironment(&env, now)
	return env
}

func detectStatic() Environment {
	env := Environment{
		ProcessorCount: runtime.NumCPU(),
		OSVersion:      runtime.GOOS,
		Architecture:   runtime.GOARCH,
	}
	if vm, err := virtualMemory(); err == nil && vm != nil {
		env.TotalPhysicalMemory = vm.Total >> 20
	}
	return env
}

// sampleEnvironment fills the fields of env that change while the process runs.
func sampleEnvironment(env *Environment, now time.Time) {
	_, offset := now.Zone()
	env.UTCOffset = float64(offset) / float64(time.Hour/time.Second)

	env.AvailablePhysicalMemory = 0
	if vm, err := virtualMemory(); err == nil && vm != nil {
		env.AvailablePhysicalMemory = vm.Available >> 20
	}
}
