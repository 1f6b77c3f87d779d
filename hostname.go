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

import "os"

// UnknownHost is reported as the machine name when the hostname cannot be
// determined.
const UnknownHost = "UnknownHost"

var hostnameFunc = os.Hostname

// MachineName returns the local hostname, or [UnknownHost] if it cannot be
// resolved. It never fails.
func MachineName() string {
	name, err := hostnameFunc()
	if err != nil || name == "" {
		return UnknownHost
	}
	return name
}
