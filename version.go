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

import "fmt"

const (
	// ClientName is reported to Raygun as the submitting client.
	ClientName = "slograygun"
	// ClientURL is reported to Raygun as the client's home page.
	ClientURL = "https://github.com/pjscruggs/slograygun"
)

// Version is the current version of the slograygun library.
// Follows semantic versioning (https://semver.org/).
// It can be overridden at build time via -ldflags.
var Version = "v0.1.0"

// UserAgent is the string sent with Raygun API requests, identifying this library.
// Initialized based on the Version variable.
var UserAgent string

func init() {
	UserAgent = fmt.Sprintf("%s/%s", ClientName, Version)
}

// GetVersion returns the current library version string.
func GetVersion() string { return Version }

// clientInfo returns the fixed client identity attached to every report.
func clientInfo() ClientInfo {
	return ClientInfo{
		Name:      ClientName,
		Version:   Version,
		ClientURL: ClientURL,
	}
}
