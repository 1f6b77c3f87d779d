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
	"sort"
	"strings"
)

// anyHost is the reserved map key used in universal mode. It contains a NUL
// byte and therefore never matches a real hostname.
const anyHost = "\x00any-host"

var (
	// ErrInvalidKeyFormat is matched by every [KeyFormatError].
	ErrInvalidKeyFormat = errors.New("slograygun: invalid key format")

	// ErrEmptyKeyConfig indicates that no API key configuration was supplied.
	ErrEmptyKeyConfig = errors.New("slograygun: empty API key configuration")
)

// KeyFormatError reports a named-mode token that lacks the host:key colon.
type KeyFormatError struct {
	Token string
}

// Error implements the error interface.
func (e *KeyFormatError) Error() string {
	return "slograygun: invalid key format: " + e.Token
}

// Is reports whether target is [ErrInvalidKeyFormat].
func (e *KeyFormatError) Is(target error) bool {
	return target == ErrInvalidKeyFormat
}

// Keys resolves the Raygun API key to use for a given host.
//
// Two modes are supported: a single key that applies to every host, or a set
// of host:key pairs. Keys is immutable once built and safe for concurrent use.
type Keys struct {
	keys map[string]string
}

// ParseKeys builds Keys from a configuration string.
//
// A string without spaces is a single universal key. A string containing
// spaces is a list of "host:key" pairs separated by single spaces; the host is
// everything before the first colon and the key everything after it. When a
// host appears more than once the last pair wins.
func ParseKeys(config string) (*Keys, error) {
	if config == "" {
		return nil, ErrEmptyKeyConfig
	}
	if strings.IndexByte(config, ' ') == -1 {
		return &Keys{keys: map[string]string{anyHost: config}}, nil
	}

	named, err := parseNamedKeys(config)
	if err != nil {
		return nil, err
	}
	return &Keys{keys: named}, nil
}

// parseNamedKeys splits encoded on single spaces into host to key pairs.
func parseNamedKeys(encoded string) (map[string]string, error) {
	tokens := strings.Split(encoded, " ")
	out := make(map[string]string, len(tokens))
	for _, token := range tokens {
		host, key, ok := strings.Cut(token, ":")
		if !ok {
			return nil, &KeyFormatError{Token: token}
		}
		out[host] = key
	}
	return out, nil
}

// Lookup returns the key for host. In universal mode host is ignored and the
// single key is always returned.
func (k *Keys) Lookup(host string) (string, bool) {
	if k == nil {
		return "", false
	}
	if key, ok := k.keys[anyHost]; ok {
		return key, true
	}
	key, ok := k.keys[host]
	return key, ok
}

// Universal reports whether a single key applies to every host.
func (k *Keys) Universal() bool {
	if k == nil {
		return false
	}
	_, ok := k.keys[anyHost]
	return ok
}

// Hosts returns the configured host names in sorted order. It is empty in
// universal mode.
func (k *Keys) Hosts() []string {
	if k == nil || k.Universal() {
		return nil
	}
	hosts := make([]string, 0, len(k.keys))
	for host := range k.keys {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}
