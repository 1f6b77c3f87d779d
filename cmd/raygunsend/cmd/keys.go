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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pjscruggs/slograygun"
)

var keysHost string

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Show which API key applies to a host",
	Long: `Parses the configured API key setting and prints the key that would be
used for --host, defaulting to this machine's name.`,
	RunE: runKeys,
}

func init() {
	keysCmd.Flags().StringVar(&keysHost, "host", "", "host name to resolve (default: this machine)")
	rootCmd.AddCommand(keysCmd)
}

func runKeys(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("configuration", err)
		return err
	}

	keys, err := slograygun.ParseKeys(cfg.APIKey)
	if err != nil {
		printError("parse API keys", err)
		return err
	}

	host := keysHost
	if host == "" {
		host = cfg.MachineName
	}
	if host == "" {
		host = slograygun.MachineName()
	}

	out := cmd.OutOrStdout()
	if keys.Universal() {
		fmt.Fprintln(out, "mode: universal")
	} else {
		fmt.Fprintf(out, "mode: named (%d hosts)\n", len(keys.Hosts()))
	}

	key, ok := keys.Lookup(host)
	if !ok {
		fmt.Fprintf(out, "%s: no key\n", host)
		return nil
	}
	fmt.Fprintf(out, "%s: %s\n", host, maskKey(key))
	return nil
}

// maskKey hides all but the last four characters of key.
func maskKey(key string) string {
	const visible = 4
	if len(key) <= visible {
		return key
	}
	masked := make([]byte, len(key))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(key)-visible:], key[len(key)-visible:])
	return string(masked)
}
