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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pjscruggs/slograygun"
	"github.com/pjscruggs/slograygun/raygunhttp"
)

var (
	sendMessage string
	sendError   string
	sendTags    []string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one report",
	Long: `Sends one error-level record through the slograygun handler.

With --error the report carries an error chain; otherwise it is reported
against the call-site of the send command.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendMessage, "message", "m", "raygunsend test report", "report message")
	sendCmd.Flags().StringVarP(&sendError, "error", "e", "", "error text to attach")
	sendCmd.Flags().StringSliceVarP(&sendTags, "tag", "t", nil, "additional tag (repeatable)")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("configuration", err)
		return err
	}
	if len(sendTags) > 0 {
		tags := sendTags
		if cfg.Tags != "" {
			tags = append([]string{cfg.Tags}, sendTags...)
		}
		cfg.Tags = strings.Join(tags, ",")
	}

	opts, err := cfg.HandlerOptions()
	if err != nil {
		printError("configuration", err)
		return err
	}

	client := raygunhttp.New(cfg.HTTPOptions()...)
	defer client.Close()

	var posted bool
	var postErr error
	poster := slograygun.PosterFunc(func(ctx context.Context, apiKey string, msg *slograygun.Message) error {
		posted = true
		postErr = client.Post(ctx, apiKey, msg)
		return postErr
	})
	opts = append(opts,
		slograygun.WithPoster(poster),
		slograygun.WithInternalLogger(diagnosticsLogger(cmd)),
	)

	handler, err := slograygun.NewHandler(opts...)
	if err != nil {
		printError("create handler", err)
		return err
	}
	defer handler.Close()

	logger := slog.New(handler)
	args := []any{}
	if sendError != "" {
		args = append(args, slog.Any("error", errors.New(sendError)))
	}
	logger.ErrorContext(cmd.Context(), sendMessage, args...)

	out := cmd.OutOrStdout()
	switch {
	case !posted:
		fmt.Fprintln(out, "no API key applies to this host; nothing sent")
	case postErr != nil:
		printError("send report", postErr)
		return postErr
	default:
		fmt.Fprintln(out, "report accepted")
	}
	return nil
}
