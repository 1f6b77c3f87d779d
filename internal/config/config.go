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

// Package config loads raygunsend settings from a config file, a .env file
// and RAYGUN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pjscruggs/slograygun"
	"github.com/pjscruggs/slograygun/raygunhttp"
)

// EnvPrefix prefixes environment overrides, e.g. RAYGUN_API_KEY.
const EnvPrefix = "RAYGUN"

// Config holds the settings raygunsend builds its handler from.
type Config struct {
	APIKey        string        `mapstructure:"api_key"`
	Tags          string        `mapstructure:"tags"`
	ApplicationID string        `mapstructure:"application_id"`
	AppVersion    string        `mapstructure:"app_version"`
	Level         string        `mapstructure:"level"`
	LoggerName    string        `mapstructure:"logger_name"`
	MachineName   string        `mapstructure:"machine_name"`
	Endpoint      string        `mapstructure:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Compress      bool          `mapstructure:"compress"`
}

// Load reads configPath when non-empty, otherwise an optional raygun.yaml in
// the working directory. A .env file in the working directory is loaded
// first; variables already set in the environment win over it.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("raygun")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_key", "")
	v.SetDefault("tags", "")
	v.SetDefault("application_id", "")
	v.SetDefault("app_version", "")
	v.SetDefault("level", "error")
	v.SetDefault("logger_name", "raygunsend")
	v.SetDefault("machine_name", "")
	v.SetDefault("endpoint", raygunhttp.DefaultEndpoint)
	v.SetDefault("timeout", raygunhttp.DefaultTimeout)
	v.SetDefault("compress", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// HTTPOptions converts the delivery settings of c into raygunhttp options.
func (c *Config) HTTPOptions() []raygunhttp.Option {
	return []raygunhttp.Option{
		raygunhttp.WithEndpoint(c.Endpoint),
		raygunhttp.WithTimeout(c.Timeout),
		raygunhttp.WithCompression(c.Compress),
	}
}

// HandlerOptions converts c into slograygun options. The caller supplies the
// poster with [slograygun.WithPoster].
func (c *Config) HandlerOptions() ([]slograygun.Option, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("parse level %q: %w", c.Level, err)
	}

	opts := []slograygun.Option{
		slograygun.WithAPIKey(c.APIKey),
		slograygun.WithTags(c.Tags),
		slograygun.WithApplicationID(c.ApplicationID),
		slograygun.WithAppVersion(c.AppVersion),
		slograygun.WithLevel(level),
		slograygun.WithLoggerName(c.LoggerName),
	}
	if c.MachineName != "" {
		opts = append(opts, slograygun.WithMachineName(c.MachineName))
	}
	return opts, nil
}
