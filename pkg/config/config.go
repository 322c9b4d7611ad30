// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

// Package config loads prismad settings.
//
// Sources are applied in order, later ones winning:
//
//  1. built-in defaults
//  2. the YAML or JSON file named by PRISMA_CONFIG
//  3. environment variables, including those from a .env file
//
// A .env file never overrides variables already present in the process
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/prisma-rig/prisma-control/pkg/defaults"
	"github.com/prisma-rig/prisma-control/pkg/notify"
	"github.com/prisma-rig/prisma-control/pkg/serializer"
)

// Environment variables read by Load.
const (
	EnvConfigFile      = "PRISMA_CONFIG"
	EnvPort            = "PORT"
	EnvMeasurementDir  = "PRISMA_MEASUREMENT_DIR"
	EnvMaintainer      = "PRISMA_MAINTAINER"
	EnvCORSOrigins     = "PRISMA_CORS_ORIGINS"
	EnvRateLimit       = "PRISMA_RATE_LIMIT"
	EnvMQTTBroker      = "PRISMA_MQTT_BROKER"
	EnvMQTTTopic       = "PRISMA_MQTT_TOPIC"
	EnvMQTTClientID    = "PRISMA_MQTT_CLIENT_ID"
	EnvMQTTUsername    = "PRISMA_MQTT_USERNAME"
	EnvMQTTPassword    = "PRISMA_MQTT_PASSWORD"
	EnvInfluxURL       = "PRISMA_INFLUX_URL"
	EnvInfluxToken     = "PRISMA_INFLUX_TOKEN"
	EnvInfluxOrg       = "PRISMA_INFLUX_ORG"
	EnvInfluxBucket    = "PRISMA_INFLUX_BUCKET"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT_SECONDS"
	EnvLogLevel        = "LOG_LEVEL"
)

// DefaultMaintainer is reported by /version when none is configured.
const DefaultMaintainer = "unknown"

// Config is the daemon configuration.
type Config struct {
	Address        string   `json:"address" yaml:"address"`
	Port           int      `json:"port" yaml:"port"`
	MeasurementDir string   `json:"measurementDir" yaml:"measurementDir"`
	Maintainer     string   `json:"maintainer" yaml:"maintainer"`
	LogLevel       string   `json:"logLevel" yaml:"logLevel"`
	CORSOrigins    []string `json:"corsOrigins,omitempty" yaml:"corsOrigins,omitempty"`

	// RateLimit is requests per second; RateLimitBurst the bucket size.
	RateLimit      float64 `json:"rateLimit" yaml:"rateLimit"`
	RateLimitBurst int     `json:"rateLimitBurst" yaml:"rateLimitBurst"`

	ShutdownTimeoutSeconds int `json:"shutdownTimeoutSeconds" yaml:"shutdownTimeoutSeconds"`

	// MQTT and Influx sinks are enabled when their Broker or URL is set.
	MQTT   notify.MQTTConfig   `json:"mqtt" yaml:"mqtt"`
	Influx notify.InfluxConfig `json:"influx" yaml:"influx"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:                   defaults.ServerPort,
		MeasurementDir:         defaults.MeasurementDir,
		Maintainer:             DefaultMaintainer,
		LogLevel:               "info",
		RateLimit:              defaults.ServerRateLimit,
		RateLimitBurst:         defaults.ServerRateLimitBurst,
		ShutdownTimeoutSeconds: int(defaults.ServerShutdownTimeout / time.Second),
		MQTT: notify.MQTTConfig{
			ClientID: "prismad",
			Topic:    notify.DefaultTopic,
			QoS:      1,
		},
	}
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	file     string
	envFiles []string
}

// WithFile reads path instead of the file named by PRISMA_CONFIG.
func WithFile(path string) Option {
	return func(l *loader) {
		l.file = path
	}
}

// WithEnvFiles replaces the default .env lookup. No files disables it.
func WithEnvFiles(paths ...string) Option {
	return func(l *loader) {
		l.envFiles = paths
	}
}

// Load builds the configuration from all sources and validates it.
func Load(opts ...Option) (*Config, error) {
	l := &loader{envFiles: []string{".env"}}
	for _, opt := range opts {
		opt(l)
	}

	if err := loadEnvFiles(l.envFiles); err != nil {
		return nil, err
	}

	cfg := Default()

	file := l.file
	if file == "" {
		file = os.Getenv(EnvConfigFile)
	}
	if file != "" {
		fromFile, err := serializer.FromFile[Config](file)
		if err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
		cfg.merge(fromFile)
		slog.Debug("configuration file loaded", "path", file)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles(paths []string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("no env file found, relying on process environment", "path", p)
				continue
			}
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

// merge copies every non-zero field of o onto c.
func (c *Config) merge(o *Config) {
	if o.Address != "" {
		c.Address = o.Address
	}
	if o.Port != 0 {
		c.Port = o.Port
	}
	if o.MeasurementDir != "" {
		c.MeasurementDir = o.MeasurementDir
	}
	if o.Maintainer != "" {
		c.Maintainer = o.Maintainer
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if len(o.CORSOrigins) > 0 {
		c.CORSOrigins = o.CORSOrigins
	}
	if o.RateLimit != 0 {
		c.RateLimit = o.RateLimit
	}
	if o.RateLimitBurst != 0 {
		c.RateLimitBurst = o.RateLimitBurst
	}
	if o.ShutdownTimeoutSeconds != 0 {
		c.ShutdownTimeoutSeconds = o.ShutdownTimeoutSeconds
	}

	if o.MQTT.Broker != "" {
		c.MQTT.Broker = o.MQTT.Broker
	}
	if o.MQTT.ClientID != "" {
		c.MQTT.ClientID = o.MQTT.ClientID
	}
	if o.MQTT.Username != "" {
		c.MQTT.Username = o.MQTT.Username
	}
	if o.MQTT.Password != "" {
		c.MQTT.Password = o.MQTT.Password
	}
	if o.MQTT.Topic != "" {
		c.MQTT.Topic = o.MQTT.Topic
	}
	if o.MQTT.QoS != 0 {
		c.MQTT.QoS = o.MQTT.QoS
	}

	if o.Influx.URL != "" {
		c.Influx.URL = o.Influx.URL
	}
	if o.Influx.Token != "" {
		c.Influx.Token = o.Influx.Token
	}
	if o.Influx.Org != "" {
		c.Influx.Org = o.Influx.Org
	}
	if o.Influx.Bucket != "" {
		c.Influx.Bucket = o.Influx.Bucket
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Port = port
	}
	if v, ok := get(EnvShutdownTimeout); ok {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvShutdownTimeout, v, err)
		}
		c.ShutdownTimeoutSeconds = seconds
	}
	if v, ok := get(EnvRateLimit); ok {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvRateLimit, v, err)
		}
		c.RateLimit = limit
	}
	if v, ok := get(EnvCORSOrigins); ok {
		c.CORSOrigins = splitList(v)
	}

	strs := map[string]*string{
		EnvMeasurementDir: &c.MeasurementDir,
		EnvMaintainer:     &c.Maintainer,
		EnvLogLevel:       &c.LogLevel,
		EnvMQTTBroker:     &c.MQTT.Broker,
		EnvMQTTTopic:      &c.MQTT.Topic,
		EnvMQTTClientID:   &c.MQTT.ClientID,
		EnvMQTTUsername:   &c.MQTT.Username,
		EnvMQTTPassword:   &c.MQTT.Password,
		EnvInfluxURL:      &c.Influx.URL,
		EnvInfluxToken:    &c.Influx.Token,
		EnvInfluxOrg:      &c.Influx.Org,
		EnvInfluxBucket:   &c.Influx.Bucket,
	}
	for key, dst := range strs {
		if v, ok := get(key); ok {
			*dst = v
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks ranges and required combinations.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if strings.TrimSpace(c.MeasurementDir) == "" {
		return fmt.Errorf("measurement directory is required")
	}
	if c.RateLimit <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit and burst must be positive")
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.Influx.URL != "" && (c.Influx.Org == "" || c.Influx.Bucket == "") {
		return fmt.Errorf("influx org and bucket are required when %s is set", EnvInfluxURL)
	}
	return nil
}

// ShutdownTimeout returns ShutdownTimeoutSeconds as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// MQTTEnabled reports whether capture events go to an MQTT broker.
func (c *Config) MQTTEnabled() bool {
	return c.MQTT.Broker != ""
}

// InfluxEnabled reports whether capture events are written to InfluxDB.
func (c *Config) InfluxEnabled() bool {
	return c.Influx.URL != ""
}
