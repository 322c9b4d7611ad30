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

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prisma-rig/prisma-control/pkg/archive"
	"github.com/prisma-rig/prisma-control/pkg/capture"
	"github.com/prisma-rig/prisma-control/pkg/config"
	"github.com/prisma-rig/prisma-control/pkg/defaults"
	"github.com/prisma-rig/prisma-control/pkg/device"
	"github.com/prisma-rig/prisma-control/pkg/notify"
	"github.com/prisma-rig/prisma-control/pkg/serializer"
	"github.com/prisma-rig/prisma-control/pkg/server"
)

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	sinks    []notify.Sink
	executor []capture.ExecutorOption
}

// WithSinks adds event sinks after the log sink.
func WithSinks(sinks ...notify.Sink) AppOption {
	return func(o *appOptions) {
		o.sinks = append(o.sinks, sinks...)
	}
}

// WithExecutorOptions passes options to the capture executor.
func WithExecutorOptions(opts ...capture.ExecutorOption) AppOption {
	return func(o *appOptions) {
		o.executor = append(o.executor, opts...)
	}
}

// App owns the device store, capture pipeline and HTTP handlers of one
// prismad instance.
type App struct {
	cfg      *config.Config
	store    *device.Store
	executor *capture.Executor
	registry *capture.Registry
	sink     notify.Multi

	devices  *device.Handler
	captures *capture.Handler
	archives *archive.Handler
}

// NewApp wires the components for cfg.
func NewApp(cfg *config.Config, opts ...AppOption) *App {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}

	sink := append(notify.Multi{notify.NewLogSink(nil)}, o.sinks...)
	execOpts := append([]capture.ExecutorOption{capture.WithSink(sink)}, o.executor...)

	a := &App{
		cfg:      cfg,
		store:    device.NewStore(),
		executor: capture.NewExecutor(execOpts...),
		registry: capture.NewRegistry(cfg.MeasurementDir),
		sink:     sink,
	}
	a.devices = device.NewHandler(a.store)
	a.captures = capture.NewHandler(capture.NewScheduler(cfg.MeasurementDir, a.store, a.executor), a.registry)
	a.archives = archive.NewHandler(archive.NewBundler(a.registry))
	return a
}

// Routes returns the API routes.
func (a *App) Routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"/set_motor_relais":     a.devices.HandleSetRelays,
		"/set_motor_mode":       a.devices.HandleSetMode,
		"/set_break_pwm":        a.devices.HandleSetPWM,
		"/set_break_amperage":   a.devices.HandleSetAmperage,
		"/set_break_percentage": a.devices.HandleSetPercentage,
		"/v1/device":            a.devices.HandleGetDevice,
		"/start_measurement":    a.captures.HandleStart,
		"/get_measurements":     a.captures.HandleList,
		"/dl_measurements":      a.archives.HandleDownload,
		"/version":              a.HandleVersion,
	}
}

// Readiness reports capture state for GET /ready.
func (a *App) Readiness() map[string]any {
	return map[string]any{
		"capturesInFlight": a.executor.InFlight(),
		"measurementDir":   a.cfg.MeasurementDir,
		"sinks":            len(a.sink),
	}
}

// HandleVersion handles GET /version.
func (a *App) HandleVersion(w http.ResponseWriter, r *http.Request) {
	if !server.RequireMethod(w, r, http.MethodGet) {
		return
	}
	serializer.RespondJSON(w, http.StatusOK, BuildInfo(a.cfg.Maintainer))
}

// Close waits up to timeout for running captures, then closes the sinks.
func (a *App) Close(timeout time.Duration) error {
	if n := a.executor.InFlight(); n > 0 {
		slog.Info("waiting for captures in flight", "count", n, "timeout", timeout.String())
	}
	if !waitTimeout(a.executor.Wait, timeout) {
		_ = a.sink.Close()
		return fmt.Errorf("%d capture(s) still running after %s", a.executor.InFlight(), timeout)
	}
	return a.sink.Close()
}

// BuildSinks creates the optional MQTT and InfluxDB sinks enabled in cfg.
// A sink that cannot be created is logged and left out so the rig keeps
// capturing.
func BuildSinks(cfg *config.Config) []notify.Sink {
	var sinks []notify.Sink
	if cfg.MQTTEnabled() {
		s, err := notify.NewMQTTSink(cfg.MQTT)
		if err != nil {
			slog.Warn("mqtt sink disabled", "broker", cfg.MQTT.Broker, "error", err)
		} else {
			sinks = append(sinks, s)
		}
	}
	if cfg.InfluxEnabled() {
		s, err := notify.NewInfluxSink(cfg.Influx)
		if err != nil {
			slog.Warn("influx sink disabled", "url", cfg.Influx.URL, "error", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), defaults.InfluxWriteTimeout)
			if herr := s.Health(ctx); herr != nil {
				// Stays registered; writes fail individually until InfluxDB is up.
				slog.Warn("influx health check failed", "url", cfg.Influx.URL, "error", herr)
			}
			cancel()
			sinks = append(sinks, s)
		}
	}
	return sinks
}
