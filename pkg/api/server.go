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
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/prisma-rig/prisma-control/pkg/config"
	"github.com/prisma-rig/prisma-control/pkg/logging"
	"github.com/prisma-rig/prisma-control/pkg/server"
	rigversion "github.com/prisma-rig/prisma-control/pkg/version"
)

const (
	name           = "prismad"
	versionDefault = rigversion.Development
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/prisma-rig/prisma-control/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Version returns the build version.
func Version() string {
	return version
}

// BuildInfo returns the build metadata with the configured maintainer.
func BuildInfo(maintainer string) rigversion.Info {
	return rigversion.Info{
		AppVersion: version,
		CommitHash: commit,
		BuildDate:  date,
		Maintainer: maintainer,
	}
}

// Serve starts prismad with cfg and blocks until SIGINT/SIGTERM or ctx is
// cancelled. Captures still in flight are given the shutdown timeout to
// finish writing their metadata.
func Serve(ctx context.Context, cfg *config.Config) error {
	logging.SetDefaultStructuredLoggerWithLevel(name, version, cfg.LogLevel)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"measurementDir", cfg.MeasurementDir,
	)

	app := NewApp(cfg, WithSinks(BuildSinks(cfg)...))

	s := server.New(
		server.WithConfig(serverConfig(cfg)),
		server.WithName(name),
		server.WithVersion(version),
		server.WithHandler(app.Routes()),
		server.WithReadinessDetails(app.Readiness),
	)

	runErr := s.Run(ctx)
	if runErr != nil {
		slog.Error("server exited with error", "error", runErr)
	}

	if err := app.Close(cfg.ShutdownTimeout()); err != nil {
		slog.Warn("shutdown incomplete", "error", err)
	}
	return runErr
}

// serverConfig maps the daemon configuration onto the HTTP server.
func serverConfig(cfg *config.Config) *server.Config {
	sc := server.NewConfig()
	sc.Address = cfg.Address
	sc.Port = cfg.Port
	sc.CORSOrigins = cfg.CORSOrigins
	sc.RateLimit = rate.Limit(cfg.RateLimit)
	sc.RateLimitBurst = cfg.RateLimitBurst
	if d := cfg.ShutdownTimeout(); d > 0 {
		sc.ShutdownTimeout = d
	}
	return sc
}

// waitTimeout runs wait and reports whether it returned within d.
func waitTimeout(wait func(), d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}
