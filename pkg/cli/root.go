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

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/prisma-rig/prisma-control/pkg/client"
	"github.com/prisma-rig/prisma-control/pkg/defaults"
	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
	"github.com/prisma-rig/prisma-control/pkg/logging"
	rigversion "github.com/prisma-rig/prisma-control/pkg/version"
)

const (
	name           = "prisma"
	versionDefault = rigversion.Development
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Execute runs the prisma CLI. It is called by main.main().
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps err onto the process status: 2 for rejected input, 3 when
// the server is unreachable or busy, 1 otherwise.
func exitCode(err error) int {
	switch rigerrors.CodeOf(err) {
	case rigerrors.ErrCodeInvalidRequest, rigerrors.ErrCodeNotFound, rigerrors.ErrCodeConflict:
		return 2
	case rigerrors.ErrCodeUnavailable, rigerrors.ErrCodeTimeout, rigerrors.ErrCodeRateLimitExceeded:
		return 3
	default:
		return 1
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Version:               fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		EnableShellCompletion: true,
		Usage:                 "Control the PRISMA test rig",
		Description: `Configure the motor relays and brake of the PRISMA rig, start timed
captures and retrieve the recorded runs.

Every command except serve talks to a running prismad over HTTP.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Base URL of the prismad API",
				Sources: cli.EnvVars("PRISMA_SERVER"),
				Value:   client.DefaultURL,
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout for API requests",
				Sources: cli.EnvVars("PRISMA_TIMEOUT"),
				Value:   defaults.HTTPClientTimeout,
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Retries for read requests; writes are never retried",
				Value: defaults.HTTPClientRetries,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars(logging.EnvLogLevel),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date)
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCmd(),
			deviceCmd(),
			captureCmd(),
			runsCmd(),
			versionCmd(),
		},
	}
}

// newClient builds an API client from the global flags.
func newClient(cmd *cli.Command) *client.Client {
	root := cmd.Root()
	timeout := root.Duration("timeout")
	if timeout <= 0 {
		timeout = defaults.HTTPClientTimeout
	}
	return client.New(root.String("server"),
		client.WithTimeout(timeout),
		client.WithRetries(root.Int("retries")),
		client.WithUserAgent(fmt.Sprintf("%s/%s", name, version)),
	)
}

// stdout returns the writer command output goes to.
func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
