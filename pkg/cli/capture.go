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
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/prisma-rig/prisma-control/pkg/capture"
	"github.com/prisma-rig/prisma-control/pkg/client"
)

// waitPollInterval is how often --wait checks for the finished run.
const waitPollInterval = 500 * time.Millisecond

func captureCmd() *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Record runs",
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start a timed capture with the current device configuration",
				Description: `Schedules a capture and prints the run id as soon as the rig has
accepted it. Extra metadata is given as repeated --field key=value pairs;
numbers and booleans are stored typed.

  prisma capture start --duration 30 --title "warm-up" --field rpm=1500 --field operator=kim`,
				Flags: []cli.Flag{
					&cli.FloatFlag{
						Name:     "duration",
						Aliases:  []string{"d"},
						Usage:    "Capture window in seconds",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Run title",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:    "field",
						Aliases: []string{"f"},
						Usage:   "Extra metadata field (format: key=value, can be repeated)",
					},
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "Block until the run has completed",
					},
				},
				Action: captureStart,
			},
		},
	}
}

func captureStart(ctx context.Context, cmd *cli.Command) error {
	req, err := captureRequest(cmd.Float("duration"), cmd.String("title"), cmd.StringSlice("field"))
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	c := newClient(cmd)
	id, err := c.StartCapture(ctx, req)
	if err != nil {
		return err
	}
	slog.Info("capture started", "run", id, "duration", req.Duration)

	if cmd.Bool("wait") {
		if err := waitForRun(ctx, c, id, req.Window()+cmd.Root().Duration("timeout")); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(stdout(cmd), id)
	return err
}

// captureRequest builds the request body. Fields that would shadow a
// metadata key are dropped since the server ignores them anyway.
func captureRequest(duration float64, title string, fields []string) (capture.Request, error) {
	keys, values, err := parseKeyValues(fields)
	if err != nil {
		return capture.Request{}, fmt.Errorf("invalid --field: %w", err)
	}

	req := capture.Request{Duration: duration, Title: title}
	for _, k := range keys {
		if capture.IsReserved(k) || k == capture.KeyDuration {
			slog.Warn("ignoring field that shadows a metadata key", "field", k)
			continue
		}
		req.Extra.Set(k, values[k])
	}
	return req, nil
}

// waitForRun polls the run list until id shows up or limit passes.
func waitForRun(ctx context.Context, c *client.Client, id string, limit time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		runs, err := c.ListRuns(ctx)
		if err != nil {
			return err
		}
		for _, r := range runs {
			if r.String(capture.KeyTimestamp) == id {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("run %s did not complete within %s: %w", id, limit, ctx.Err())
		case <-ticker.C:
		}
	}
}
