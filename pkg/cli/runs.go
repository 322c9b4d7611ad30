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
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/prisma-rig/prisma-control/pkg/capture"
	"github.com/prisma-rig/prisma-control/pkg/config"
	"github.com/prisma-rig/prisma-control/pkg/defaults"
	"github.com/prisma-rig/prisma-control/pkg/oci"
)

func runsCmd() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List, download and publish recorded runs",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Print the metadata of every completed run",
				Flags:  []cli.Flag{formatFlag(), outputFlag()},
				Action: runsList,
			},
			{
				Name:      "download",
				Usage:     "Download runs as a tar of per-run .tar.bz2 archives",
				ArgsUsage: "<run-id> [run-id...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Archive path (default: download_<timestamp>.tar)",
					},
				},
				Action: runsDownload,
			},
			{
				Name:  "push",
				Usage: "Publish a completed run to an OCI registry",
				Description: `Packs the run directory as an OCI artifact and pushes it. Run this on
the rig host; it reads the measurement directory directly.

  prisma runs push 20240501T101500Z --target oci://registry.lab:5000/prisma/runs`,
				ArgsUsage: "<run-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "target",
						Usage:    "Registry target (format: oci://registry/repository[:tag], tag defaults to the run id)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "measurement-dir",
						Usage:   "Directory runs are stored in",
						Sources: cli.EnvVars(config.EnvMeasurementDir),
						Value:   defaults.MeasurementDir,
					},
					&cli.StringSliceFlag{
						Name:  "annotation",
						Usage: "Manifest annotation (format: key=value, can be repeated)",
					},
					&cli.BoolFlag{
						Name:  "plain-http",
						Usage: "Use HTTP instead of HTTPS for the registry",
					},
					&cli.BoolFlag{
						Name:  "insecure-tls",
						Usage: "Skip TLS certificate verification",
					},
				},
				Action: runsPush,
			},
		},
	}
}

func runsList(ctx context.Context, cmd *cli.Command) error {
	if _, err := parseOutputFormat(cmd); err != nil {
		return err
	}
	runs, err := newClient(cmd).ListRuns(ctx)
	if err != nil {
		return err
	}
	slog.Debug("runs listed", "count", len(runs))
	return writeResult(ctx, cmd, runs)
}

func runsDownload(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("at least one run id is required")
	}
	for _, id := range ids {
		if err := capture.ValidateID(id); err != nil {
			return err
		}
	}

	path := cmd.String("output")
	if path == "" {
		path = fmt.Sprintf("download_%s.tar", time.Now().UTC().Format(defaults.RunIDLayout))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	entries, err := newClient(cmd).Download(ctx, ids, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}

	if len(entries) < len(ids) {
		slog.Warn("some runs were not included, they are unknown or still in progress",
			"requested", len(ids), "included", len(entries))
	}
	_, err = fmt.Fprintf(stdout(cmd), "%s: %s\n", path, strings.Join(entries, ", "))
	return err
}

func runsPush(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("expected exactly one run id")
	}
	id := cmd.Args().First()

	ref, err := oci.ParseReference(cmd.String("target"))
	if err != nil {
		return err
	}
	if ref.Tag == "" {
		ref = ref.WithTag(id)
	}
	annotations, err := parseAnnotations(cmd.StringSlice("annotation"))
	if err != nil {
		return fmt.Errorf("invalid --annotation: %w", err)
	}

	registry := capture.NewRegistry(cmd.String("measurement-dir"))
	slog.Debug("pushing run", "run", id, "target", ref.String())
	res, err := oci.PushRun(ctx, registry, id, oci.PushOptions{
		Registry:    ref.Registry,
		Repository:  ref.Repository,
		Tag:         ref.Tag,
		PlainHTTP:   cmd.Bool("plain-http"),
		InsecureTLS: cmd.Bool("insecure-tls"),
		Annotations: annotations,
	})
	if err != nil {
		return err
	}

	slog.Info("run pushed", "run", id, "reference", res.Reference, "digest", res.Digest)
	_, err = fmt.Fprintf(stdout(cmd), "%s@%s\n", res.Reference, res.Digest)
	return err
}
