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
	"log/slog"

	"github.com/urfave/cli/v3"

	rigversion "github.com/prisma-rig/prisma-control/pkg/version"
)

// BuildInfo describes one binary.
type BuildInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

// VersionReport is printed by the version command.
type VersionReport struct {
	Client     BuildInfo        `json:"client" yaml:"client"`
	Server     *rigversion.Info `json:"server,omitempty" yaml:"server,omitempty"`
	Compatible *bool            `json:"compatible,omitempty" yaml:"compatible,omitempty"`
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print client and server versions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "client-only",
				Usage: "Do not contact the server",
			},
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			report := VersionReport{
				Client: BuildInfo{Version: version, Commit: commit, Date: date},
			}
			if !cmd.Bool("client-only") {
				info, err := newClient(cmd).Version(ctx)
				if err != nil {
					return err
				}
				ok := rigversion.Compatible(version, info.AppVersion)
				if !ok {
					slog.Warn("client and server major versions differ",
						"client", version, "server", info.AppVersion)
				}
				report.Server = &info
				report.Compatible = &ok
			}
			return writeResult(ctx, cmd, report)
		},
	}
}
