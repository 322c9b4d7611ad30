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

	"github.com/urfave/cli/v3"

	"github.com/prisma-rig/prisma-control/pkg/api"
	"github.com/prisma-rig/prisma-control/pkg/config"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the prismad API in the foreground",
		Description: `Start the rig control API. Configuration is read from .env files, an
optional YAML or JSON file and PRISMA_* environment variables, in that order;
flags given here override all of them.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file (YAML or JSON)",
				Sources: cli.EnvVars(config.EnvConfigFile),
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Environment file to load before reading variables (can be repeated, default: .env)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
			&cli.StringFlag{
				Name:  "measurement-dir",
				Usage: "Directory runs are stored in",
			},
			&cli.StringFlag{
				Name:  "maintainer",
				Usage: "Maintainer reported by /version",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := serveConfig(cmd)
			if err != nil {
				return err
			}
			return api.Serve(ctx, cfg)
		},
	}
}

// serveConfig loads the daemon configuration and applies flag overrides.
func serveConfig(cmd *cli.Command) (*config.Config, error) {
	var opts []config.Option
	if f := cmd.String("config"); f != "" {
		opts = append(opts, config.WithFile(f))
	}
	if cmd.IsSet("env-file") {
		opts = append(opts, config.WithEnvFiles(cmd.StringSlice("env-file")...))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("measurement-dir") {
		cfg.MeasurementDir = cmd.String("measurement-dir")
	}
	if cmd.IsSet("maintainer") {
		cfg.Maintainer = cmd.String("maintainer")
	}
	if root := cmd.Root(); root.IsSet("log-level") {
		cfg.LogLevel = root.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
