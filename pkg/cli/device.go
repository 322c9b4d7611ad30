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
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/prisma-rig/prisma-control/pkg/device"
)

func deviceCmd() *cli.Command {
	return &cli.Command{
		Name:  "device",
		Usage: "Show or change the motor relays and brake",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the current relay and brake configuration",
				Flags:  []cli.Flag{formatFlag(), outputFlag()},
				Action: deviceShow,
			},
			{
				Name:      "mode",
				Usage:     "Select a predefined relay combination",
				ArgsUsage: fmt.Sprintf("<%s>", strings.Join(device.SupportedModes(), "|")),
				Flags:     []cli.Flag{formatFlag()},
				Action:    deviceMode,
			},
			{
				Name:  "relays",
				Usage: "Set every relay output explicitly; unset flags turn the relay off",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "supply-left", Usage: "Energize the left supply relay"},
					&cli.BoolFlag{Name: "supply-right", Usage: "Energize the right supply relay"},
					&cli.BoolFlag{Name: "star", Usage: "Close the star relay"},
					&cli.BoolFlag{Name: "delta-left", Usage: "Close the left delta relay"},
					&cli.BoolFlag{Name: "delta-right", Usage: "Close the right delta relay"},
					formatFlag(),
				},
				Action: deviceRelays,
			},
			brakeCmd(),
		},
	}
}

func brakeCmd() *cli.Command {
	return &cli.Command{
		Name:  "brake",
		Usage: "Configure the brake current",
		Commands: []*cli.Command{
			{
				Name:  "pwm",
				Usage: "Drive the brake with explicit PWM settings",
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "amperage", Usage: "Brake current in amperes", Required: true},
					&cli.FloatFlag{Name: "duty-cycle", Usage: "Duty cycle in percent", Value: 100},
					&cli.FloatFlag{Name: "frequency", Usage: "Switching frequency in Hz, 0 for steady current"},
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					p, err := newClient(cmd).SetPWM(ctx, device.BrakePWM{
						Amperage:  cmd.Float("amperage"),
						DutyCycle: cmd.Float("duty-cycle"),
						Frequency: cmd.Float("frequency"),
					})
					if err != nil {
						return err
					}
					return writeResult(ctx, cmd, p)
				},
			},
			{
				Name:      "amperage",
				Usage:     "Set a steady brake current",
				ArgsUsage: "<amperes>",
				Flags:     []cli.Flag{formatFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := floatArg(cmd, "amperes")
					if err != nil {
						return err
					}
					p, err := newClient(cmd).SetAmperage(ctx, a)
					if err != nil {
						return err
					}
					return writeResult(ctx, cmd, p)
				},
			},
			{
				Name:      "percentage",
				Usage:     "Set a steady brake current as a percentage of the maximum",
				ArgsUsage: "<percent>",
				Flags:     []cli.Flag{formatFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					pct, err := floatArg(cmd, "percent")
					if err != nil {
						return err
					}
					p, err := newClient(cmd).SetPercentage(ctx, pct)
					if err != nil {
						return err
					}
					return writeResult(ctx, cmd, p)
				},
			},
		},
	}
}

func deviceShow(ctx context.Context, cmd *cli.Command) error {
	if _, err := parseOutputFormat(cmd); err != nil {
		return err
	}
	cfg, err := newClient(cmd).Device(ctx)
	if err != nil {
		return err
	}
	return writeResult(ctx, cmd, cfg)
}

func deviceMode(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("expected exactly one mode (%s)", strings.Join(device.SupportedModes(), ", "))
	}
	mode := device.Mode(cmd.Args().First())
	if _, err := mode.State(); err != nil {
		return err
	}
	state, err := newClient(cmd).SetMode(ctx, mode)
	if err != nil {
		return err
	}
	return writeResult(ctx, cmd, state)
}

func deviceRelays(ctx context.Context, cmd *cli.Command) error {
	m := device.MotorState{
		SupplyLeft:  cmd.Bool("supply-left"),
		SupplyRight: cmd.Bool("supply-right"),
		Star:        cmd.Bool("star"),
		DeltaLeft:   cmd.Bool("delta-left"),
		DeltaRight:  cmd.Bool("delta-right"),
	}
	if err := m.Validate(); err != nil {
		return err
	}
	state, err := newClient(cmd).SetRelays(ctx, m)
	if err != nil {
		return err
	}
	return writeResult(ctx, cmd, state)
}

// writeResult prints v in the --format of cmd to --output or stdout.
func writeResult(ctx context.Context, cmd *cli.Command, v any) error {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	w := outputWriter(cmd, format)
	if err := w.Serialize(ctx, v); err != nil {
		_ = closeSerializer(w)
		return err
	}
	return closeSerializer(w)
}

func floatArg(cmd *cli.Command, what string) (float64, error) {
	if cmd.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one argument: <%s>", what)
	}
	v, err := strconv.ParseFloat(cmd.Args().First(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, cmd.Args().First(), err)
	}
	return v, nil
}
