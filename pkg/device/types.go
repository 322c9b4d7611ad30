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

package device

import (
	"fmt"

	"github.com/prisma-rig/prisma-control/pkg/defaults"
	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

// MotorState is the set of relay outputs wiring the motor.
type MotorState struct {
	SupplyLeft  bool `json:"supply_left" yaml:"supply_left"`
	SupplyRight bool `json:"supply_right" yaml:"supply_right"`
	Star        bool `json:"star" yaml:"star"`
	DeltaLeft   bool `json:"delta_left" yaml:"delta_left"`
	DeltaRight  bool `json:"delta_right" yaml:"delta_right"`
}

// Validate enforces star/delta exclusivity.
func (m MotorState) Validate() error {
	if m.Star && (m.DeltaLeft || m.DeltaRight) {
		return rigerrors.New(rigerrors.ErrCodeInvalidRequest, "star mode cannot be combined with delta modes")
	}
	if m.DeltaLeft && m.DeltaRight {
		return rigerrors.New(rigerrors.ErrCodeInvalidRequest, "delta_left and delta_right cannot both be true")
	}
	return nil
}

// Mode names a predefined relay combination.
type Mode string

const (
	ModeOff        Mode = "off"
	ModeStarLeft   Mode = "star-left"
	ModeStarRight  Mode = "star-right"
	ModeDeltaLeft  Mode = "delta-left"
	ModeDeltaRight Mode = "delta-right"
)

var modeStates = map[Mode]MotorState{
	ModeOff:        {},
	ModeStarLeft:   {SupplyLeft: true, Star: true},
	ModeStarRight:  {SupplyRight: true, Star: true},
	ModeDeltaLeft:  {SupplyLeft: true, DeltaLeft: true},
	ModeDeltaRight: {SupplyRight: true, DeltaRight: true},
}

// SupportedModes returns the mode names in display order.
func SupportedModes() []string {
	return []string{
		string(ModeOff),
		string(ModeStarLeft),
		string(ModeStarRight),
		string(ModeDeltaLeft),
		string(ModeDeltaRight),
	}
}

// State expands the mode into its relay outputs.
func (m Mode) State() (MotorState, error) {
	s, ok := modeStates[m]
	if !ok {
		return MotorState{}, rigerrors.NewWithContext(rigerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown motor mode %q", string(m)),
			map[string]any{"supported": SupportedModes()})
	}
	return s, nil
}

// BrakePWM describes the brake solid state relay drive.
type BrakePWM struct {
	Amperage  float64 `json:"amperage" yaml:"amperage"`
	DutyCycle float64 `json:"duty_cycle" yaml:"duty_cycle"`
	Frequency float64 `json:"frequency" yaml:"frequency"`
}

// SteadyCurrent returns the non-pulsed drive for the given amperage.
func SteadyCurrent(amperage float64) BrakePWM {
	return BrakePWM{Amperage: amperage, DutyCycle: defaults.MaxDutyCycle, Frequency: 0}
}

// FromPercentage returns the steady drive for a percentage of MaxBrakeAmperage.
func FromPercentage(percentage float64) (BrakePWM, error) {
	if percentage < 0 || percentage > 100 {
		return BrakePWM{}, rigerrors.NewWithContext(rigerrors.ErrCodeInvalidRequest,
			"percentage must be between 0 and 100",
			map[string]any{"percentage": percentage})
	}
	return SteadyCurrent(percentage / 100.0 * defaults.MaxBrakeAmperage), nil
}

// Validate checks bounds and the minimum switching half-period.
func (p BrakePWM) Validate() error {
	if p.Amperage < 0 || p.Amperage > defaults.MaxBrakeAmperage {
		return rigerrors.NewWithContext(rigerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("amperage must be between 0 and %g", defaults.MaxBrakeAmperage),
			map[string]any{"amperage": p.Amperage})
	}
	if p.DutyCycle < 0 || p.DutyCycle > defaults.MaxDutyCycle {
		return rigerrors.NewWithContext(rigerrors.ErrCodeInvalidRequest,
			"duty_cycle must be between 0 and 100",
			map[string]any{"duty_cycle": p.DutyCycle})
	}
	if p.Frequency < 0 || p.Frequency > defaults.MaxPWMFrequency {
		return rigerrors.NewWithContext(rigerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("frequency must be between 0 and %g", defaults.MaxPWMFrequency),
			map[string]any{"frequency": p.Frequency})
	}

	if p.Frequency > 0 {
		minHalf := defaults.MinPWMHalfPeriod()
		on, off := p.Timing()
		if on < minHalf || off < minHalf {
			return rigerrors.NewWithContext(rigerrors.ErrCodeInvalidRequest,
				fmt.Sprintf("PWM period too low: minimum half-period at max frequency is %g seconds", minHalf),
				map[string]any{
					"on_time":         on,
					"off_time":        off,
					"min_half_period": minHalf,
				})
		}
	}
	return nil
}

// Timing returns the on and off time in seconds of one PWM period.
// Both are zero for a steady (frequency 0) drive.
func (p BrakePWM) Timing() (on, off float64) {
	if p.Frequency <= 0 {
		return 0, 0
	}
	period := 1.0 / p.Frequency
	on = (p.DutyCycle / 100.0) * period
	return on, period - on
}

// Configuration is the complete desired device state.
type Configuration struct {
	Motor MotorState `json:"motor_state" yaml:"motor_state"`
	Brake BrakePWM   `json:"pwm" yaml:"pwm"`
}

// BrakeAmperage is the currently requested brake current.
func (c Configuration) BrakeAmperage() float64 {
	return c.Brake.Amperage
}
