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
	"log/slog"
	"sync"
)

// Snapshotter provides the current device configuration.
type Snapshotter interface {
	Current() Configuration
}

// Store owns the desired device configuration. It is safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	cfg Configuration
}

// NewStore returns a store with all relays off and no brake current.
func NewStore() *Store {
	return &Store{}
}

// Current returns a consistent copy of the configuration.
func (s *Store) Current() Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetRelays replaces all relay outputs.
func (s *Store) SetRelays(m MotorState) (MotorState, error) {
	if err := m.Validate(); err != nil {
		slog.Error("motor relays rejected", "state", m, "error", err)
		return MotorState{}, err
	}

	s.mu.Lock()
	s.cfg.Motor = m
	s.mu.Unlock()

	slog.Info("motor relays set", "state", m)
	return m, nil
}

// SetMode applies a predefined relay combination.
func (s *Store) SetMode(mode Mode) (MotorState, error) {
	m, err := mode.State()
	if err != nil {
		slog.Error("motor mode rejected", "mode", string(mode), "error", err)
		return MotorState{}, err
	}

	s.mu.Lock()
	s.cfg.Motor = m
	s.mu.Unlock()

	slog.Info("motor mode set", "mode", string(mode), "state", m)
	return m, nil
}

// SetPWM validates and applies a brake PWM drive.
func (s *Store) SetPWM(p BrakePWM) (BrakePWM, error) {
	if err := p.Validate(); err != nil {
		slog.Error("brake pwm rejected",
			"amperage", p.Amperage,
			"duty_cycle", p.DutyCycle,
			"frequency", p.Frequency,
			"error", err)
		return BrakePWM{}, err
	}

	s.mu.Lock()
	s.cfg.Brake = p
	s.mu.Unlock()

	slog.Info("brake pwm set",
		"amperage", p.Amperage,
		"duty_cycle", p.DutyCycle,
		"frequency", p.Frequency)
	return p, nil
}

// SetAmperage applies a steady brake current.
func (s *Store) SetAmperage(amperage float64) (BrakePWM, error) {
	return s.SetPWM(SteadyCurrent(amperage))
}

// SetPercentage applies a steady brake current as a share of the maximum.
func (s *Store) SetPercentage(percentage float64) (BrakePWM, error) {
	p, err := FromPercentage(percentage)
	if err != nil {
		return BrakePWM{}, err
	}
	return s.SetPWM(p)
}
