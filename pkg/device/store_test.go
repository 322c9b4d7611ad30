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
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreDefaults(t *testing.T) {
	s := NewStore()
	assert.Equal(t, Configuration{}, s.Current())
	assert.Zero(t, s.Current().BrakeAmperage())
}

func TestStoreSetRelays(t *testing.T) {
	s := NewStore()

	want := MotorState{SupplyLeft: true, SupplyRight: true, DeltaRight: true}
	got, err := s.SetRelays(want)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, want, s.Current().Motor)

	_, err = s.SetRelays(MotorState{Star: true, DeltaLeft: true})
	require.Error(t, err)
	assert.Equal(t, want, s.Current().Motor, "rejected request must not mutate state")
}

func TestStoreSetMode(t *testing.T) {
	s := NewStore()

	got, err := s.SetMode(ModeStarRight)
	require.NoError(t, err)
	assert.Equal(t, MotorState{SupplyRight: true, Star: true}, got)

	_, err = s.SetMode(Mode("sideways"))
	require.Error(t, err)
	assert.Equal(t, got, s.Current().Motor)

	_, err = s.SetMode(ModeOff)
	require.NoError(t, err)
	assert.Equal(t, MotorState{}, s.Current().Motor)
}

func TestStoreSetPWM(t *testing.T) {
	s := NewStore()

	want := BrakePWM{Amperage: 1.2, DutyCycle: 40, Frequency: 200}
	got, err := s.SetPWM(want)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, want, s.Current().Brake)
	assert.InDelta(t, 1.2, s.Current().BrakeAmperage(), 1e-12)

	_, err = s.SetPWM(BrakePWM{Amperage: 2, DutyCycle: 10, Frequency: 1000})
	require.Error(t, err)
	assert.Equal(t, want, s.Current().Brake, "rejected request must not mutate state")
}

func TestStoreDerivedSetters(t *testing.T) {
	s := NewStore()

	got, err := s.SetAmperage(2.5)
	require.NoError(t, err)
	assert.Equal(t, BrakePWM{Amperage: 2.5, DutyCycle: 100, Frequency: 0}, got)

	got, err = s.SetPercentage(20)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, got.Amperage, 1e-12)
	assert.Equal(t, 100.0, got.DutyCycle)
	assert.Equal(t, 0.0, got.Frequency)

	_, err = s.SetAmperage(3.5)
	require.Error(t, err)
	_, err = s.SetPercentage(101)
	require.Error(t, err)
	assert.InDelta(t, 0.6, s.Current().BrakeAmperage(), 1e-12)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = s.SetMode(ModeDeltaLeft)
			} else {
				_, _ = s.SetMode(ModeStarRight)
			}
		}(i)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Current().Motor.Validate())
		}()
	}
	wg.Wait()
}

func TestStoreLogsRejections(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		name string
		msg  string
		set  func(*Store) error
	}{
		{"relays", "motor relays rejected", func(s *Store) error {
			_, err := s.SetRelays(MotorState{Star: true, DeltaLeft: true})
			return err
		}},
		{"mode", "motor mode rejected", func(s *Store) error {
			_, err := s.SetMode(Mode("sideways"))
			return err
		}},
		{"pwm", "brake pwm rejected", func(s *Store) error {
			_, err := s.SetPWM(BrakePWM{Amperage: 2, DutyCycle: 10, Frequency: 1000})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			require.Error(t, tt.set(NewStore()))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
			assert.Equal(t, "ERROR", entry["level"])
			assert.Equal(t, tt.msg, entry["msg"])
			assert.NotEmpty(t, entry["error"])
		})
	}
}
