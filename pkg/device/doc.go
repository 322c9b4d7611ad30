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

// Package device holds the desired configuration of the rig's motor relays
// and brake PWM drive.
//
// The Store is the single owner of that configuration. Setters validate the
// requested values before taking the write lock, so a rejected request never
// mutates state. Readers such as the capture scheduler call Current, which
// returns a consistent copy of all five relay flags and all three PWM fields.
//
// Relay rules:
//   - star cannot be combined with delta_left or delta_right
//   - delta_left and delta_right cannot both be set
//
// PWM rules:
//   - amperage in [0, defaults.MaxBrakeAmperage]
//   - duty_cycle in [0, 100]
//   - frequency in [0, defaults.MaxPWMFrequency]
//   - when frequency > 0, both the on and off time must be at least
//     defaults.MinPWMHalfPeriod seconds
//
// frequency=0 with duty_cycle=100 is a steady current rather than a pulsed
// drive; the amperage and percentage setters are expressed that way.
package device
