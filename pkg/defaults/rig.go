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

package defaults

// Rig limits enforced by the device setters.
const (
	// MaxBrakeAmperage is the maximum allowed brake current in amperes.
	MaxBrakeAmperage = 3.0

	// MaxPWMFrequency is the maximum brake PWM switching frequency in hertz.
	MaxPWMFrequency = 1000.0

	// MaxDutyCycle is the upper bound of the PWM duty cycle in percent.
	MaxDutyCycle = 100.0
)

// MinPWMHalfPeriod returns the shortest on or off time, in seconds, the brake
// solid state relay can switch at MaxPWMFrequency.
func MinPWMHalfPeriod() float64 {
	return 1.0 / (2.0 * MaxPWMFrequency)
}

// Capture storage defaults.
const (
	// MeasurementDir is the default capture storage root.
	MeasurementDir = "measurements"

	// MetadataFileName is the per-run metadata file. A run directory
	// without it is still in progress.
	MetadataFileName = "metadata.json"

	// RunIDLayout formats run identifiers as YYYYMMDDTHHMMSSZ in UTC.
	RunIDLayout = "20060102T150405Z"

	// ArchiveChunkSize is the size of each chunk emitted by archive downloads.
	ArchiveChunkSize = 8 * 1024

	// InnerArchiveExt is the extension of each per-run archive entry.
	InnerArchiveExt = ".tar.bz2"
)

// Control API listener defaults.
const (
	// ServerPort is the default control API port.
	ServerPort = 8000

	// ServerRateLimit is the default sustained request rate per second.
	ServerRateLimit = 100

	// ServerRateLimitBurst is the default token bucket size.
	ServerRateLimitBurst = 200
)
