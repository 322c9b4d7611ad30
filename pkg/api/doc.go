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

// Package api wires the prismad HTTP API.
//
// It builds the device store, capture scheduler and executor, run registry
// and archive bundler from a config.Config and registers their handlers on
// a pkg/server instance, which provides middleware, /health, /ready and
// /metrics.
//
// # Endpoints
//
// Device configuration:
//   - POST /set_motor_relais     - set every relay output
//   - POST /set_motor_mode       - apply a predefined relay combination
//   - POST /set_break_pwm        - configure the brake PWM drive
//   - POST /set_break_amperage   - steady brake current in amperes
//   - POST /set_break_percentage - steady brake current as percent of maximum
//   - GET  /v1/device            - current configuration
//
// Captures:
//   - POST /start_measurement - schedule a timed capture, returns its folder id
//   - GET  /get_measurements  - metadata of every completed capture
//   - POST /dl_measurements   - tar of bzip2 archives for the requested ids
//
// Info:
//   - GET /version - build metadata
//
// Example:
//
//	curl -s -X POST localhost:8000/set_motor_mode -d '{"mode":"star-left"}'
//	curl -s -X POST localhost:8000/start_measurement -d '{"duration":2,"title":"sweep","rpm":1500}'
//	curl -s localhost:8000/get_measurements
//	curl -s -X POST localhost:8000/dl_measurements -d '{"timestamps":["20240501T101500Z"]}' -o runs.tar
package api
