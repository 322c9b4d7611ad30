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

// Package defaults provides centralized configuration constants for the rig
// control service.
//
// This package defines the physical limits of the test rig, timeout values and
// other configuration defaults used across the codebase. Centralizing these
// values ensures consistency between request validation, the API server and the
// CLI.
//
// # Categories
//
//   - Rig limits: brake amperage and PWM switching frequency bounds
//   - Capture defaults: storage root, metadata file name, archive chunk size
//   - Handler timeouts: for HTTP request processing
//   - Server timeouts: for HTTP server configuration
//   - HTTP client timeouts: for the CLI talking to the API server
//
// # Usage
//
//	import "github.com/prisma-rig/prisma-control/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.ArchiveHandlerTimeout)
//	defer cancel()
package defaults
