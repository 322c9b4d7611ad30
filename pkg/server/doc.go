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

// Package server provides the HTTP server shared by the rig control daemon.
//
// # Architecture
//
// Handlers are registered by path and wrapped with a fixed middleware chain:
//
//   - Prometheus request metrics
//   - API version negotiation (Accept: application/vnd.prisma.v1+json)
//   - Request ID tracking (X-Request-Id)
//   - Panic recovery
//   - Rate limiting using a token bucket (golang.org/x/time/rate)
//   - Request logging via log/slog
//
// The server also exposes /health, /ready and /metrics outside the chain, and
// wraps the mux with CORS handling when origins are configured.
//
// # Usage
//
//	s := server.New(
//	    server.WithName("prismad"),
//	    server.WithVersion(version),
//	    server.WithHandler(map[string]http.HandlerFunc{
//	        "/set_motor_mode": deviceHandler.HandleSetMode,
//	    }),
//	)
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//
// # Errors
//
// Every error response is an ErrorResponse carrying a code from pkg/errors,
// the request ID and a retryable flag. The HTTP status and the flag follow
// from the code. Use WriteErrorFromErr to render a StructuredError returned
// by a lower layer.
//
// # Configuration
//
// Config carries resolved values only. Defaults come from NewConfig; the
// config package applies files and environment variables before building it.
package server
