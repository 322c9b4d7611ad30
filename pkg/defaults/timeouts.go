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

import "time"

// Handler timeouts for HTTP request processing.
const (
	// ArchiveHandlerTimeout bounds building all inner archives for one
	// download request. Longer than other handlers due to compression.
	ArchiveHandlerTimeout = 5 * time.Minute

	// ListHandlerTimeout bounds reading every metadata file for one
	// listing request.
	ListHandlerTimeout = 30 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	// Must cover archive downloads of several runs.
	ServerWriteTimeout = 10 * time.Minute

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout is the default total timeout for API requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPDownloadTimeout is the total timeout for archive downloads.
	HTTPDownloadTimeout = 15 * time.Minute

	// HTTPRetryWaitTime is the wait between client retries of idempotent reads.
	HTTPRetryWaitTime = 500 * time.Millisecond

	// HTTPClientRetries is the default retry count for idempotent reads.
	HTTPClientRetries = 2
)

// Event sink timeouts.
const (
	// SinkNotifyTimeout bounds delivering one capture event to all sinks.
	SinkNotifyTimeout = 10 * time.Second

	// MQTTConnectTimeout bounds the initial broker connection.
	MQTTConnectTimeout = 10 * time.Second

	// MQTTPublishTimeout bounds waiting for a publish token.
	MQTTPublishTimeout = 5 * time.Second

	// InfluxWriteTimeout bounds a single blocking point write.
	InfluxWriteTimeout = 5 * time.Second

	// OCIPushTimeout bounds pushing one run to a registry.
	OCIPushTimeout = 5 * time.Minute
)
