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

package capture

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	capturesStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prisma_captures_started_total",
			Help: "Total number of captures scheduled",
		},
	)

	capturesCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prisma_captures_completed_total",
			Help: "Total number of captures whose metadata was written",
		},
	)

	captureFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prisma_capture_failures_total",
			Help: "Total number of captures whose metadata could not be written",
		},
	)

	capturesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prisma_captures_in_flight",
			Help: "Current number of captures waiting for their window to elapse",
		},
	)

	captureWindowSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prisma_capture_window_seconds",
			Help:    "Requested capture window of completed captures",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 900, 3600},
		},
	)
)
