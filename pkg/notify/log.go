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

package notify

import (
	"context"
	"log/slog"
)

// LogSink writes events to a slog.Logger. Failures are logged at error level.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a LogSink. A nil logger uses slog.Default.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Notify implements Sink.
func (s *LogSink) Notify(ctx context.Context, e Event) error {
	level := slog.LevelInfo
	if e.Type == EventCaptureFailed {
		level = slog.LevelError
	}
	attrs := []any{
		"run", e.RunID,
		"title", e.Title,
		"duration", e.DurationSeconds,
		"break_amperage", e.BrakeAmperage,
	}
	if e.Error != "" {
		attrs = append(attrs, "error", e.Error)
	}
	s.logger.Log(ctx, level, string(e.Type), attrs...)
	return nil
}

// Close implements Sink.
func (s *LogSink) Close() error { return nil }
