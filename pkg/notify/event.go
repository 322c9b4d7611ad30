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
	"errors"
	"time"
)

// EventType names a capture lifecycle transition.
type EventType string

const (
	EventCaptureStarted   EventType = "capture.started"
	EventCaptureCompleted EventType = "capture.completed"
	EventCaptureFailed    EventType = "capture.failed"
)

// Event describes one lifecycle transition of a run.
type Event struct {
	Type            EventType `json:"type"`
	RunID           string    `json:"run_id"`
	Title           string    `json:"title"`
	Time            time.Time `json:"time"`
	DurationSeconds float64   `json:"duration_seconds"`
	BrakeAmperage   float64   `json:"break_amperage"`
	Error           string    `json:"error,omitempty"`
}

// Sink receives capture events.
type Sink interface {
	Notify(ctx context.Context, e Event) error
	Close() error
}

// Multi delivers each event to every sink and joins their errors.
type Multi []Sink

// Notify implements Sink.
func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Sink.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard is a Sink that drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Notify(context.Context, Event) error { return nil }
func (discard) Close() error                        { return nil }
