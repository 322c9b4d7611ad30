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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prisma-rig/prisma-control/pkg/defaults"
	"github.com/prisma-rig/prisma-control/pkg/notify"
)

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithAfter replaces time.After for the capture window.
func WithAfter(after func(time.Duration) <-chan time.Time) ExecutorOption {
	return func(e *Executor) {
		if after != nil {
			e.after = after
		}
	}
}

// WithSink sets where lifecycle events are delivered.
func WithSink(sink notify.Sink) ExecutorOption {
	return func(e *Executor) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// Executor runs each submitted capture in its own goroutine. Runs share no
// state; a failed metadata write leaves the run in progress forever and is
// reported through logs, metrics and the sink. Nothing is retried.
type Executor struct {
	after         func(time.Duration) <-chan time.Time
	sink          notify.Sink
	notifyTimeout time.Duration

	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// NewExecutor returns an Executor that logs events by default.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		after:         time.After,
		sink:          notify.NewLogSink(nil),
		notifyTimeout: defaults.SinkNotifyTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit starts the capture window for run and returns immediately.
func (e *Executor) Submit(run *Run) {
	e.wg.Add(1)
	e.inFlight.Add(1)
	capturesStarted.Inc()
	capturesInFlight.Inc()

	go func() {
		defer func() {
			capturesInFlight.Dec()
			e.inFlight.Add(-1)
			e.wg.Done()
		}()

		elapsed := e.after(run.Window)

		// A slow sink must not hold back the metadata write.
		started := make(chan struct{})
		go func() {
			defer close(started)
			e.emit(run, notify.EventCaptureStarted, nil)
		}()

		<-elapsed
		err := writeMetadata(run.Dir, run.Metadata)
		<-started

		if err != nil {
			captureFailures.Inc()
			slog.Error("capture failed, run will stay in progress",
				"run", run.ID,
				"dir", run.Dir,
				"error", err)
			e.emit(run, notify.EventCaptureFailed, err)
			return
		}

		capturesCompleted.Inc()
		captureWindowSeconds.Observe(run.Window.Seconds())
		slog.Info("capture completed", "run", run.ID, "title", run.Title)
		e.emit(run, notify.EventCaptureCompleted, nil)
	}()
}

// Wait blocks until every submitted capture has finished.
func (e *Executor) Wait() {
	e.wg.Wait()
}

// InFlight returns the number of captures still waiting or writing.
func (e *Executor) InFlight() int {
	return int(e.inFlight.Load())
}

func (e *Executor) emit(run *Run, typ notify.EventType, runErr error) {
	ev := notify.Event{
		Type:            typ,
		RunID:           run.ID,
		Title:           run.Title,
		Time:            time.Now().UTC(),
		DurationSeconds: run.Window.Seconds(),
	}
	if v, ok := run.Metadata.Get(KeyBrakeAmperage); ok {
		if a, ok := v.(float64); ok {
			ev.BrakeAmperage = a
		}
	}
	if runErr != nil {
		ev.Error = runErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.notifyTimeout)
	defer cancel()
	if err := e.sink.Notify(ctx, ev); err != nil {
		slog.Warn("capture event not delivered", "run", run.ID, "event", string(typ), "error", err)
	}
}

// writeMetadata replaces dir/metadata.json atomically.
func writeMetadata(dir string, md Fields) error {
	data, err := json.MarshalIndent(md, "", "    ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".metadata-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp metadata file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close metadata: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod metadata: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, defaults.MetadataFileName)); err != nil {
		cleanup()
		return fmt.Errorf("rename metadata: %w", err)
	}
	return nil
}
