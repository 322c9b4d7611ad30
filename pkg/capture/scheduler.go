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
	"log/slog"
	"time"

	"github.com/prisma-rig/prisma-control/pkg/device"
	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock overrides the time source used for run ids.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// Scheduler starts captures without waiting for them.
type Scheduler struct {
	devices  device.Snapshotter
	executor *Executor
	ids      *idAllocator
	now      func() time.Time
}

// NewScheduler returns a Scheduler storing runs under root.
func NewScheduler(root string, devices device.Snapshotter, executor *Executor, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		devices:  devices,
		executor: executor,
		ids:      &idAllocator{root: root},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates req, claims a run directory, snapshots the device
// configuration and hands the run to the executor. It returns as soon as the
// directory exists.
func (s *Scheduler) Start(ctx context.Context, req Request) (*Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, rigerrors.Wrap(rigerrors.ErrCodeUnavailable, "capture request cancelled", err)
	}

	now := s.now().UTC()
	id, dir, err := s.ids.allocate(now)
	if err != nil {
		if rigerrors.IsCode(err, rigerrors.ErrCodeConflict) {
			return nil, err
		}
		return nil, rigerrors.WrapWithContext(rigerrors.ErrCodeInternal,
			"failed to create run directory", err,
			map[string]any{"root": s.ids.root})
	}

	cfg := s.devices.Current()
	run := &Run{
		ID:        id,
		Dir:       dir,
		Title:     req.Title,
		Window:    req.Window(),
		StartedAt: now,
		Metadata:  buildMetadata(id, req, cfg),
	}

	slog.Info("capture scheduled",
		"run", run.ID,
		"title", run.Title,
		"duration", req.Duration,
		"extras", req.Extra.Len())

	s.executor.Submit(run)
	return run, nil
}

// buildMetadata composes the metadata object from the snapshot taken now.
func buildMetadata(id string, req Request, cfg device.Configuration) Fields {
	md := Fields{}
	md.Set(KeyTimestamp, id)
	md.Set(KeyTitle, req.Title)
	md.Set(KeyMotorState, cfg.Motor)
	md.Set(KeyBrakeAmperage, cfg.BrakeAmperage())

	for _, k := range req.Extra.Keys() {
		if IsReserved(k) || k == KeyDuration {
			slog.Debug("dropping extra field that shadows a metadata key", "run", id, "field", k)
			continue
		}
		v, _ := req.Extra.Get(k)
		md.Set(k, v)
	}
	return md
}
