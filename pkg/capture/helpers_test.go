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
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prisma-rig/prisma-control/pkg/defaults"
	"github.com/prisma-rig/prisma-control/pkg/device"
	"github.com/prisma-rig/prisma-control/pkg/notify"
)

// fakeTimer hands out capture windows that only elapse when fire is called.
type fakeTimer struct {
	mu      sync.Mutex
	pending []chan time.Time
	armed   chan time.Duration
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{armed: make(chan time.Duration, 64)}
}

func (f *fakeTimer) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	f.mu.Lock()
	f.pending = append(f.pending, ch)
	f.mu.Unlock()
	f.armed <- d
	return ch
}

// waitArmed blocks until n windows have been requested.
func (f *fakeTimer) waitArmed(t *testing.T, n int) []time.Duration {
	t.Helper()
	var got []time.Duration
	for len(got) < n {
		select {
		case d := <-f.armed:
			got = append(got, d)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %d capture windows, got %d", n, len(got))
		}
	}
	return got
}

func (f *fakeTimer) fire() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.pending {
		ch <- time.Now()
	}
	f.pending = nil
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type eventSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (s *eventSink) Notify(_ context.Context, e notify.Event) error {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	return nil
}

func (s *eventSink) Close() error { return nil }

func (s *eventSink) types() []notify.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notify.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

type rig struct {
	root      string
	store     *device.Store
	timer     *fakeTimer
	clock     *fixedClock
	sink      *eventSink
	executor  *Executor
	scheduler *Scheduler
	registry  *Registry
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		root:  filepath.Join(t.TempDir(), defaults.MeasurementDir),
		store: device.NewStore(),
		timer: newFakeTimer(),
		clock: &fixedClock{now: time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)},
		sink:  &eventSink{},
	}
	r.executor = NewExecutor(WithAfter(r.timer.After), WithSink(r.sink))
	r.scheduler = NewScheduler(r.root, r.store, r.executor, WithClock(r.clock.Now))
	r.registry = NewRegistry(r.root)
	return r
}

type storedMetadata struct {
	Timestamp     string            `json:"timestamp"`
	Title         string            `json:"title"`
	MotorState    device.MotorState `json:"motor_state"`
	BrakeAmperage float64           `json:"break_amperage"`
}

func readStored(t *testing.T, dir string) (storedMetadata, *Fields) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, defaults.MetadataFileName))
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	var md storedMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	fields := NewFields()
	if err := fields.UnmarshalJSON(data); err != nil {
		t.Fatalf("decode metadata fields: %v", err)
	}
	return md, fields
}

func metadataExists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, defaults.MetadataFileName))
	return err == nil
}

func mustRequest(t *testing.T, body string) Request {
	t.Helper()
	var req Request
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("decode request %s: %v", body, err)
	}
	return req
}
