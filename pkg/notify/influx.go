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
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/prisma-rig/prisma-control/pkg/defaults"
)

const influxMeasurement = "capture"

// InfluxConfig configures an InfluxSink.
type InfluxConfig struct {
	URL    string `json:"url" yaml:"url"`
	Token  string `json:"-" yaml:"token,omitempty"`
	Org    string `json:"org" yaml:"org"`
	Bucket string `json:"bucket" yaml:"bucket"`
}

// pointWriter is the subset of api.WriteAPIBlocking used by the sink.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxSink records one point per event in InfluxDB.
type InfluxSink struct {
	client influxdb2.Client
	api    pointWriter
}

// NewInfluxSink creates a blocking write client. Close releases it.
func NewInfluxSink(cfg InfluxConfig) (*InfluxSink, error) {
	if cfg.URL == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx url and bucket are required")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxSink{
		client: client,
		api:    client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

// Health checks that InfluxDB is reachable and the token is valid.
func (s *InfluxSink) Health(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Health(ctx)
	return err
}

// Point converts an event into its line protocol point.
func Point(e Event) *write.Point {
	p := influxdb2.NewPointWithMeasurement(influxMeasurement).
		AddTag("run_id", e.RunID).
		AddTag("event", string(e.Type)).
		AddField("title", e.Title).
		AddField("duration_seconds", e.DurationSeconds).
		AddField("break_amperage", e.BrakeAmperage).
		AddField("ok", e.Type != EventCaptureFailed).
		SetTime(e.Time)
	if e.Error != "" {
		p.AddField("error", e.Error)
	}
	return p
}

// Notify implements Sink.
func (s *InfluxSink) Notify(ctx context.Context, e Event) error {
	ctx, cancel := context.WithTimeout(ctx, defaults.InfluxWriteTimeout)
	defer cancel()

	if err := s.api.WritePoint(ctx, Point(e)); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *InfluxSink) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
