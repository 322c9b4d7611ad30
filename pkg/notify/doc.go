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

// Package notify delivers capture lifecycle events to external sinks.
//
// A capture emits capture.started when it is scheduled, then exactly one of
// capture.completed or capture.failed once its metadata write finishes.
// Sinks never affect the outcome of a capture: delivery errors are logged by
// the caller and dropped.
//
// Available sinks:
//   - LogSink writes events through log/slog
//   - MQTTSink publishes JSON events with github.com/eclipse/paho.mqtt.golang
//   - InfluxSink writes one point per event with github.com/influxdata/influxdb-client-go/v2
//
// Multi fans an event out to several sinks.
package notify
