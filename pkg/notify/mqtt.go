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
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/prisma-rig/prisma-control/pkg/defaults"
)

// DefaultTopic is the topic prefix used when none is configured.
const DefaultTopic = "prisma/runs"

// MQTTConfig configures an MQTTSink.
type MQTTConfig struct {
	Broker   string `json:"broker" yaml:"broker"`
	ClientID string `json:"clientId" yaml:"clientId"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"-" yaml:"password,omitempty"`
	// Topic is the prefix; events go to <Topic>/<run id>/<event type>.
	Topic string `json:"topic" yaml:"topic"`
	QoS   byte   `json:"qos" yaml:"qos"`
}

// publisher is the subset of pahomqtt.Client used by the sink.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload any) pahomqtt.Token
	Disconnect(quiesce uint)
}

// MQTTSink publishes events as JSON to an MQTT broker.
type MQTTSink struct {
	client  publisher
	topic   string
	qos     byte
	timeout time.Duration
}

// NewMQTTSink connects to cfg.Broker and returns a sink publishing under cfg.Topic.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "prismad"
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(defaults.MQTTConnectTimeout).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaults.MQTTConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out after %s", cfg.Broker, defaults.MQTTConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}

	slog.Info("mqtt sink connected", "broker", cfg.Broker, "topic", cfg.Topic)
	return newMQTTSink(client, cfg.Topic, cfg.QoS), nil
}

func newMQTTSink(client publisher, topic string, qos byte) *MQTTSink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &MQTTSink{
		client:  client,
		topic:   strings.TrimSuffix(topic, "/"),
		qos:     qos,
		timeout: defaults.MQTTPublishTimeout,
	}
}

// Topic returns the topic an event is published to.
func (s *MQTTSink) Topic(e Event) string {
	return fmt.Sprintf("%s/%s/%s", s.topic, e.RunID, strings.TrimPrefix(string(e.Type), "capture."))
}

// Notify implements Sink.
func (s *MQTTSink) Notify(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("mqtt encode event: %w", err)
	}

	topic := s.Topic(e)
	token := s.client.Publish(topic, s.qos, false, payload)

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
