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

// Package client is a Go client for the prismad HTTP API.
//
//	c := client.New("http://rig-01:8000")
//	if _, err := c.SetMode(ctx, device.ModeStarLeft); err != nil {
//	    return err
//	}
//	id, err := c.StartCapture(ctx, capture.Request{Duration: 2, Title: "sweep"})
//
// API errors are returned as *errors.StructuredError carrying the server's
// error code, so callers can use errors.IsCode.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/prisma-rig/prisma-control/pkg/archive"
	"github.com/prisma-rig/prisma-control/pkg/capture"
	"github.com/prisma-rig/prisma-control/pkg/defaults"
	"github.com/prisma-rig/prisma-control/pkg/device"
	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
	"github.com/prisma-rig/prisma-control/pkg/server"
	"github.com/prisma-rig/prisma-control/pkg/version"
)

// DefaultURL is used when no base URL is given.
const DefaultURL = "http://localhost:8000"

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the total timeout of non-download requests.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries retries reads up to n times on transport errors. Writes are
// never retried since starting a capture twice creates two runs.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// Client calls a prismad instance.
type Client struct {
	baseURL   string
	timeout   time.Duration
	retries   int
	userAgent string

	api       *resty.Client
	reads     *resty.Client
	downloads *resty.Client
}

// New returns a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		timeout:   defaults.HTTPClientTimeout,
		retries:   defaults.HTTPClientRetries,
		userAgent: "prisma/" + version.Development,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.api = c.newResty(c.timeout, 0)
	c.reads = c.newResty(c.timeout, c.retries)
	c.downloads = c.newResty(defaults.HTTPDownloadTimeout, 0)
	return c
}

func (c *Client) newResty(timeout time.Duration, retries int) *resty.Client {
	return resty.New().
		SetBaseURL(c.baseURL).
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(defaults.HTTPRetryWaitTime).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", c.userAgent)
}

// BaseURL returns the server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// post sends body as JSON and decodes a successful response into out.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var apiErr server.ErrorResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(out).
		SetError(&apiErr).
		Post(path)
	return checkResponse(path, resp, err, &apiErr)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	var apiErr server.ErrorResponse
	resp, err := c.reads.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&apiErr).
		Get(path)
	return checkResponse(path, resp, err, &apiErr)
}

// checkResponse turns transport failures and API error bodies into
// structured errors.
func checkResponse(path string, resp *resty.Response, err error, apiErr *server.ErrorResponse) error {
	if err != nil {
		return rigerrors.WrapWithContext(rigerrors.ErrCodeUnavailable,
			"request failed", err, map[string]any{"path": path})
	}
	if !resp.IsError() {
		return nil
	}
	if apiErr.Code != "" {
		ctx := map[string]any{"path": path, "status": resp.StatusCode()}
		for k, v := range apiErr.Details {
			ctx[k] = v
		}
		return rigerrors.NewWithContext(rigerrors.ErrorCode(apiErr.Code), apiErr.Message, ctx)
	}
	return rigerrors.NewWithContext(codeFromStatus(resp.StatusCode()),
		fmt.Sprintf("unexpected response %s", resp.Status()),
		map[string]any{"path": path, "body": string(resp.Body())})
}

func codeFromStatus(status int) rigerrors.ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return rigerrors.ErrCodeInvalidRequest
	case http.StatusNotFound:
		return rigerrors.ErrCodeNotFound
	case http.StatusMethodNotAllowed:
		return rigerrors.ErrCodeMethodNotAllowed
	case http.StatusConflict:
		return rigerrors.ErrCodeConflict
	case http.StatusTooManyRequests:
		return rigerrors.ErrCodeRateLimitExceeded
	case http.StatusServiceUnavailable:
		return rigerrors.ErrCodeUnavailable
	case http.StatusGatewayTimeout:
		return rigerrors.ErrCodeTimeout
	default:
		return rigerrors.ErrCodeInternal
	}
}

// SetRelays sets every motor relay.
func (c *Client) SetRelays(ctx context.Context, m device.MotorState) (device.MotorState, error) {
	var resp device.StateResponse
	if err := c.post(ctx, "/set_motor_relais", m, &resp); err != nil {
		return device.MotorState{}, err
	}
	return resp.State, nil
}

// SetMode applies a predefined relay combination.
func (c *Client) SetMode(ctx context.Context, mode device.Mode) (device.MotorState, error) {
	var resp device.StateResponse
	if err := c.post(ctx, "/set_motor_mode", map[string]string{"mode": string(mode)}, &resp); err != nil {
		return device.MotorState{}, err
	}
	return resp.State, nil
}

// SetPWM configures the brake drive.
func (c *Client) SetPWM(ctx context.Context, p device.BrakePWM) (device.BrakePWM, error) {
	return c.setBrake(ctx, "/set_break_pwm", p)
}

// SetAmperage sets a steady brake current.
func (c *Client) SetAmperage(ctx context.Context, amperage float64) (device.BrakePWM, error) {
	return c.setBrake(ctx, "/set_break_amperage", map[string]float64{"amperage": amperage})
}

// SetPercentage sets a steady brake current as a share of the maximum.
func (c *Client) SetPercentage(ctx context.Context, percentage float64) (device.BrakePWM, error) {
	return c.setBrake(ctx, "/set_break_percentage", map[string]float64{"percentage": percentage})
}

func (c *Client) setBrake(ctx context.Context, path string, body any) (device.BrakePWM, error) {
	var resp device.PWMResponse
	if err := c.post(ctx, path, body, &resp); err != nil {
		return device.BrakePWM{}, err
	}
	return resp.PWM, nil
}

// Device returns the current device configuration.
func (c *Client) Device(ctx context.Context) (device.Configuration, error) {
	var cfg device.Configuration
	err := c.get(ctx, "/v1/device", &cfg)
	return cfg, err
}

// StartCapture schedules a capture and returns its run id.
func (c *Client) StartCapture(ctx context.Context, req capture.Request) (string, error) {
	var resp capture.StartResponse
	if err := c.post(ctx, "/start_measurement", req, &resp); err != nil {
		return "", err
	}
	return resp.Folder, nil
}

// ListRuns returns the metadata of every completed run.
func (c *Client) ListRuns(ctx context.Context) ([]capture.Fields, error) {
	var runs []capture.Fields
	if err := c.get(ctx, "/get_measurements", &runs); err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []capture.Fields{}
	}
	return runs, nil
}

// Download streams the archive for ids into w and returns the inner archive
// names reported by the server.
func (c *Client) Download(ctx context.Context, ids []string, w io.Writer) ([]string, error) {
	resp, err := c.downloads.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/x-tar").
		SetBody(archive.Request{Timestamps: ids}).
		SetDoNotParseResponse(true).
		Post("/dl_measurements")
	if err != nil {
		return nil, rigerrors.Wrap(rigerrors.ErrCodeUnavailable, "download request failed", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		data, _ := io.ReadAll(io.LimitReader(body, server.MaxRequestBodyBytes))
		return nil, rigerrors.NewWithContext(codeFromStatus(resp.StatusCode()),
			"download failed", map[string]any{"status": resp.StatusCode(), "body": string(data)})
	}

	if _, err := io.Copy(w, body); err != nil {
		return nil, rigerrors.Wrap(rigerrors.ErrCodeInternal, "failed to write archive", err)
	}

	var entries []string
	if h := resp.Header().Get("X-Archive-Entries"); h != "" {
		entries = strings.Split(h, ",")
	}
	return entries, nil
}

// Version returns the server build metadata.
func (c *Client) Version(ctx context.Context) (version.Info, error) {
	var info version.Info
	err := c.get(ctx, "/version", &info)
	return info, err
}
