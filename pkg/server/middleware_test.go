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

package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

func testServer(limit rate.Limit, burst int) *Server {
	cfg := NewConfig()
	cfg.RateLimit = limit
	cfg.RateLimitBurst = burst
	return &Server{config: cfg, rateLimiter: rate.NewLimiter(limit, burst)}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) middleware {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next(w, r)
			}
		}
	}

	h := chain(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") },
		mark("outer"), mark("inner"))
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRequestIDMiddleware(t *testing.T) {
	valid := uuid.NewString()
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"generated when missing", "", false},
		{"caller uuid kept", valid, true},
		{"non uuid replaced", "run-20240501", false},
	}

	s := testServer(100, 200)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := s.requestIDMiddleware(func(_ http.ResponseWriter, r *http.Request) {
				seen = RequestID(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/get_measurements", nil)
			if tt.header != "" {
				req.Header.Set(headerRequestID, tt.header)
			}
			rec := httptest.NewRecorder()
			h(rec, req)

			_, err := uuid.Parse(seen)
			require.NoError(t, err)
			assert.Equal(t, seen, rec.Header().Get(headerRequestID))
			if tt.keep {
				assert.Equal(t, tt.header, seen)
			} else {
				assert.NotEqual(t, tt.header, seen)
			}
		})
	}
}

func TestVersionMiddleware(t *testing.T) {
	s := testServer(100, 200)
	var seen string
	h := s.versionMiddleware(func(_ http.ResponseWriter, r *http.Request) {
		seen = APIVersion(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/device", nil)
	req.Header.Set("Accept", "application/vnd.prisma.v1+json")
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.Equal(t, "v1", seen)
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))
}

func TestRateLimitMiddleware(t *testing.T) {
	s := testServer(1, 1)
	calls := 0
	h := s.rateLimitMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/set_motor_mode", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	before := testutil.ToFloat64(rateLimitRejects.WithLabelValues("/set_motor_mode"))

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/set_motor_mode", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, before+1, testutil.ToFloat64(rateLimitRejects.WithLabelValues("/set_motor_mode")))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(rigerrors.ErrCodeRateLimitExceeded), resp.Code)
	assert.True(t, resp.Retryable)
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	s := testServer(100, 200)

	t.Run("before response", func(t *testing.T) {
		h := s.panicRecoveryMiddleware(func(http.ResponseWriter, *http.Request) {
			panic("relay driver gone")
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/set_motor_relais", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), string(rigerrors.ErrCodeInternal))
	})

	t.Run("mid stream", func(t *testing.T) {
		h := s.panicRecoveryMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("partial tar"))
			panic("disk error")
		})
		rec := httptest.NewRecorder()
		rw := newResponseWriter(rec)

		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			h(rw, httptest.NewRequest(http.MethodPost, "/dl_measurements", nil))
		})
		assert.Equal(t, "partial tar", rec.Body.String())
	})

	t.Run("normal request untouched", func(t *testing.T) {
		h := s.panicRecoveryMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	s := testServer(100, 200)
	h := s.requestIDMiddleware(s.loggingMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("gone!"))
	}))
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/get_measurements", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "/get_measurements", entry["route"])
	assert.Equal(t, "v1", entry["apiVersion"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, float64(5), entry["bytes"])
	assert.NotEmpty(t, entry["requestID"])
}

func TestMetricsMiddleware(t *testing.T) {
	s := testServer(100, 200)
	counter := httpRequestsTotal.WithLabelValues(http.MethodPost, "/start_measurement", "201")
	before := testutil.ToFloat64(counter)

	h := s.metricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/start_measurement", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Equal(t, float64(0), testutil.ToFloat64(httpRequestsInFlight))
}

func TestWithMiddleware(t *testing.T) {
	s := testServer(100, 200)
	var ctxID string
	h := s.withMiddleware(func(w http.ResponseWriter, r *http.Request) {
		ctxID = RequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/v1/device", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ctxID, rec.Header().Get(headerRequestID))
	for _, header := range []string{"X-API-Version", "X-RateLimit-Limit", "X-RateLimit-Remaining"} {
		assert.NotEmpty(t, rec.Header().Get(header), header)
	}
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)
	assert.Equal(t, http.StatusOK, rw.Status())

	rw.WriteHeader(http.StatusAccepted)
	rw.WriteHeader(http.StatusInternalServerError)
	_, err := rw.Write([]byte(strings.Repeat("x", 10)))
	require.NoError(t, err)
	_, err = rw.Write([]byte("yz"))
	require.NoError(t, err)
	rw.Flush()

	assert.Equal(t, http.StatusAccepted, rw.Status())
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, int64(12), rw.Bytes())
	assert.True(t, rec.Flushed)
	assert.Same(t, rec, rw.Unwrap())
}
