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
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"

	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

// middleware decorates a handler.
type middleware func(http.HandlerFunc) http.HandlerFunc

// chain wraps h so that mws[0] runs first.
func chain(h http.HandlerFunc, mws ...middleware) http.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// withMiddleware wraps an API handler with the standard chain.
func (s *Server) withMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return chain(handler,
		s.metricsMiddleware,
		s.versionMiddleware,
		s.requestIDMiddleware,
		s.panicRecoveryMiddleware,
		s.rateLimitMiddleware,
		s.loggingMiddleware,
	)
}

func (s *Server) versionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := negotiateAPIVersion(r)
		SetAPIVersionHeader(w, v)
		next(w, r.WithContext(context.WithValue(r.Context(), contextKeyAPIVersion, v)))
	}
}

// requestIDMiddleware keeps a caller supplied UUID in X-Request-Id and
// replaces anything else with a fresh one.
func (s *Server) requestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next(w, r.WithContext(context.WithValue(r.Context(), contextKeyRequestID, id)))
	}
}

func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.Allow() {
			rateLimitRejects.WithLabelValues(routeLabel(r)).Inc()
			w.Header().Set("Retry-After", strconv.Itoa(s.retryAfterSeconds()))
			WriteError(w, r, rigerrors.ErrCodeRateLimitExceeded,
				"Rate limit exceeded", map[string]any{
					"limit": float64(s.config.RateLimit),
					"burst": s.config.RateLimitBurst,
				})
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(int(s.config.RateLimit)))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(math.Max(0, s.rateLimiter.Tokens()))))
		next(w, r)
	}
}

// retryAfterSeconds is the whole number of seconds until the limiter has a
// token again, at least one.
func (s *Server) retryAfterSeconds() int {
	res := s.rateLimiter.Reserve()
	defer res.Cancel()
	if !res.OK() {
		return 1
	}
	return max(1, int(math.Ceil(res.Delay().Seconds())))
}

// panicRecoveryMiddleware turns a handler panic into a 500. Once a download
// has started streaming the status line is gone and the connection is
// simply closed by net/http.
func (s *Server) panicRecoveryMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			panicRecoveries.Inc()
			slog.Error("panic recovered",
				"error", fmt.Sprint(rec),
				"requestID", RequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			if rw, ok := w.(*responseWriter); ok && rw.written {
				panic(http.ErrAbortHandler)
			}
			WriteError(w, r, rigerrors.ErrCodeInternal, "Internal server error", nil)
		}()
		next(w, r)
	}
}

func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)
		next(rw, r)

		level := slog.LevelInfo
		switch {
		case rw.Status() >= http.StatusInternalServerError:
			level = slog.LevelError
		case rw.Status() >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "request",
			"requestID", RequestID(r.Context()),
			"apiVersion", APIVersion(r.Context()),
			"method", r.Method,
			"route", routeLabel(r),
			"status", rw.Status(),
			"bytes", rw.Bytes(),
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr,
		)
	}
}

// routeLabel names the mux pattern that matched r, falling back to the path
// when r did not come through a ServeMux.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return r.URL.Path
}
