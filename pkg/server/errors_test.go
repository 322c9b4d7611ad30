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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHTTPStatusFromCode(t *testing.T) {
	tests := map[rigerrors.ErrorCode]int{
		rigerrors.ErrCodeInvalidRequest:    http.StatusBadRequest,
		rigerrors.ErrCodeConflict:          http.StatusConflict,
		rigerrors.ErrCodeNotFound:          http.StatusNotFound,
		rigerrors.ErrCodeMethodNotAllowed:  http.StatusMethodNotAllowed,
		rigerrors.ErrCodeRateLimitExceeded: http.StatusTooManyRequests,
		rigerrors.ErrCodeUnavailable:       http.StatusServiceUnavailable,
		rigerrors.ErrCodeTimeout:           http.StatusGatewayTimeout,
		rigerrors.ErrCodeInternal:          http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, HTTPStatusFromCode(code), code)
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromCode("SOMETHING_ELSE"))
}

func TestMergeDetails(t *testing.T) {
	assert.Nil(t, mergeDetails(nil, nil))
	assert.Nil(t, mergeDetails(map[string]any{}, map[string]any{}))

	a := map[string]any{"a": 1, "shared": "old"}
	b := map[string]any{"b": 2, "shared": "new"}
	assert.Equal(t, map[string]any{"a": 1, "b": 2, "shared": "new"}, mergeDetails(a, b))
	assert.Equal(t, "old", a["shared"], "inputs must not be modified")
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), contextKeyRequestID, "req-123"))

	t.Run("client error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, req, rigerrors.ErrCodeInvalidRequest, "bad request", map[string]any{"k": "v"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeErrorResponse(t, w)
		assert.Equal(t, "INVALID_REQUEST", resp.Code)
		assert.Equal(t, "bad request", resp.Message)
		assert.Equal(t, "req-123", resp.RequestID)
		assert.False(t, resp.Retryable)
		assert.Equal(t, "v", resp.Details["k"])
		assert.False(t, resp.Timestamp.IsZero())
	})

	t.Run("retryable", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, req, rigerrors.ErrCodeUnavailable, "busy", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decodeErrorResponse(t, w)
		assert.True(t, resp.Retryable)
		assert.Nil(t, resp.Details)
	})

	t.Run("generates request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), rigerrors.ErrCodeNotFound, "gone", nil)
		assert.NotEmpty(t, decodeErrorResponse(t, w).RequestID)
	})
}

func TestWriteErrorFromErr(t *testing.T) {
	t.Run("structured error keeps code and details", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := rigerrors.WrapWithContext(rigerrors.ErrCodeUnavailable, "storage unavailable",
			errors.New("disk full"), map[string]any{"component": "storage"})

		WriteErrorFromErr(w, httptest.NewRequest(http.MethodGet, "/", nil), err, "fallback", map[string]any{"extra": "yes"})

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decodeErrorResponse(t, w)
		assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Code)
		assert.Equal(t, "storage unavailable", resp.Message)
		assert.True(t, resp.Retryable)
		assert.Equal(t, map[string]any{"component": "storage", "extra": "yes", "error": "disk full"}, resp.Details)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteErrorFromErr(w, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"), "fallback", map[string]any{"x": "y"})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeErrorResponse(t, w)
		assert.Equal(t, "INTERNAL", resp.Code)
		assert.Equal(t, "fallback", resp.Message)
		assert.True(t, resp.Retryable)
		assert.Equal(t, map[string]any{"x": "y", "error": "boom"}, resp.Details)
	})
}
