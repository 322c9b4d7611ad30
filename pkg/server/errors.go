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
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/google/uuid"

	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
	"github.com/prisma-rig/prisma-control/pkg/serializer"
)

// ErrorResponse is the JSON body of every error returned by the API.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}

var statusByCode = map[rigerrors.ErrorCode]int{
	rigerrors.ErrCodeInvalidRequest:    http.StatusBadRequest,
	rigerrors.ErrCodeNotFound:          http.StatusNotFound,
	rigerrors.ErrCodeMethodNotAllowed:  http.StatusMethodNotAllowed,
	rigerrors.ErrCodeConflict:          http.StatusConflict,
	rigerrors.ErrCodeRateLimitExceeded: http.StatusTooManyRequests,
	rigerrors.ErrCodeUnavailable:       http.StatusServiceUnavailable,
	rigerrors.ErrCodeTimeout:           http.StatusGatewayTimeout,
}

// HTTPStatusFromCode maps an error code onto the HTTP status returned to
// clients. Unknown codes map to 500.
func HTTPStatusFromCode(code rigerrors.ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteError writes an error response whose status and retryable flag are
// derived from code.
func WriteError(w http.ResponseWriter, r *http.Request, code rigerrors.ErrorCode, message string, details map[string]any) {
	requestID := RequestID(r.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}

	serializer.RespondJSON(w, HTTPStatusFromCode(code), ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: code.Retryable(),
	})
}

// WriteErrorFromErr renders err. A StructuredError keeps its code, message
// and context, with the cause under details.error. Anything else is logged
// and rendered as an internal error with fallbackMessage.
func WriteErrorFromErr(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string, extraDetails map[string]any) {
	var se *rigerrors.StructuredError
	if !errors.As(err, &se) {
		slog.Error("unclassified handler error", "error", err, "path", r.URL.Path)
		WriteError(w, r, rigerrors.ErrCodeInternal, fallbackMessage,
			mergeDetails(extraDetails, map[string]any{"error": err.Error()}))
		return
	}

	details := mergeDetails(se.Context, extraDetails)
	if se.Cause != nil {
		details = mergeDetails(details, map[string]any{"error": se.Cause.Error()})
	}
	WriteError(w, r, se.Code, se.Message, details)
}

// mergeDetails returns a new map with b's entries overriding a's, or nil
// when both are empty.
func mergeDetails(a, b map[string]any) map[string]any {
	if len(a)+len(b) == 0 {
		return nil
	}
	out := make(map[string]any, len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)
	return out
}
