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

package errors

import (
	stderrors "errors"
	"strings"
)

// ErrorCode classifies a failure for callers and for HTTP mapping.
type ErrorCode string

const (
	ErrCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeMethodNotAllowed  ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeTimeout           ErrorCode = "TIMEOUT"
	ErrCodeUnavailable       ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeInternal          ErrorCode = "INTERNAL"
)

// Retryable reports whether a request that failed with c may succeed
// when repeated unchanged.
func (c ErrorCode) Retryable() bool {
	switch c {
	case ErrCodeTimeout, ErrCodeUnavailable, ErrCodeRateLimitExceeded, ErrCodeInternal:
		return true
	}
	return false
}

// StructuredError is a coded error with an optional cause and key/value
// context that is surfaced as response details.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

func (e *StructuredError) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(string(e.Code))
	b.WriteString("] ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *StructuredError) Unwrap() error { return e.Cause }

// New returns an error with no cause.
func New(code ErrorCode, message string) *StructuredError {
	return WrapWithContext(code, message, nil, nil)
}

// NewWithContext returns an error with no cause carrying context.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return WrapWithContext(code, message, nil, context)
}

// Wrap classifies cause under code.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return WrapWithContext(code, message, cause, nil)
}

// WrapWithContext classifies cause under code and attaches context.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause, Context: context}
}

// CodeOf returns the code of the outermost StructuredError in err's chain,
// or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	if se, ok := asStructured(err); ok {
		return se.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether the outermost StructuredError in err's chain has code.
func IsCode(err error, code ErrorCode) bool {
	se, ok := asStructured(err)
	return ok && se.Code == code
}

func asStructured(err error) (*StructuredError, bool) {
	var se *StructuredError
	ok := stderrors.As(err, &se)
	return se, ok
}
