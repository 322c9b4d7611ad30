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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

// MaxRequestBodyBytes caps JSON request bodies.
const MaxRequestBodyBytes = 1 << 20

// RequireMethod writes a 405 with an Allow header and returns false when the
// request method is not one of methods.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}

	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, r, rigerrors.ErrCodeMethodNotAllowed,
		"Method not allowed", map[string]any{
			"method": r.Method,
		})
	return false
}

// DecodeJSON decodes the request body into v. Any failure, including an empty
// body, is an ErrCodeInvalidRequest error.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return rigerrors.New(rigerrors.ErrCodeInvalidRequest, "request body is required")
		}
		return rigerrors.Wrap(rigerrors.ErrCodeInvalidRequest, "Invalid request body", err)
	}
	return nil
}

// MissingFields returns an ErrCodeInvalidRequest error naming every field
// whose value is nil, or nil when all are present.
func MissingFields(fields map[string]any) error {
	var missing []string
	for name, v := range fields {
		if isNil(v) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return rigerrors.NewWithContext(rigerrors.ErrCodeInvalidRequest,
		"missing required field(s): "+strings.Join(missing, ", "),
		map[string]any{"missing": missing})
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
