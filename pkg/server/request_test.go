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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

func TestRequireMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/set_motor_mode", nil)
	w := httptest.NewRecorder()

	ok := RequireMethod(w, req, http.MethodPost)

	assert.False(t, ok)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))

	req = httptest.NewRequest(http.MethodPost, "/set_motor_mode", nil)
	w = httptest.NewRecorder()
	assert.True(t, RequireMethod(w, req, http.MethodGet, http.MethodPost))
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		var v struct {
			Mode string `json:"mode"`
		}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"mode":"star-left"}`))
		require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &v))
		assert.Equal(t, "star-left", v.Mode)
	})

	t.Run("empty body", func(t *testing.T) {
		var v map[string]any
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		err := DecodeJSON(httptest.NewRecorder(), req, &v)
		require.Error(t, err)
		assert.True(t, rigerrors.IsCode(err, rigerrors.ErrCodeInvalidRequest))
		assert.Contains(t, err.Error(), "request body is required")
	})

	t.Run("malformed body", func(t *testing.T) {
		var v map[string]any
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
		err := DecodeJSON(httptest.NewRecorder(), req, &v)
		require.Error(t, err)
		assert.True(t, rigerrors.IsCode(err, rigerrors.ErrCodeInvalidRequest))
	})
}

func TestMissingFields(t *testing.T) {
	var nilFloat *float64
	one := 1.0

	assert.NoError(t, MissingFields(map[string]any{"amperage": &one}))

	err := MissingFields(map[string]any{
		"frequency":  nilFloat,
		"duty_cycle": nil,
		"amperage":   &one,
	})
	require.Error(t, err)
	assert.True(t, rigerrors.IsCode(err, rigerrors.ErrCodeInvalidRequest))
	assert.Contains(t, err.Error(), "missing required field(s): duty_cycle, frequency")
}
