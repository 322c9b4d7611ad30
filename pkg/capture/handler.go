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

package capture

import (
	"context"
	"net/http"

	"github.com/prisma-rig/prisma-control/pkg/defaults"
	"github.com/prisma-rig/prisma-control/pkg/serializer"
	"github.com/prisma-rig/prisma-control/pkg/server"
)

// Handler exposes the scheduler and registry over HTTP.
type Handler struct {
	scheduler *Scheduler
	registry  *Registry
}

// NewHandler returns a Handler.
func NewHandler(scheduler *Scheduler, registry *Registry) *Handler {
	return &Handler{scheduler: scheduler, registry: registry}
}

// StartResponse is returned by POST /start_measurement.
type StartResponse struct {
	Success bool   `json:"success"`
	Folder  string `json:"folder"`
}

// HandleStart handles POST /start_measurement.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if !server.RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req Request
	if err := server.DecodeJSON(w, r, &req); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to decode request", nil)
		return
	}

	run, err := h.scheduler.Start(r.Context(), req)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to start capture", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, StartResponse{Success: true, Folder: run.ID})
}

// HandleList handles GET /get_measurements.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !server.RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.ListHandlerTimeout)
	defer cancel()

	runs, err := h.registry.List(ctx)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to list runs", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, runs)
}
