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

package archive

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prisma-rig/prisma-control/pkg/defaults"
	"github.com/prisma-rig/prisma-control/pkg/server"
)

// Handler serves archive downloads.
type Handler struct {
	bundler *Bundler
	now     func() time.Time
}

// NewHandler returns a Handler using bundler.
func NewHandler(bundler *Bundler) *Handler {
	return &Handler{bundler: bundler, now: time.Now}
}

// HandleDownload handles POST /dl_measurements.
//
// Response headers:
//
//	Content-Type: application/x-tar
//	Content-Disposition: attachment; filename="download_<UTC timestamp>.tar"
//	X-Archive-Entries: comma separated inner archive names
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if !server.RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req Request
	if err := server.DecodeJSON(w, r, &req); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to decode request", nil)
		return
	}
	if err := server.MissingFields(map[string]any{"timestamps": req.Timestamps}); err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid request", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.ArchiveHandlerTimeout)
	defer cancel()

	slog.Info("archive requested", "requested", len(req.Timestamps))

	a, err := h.bundler.Bundle(ctx, req.Timestamps)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to build archive", nil)
		return
	}

	filename := fmt.Sprintf("download_%s.tar", h.now().UTC().Format(defaults.RunIDLayout))
	w.Header().Set("Content-Type", "application/x-tar")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(a.Size()))
	w.Header().Set("X-Archive-Entries", strings.Join(a.Entries(), ","))
	w.WriteHeader(http.StatusOK)

	if _, err := a.WriteTo(w); err != nil {
		// Headers are already sent.
		slog.Error("failed to stream archive", "error", err)
		return
	}
	slog.Debug("archive sent", "entries", len(a.Entries()), "bytes", a.Size())
}
