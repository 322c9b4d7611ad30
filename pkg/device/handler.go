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

package device

import (
	"net/http"

	"github.com/prisma-rig/prisma-control/pkg/serializer"
	"github.com/prisma-rig/prisma-control/pkg/server"
)

// Handler exposes the Store over HTTP.
type Handler struct {
	store *Store
}

// NewHandler returns a Handler backed by store.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

type relaysRequest struct {
	SupplyLeft  *bool `json:"supply_left"`
	SupplyRight *bool `json:"supply_right"`
	Star        *bool `json:"star"`
	DeltaLeft   *bool `json:"delta_left"`
	DeltaRight  *bool `json:"delta_right"`
}

type modeRequest struct {
	Mode *string `json:"mode"`
}

type pwmRequest struct {
	Amperage  *float64 `json:"amperage"`
	DutyCycle *float64 `json:"duty_cycle"`
	Frequency *float64 `json:"frequency"`
}

type amperageRequest struct {
	Amperage *float64 `json:"amperage"`
}

type percentageRequest struct {
	Percentage *float64 `json:"percentage"`
}

// StateResponse is returned by the relay setters.
type StateResponse struct {
	Success bool       `json:"success"`
	State   MotorState `json:"state"`
}

// PWMResponse is returned by the brake setters.
type PWMResponse struct {
	Success bool     `json:"success"`
	PWM     BrakePWM `json:"pwm"`
}

// HandleSetRelays handles POST /set_motor_relais.
func (h *Handler) HandleSetRelays(w http.ResponseWriter, r *http.Request) {
	if !server.RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req relaysRequest
	if err := server.DecodeJSON(w, r, &req); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to decode request", nil)
		return
	}
	if err := server.MissingFields(map[string]any{
		"supply_left":  req.SupplyLeft,
		"supply_right": req.SupplyRight,
		"star":         req.Star,
		"delta_left":   req.DeltaLeft,
		"delta_right":  req.DeltaRight,
	}); err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid request", nil)
		return
	}

	state, err := h.store.SetRelays(MotorState{
		SupplyLeft:  *req.SupplyLeft,
		SupplyRight: *req.SupplyRight,
		Star:        *req.Star,
		DeltaLeft:   *req.DeltaLeft,
		DeltaRight:  *req.DeltaRight,
	})
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to set motor relays", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, StateResponse{Success: true, State: state})
}

// HandleSetMode handles POST /set_motor_mode.
func (h *Handler) HandleSetMode(w http.ResponseWriter, r *http.Request) {
	if !server.RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req modeRequest
	if err := server.DecodeJSON(w, r, &req); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to decode request", nil)
		return
	}
	if err := server.MissingFields(map[string]any{"mode": req.Mode}); err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid request", nil)
		return
	}

	state, err := h.store.SetMode(Mode(*req.Mode))
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to set motor mode", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, StateResponse{Success: true, State: state})
}

// HandleSetPWM handles POST /set_break_pwm.
func (h *Handler) HandleSetPWM(w http.ResponseWriter, r *http.Request) {
	if !server.RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req pwmRequest
	if err := server.DecodeJSON(w, r, &req); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to decode request", nil)
		return
	}
	if err := server.MissingFields(map[string]any{
		"amperage":   req.Amperage,
		"duty_cycle": req.DutyCycle,
		"frequency":  req.Frequency,
	}); err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid request", nil)
		return
	}

	pwm, err := h.store.SetPWM(BrakePWM{
		Amperage:  *req.Amperage,
		DutyCycle: *req.DutyCycle,
		Frequency: *req.Frequency,
	})
	h.respondPWM(w, r, pwm, err)
}

// HandleSetAmperage handles POST /set_break_amperage.
func (h *Handler) HandleSetAmperage(w http.ResponseWriter, r *http.Request) {
	if !server.RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req amperageRequest
	if err := server.DecodeJSON(w, r, &req); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to decode request", nil)
		return
	}
	if err := server.MissingFields(map[string]any{"amperage": req.Amperage}); err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid request", nil)
		return
	}

	pwm, err := h.store.SetAmperage(*req.Amperage)
	h.respondPWM(w, r, pwm, err)
}

// HandleSetPercentage handles POST /set_break_percentage.
func (h *Handler) HandleSetPercentage(w http.ResponseWriter, r *http.Request) {
	if !server.RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req percentageRequest
	if err := server.DecodeJSON(w, r, &req); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to decode request", nil)
		return
	}
	if err := server.MissingFields(map[string]any{"percentage": req.Percentage}); err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid request", nil)
		return
	}

	pwm, err := h.store.SetPercentage(*req.Percentage)
	h.respondPWM(w, r, pwm, err)
}

// HandleGetDevice handles GET /v1/device.
func (h *Handler) HandleGetDevice(w http.ResponseWriter, r *http.Request) {
	if !server.RequireMethod(w, r, http.MethodGet) {
		return
	}
	serializer.RespondJSON(w, http.StatusOK, h.store.Current())
}

func (h *Handler) respondPWM(w http.ResponseWriter, r *http.Request, pwm BrakePWM, err error) {
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to set brake", nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, PWMResponse{Success: true, PWM: pwm})
}
