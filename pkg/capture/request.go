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
	"encoding/json"
	"fmt"
	"math"
	"time"

	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

// Metadata keys. Extra fields never override these.
const (
	KeyDuration      = "duration"
	KeyTitle         = "title"
	KeyTimestamp     = "timestamp"
	KeyMotorState    = "motor_state"
	KeyBrakeAmperage = "break_amperage"
)

var reservedKeys = map[string]bool{
	KeyTimestamp:     true,
	KeyTitle:         true,
	KeyMotorState:    true,
	KeyBrakeAmperage: true,
}

// IsReserved reports whether key is written by the scheduler itself.
func IsReserved(key string) bool {
	return reservedKeys[key]
}

// Request asks for a timed capture. In JSON it is a flat object: duration and
// title plus any number of extra top-level fields.
type Request struct {
	// Duration is the capture window in seconds.
	Duration float64
	Title    string
	// Extra holds every other field in request order.
	Extra Fields
}

// Window returns Duration as a time.Duration.
func (r Request) Window() time.Duration {
	return time.Duration(r.Duration * float64(time.Second))
}

// Validate checks the required fields.
func (r Request) Validate() error {
	if math.IsNaN(r.Duration) || math.IsInf(r.Duration, 0) || r.Duration <= 0 {
		return rigerrors.NewWithContext(rigerrors.ErrCodeInvalidRequest,
			"duration must be greater than 0",
			map[string]any{KeyDuration: r.Duration})
	}
	if r.Title == "" {
		return rigerrors.New(rigerrors.ErrCodeInvalidRequest, "title is required")
	}
	return nil
}

// UnmarshalJSON splits duration and title from the extra fields.
func (r *Request) UnmarshalJSON(data []byte) error {
	var all Fields
	if err := all.UnmarshalJSON(data); err != nil {
		return err
	}

	*r = Request{}
	if v, ok := all.Get(KeyDuration); ok {
		n, ok := v.(json.Number)
		if !ok {
			return rigerrors.New(rigerrors.ErrCodeInvalidRequest, "duration must be a number")
		}
		d, err := n.Float64()
		if err != nil {
			return rigerrors.Wrap(rigerrors.ErrCodeInvalidRequest, "duration must be a number", err)
		}
		r.Duration = d
	}
	if v, ok := all.Get(KeyTitle); ok {
		s, ok := v.(string)
		if !ok {
			return rigerrors.New(rigerrors.ErrCodeInvalidRequest, "title must be a string")
		}
		r.Title = s
	}

	all.Delete(KeyDuration)
	all.Delete(KeyTitle)
	r.Extra = all
	return nil
}

// MarshalJSON writes the flat request object.
func (r Request) MarshalJSON() ([]byte, error) {
	out := Fields{}
	out.Set(KeyDuration, r.Duration)
	out.Set(KeyTitle, r.Title)
	for _, k := range r.Extra.Keys() {
		if k == KeyDuration || k == KeyTitle {
			continue
		}
		v, _ := r.Extra.Get(k)
		out.Set(k, v)
	}
	b, err := out.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode capture request: %w", err)
	}
	return b, nil
}
