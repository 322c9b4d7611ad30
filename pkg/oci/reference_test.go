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

package oci

import (
	"testing"

	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		registry   string
		repository string
		tag        string
		wantErr    bool
	}{
		{
			name:       "full reference",
			input:      "oci://ghcr.io/lab/prisma-runs:v1",
			registry:   "ghcr.io",
			repository: "lab/prisma-runs",
			tag:        "v1",
		},
		{
			name:       "no scheme with port",
			input:      "localhost:5000/runs",
			registry:   "localhost:5000",
			repository: "runs",
		},
		{
			name:       "docker hub short name",
			input:      "oci://runs:latest",
			registry:   "docker.io",
			repository: "library/runs",
			tag:        "latest",
		},
		{name: "empty", input: "oci://", wantErr: true},
		{name: "uppercase repository", input: "oci://ghcr.io/Lab/Runs", wantErr: true},
		{
			name:    "digest",
			input:   "oci://ghcr.io/lab/runs@sha256:" + "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReference(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseReference(%q) expected error, got %+v", tt.input, got)
				}
				if !rigerrors.IsCode(err, rigerrors.ErrCodeInvalidRequest) {
					t.Errorf("ParseReference(%q) error code = %v, want INVALID_REQUEST", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReference(%q) unexpected error: %v", tt.input, err)
			}
			if got.Registry != tt.registry || got.Repository != tt.repository || got.Tag != tt.tag {
				t.Errorf("ParseReference(%q) = %+v, want %s/%s:%s", tt.input, got, tt.registry, tt.repository, tt.tag)
			}
		})
	}
}

func TestReferenceStrings(t *testing.T) {
	r := &Reference{Registry: "ghcr.io", Repository: "lab/runs"}
	if got := r.ImageReference(); got != "ghcr.io/lab/runs" {
		t.Errorf("ImageReference() = %q", got)
	}

	tagged := r.WithTag("20240501T101500Z")
	if got := tagged.String(); got != "oci://ghcr.io/lab/runs:20240501T101500Z" {
		t.Errorf("String() = %q", got)
	}
	if r.Tag != "" {
		t.Errorf("WithTag modified the receiver: %+v", r)
	}
}

func TestValidateRegistryReference(t *testing.T) {
	tests := []struct {
		name       string
		registry   string
		repository string
		wantErr    bool
	}{
		{"valid", "ghcr.io", "lab/runs", false},
		{"valid with port", "localhost:5000", "runs", false},
		{"empty registry", "", "runs", true},
		{"empty repository", "ghcr.io", "", true},
		{"spaces", "invalid registry with spaces", "runs", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegistryReference(tt.registry, tt.repository)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRegistryReference(%q, %q) error = %v, wantErr %v",
					tt.registry, tt.repository, err, tt.wantErr)
			}
		})
	}
}
