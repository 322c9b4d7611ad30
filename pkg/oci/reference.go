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
	"fmt"
	"strings"

	"github.com/distribution/reference"

	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

// URIScheme prefixes registry targets, e.g. "oci://ghcr.io/lab/runs:tag".
const URIScheme = "oci://"

// Reference is a parsed registry target.
type Reference struct {
	Registry   string
	Repository string
	// Tag is empty when the target names none; callers apply a default.
	Tag string
}

// ParseReference parses "oci://registry/repository[:tag]". The scheme is
// optional.
func ParseReference(target string) (*Reference, error) {
	raw := strings.TrimPrefix(target, URIScheme)
	if raw == "" {
		return nil, rigerrors.New(rigerrors.ErrCodeInvalidRequest, "OCI reference is required")
	}

	ref, err := reference.ParseNormalizedNamed(raw)
	if err != nil {
		return nil, rigerrors.Wrap(rigerrors.ErrCodeInvalidRequest, "invalid OCI reference", err)
	}
	if _, ok := ref.(reference.Digested); ok {
		return nil, rigerrors.New(rigerrors.ErrCodeInvalidRequest, "digest references cannot be pushed to")
	}

	r := &Reference{
		Registry:   reference.Domain(ref),
		Repository: reference.Path(ref),
	}
	if tagged, ok := ref.(reference.Tagged); ok {
		r.Tag = tagged.Tag()
	}
	if err := ValidateRegistryReference(r.Registry, r.Repository); err != nil {
		return nil, err
	}
	return r, nil
}

// ValidateRegistryReference checks that registry and repository are set and
// well formed.
func ValidateRegistryReference(registry, repository string) error {
	if registry == "" {
		return rigerrors.New(rigerrors.ErrCodeInvalidRequest, "registry is required")
	}
	if repository == "" {
		return rigerrors.New(rigerrors.ErrCodeInvalidRequest, "repository is required")
	}
	if _, err := reference.ParseNormalizedNamed(registry + "/" + repository); err != nil {
		return rigerrors.WrapWithContext(rigerrors.ErrCodeInvalidRequest, "invalid registry reference", err,
			map[string]any{"registry": registry, "repository": repository})
	}
	return nil
}

// String returns the reference with the oci:// scheme.
func (r *Reference) String() string {
	return URIScheme + r.ImageReference()
}

// ImageReference returns the Docker-style reference without the scheme.
func (r *Reference) ImageReference() string {
	if r.Tag == "" {
		return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// WithTag returns a copy of r tagged tag.
func (r *Reference) WithTag(tag string) *Reference {
	c := *r
	c.Tag = tag
	return &c
}
