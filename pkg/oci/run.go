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
	"context"
	"fmt"
	"strings"
	"time"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"

	"github.com/prisma-rig/prisma-control/pkg/capture"
	"github.com/prisma-rig/prisma-control/pkg/defaults"
)

// AnnotationRunID carries the run id on pushed manifests.
const AnnotationRunID = "io.prisma.run.id"

// PushRun pushes the completed run id from registry. Tag defaults to the run
// id; SourceDir, LayerName and run annotations are filled in from the run.
func PushRun(ctx context.Context, registry *capture.Registry, id string, opts PushOptions) (*PushResult, error) {
	if err := prepareRun(registry, id, &opts); err != nil {
		return nil, err
	}
	return Push(ctx, opts)
}

// pushRunTo is PushRun against an arbitrary target.
func pushRunTo(ctx context.Context, registry *capture.Registry, id string, opts PushOptions, dst oras.Target) (*PushResult, error) {
	if err := prepareRun(registry, id, &opts); err != nil {
		return nil, err
	}
	ref, err := opts.validate()
	if err != nil {
		return nil, err
	}
	return pushTo(ctx, opts, ref, dst)
}

func prepareRun(registry *capture.Registry, id string, opts *PushOptions) error {
	md, err := registry.Load(id)
	if err != nil {
		return err
	}
	dir, err := registry.Path(id)
	if err != nil {
		return err
	}

	opts.SourceDir = dir
	opts.LayerName = id
	if opts.Tag == "" {
		opts.Tag = id
	}
	opts.Annotations = mergeAnnotations(RunAnnotations(id, md), opts.Annotations)
	return nil
}

// RunAnnotations derives manifest annotations from run metadata. The created
// time comes from the run id so repeated pushes are reproducible.
func RunAnnotations(id string, md *capture.Fields) map[string]string {
	a := map[string]string{
		AnnotationRunID:       id,
		ociv1.AnnotationTitle: id,
	}
	if md != nil {
		if title := md.String(capture.KeyTitle); title != "" {
			a[ociv1.AnnotationTitle] = title
			a[ociv1.AnnotationDescription] = fmt.Sprintf("PRISMA capture %s: %s", id, title)
		}
	}
	if created, ok := runTime(id); ok {
		a[ociv1.AnnotationCreated] = created.Format(time.RFC3339)
	}
	return a
}

// runTime parses the timestamp part of a run id, ignoring any same-second suffix.
func runTime(id string) (time.Time, bool) {
	base, _, _ := strings.Cut(id, "-")
	t, err := time.Parse(defaults.RunIDLayout, base)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func mergeAnnotations(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
