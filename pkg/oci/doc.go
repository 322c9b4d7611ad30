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

// Package oci publishes completed capture runs to OCI registries.
//
// A run directory is packed as a single gzipped tar layer rooted at the run
// id and referenced from an OCI 1.1 artifact manifest of type
// ArtifactType. Run metadata (title and start time) becomes manifest
// annotations, and layers are built reproducibly, so pushing the same run
// twice yields the same digest.
//
// Usage:
//
//	ref, err := oci.ParseReference("oci://ghcr.io/lab/prisma-runs:20240501T101500Z")
//	if err != nil {
//	    return err
//	}
//	res, err := oci.PushRun(ctx, registry, "20240501T101500Z", oci.PushOptions{
//	    Registry:   ref.Registry,
//	    Repository: ref.Repository,
//	    Tag:        ref.Tag,
//	})
//
// Credentials come from the Docker configuration (~/.docker/config.json)
// through the ORAS credentials store.
package oci
