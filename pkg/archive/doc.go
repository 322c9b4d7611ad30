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

// Package archive bundles completed capture runs into a single downloadable
// tar stream.
//
// Every run directory becomes one bzip2-compressed tar, rooted at the run id,
// and is stored as the opaque entry <id>.tar.bz2 in an outer uncompressed
// tar:
//
//	download_20240501T101700Z.tar
//	├── 20240501T101500Z.tar.bz2
//	│   └── 20240501T101500Z/metadata.json
//	└── 20240501T101600Z.tar.bz2
//
// Ids that are unknown, not directories, or still in progress are skipped
// without error. An empty id list produces a valid empty tar.
//
// The outer archive is assembled in memory before the first byte is sent;
// Archive.Chunks then emits it in fixed 8 KiB chunks:
//
//	a, err := archive.NewBundler(registry).Bundle(ctx, ids)
//	if err != nil {
//	    return err
//	}
//	_, err = a.WriteTo(w)
package archive
