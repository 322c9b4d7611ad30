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

// Package serializer provides encoding and decoding of rig data in multiple formats.
//
// # Supported Formats
//
// JSON:
//   - Machine-parseable, used for API responses and scripting
//
// YAML:
//   - Human-readable, used for config files and CLI output
//   - gopkg.in/yaml.v3 package
//
// Table:
//   - Lists of objects render one row per element; other values render as
//     flattened FIELD/VALUE pairs using JSON field names
//   - Write-only (no deserialization support)
//
// # Usage - Encoding
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, "")
//	defer w.(serializer.Closer).Close()
//	if err := w.Serialize(ctx, device); err != nil {
//	    return err
//	}
//
// # Usage - Decoding
//
//	cfg, err := serializer.FromFile[config.Config]("/etc/prisma/config.yaml")
//
// # HTTP
//
//	serializer.RespondJSON(w, http.StatusOK, data)
//
// RespondJSON buffers the encoded body so an encoding failure never leaves a
// partial response on the wire.
package serializer
