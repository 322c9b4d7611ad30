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

// Package cli implements the prisma command-line interface.
//
// # Commands
//
//	prisma serve [--config FILE] [--env-file FILE] [--port N] [--measurement-dir DIR]
//	prisma device show
//	prisma device mode off|star-left|star-right|delta-left|delta-right
//	prisma device relays [--supply-left] [--supply-right] [--star] [--delta-left] [--delta-right]
//	prisma device brake pwm --amperage A [--duty-cycle PCT] [--frequency HZ]
//	prisma device brake amperage A
//	prisma device brake percentage PCT
//	prisma capture start --duration S --title T [--field key=value] [--wait]
//	prisma runs list [--format yaml|json|table] [--output FILE]
//	prisma runs download ID... [--output FILE]
//	prisma runs push ID --target oci://registry/repository[:tag]
//	prisma version [--client-only]
//
// Every command except serve and runs push talks to prismad over HTTP at
// --server (PRISMA_SERVER, default http://localhost:8000).
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/prisma-rig/prisma-control/pkg/cli.version=1.0.0'"
package cli
