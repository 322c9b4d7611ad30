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

// Package version describes prisma builds and decides whether a client and
// server build can talk to each other.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Development is the version reported by builds without ldflags.
const Development = "dev"

// Info is the build metadata served by GET /version.
type Info struct {
	AppVersion string `json:"app_version" yaml:"app_version"`
	CommitHash string `json:"commit_hash" yaml:"commit_hash"`
	BuildDate  string `json:"build_date" yaml:"build_date"`
	Maintainer string `json:"maintainer" yaml:"maintainer"`
}

// Canonical returns v as vMAJOR.MINOR.PATCH with any pre-release suffix, or
// "" when v is not a semantic version. The leading "v" is optional on input
// and build metadata is dropped.
func Canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// Compatible reports whether a client built as clientVersion can talk to a
// server reporting serverVersion. Development and non-semantic versions are
// always compatible; otherwise the major versions must match.
func Compatible(clientVersion, serverVersion string) bool {
	if clientVersion == Development || serverVersion == Development {
		return true
	}
	c, s := Canonical(clientVersion), Canonical(serverVersion)
	if c == "" || s == "" {
		return true
	}
	return semver.Major(c) == semver.Major(s)
}
