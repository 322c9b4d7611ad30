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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prisma-rig/prisma-control/pkg/defaults"
	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

// maxSameSecondRuns bounds the suffix search for one second.
const maxSameSecondRuns = 1000

// Run is a scheduled capture.
type Run struct {
	ID        string
	Dir       string
	Title     string
	Window    time.Duration
	StartedAt time.Time
	// Metadata is written to metadata.json when the window elapses.
	Metadata Fields
}

// idAllocator hands out unique run ids by claiming their directory.
type idAllocator struct {
	root string

	mu       sync.Mutex
	lastBase string
	lastSeq  int
}

// runID returns base for the first run of a second and base-NNNN after it.
// The suffix is wide enough for maxSameSecondRuns so ids sort in creation order.
func runID(base string, seq int) string {
	if seq <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%04d", base, seq)
}

// allocate creates the run directory for now and returns its id. Existing
// directories, including ones left from an earlier process, are skipped.
func (a *idAllocator) allocate(now time.Time) (string, string, error) {
	base := now.UTC().Format(defaults.RunIDLayout)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(a.root, 0o755); err != nil {
		return "", "", fmt.Errorf("create storage root %s: %w", a.root, err)
	}

	seq := 1
	if base == a.lastBase {
		seq = a.lastSeq + 1
	}
	for ; seq <= maxSameSecondRuns; seq++ {
		id := runID(base, seq)
		dir := filepath.Join(a.root, id)
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			a.lastBase, a.lastSeq = base, seq
			return id, dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", fmt.Errorf("create run directory %s: %w", dir, err)
		}
	}
	return "", "", rigerrors.NewWithContext(rigerrors.ErrCodeConflict,
		"too many captures started within one second",
		map[string]any{"timestamp": base})
}
