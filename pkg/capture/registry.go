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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prisma-rig/prisma-control/pkg/defaults"
	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

// Registry reads runs from the storage root.
type Registry struct {
	root string
}

// NewRegistry returns a Registry over root.
func NewRegistry(root string) *Registry {
	return &Registry{root: root}
}

// Root returns the storage root.
func (r *Registry) Root() string {
	return r.root
}

// ValidateID rejects ids that would resolve outside the storage root.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." ||
		strings.ContainsAny(id, "/\\\x00") || filepath.Base(id) != id {
		return rigerrors.NewWithContext(rigerrors.ErrCodeInvalidRequest,
			"invalid run id", map[string]any{"id": id})
	}
	return nil
}

// Path returns the directory of run id. The directory may not exist.
func (r *Registry) Path(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(r.root, id), nil
}

// IsComplete reports whether id names a directory holding metadata.json.
func (r *Registry) IsComplete(id string) bool {
	dir, err := r.Path(id)
	if err != nil {
		return false
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return false
	}
	fi, err := os.Stat(filepath.Join(dir, defaults.MetadataFileName))
	return err == nil && fi.Mode().IsRegular()
}

// Load reads the metadata of a completed run.
func (r *Registry) Load(id string) (*Fields, error) {
	dir, err := r.Path(id)
	if err != nil {
		return nil, err
	}
	if !r.IsComplete(id) {
		return nil, rigerrors.NewWithContext(rigerrors.ErrCodeNotFound,
			"run not found or still in progress", map[string]any{"id": id})
	}
	return readMetadata(filepath.Join(dir, defaults.MetadataFileName))
}

// List returns the metadata of every completed run in directory order.
// Directories without metadata.json are skipped, as are files that cannot be
// parsed. A missing root yields an empty list.
func (r *Registry) List(ctx context.Context) ([]Fields, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Fields{}, nil
		}
		return nil, rigerrors.Wrap(rigerrors.ErrCodeInternal, "failed to read storage root", err)
	}

	runs := make([]Fields, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, rigerrors.Wrap(rigerrors.ErrCodeTimeout, "listing runs cancelled", err)
		}
		// Stat follows symlinks so List agrees with IsComplete and Bundle.
		dir := filepath.Join(r.root, entry.Name())
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			continue
		}

		path := filepath.Join(dir, defaults.MetadataFileName)
		md, err := readMetadata(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				slog.Warn("skipping run with unreadable metadata", "run", entry.Name(), "error", err)
			}
			continue
		}
		runs = append(runs, *md)
	}
	return runs, nil
}

func readMetadata(path string) (*Fields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	md := NewFields()
	if err := md.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return md, nil
}
