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

package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prisma-rig/prisma-control/pkg/capture"
	"github.com/prisma-rig/prisma-control/pkg/defaults"
	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

// Request is the body of POST /dl_measurements.
type Request struct {
	Timestamps []string `json:"timestamps"`
}

// Bundler builds download archives from completed runs.
type Bundler struct {
	registry  *capture.Registry
	chunkSize int
	now       func() time.Time
}

// BundlerOption configures a Bundler.
type BundlerOption func(*Bundler)

// WithChunkSize overrides the size of the chunks emitted by Archive.Chunks.
func WithChunkSize(n int) BundlerOption {
	return func(b *Bundler) {
		if n > 0 {
			b.chunkSize = n
		}
	}
}

// WithBundleClock overrides the time stamped on outer entries.
func WithBundleClock(now func() time.Time) BundlerOption {
	return func(b *Bundler) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBundler returns a Bundler reading runs through registry.
func NewBundler(registry *capture.Registry, opts ...BundlerOption) *Bundler {
	b := &Bundler{
		registry:  registry,
		chunkSize: defaults.ArchiveChunkSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bundle builds the outer tar for ids, in request order. Ids that do not name
// a completed run are skipped.
func (b *Bundler) Bundle(ctx context.Context, ids []string) (*Archive, error) {
	var (
		buf     bytes.Buffer
		entries = make([]string, 0, len(ids))
	)
	tw := tar.NewWriter(&buf)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, rigerrors.Wrap(rigerrors.ErrCodeTimeout, "archive build cancelled", err)
		}
		if !b.registry.IsComplete(id) {
			slog.Debug("skipping run", "run", id, "reason", "missing or in progress")
			continue
		}
		dir, err := b.registry.Path(id)
		if err != nil {
			continue
		}

		var inner bytes.Buffer
		if err := CompressDir(ctx, dir, id, &inner); err != nil {
			return nil, rigerrors.WrapWithContext(rigerrors.ErrCodeInternal,
				"failed to compress run", err, map[string]any{"run": id})
		}

		name := id + defaults.InnerArchiveExt
		hdr := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     name,
			Mode:     0o644,
			Size:     int64(inner.Len()),
			ModTime:  b.now().UTC(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, rigerrors.Wrap(rigerrors.ErrCodeInternal, "failed to write archive header", err)
		}
		if _, err := tw.Write(inner.Bytes()); err != nil {
			return nil, rigerrors.Wrap(rigerrors.ErrCodeInternal, "failed to write archive entry", err)
		}
		entries = append(entries, name)
		archiveEntries.Inc()
	}

	if err := tw.Close(); err != nil {
		return nil, rigerrors.Wrap(rigerrors.ErrCodeInternal, "failed to finish archive", err)
	}
	archiveBytes.Observe(float64(buf.Len()))

	return &Archive{data: buf.Bytes(), entries: entries, chunkSize: b.chunkSize}, nil
}

// Archive is a finished outer tar held in memory.
type Archive struct {
	data      []byte
	entries   []string
	chunkSize int
	consumed  atomic.Bool
}

// Entries returns the names of the inner archives, in order.
func (a *Archive) Entries() []string {
	return a.entries
}

// Size returns the archive length in bytes.
func (a *Archive) Size() int {
	return len(a.data)
}

// Chunks yields the archive in chunks of at most the configured chunk size.
// The sequence can be consumed once; later calls yield nothing.
func (a *Archive) Chunks() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if !a.consumed.CompareAndSwap(false, true) {
			return
		}
		for off := 0; off < len(a.data); off += a.chunkSize {
			end := min(off+a.chunkSize, len(a.data))
			if !yield(a.data[off:end]) {
				return
			}
		}
	}
}

// WriteTo writes every chunk to w, flushing after each one when w is an
// http.Flusher.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	flusher, _ := w.(http.Flusher)

	var n int64
	for chunk := range a.Chunks() {
		written, err := w.Write(chunk)
		n += int64(written)
		if err != nil {
			return n, fmt.Errorf("write archive chunk: %w", err)
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	return n, nil
}
