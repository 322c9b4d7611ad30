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
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/dsnet/compress/bzip2"
)

// CompressionLevel is the bzip2 block level used for inner archives.
const CompressionLevel = bzip2.BestCompression

// CompressDir writes a bzip2-compressed tar of dir to w. Entry names are
// rooted at root, so dir/a.bin is stored as root/a.bin.
func CompressDir(ctx context.Context, dir, root string, w io.Writer) error {
	bz, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: CompressionLevel})
	if err != nil {
		return fmt.Errorf("create bzip2 writer: %w", err)
	}

	tw := tar.NewWriter(bz)
	if err := addTree(ctx, tw, dir, root); err != nil {
		_ = tw.Close()
		_ = bz.Close()
		return err
	}
	if err := tw.Close(); err != nil {
		_ = bz.Close()
		return fmt.Errorf("close tar writer: %w", err)
	}
	if err := bz.Close(); err != nil {
		return fmt.Errorf("close bzip2 writer: %w", err)
	}
	return nil
}

func addTree(ctx context.Context, tw *tar.Writer, dir, root string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", p, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", p, err)
		}
		name := root
		if rel != "." {
			name = path.Join(root, filepath.ToSlash(rel))
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}

		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(p); err != nil {
				return fmt.Errorf("read link %s: %w", p, err)
			}
		}

		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return fmt.Errorf("tar header for %s: %w", p, err)
		}
		hdr.Name = name
		if info.IsDir() {
			hdr.Name += "/"
		}
		// Owner names vary between hosts and carry no meaning for a run.
		hdr.Uname, hdr.Gname = "", ""

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write header %s: %w", hdr.Name, err)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open %s: %w", p, err)
		}
		defer f.Close()

		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("copy %s: %w", p, err)
		}
		return nil
	})
}
