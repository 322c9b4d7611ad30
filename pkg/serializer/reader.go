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

package serializer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var formatByExt = map[string]Format{
	".json":  FormatJSON,
	".yaml":  FormatYAML,
	".yml":   FormatYAML,
	".table": FormatTable,
	".txt":   FormatTable,
}

// FormatFromPath picks a format from the file extension, case-insensitively.
// Unknown extensions fall back to JSON.
func FormatFromPath(path string) Format {
	if f, ok := formatByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	slog.Warn("unknown file extension, defaulting to JSON", "path", path)
	return FormatJSON
}

// Reader decodes one JSON or YAML document.
type Reader struct {
	format Format
	input  io.Reader
}

// NewReader returns a Reader over input. Table output cannot be read back.
func NewReader(format Format, input io.Reader) (*Reader, error) {
	switch {
	case format.IsUnknown():
		return nil, fmt.Errorf("unknown format: %s", format)
	case format == FormatTable:
		return nil, errors.New("table format does not support deserialization")
	}
	return &Reader{format: format, input: input}, nil
}

// Deserialize decodes the next document into v, which must be a pointer.
func (r *Reader) Deserialize(v any) error {
	if r == nil || r.input == nil {
		return errors.New("reader has no input")
	}

	var err error
	if r.format == FormatYAML {
		err = yaml.NewDecoder(r.input).Decode(v)
	} else {
		err = json.NewDecoder(r.input).Decode(v)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", r.format, err)
	}
	return nil
}

// Close closes the input when it is an io.Closer.
func (r *Reader) Close() error {
	if r == nil {
		return nil
	}
	if c, ok := r.input.(io.Closer); ok {
		r.input = nil
		return c.Close()
	}
	return nil
}

// FromFile loads path into a new T, detecting the format from the extension.
func FromFile[T any](path string) (*T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r, err := NewReader(FormatFromPath(path), f)
	if err != nil {
		return nil, err
	}
	var out T
	if err := r.Deserialize(&out); err != nil {
		return nil, fmt.Errorf("failed to deserialize %s: %w", path, err)
	}
	return &out, nil
}
