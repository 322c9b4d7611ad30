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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a CLI output format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// IsUnknown reports whether f is not one of the supported formats.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTable:
		return false
	default:
		return true
	}
}

// SupportedFormats lists the accepted --format values.
func SupportedFormats() []string {
	return []string{string(FormatJSON), string(FormatYAML), string(FormatTable)}
}

// Writer renders values in one format. Writers that own a file must be
// closed.
type Writer struct {
	format Format
	output io.Writer
	closer io.Closer
}

func knownOrJSON(f Format) Format {
	if f.IsUnknown() {
		slog.Warn("unknown format, defaulting to JSON", "format", f)
		return FormatJSON
	}
	return f
}

// NewWriter returns a Writer to output, or stdout when output is nil.
func NewWriter(format Format, output io.Writer) *Writer {
	if output == nil {
		output = os.Stdout
	}
	return &Writer{format: knownOrJSON(format), output: output}
}

// NewStdoutWriter returns a Writer to stdout.
func NewStdoutWriter(format Format) *Writer {
	return NewWriter(format, os.Stdout)
}

// NewFileWriterOrStdout writes to path, truncating it. An empty path, or one
// that cannot be created, falls back to stdout.
func NewFileWriterOrStdout(format Format, path string) Serializer {
	path = strings.TrimSpace(path)
	if path == "" {
		return NewStdoutWriter(format)
	}
	f, err := os.Create(path)
	if err != nil {
		slog.Error("failed to create output file, writing to stdout", "path", path, "error", err)
		return NewStdoutWriter(format)
	}
	w := NewWriter(format, f)
	w.closer = f
	return w
}

// Close closes the output file, if any. Safe to call more than once.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	c := w.closer
	w.closer = nil
	return c.Close()
}

// Serialize writes v.
func (w *Writer) Serialize(_ context.Context, v any) error {
	var err error
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.output)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w.output)
		enc.SetIndent(2)
		if err = enc.Encode(v); err == nil {
			err = enc.Close()
		}
	case FormatTable:
		err = writeTable(w.output, v)
	default:
		return fmt.Errorf("unsupported format: %s", w.format)
	}
	if err != nil {
		return fmt.Errorf("failed to serialize to %s: %w", w.format, err)
	}
	return nil
}
