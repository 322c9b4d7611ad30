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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type testRun struct {
	ID       string            `json:"id" yaml:"id"`
	Amperage float64           `json:"amperage" yaml:"amperage"`
	Tags     map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func TestWriter_SerializeJSON(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(FormatJSON, &buf)

	data := []testRun{{ID: "20240101T120000Z", Amperage: 1.5}, {ID: "20240101T120001Z", Amperage: 0}}
	if err := writer.Serialize(context.Background(), data); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var result []testRun
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
	if len(result) != 2 || result[0].Amperage != 1.5 {
		t.Errorf("Unexpected data: %+v", result)
	}
}

func TestWriter_SerializeYAML(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(FormatYAML, &buf)

	if err := writer.Serialize(context.Background(), testRun{ID: "a", Amperage: 2}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var result testRun
	if err := yaml.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal YAML: %v", err)
	}
	if result.ID != "a" || result.Amperage != 2 {
		t.Errorf("Unexpected data: %+v", result)
	}
}

func TestWriter_SerializeTable(t *testing.T) {
	tests := []struct {
		name    string
		data    any
		want    []string
		notWant []string
	}{
		{
			name:    "object uses json names",
			data:    testRun{ID: "a", Amperage: 2, Tags: map[string]string{"site": "lab"}},
			want:    []string{"FIELD", "VALUE", "id", "amperage", "tags.site", "lab"},
			notWant: []string{"Amperage", "Tags.site"},
		},
		{
			name: "list of objects renders rows",
			data: []testRun{
				{ID: "20240101T120000Z", Amperage: 1.5},
				{ID: "20240101T120001Z", Amperage: 0, Tags: map[string]string{"site": "lab"}},
			},
			want:    []string{"ID", "AMPERAGE", "TAGS", "20240101T120000Z", "1.5", `{"site":"lab"}`},
			notWant: []string{"FIELD"},
		},
		{
			name: "list of scalars is flattened",
			data: []string{"x", "y"},
			want: []string{"FIELD", "[0]", "[1]", "y"},
		},
		{
			name: "scalar",
			data: 42,
			want: []string{"value", "42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewWriter(FormatTable, &buf).Serialize(context.Background(), tt.data); err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("expected table output to contain %q, got:\n%s", want, out)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(out, nw) {
					t.Errorf("expected table output without %q, got:\n%s", nw, out)
				}
			}
		})
	}
}

func TestWriter_SerializeTable_ColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	raw := []json.RawMessage{json.RawMessage(`{"timestamp":"t1","title":"a","load":3}`)}
	if err := NewWriter(FormatTable, &buf).Serialize(context.Background(), raw); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	header := strings.Fields(strings.SplitN(buf.String(), "\n", 2)[0])
	if strings.Join(header, ",") != "TIMESTAMP,TITLE,LOAD" {
		t.Errorf("unexpected header %v", header)
	}
}

func TestWriter_SerializeTable_EmptyData(t *testing.T) {
	for _, data := range []any{[]string{}, map[string]string{}, nil} {
		var buf bytes.Buffer
		if err := NewWriter(FormatTable, &buf).Serialize(context.Background(), data); err != nil {
			t.Fatalf("Serialize failed: %v", err)
		}
		if strings.TrimSpace(buf.String()) != "<empty>" {
			t.Errorf("%T: expected <empty>, got %q", data, buf.String())
		}
	}
}

func TestFormat_IsUnknown(t *testing.T) {
	tests := []struct {
		format Format
		want   bool
	}{
		{FormatJSON, false},
		{FormatYAML, false},
		{FormatTable, false},
		{Format("xml"), true},
		{Format(""), true},
	}
	for _, tt := range tests {
		if got := tt.format.IsUnknown(); got != tt.want {
			t.Errorf("Format(%q).IsUnknown() = %v, want %v", tt.format, got, tt.want)
		}
	}
}

func TestNewWriter_UnknownFormatDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(Format("xml"), &buf)

	if writer.format != FormatJSON {
		t.Errorf("expected JSON fallback, got %s", writer.format)
	}
}

func TestNewFileWriterOrStdout(t *testing.T) {
	t.Run("empty path writes to stdout", func(t *testing.T) {
		w := NewFileWriterOrStdout(FormatJSON, "  ")
		writer, ok := w.(*Writer)
		if !ok {
			t.Fatalf("expected *Writer, got %T", w)
		}
		if writer.output != os.Stdout {
			t.Error("expected stdout output")
		}
	})

	t.Run("file path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.yaml")
		w := NewFileWriterOrStdout(FormatYAML, path)
		if err := w.Serialize(context.Background(), testRun{ID: "x"}); err != nil {
			t.Fatalf("Serialize failed: %v", err)
		}
		if err := w.(Closer).Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		if !strings.Contains(string(content), "id: x") {
			t.Errorf("unexpected file content: %s", content)
		}
	})

	t.Run("invalid path falls back to stdout", func(t *testing.T) {
		w := NewFileWriterOrStdout(FormatJSON, filepath.Join(t.TempDir(), "missing", "dir", "out.json"))
		if writer, ok := w.(*Writer); !ok || writer.output != os.Stdout {
			t.Error("expected stdout fallback")
		}
	})
}
