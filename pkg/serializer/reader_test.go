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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"config.json":  FormatJSON,
		"config.YAML":  FormatYAML,
		"config.yml":   FormatYAML,
		"out.txt":      FormatTable,
		"config":       FormatJSON,
		"dir/file.Yml": FormatYAML,
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatFromPath(path), path)
	}
}

func TestNewReader(t *testing.T) {
	_, err := NewReader(FormatTable, strings.NewReader(""))
	assert.Error(t, err)

	_, err = NewReader(Format("xml"), strings.NewReader(""))
	assert.Error(t, err)

	r, err := NewReader(FormatYAML, strings.NewReader("id: run-1\namperage: 0.5\n"))
	require.NoError(t, err)

	var got testRun
	require.NoError(t, r.Deserialize(&got))
	assert.Equal(t, "run-1", got.ID)
	assert.InDelta(t, 0.5, got.Amperage, 1e-9)
	assert.NoError(t, r.Close())
}

func TestReader_DeserializeErrors(t *testing.T) {
	var nilReader *Reader
	assert.Error(t, nilReader.Deserialize(&testRun{}))

	r, err := NewReader(FormatJSON, strings.NewReader("{bad"))
	require.NoError(t, err)
	assert.Error(t, r.Deserialize(&testRun{}))
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "run.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"id":"j","amperage":3}`), 0o600))
	got, err := FromFile[testRun](jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "j", got.ID)

	yamlPath := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("id: y\ntags:\n  site: lab\n"), 0o600))
	got, err = FromFile[testRun](yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "lab", got.Tags["site"])

	_, err = FromFile[testRun](filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
