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
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFieldsKeepOrder(t *testing.T) {
	in := `{"zeta":1,"alpha":"a","mid":{"b":2,"a":1},"list":[1,2.50,"x"],"alpha":"again"}`

	var f Fields
	require.NoError(t, json.Unmarshal([]byte(in), &f))
	assert.Equal(t, []string{"zeta", "alpha", "mid", "list"}, f.Keys())
	assert.Equal(t, "again", f.String("alpha"))

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":"again","mid":{"a":1,"b":2},"list":[1,2.50,"x"]}`, string(out))
}

func TestFieldsNumbersRoundTripVerbatim(t *testing.T) {
	var f Fields
	require.NoError(t, json.Unmarshal([]byte(`{"rpm":1500.0,"big":12345678901234567890}`), &f))

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `{"rpm":1500.0,"big":12345678901234567890}`, string(out))
}

func TestFieldsSetDelete(t *testing.T) {
	f := NewFields()
	f.Set("a", 1)
	f.Set("b", 2)
	f.Set("c", 3)
	f.Set("a", 10)
	f.Delete("b")
	f.Delete("missing")

	assert.Equal(t, []string{"a", "c"}, f.Keys())
	assert.Equal(t, 2, f.Len())
	v, ok := f.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	var zero Fields
	zero.Set("x", true)
	assert.Equal(t, 1, zero.Len())

	var nilFields *Fields
	assert.Equal(t, 0, nilFields.Len())
	assert.Nil(t, nilFields.Keys())
}

func TestFieldsUnmarshalErrors(t *testing.T) {
	for _, in := range []string{`[1,2]`, `"text"`, `{"a":}`, `{"a":1`} {
		var f Fields
		assert.Error(t, f.UnmarshalJSON([]byte(in)), in)
	}

	var f Fields
	require.NoError(t, f.UnmarshalJSON([]byte("null")))
	assert.Equal(t, 0, f.Len())
}

func TestFieldsEmptyMarshal(t *testing.T) {
	out, err := json.Marshal(Fields{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestFieldsMarshalYAML(t *testing.T) {
	var f Fields
	require.NoError(t, json.Unmarshal([]byte(`{"title":"t1","rpm":1500,"load":0.5,"tags":["a"]}`), &f))

	out, err := yaml.Marshal(f)
	require.NoError(t, err)

	text := string(out)
	assert.Less(t, strings.Index(text, "title"), strings.Index(text, "rpm"))
	assert.Contains(t, text, "rpm: 1500\n")
	assert.Contains(t, text, "load: 0.5\n")
	assert.NotContains(t, text, "\"1500\"")
}
