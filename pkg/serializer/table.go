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
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const emptyTable = "<empty>"

// writeTable renders v through its JSON form so names match the API. A list
// of objects becomes one row per element with columns in first-seen key
// order; anything else becomes sorted FIELD/VALUE pairs of dotted paths.
func writeTable(out io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var items []json.RawMessage
	if json.Unmarshal(raw, &items) == nil {
		if len(items) == 0 {
			_, err := fmt.Fprintln(out, emptyTable)
			return err
		}
		if cols, ok := columns(items); ok {
			return writeRows(out, cols, items)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	flat := map[string]string{}
	flatten(flat, doc, "")
	if len(flat) == 0 {
		_, err := fmt.Fprintln(out, emptyTable)
		return err
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tVALUE")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", k, flat[k])
	}
	return tw.Flush()
}

// columns returns the union of top-level keys when every item is an object.
func columns(items []json.RawMessage) ([]string, bool) {
	var cols []string
	for _, item := range items {
		keys, ok := objectKeys(item)
		if !ok {
			return nil, false
		}
		for _, k := range keys {
			if !slices.Contains(cols, k) {
				cols = append(cols, k)
			}
		}
	}
	return cols, len(cols) > 0
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(raw json.RawMessage) ([]string, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, false
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, _ := tok.(string)
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, false
		}
	}
	return keys, true
}

func writeRows(out io.Writer, cols []string, items []json.RawMessage) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	upper := cases.Upper(language.Und)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = upper.String(c)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil {
			return err
		}
		cells := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := obj[c]; ok {
				cells[i] = cell(v)
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// cell renders one value: strings unquoted, everything else as compact JSON.
func cell(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var buf bytes.Buffer
	if json.Compact(&buf, raw) != nil {
		return string(raw)
	}
	return buf.String()
}

func flatten(out map[string]string, v any, prefix string) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			flatten(out, child, joinKey(prefix, k))
		}
	case []any:
		for i, child := range t {
			flatten(out, child, joinKey(prefix, fmt.Sprintf("[%d]", i)))
		}
	case nil:
		if prefix != "" {
			out[prefix] = "null"
		}
	default:
		if prefix == "" {
			prefix = "value"
		}
		out[prefix] = fmt.Sprint(t)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
