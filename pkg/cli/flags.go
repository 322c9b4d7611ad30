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

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/prisma-rig/prisma-control/pkg/serializer"
)

// Flags keep parse state, so every command gets its own instance.
func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatYAML),
		Usage:   fmt.Sprintf("output format (%s)", strings.Join(serializer.SupportedFormats(), ", ")),
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output file path (default: stdout)",
	}
}

func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q (supported: %s)",
			f, strings.Join(serializer.SupportedFormats(), ", "))
	}
	return f, nil
}

// outputWriter returns the serializer for --output, or the command's stdout
// when no file is given.
func outputWriter(cmd *cli.Command, format serializer.Format) serializer.Serializer {
	if path := strings.TrimSpace(cmd.String("output")); path != "" {
		return serializer.NewFileWriterOrStdout(format, path)
	}
	return serializer.NewWriter(format, stdout(cmd))
}

// closeSerializer closes s when it holds a file.
func closeSerializer(s serializer.Serializer) error {
	if c, ok := s.(serializer.Closer); ok {
		return c.Close()
	}
	return nil
}

// parseKeyValues parses "key=value" pairs. Values that read as a boolean or
// a number are typed; everything else stays a string.
func parseKeyValues(pairs []string) ([]string, map[string]any, error) {
	keys := make([]string, 0, len(pairs))
	values := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, nil, fmt.Errorf("invalid format %q, expected key=value", p)
		}
		if _, seen := values[k]; !seen {
			keys = append(keys, k)
		}
		values[k] = typedValue(v)
	}
	return keys, values, nil
}

func typedValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// parseAnnotations parses "key=value" pairs into string annotations.
func parseAnnotations(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid format %q, expected key=value", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}
