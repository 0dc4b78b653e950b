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

// Package serializer provides encoding of data to output in multiple formats,
// plus the HTTP helpers used by the API (JSON responses, server-sent events,
// and an outbound HTTP reader).
//
// # Overview
//
// The serializer package converts Go values to JSON, YAML, or a human-readable
// table and writes them to stdout or a file. It does not decode data; the
// format is always chosen explicitly by the caller.
//
// # Supported Formats
//
// JSON:
//   - Machine-parseable, compact representation
//   - Suitable for API responses and programmatic consumption
//   - Standard encoding/json package
//
// YAML:
//   - Human-readable with preserved structure
//   - Suitable for configuration files and version control
//   - gopkg.in/yaml.v3 package
//
// Table:
//   - Two-column FIELD/VALUE text table
//   - Suitable for terminal/console viewing
//   - Nested structs and maps are flattened into dotted keys, rows sorted by key
//
// # Core Types
//
// Format: Enum representing output formats (FormatJSON, FormatYAML, FormatTable)
//
// Serializer: Interface for encoding data to output
//
//	type Serializer interface {
//	    Serialize(ctx context.Context, snapshot any) error
//	}
//
// Writer: the Serializer implementation, writing to an io.Writer
//
// # Usage
//
// Write to stdout (YAML):
//
//	w := serializer.NewStdoutWriter(serializer.FormatYAML)
//
//	data := map[string]any{"version": "1.0.0", "status": "ok"}
//	if err := w.Serialize(ctx, data); err != nil {
//	    log.Fatal(err)
//	}
//
// Write to a file, or to stdout when the path is empty or "-":
//
//	ser, err := serializer.NewFileWriterOrStdout(serializer.FormatJSON, "output.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if c, ok := ser.(serializer.Closer); ok {
//	    defer c.Close()
//	}
//
//	if err := ser.Serialize(ctx, data); err != nil {
//	    log.Fatal(err)
//	}
//
// Write to any io.Writer:
//
//	w := serializer.NewWriter(serializer.FormatTable, &buf)
//
// An unknown format falls back to JSON with a warning.
//
// # Table Format
//
// The table format prints one row per leaf value:
//
//	FIELD               VALUE
//	-----               -----
//	gpu.model           H100
//	version             v1.0.0
//
// An empty value prints "<empty>".
//
// # Resource Management
//
// Close a Writer returned for a file path; Close on a stdout Writer is a no-op.
//
// # HTTP Helpers
//
//   - RespondJSON writes a JSON response with a status code
//   - SSEWriter (NewSSEWriter, WriteEvent) writes server-sent events
//   - HttpReader (NewHttpReader) fetches URLs with configurable timeouts
//
// # Error Handling
//
// Errors are returned when:
//   - Format is unsupported at serialization time
//   - The output file cannot be created
//   - The path is a ConfigMap URI (cm://...), which is not supported
//   - Data cannot be marshaled
//
// # Integration
//
// Used by:
//   - pkg/cli - Command output formatting
//   - pkg/api and pkg/server - HTTP response encoding and event streams
package serializer
