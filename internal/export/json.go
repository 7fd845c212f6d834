// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"io"
)

// JSONExporter exports transcripts as indented JSON.
type JSONExporter struct{}

// Export writes t as JSON.
func (e *JSONExporter) Export(t *Transcript, w io.Writer) error {
	if t == nil {
		return errors.New("transcript is nil")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(t)
}

// Extension returns the file extension for JSON.
func (e *JSONExporter) Extension() string {
	return "json"
}
