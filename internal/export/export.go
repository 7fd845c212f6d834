// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/peakabot-tui/internal/model"
	"github.com/jeranaias/peakabot-tui/internal/util"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the exported form of one thread.
type Transcript struct {
	ThreadID    string              `json:"threadId" yaml:"thread_id"`
	Title       string              `json:"title" yaml:"title"`
	ProjectID   string              `json:"projectId" yaml:"project_id"`
	ProjectName string              `json:"projectName,omitempty" yaml:"project_name,omitempty"`
	ExportedAt  time.Time           `json:"exportedAt" yaml:"exported_at"`
	Messages    []model.ChatMessage `json:"messages" yaml:"messages"`
}

// NewTranscript builds a transcript stamped with the current time.
func NewTranscript(thread model.Thread, projectName string, msgs []model.ChatMessage) *Transcript {
	return &Transcript{
		ThreadID:    thread.ThreadID,
		Title:       thread.DisplayName,
		ProjectID:   thread.ProjectID,
		ProjectName: projectName,
		ExportedAt:  time.Now().UTC().Truncate(time.Second),
		Messages:    model.CloneMessages(msgs),
	}
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export writes the transcript to w.
	Export(t *Transcript, w io.Writer) error
	// Extension returns the file extension without the dot.
	Extension() string
}

// NewExporter creates an exporter for format: md, markdown, json or yaml.
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: md, json, yaml)", format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// DefaultFilename returns "<title>_<threadprefix>.<ext>" with unsafe
// characters replaced.
func DefaultFilename(t *Transcript, exp Exporter) string {
	id := t.ThreadID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(t.Title), sanitizeFilename(id), exp.Extension())
}

// ToFile exports t to path, or to DefaultFilename inside dir when path is
// a directory or empty. It returns the written path.
func ToFile(t *Transcript, exp Exporter, path string) (string, error) {
	if path == "" {
		path = "."
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFilename(t, exp))
	}

	var buf bytes.Buffer
	if err := exp.Export(t, &buf); err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	// Replace problematic characters (Windows and Unix)
	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}
