// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package content turns raw agent message content into display text.
//
// Agent messages are plain strings, but tool results often carry a JSON
// object with a human readable "summary" and a machine readable "data"
// field. Parse detects such objects and returns a tagged Payload that the
// load and send paths consume the same way.
package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jeranaias/peakabot-tui/internal/model"
)

// Kind tags a Payload.
type Kind int

const (
	// KindRaw is text that was not a JSON object, or failed to parse as one.
	KindRaw Kind = iota
	// KindObject is a parsed JSON object.
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	if k == KindObject {
		return "object"
	}
	return "raw"
}

// ErrNotObject is returned by Parse when JSON-shaped text decodes to
// something other than an object.
var ErrNotObject = errors.New("payload is not a JSON object")

// Payload is the result of Parse.
type Payload struct {
	Kind Kind

	// Raw is the input exactly as received.
	Raw string

	// Fields holds the object's members as undecoded JSON.
	// Only set for KindObject.
	Fields map[string]json.RawMessage

	// object is the trimmed source of the object, kept to preserve key
	// order when the whole object is pretty-printed.
	object []byte

	// Err is the parse failure for JSON-shaped text that did not decode.
	// It is informational; callers log it and display Raw.
	Err error
}

// LooksLikeObject reports whether s, after trimming, starts with '{' and ends with '}'.
func LooksLikeObject(s string) bool {
	t := strings.TrimSpace(s)
	return len(t) >= 2 && t[0] == '{' && t[len(t)-1] == '}'
}

// Parse classifies raw content. It never fails: anything that is not a
// decodable JSON object comes back as KindRaw with the text unchanged.
func Parse(raw string) Payload {
	if !LooksLikeObject(raw) {
		return Payload{Kind: KindRaw, Raw: raw}
	}

	trimmed := []byte(strings.TrimSpace(raw))
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Payload{Kind: KindRaw, Raw: raw, Err: err}
	}
	if fields == nil {
		return Payload{Kind: KindRaw, Raw: raw, Err: ErrNotObject}
	}

	return Payload{
		Kind:   KindObject,
		Raw:    raw,
		Fields: fields,
		object: trimmed,
	}
}

// Text returns the display text and its format.
//
// For objects: a non-null "summary" wins; otherwise a non-null "data" field
// is pretty-printed; otherwise the whole object is pretty-printed. Raw
// payloads return the input unchanged.
func (p Payload) Text() (string, model.Format) {
	if p.Kind != KindObject {
		return p.Raw, model.FormatMarkdown
	}

	if summary, ok := p.field("summary"); ok {
		var s string
		if err := json.Unmarshal(summary, &s); err == nil {
			return s, model.FormatMarkdown
		}
		// Non-string summaries are shown as their JSON text.
		return string(compact(summary)), model.FormatMarkdown
	}

	if data, ok := p.field("data"); ok {
		return pretty(data), model.FormatJSON
	}

	return pretty(p.object), model.FormatJSON
}

// field returns a member that is present and not JSON null.
func (p Payload) field(name string) (json.RawMessage, bool) {
	v, ok := p.Fields[name]
	if !ok {
		return nil, false
	}
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

// Extract is Parse followed by Text.
func Extract(raw string) (string, model.Format, error) {
	p := Parse(raw)
	text, format := p.Text()
	return text, format, p.Err
}

// pretty re-indents JSON with two spaces, keeping the source key order.
func pretty(src []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(src), "", "  "); err != nil {
		return string(src)
	}
	return buf.String()
}

func compact(src []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, src); err != nil {
		return src
	}
	return buf.Bytes()
}

// FromRawJSON converts an undecoded JSON value into content text.
// Strings are unquoted; any other value (content part lists, numbers) is
// kept as its compact JSON text so nothing is silently lost.
func FromRawJSON(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(compact(v))
}
