// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package directory fetches the conversation threads of a project.
package directory

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/peakabot-tui/internal/model"
	"github.com/jeranaias/peakabot-tui/internal/peaka"
)

// Directory lists remote threads.
type Directory struct {
	client *peaka.Client
	log    zerolog.Logger
}

// New creates a Directory.
func New(client *peaka.Client, log zerolog.Logger) *Directory {
	return &Directory{
		client: client,
		log:    log.With().Str("component", "directory").Logger(),
	}
}

// List returns the project's threads in remote order, one Thread per
// record. It never fails: without a valid session, or when the request
// fails, the problem is logged and an empty list returned.
func (d *Directory) List(ctx context.Context, session *model.Session) []model.Thread {
	if !session.IsValid() {
		d.log.Warn().Msg("thread list requested without a valid session")
		return []model.Thread{}
	}

	records, err := d.client.Threads(ctx, session.Key, session.ProjectID)
	if err != nil {
		d.log.Error().Err(err).Str("project", session.ProjectID).Msg("failed to fetch threads")
		return []model.Thread{}
	}

	threads := make([]model.Thread, len(records))
	for i, r := range records {
		threads[i] = model.Thread{
			ThreadID:    r.ThreadID,
			DisplayName: r.DisplayName,
			ProjectID:   r.ProjectID,
		}
	}
	d.log.Debug().Int("count", len(threads)).Msg("threads fetched")
	return threads
}

// normalize makes matching insensitive to case and to full/half width forms.
// A Caser is stateful, so each call builds its own.
func normalize(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

// Filter returns the threads whose display name contains query, ignoring
// case and Unicode width. An empty query returns threads unchanged.
func Filter(threads []model.Thread, query string) []model.Thread {
	q := normalize(strings.TrimSpace(query))
	if q == "" {
		return threads
	}
	out := make([]model.Thread, 0, len(threads))
	for _, t := range threads {
		if strings.Contains(normalize(t.DisplayName), q) {
			out = append(out, t)
		}
	}
	return out
}
