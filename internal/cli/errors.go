// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - User-facing error messages for the peakabot command line.

package cli

import (
	"context"
	"errors"

	"github.com/jeranaias/peakabot-tui/internal/auth"
	"github.com/jeranaias/peakabot-tui/internal/conversation"
	"github.com/jeranaias/peakabot-tui/internal/peaka"
)

// FormatError returns the message main prints for err. Known failures get
// a hint; everything else is printed as is.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *peaka.APIError
	switch {
	case errors.Is(err, ErrTTYRequired):
		return err.Error() + "; run a subcommand instead (see peakabot --help)"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out; raise api.timeout_secs in the config file"
	case errors.Is(err, peaka.ErrRateLimited):
		return "the Peaka API is rate limiting requests; try again shortly"
	case errors.Is(err, auth.ErrInvalidKey), errors.Is(err, errNotSignedIn):
		return err.Error()
	case errors.Is(err, conversation.ErrNoSession):
		return "not signed in: run `peakabot login` first"
	case errors.As(err, &apiErr) && apiErr.Status >= 500:
		return err.Error() + " (the Peaka service is having trouble; try again later)"
	default:
		return err.Error()
	}
}
