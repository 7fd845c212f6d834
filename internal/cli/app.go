// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jeranaias/peakabot-tui/internal/auth"
	"github.com/jeranaias/peakabot-tui/internal/config"
	"github.com/jeranaias/peakabot-tui/internal/conversation"
	"github.com/jeranaias/peakabot-tui/internal/directory"
	"github.com/jeranaias/peakabot-tui/internal/keystore"
	"github.com/jeranaias/peakabot-tui/internal/logging"
	"github.com/jeranaias/peakabot-tui/internal/messages"
	"github.com/jeranaias/peakabot-tui/internal/model"
	"github.com/jeranaias/peakabot-tui/internal/peaka"
)

// errNotSignedIn is returned by commands that need a stored key.
var errNotSignedIn = errors.New("not signed in")

// app is the wired object graph shared by the commands.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	logCloser io.Closer
	slot      keystore.Slot
	auth      *auth.Validator
	sync      *messages.Synchronizer
	ctrl      *conversation.Controller
}

// loadConfig reads the config file and applies the --base-url flag.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.baseURL != "" {
		cfg.API.BaseURL = strings.TrimSuffix(opts.baseURL, "/")
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --base-url: %w", err)
		}
	}
	return cfg, nil
}

// newApp wires config, logging, the API client, the credential slot and
// the controller.
func newApp(opts *rootOptions, sink logging.Sink) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	log, closer, err := logging.New(cfg, logging.Options{Sink: sink, Verbose: opts.verbose})
	if err != nil {
		return nil, err
	}

	slot, err := keystore.Open(cfg)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("open credential slot: %w", err)
	}

	client := peaka.NewFromConfig(cfg, log)
	validator := auth.NewValidator(client, slot, log, cfg.Credentials.AutoValidateLength).
		WithSeedKey(cfg.Credentials.EnvKey)

	sync := messages.New(client, log)
	a := &app{
		cfg:       cfg,
		log:       log,
		logCloser: closer,
		slot:      slot,
		auth:      validator,
		sync:      sync,
		ctrl:      conversation.New(validator, directory.New(client, log), sync, log),
	}
	log.Debug().Str("base_url", client.BaseURL()).Str("backend", cfg.Credentials.Backend).Msg("peakabot started")
	return a, nil
}

// Close releases the slot and the log file.
func (a *app) Close() error {
	return errors.Join(a.slot.Close(), a.logCloser.Close())
}

// signIn restores the stored key into a session.
func (a *app) signIn(ctx context.Context) error {
	if a.ctrl.Restore(ctx) {
		return nil
	}
	if a.ctrl.Snapshot().Session == nil {
		return fmt.Errorf("%w: run `peakabot login` first", errNotSignedIn)
	}
	return fmt.Errorf("%w: the stored key was rejected, run `peakabot login`", auth.ErrInvalidKey)
}

// session returns a copy of the signed-in session.
func (a *app) session() *model.Session {
	return a.ctrl.Snapshot().Session
}

// threads loads the thread directory once and returns it.
func (a *app) threads(ctx context.Context) ([]model.Thread, error) {
	err := a.ctrl.LoadThreads(ctx)
	if err != nil && !errors.Is(err, conversation.ErrThreadsAlreadyLoaded) {
		return nil, err
	}
	return a.ctrl.Snapshot().Threads, nil
}

// withApp runs fn with a console-logging app that is closed afterwards.
func withApp(opts *rootOptions, fn func(a *app) error) error {
	a, err := newApp(opts, logging.SinkConsole)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// withSession is withApp plus signIn.
func withSession(ctx context.Context, opts *rootOptions, fn func(a *app) error) error {
	return withApp(opts, func(a *app) error {
		if err := a.signIn(ctx); err != nil {
			return err
		}
		return fn(a)
	})
}
