// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth validates Peaka API keys and keeps the credential slot.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jeranaias/peakabot-tui/internal/keystore"
	"github.com/jeranaias/peakabot-tui/internal/model"
	"github.com/jeranaias/peakabot-tui/internal/peaka"
)

// ErrInvalidKey is returned for every validation failure. The underlying
// cause (rejected key, network error, bad body) is wrapped for logging but
// callers only need to know the key is not usable.
var ErrInvalidKey = errors.New("invalid API key")

// Validator checks keys against the info endpoint.
type Validator struct {
	client  *peaka.Client
	slot    keystore.Slot
	log     zerolog.Logger
	autoLen int
	seedKey string
}

// NewValidator creates a validator. autoValidateLength is the key length
// at which typing triggers validation; 0 disables it.
func NewValidator(client *peaka.Client, slot keystore.Slot, log zerolog.Logger, autoValidateLength int) *Validator {
	return &Validator{
		client:  client,
		slot:    slot,
		log:     log.With().Str("component", "auth").Logger(),
		autoLen: autoValidateLength,
	}
}

// WithSeedKey sets a key Restore falls back to when the slot is empty,
// typically PEAKABOT_API_KEY.
func (v *Validator) WithSeedKey(key string) *Validator {
	v.seedKey = strings.TrimSpace(key)
	return v
}

// Validate checks key and returns a valid session. It does not touch the
// credential slot; callers Remember the key once they accept the session.
func (v *Validator) Validate(ctx context.Context, key string) (*model.Session, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	info, err := v.client.Info(ctx, key)
	if err != nil {
		v.log.Warn().Err(err).Str("key", model.Fingerprint(key)).Msg("key validation failed")
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	session := model.NewSession(key, model.Identity{
		ProjectID:   info.ProjectID,
		ProjectName: info.ProjectName,
		UserID:      info.UserID,
		Email:       info.Email,
	})

	v.log.Info().
		Str("key", session.KeyFingerprint()).
		Str("project", session.ProjectID).
		Msg("key validated")
	return session, nil
}

// Remember writes a validated key to the credential slot.
func (v *Validator) Remember(key string) error {
	if err := v.slot.Set(strings.TrimSpace(key)); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	return nil
}

// SlotKey returns the key currently in the credential slot.
func (v *Validator) SlotKey() (string, error) {
	return v.slot.Get()
}

// StoredKey returns the key in the slot, or the seed key when the slot is empty.
func (v *Validator) StoredKey() (string, error) {
	key, err := v.SlotKey()
	if err != nil {
		return "", err
	}
	if key == "" {
		key = v.seedKey
	}
	return key, nil
}

// Restore validates the stored key. It returns (nil, "", nil) when there
// is nothing stored. On failure it returns the stored key with the error so
// the caller can show what was tried.
func (v *Validator) Restore(ctx context.Context) (*model.Session, string, error) {
	key, err := v.StoredKey()
	if err != nil {
		v.log.Error().Err(err).Msg("failed to read credential slot")
		return nil, "", err
	}
	if key == "" {
		return nil, "", nil
	}
	session, err := v.Validate(ctx, key)
	return session, key, err
}

// Forget erases the credential slot.
func (v *Validator) Forget() error {
	if err := v.slot.Clear(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	v.log.Info().Msg("credentials cleared")
	return nil
}

// ShouldAutoValidate reports whether a key typed so far is long enough to
// validate without waiting for enter.
func (v *Validator) ShouldAutoValidate(key string) bool {
	return v.autoLen > 0 && len(strings.TrimSpace(key)) >= v.autoLen
}
