// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/peakabot-tui/internal/keystore"
	"github.com/jeranaias/peakabot-tui/internal/peaka"
)

const goodKey = "good-key-0123456789abcdefghijklmnopqrst"

// infoServer accepts only goodKey.
func infoServer(t *testing.T, hits *atomic.Int32) *peaka.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.Header.Get("Authorization") != "Bearer "+goodKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"projectId":"p1","projectName":"Demo","userId":"u1","email":"dev@example.com"}`))
	}))
	t.Cleanup(srv.Close)
	return peaka.NewClient(srv.URL).WithRateLimit(0)
}

func TestValidate_Success(t *testing.T) {
	slot := keystore.NewMemorySlot("")
	v := NewValidator(infoServer(t, nil), slot, zerolog.Nop(), 39)

	s, err := v.Validate(context.Background(), "  "+goodKey+"  ")
	require.NoError(t, err)
	assert.True(t, s.Valid)
	assert.Equal(t, goodKey, s.Key)
	assert.Equal(t, "p1", s.ProjectID)
	assert.Equal(t, "Demo", s.ProjectName)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "dev@example.com", s.Email)

	stored, _ := slot.Get()
	assert.Empty(t, stored, "validation alone must not store the key")

	require.NoError(t, v.Remember(s.Key))
	stored, _ = slot.Get()
	assert.Equal(t, goodKey, stored)
}

func TestValidate_Rejected(t *testing.T) {
	slot := keystore.NewMemorySlot("")
	v := NewValidator(infoServer(t, nil), slot, zerolog.Nop(), 39)

	s, err := v.Validate(context.Background(), "abc")
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, err, peaka.ErrUnauthorized)

	stored, _ := slot.Get()
	assert.Empty(t, stored, "rejected key must not be cached")
}

func TestValidate_EmptyKeyNoRequest(t *testing.T) {
	var hits atomic.Int32
	v := NewValidator(infoServer(t, &hits), keystore.NewMemorySlot(""), zerolog.Nop(), 39)

	_, err := v.Validate(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.Zero(t, hits.Load())
}

func TestValidate_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	v := NewValidator(peaka.NewClient(url).WithRateLimit(0), keystore.NewMemorySlot(""), zerolog.Nop(), 39)
	_, err := v.Validate(context.Background(), goodKey)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestValidate_SlotFailureStillValid(t *testing.T) {
	slot := keystore.NewMemorySlot("")
	slot.Fail = errors.New("read-only filesystem")
	v := NewValidator(infoServer(t, nil), slot, zerolog.Nop(), 39)

	s, err := v.Validate(context.Background(), goodKey)
	require.NoError(t, err)
	assert.True(t, s.Valid)
	assert.ErrorIs(t, v.Remember(s.Key), slot.Fail)
}

func TestRestore(t *testing.T) {
	t.Run("empty slot", func(t *testing.T) {
		var hits atomic.Int32
		v := NewValidator(infoServer(t, &hits), keystore.NewMemorySlot(""), zerolog.Nop(), 39)
		s, key, err := v.Restore(context.Background())
		assert.Nil(t, s)
		assert.Empty(t, key)
		assert.NoError(t, err)
		assert.Zero(t, hits.Load())
	})

	t.Run("stored key", func(t *testing.T) {
		v := NewValidator(infoServer(t, nil), keystore.NewMemorySlot(goodKey), zerolog.Nop(), 39)
		s, key, err := v.Restore(context.Background())
		require.NoError(t, err)
		assert.True(t, s.Valid)
		assert.Equal(t, goodKey, key)
	})

	t.Run("stale key", func(t *testing.T) {
		v := NewValidator(infoServer(t, nil), keystore.NewMemorySlot("revoked"), zerolog.Nop(), 39)
		s, key, err := v.Restore(context.Background())
		assert.Nil(t, s)
		assert.Equal(t, "revoked", key)
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("seed key", func(t *testing.T) {
		slot := keystore.NewMemorySlot("")
		v := NewValidator(infoServer(t, nil), slot, zerolog.Nop(), 39).WithSeedKey(goodKey)
		s, key, err := v.Restore(context.Background())
		require.NoError(t, err)
		assert.True(t, s.Valid)
		assert.Equal(t, goodKey, key)
	})
}

func TestForget(t *testing.T) {
	slot := keystore.NewMemorySlot(goodKey)
	v := NewValidator(infoServer(t, nil), slot, zerolog.Nop(), 39)

	require.NoError(t, v.Forget())
	stored, _ := slot.Get()
	assert.Empty(t, stored)
}

func TestShouldAutoValidate(t *testing.T) {
	v := NewValidator(nil, keystore.NewMemorySlot(""), zerolog.Nop(), 39)
	assert.False(t, v.ShouldAutoValidate(strings.Repeat("k", 38)))
	assert.True(t, v.ShouldAutoValidate(strings.Repeat("k", 39)))
	assert.True(t, v.ShouldAutoValidate(strings.Repeat("k", 45)))

	off := NewValidator(nil, keystore.NewMemorySlot(""), zerolog.Nop(), 0)
	assert.False(t, off.ShouldAutoValidate(strings.Repeat("k", 100)))
}
