package oras

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/registry/remote/auth"
)

func TestStaticCredentials(t *testing.T) {
	// No t.Parallel() - subtests share store
	store := StaticCredentials("registry.example.com", "user", "pass")
	require.NotNil(t, store)

	ctx := context.Background()

	t.Run("matching registry returns credentials", func(t *testing.T) {
		cred, err := store.Get(ctx, "registry.example.com")
		require.NoError(t, err)
		assert.Equal(t, "user", cred.Username)
		assert.Equal(t, "pass", cred.Password)
		assert.Empty(t, cred.AccessToken)
	})

	t.Run("non-matching registry returns empty", func(t *testing.T) {
		cred, err := store.Get(ctx, "other.example.com")
		require.NoError(t, err)
		assert.Equal(t, auth.EmptyCredential, cred)
	})

	t.Run("scheme and path are ignored when matching", func(t *testing.T) {
		cred, err := store.Get(ctx, "https://registry.example.com/v2/")
		require.NoError(t, err)
		assert.Equal(t, "user", cred.Username)
	})

	t.Run("Put returns error", func(t *testing.T) {
		err := store.Put(ctx, "registry.example.com", auth.Credential{})
		assert.Error(t, err)
	})

	t.Run("Delete returns error", func(t *testing.T) {
		err := store.Delete(ctx, "registry.example.com")
		assert.Error(t, err)
	})
}

func TestStaticToken(t *testing.T) {
	// No t.Parallel() - subtests share store
	store := StaticToken("localhost:5000", "my-token")
	require.NotNil(t, store)

	ctx := context.Background()

	t.Run("matching registry returns token", func(t *testing.T) {
		cred, err := store.Get(ctx, "localhost:5000")
		require.NoError(t, err)
		assert.Equal(t, "my-token", cred.AccessToken)
		assert.Empty(t, cred.Username)
		assert.Empty(t, cred.Password)
	})

	t.Run("same host different port does not match", func(t *testing.T) {
		cred, err := store.Get(ctx, "localhost:5001")
		require.NoError(t, err)
		assert.Equal(t, auth.EmptyCredential, cred)
	})
}

func TestNormalizeServerAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want string
	}{
		{"registry.example.com", "registry.example.com"},
		{"https://registry.example.com", "registry.example.com"},
		{"http://registry.example.com", "registry.example.com"},
		{"https://registry.example.com/v2/", "registry.example.com"},
		{"localhost:5000", "localhost:5000"},
		{"http://localhost:5000/v2/spans/app", "localhost:5000"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, normalizeServerAddress(tt.addr))
		})
	}
}
