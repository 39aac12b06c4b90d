package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/supplylink/supplylink/internal/shared"
)

func newTestTokenStore(t *testing.T, ttl time.Duration) (*TokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewTokenStore(client, ttl), mr
}

func TestIssueAndLookup(t *testing.T) {
	store, _ := newTestTokenStore(t, time.Hour)
	actor := shared.Actor{UserID: "u1", Role: shared.RoleVendor, VendorID: "v1"}

	token, err := store.Issue(context.Background(), actor)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := store.Lookup(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, actor, *resolved)
}

func TestLookupUnknownToken(t *testing.T) {
	store, _ := newTestTokenStore(t, time.Hour)

	_, err := store.Lookup(context.Background(), "nope")
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = store.Lookup(context.Background(), "")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestLookupExpiredToken(t *testing.T) {
	store, mr := newTestTokenStore(t, time.Minute)
	token, err := store.Issue(context.Background(), shared.Actor{UserID: "u1", Role: shared.RoleAdmin})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Lookup(context.Background(), token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestLookupRefreshesTTL(t *testing.T) {
	store, mr := newTestTokenStore(t, time.Minute)
	token, err := store.Issue(context.Background(), shared.Actor{UserID: "u1", Role: shared.RoleAdmin})
	require.NoError(t, err)

	// Touch the token just before expiry; the sliding TTL keeps it alive.
	mr.FastForward(50 * time.Second)
	_, err = store.Lookup(context.Background(), token)
	require.NoError(t, err)

	mr.FastForward(50 * time.Second)
	_, err = store.Lookup(context.Background(), token)
	require.NoError(t, err)
}

func TestRevoke(t *testing.T) {
	store, _ := newTestTokenStore(t, time.Hour)
	token, err := store.Issue(context.Background(), shared.Actor{UserID: "u1", Role: shared.RoleAdmin})
	require.NoError(t, err)

	require.NoError(t, store.Revoke(context.Background(), token))
	_, err = store.Lookup(context.Background(), token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	// Revoking an empty token is a no-op.
	require.NoError(t, store.Revoke(context.Background(), ""))
}
