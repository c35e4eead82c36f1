package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-gin-event-tickets/internal/identity"
	apperrors "go-gin-event-tickets/pkg/app_errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func signToken(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func TestExtractBearer(t *testing.T) {
	token, err := identity.ExtractBearer("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	token, err = identity.ExtractBearer("bearer   abc.def ")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	for _, header := range []string{"", "abc.def", "Basic abc", "Bearer "} {
		_, err := identity.ExtractBearer(header)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "header %q", header)
	}
}

func TestHMACVerifier(t *testing.T) {
	ctx := context.Background()
	v, err := identity.NewHMACVerifier(secret, "preferred_username")
	require.NoError(t, err)

	t.Run("username claim", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		token := signToken(t, secret, jwt.MapClaims{"preferred_username": "alice", "sub": "uuid-1", "exp": exp.Unix()})

		id, err := v.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "alice", id.Username)
		assert.True(t, exp.Equal(id.ExpiresAt))
	})

	t.Run("falls back to subject", func(t *testing.T) {
		token := signToken(t, secret, jwt.MapClaims{"sub": "bob"})

		username, err := identity.NewResolver(v).ResolveUsername(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "bob", username)
	})

	t.Run("rejects", func(t *testing.T) {
		cases := map[string]string{
			"wrong secret": signToken(t, "other", jwt.MapClaims{"sub": "alice"}),
			"expired":      signToken(t, secret, jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(-time.Minute).Unix()}),
			"no username":  signToken(t, secret, jwt.MapClaims{"scope": "read"}),
			"malformed":    "not-a-jwt",
			"empty":        "",
		}
		for name, token := range cases {
			_, err := v.Verify(ctx, token)
			assert.ErrorIs(t, err, apperrors.ErrUnauthorized, name)
		}
	})

	t.Run("secret required", func(t *testing.T) {
		_, err := identity.NewHMACVerifier("", "preferred_username")
		assert.Error(t, err)
	})
}

type countingVerifier struct {
	calls int
	id    identity.Identity
	err   error
}

func (v *countingVerifier) Verify(ctx context.Context, credential string) (identity.Identity, error) {
	v.calls++
	return v.id, v.err
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCachedResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("second lookup hits cache", func(t *testing.T) {
		_, client := setupRedis(t)
		v := &countingVerifier{id: identity.Identity{Username: "alice", ExpiresAt: time.Now().Add(time.Hour)}}
		r := identity.NewCachedResolver(v, client, time.Minute)

		for i := 0; i < 3; i++ {
			username, err := r.ResolveUsername(ctx, "token-a")
			require.NoError(t, err)
			assert.Equal(t, "alice", username)
		}
		assert.Equal(t, 1, v.calls)
	})

	t.Run("entry expires with ttl", func(t *testing.T) {
		mr, client := setupRedis(t)
		v := &countingVerifier{id: identity.Identity{Username: "alice"}}
		r := identity.NewCachedResolver(v, client, time.Minute)

		_, err := r.ResolveUsername(ctx, "token-a")
		require.NoError(t, err)
		mr.FastForward(2 * time.Minute)
		_, err = r.ResolveUsername(ctx, "token-a")
		require.NoError(t, err)

		assert.Equal(t, 2, v.calls)
	})

	t.Run("ttl capped by token expiry", func(t *testing.T) {
		mr, client := setupRedis(t)
		v := &countingVerifier{id: identity.Identity{Username: "alice", ExpiresAt: time.Now().Add(10 * time.Second)}}
		r := identity.NewCachedResolver(v, client, time.Hour)

		_, err := r.ResolveUsername(ctx, "token-a")
		require.NoError(t, err)

		keys := mr.Keys()
		require.Len(t, keys, 1)
		assert.LessOrEqual(t, mr.TTL(keys[0]), 10*time.Second)
		assert.NotContains(t, keys[0], "token-a")
	})

	t.Run("failures are not cached", func(t *testing.T) {
		mr, client := setupRedis(t)
		v := &countingVerifier{err: apperrors.ErrUnauthorized}
		r := identity.NewCachedResolver(v, client, time.Minute)

		_, err := r.ResolveUsername(ctx, "bad")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		assert.Empty(t, mr.Keys())
	})

	t.Run("redis down falls through to verifier", func(t *testing.T) {
		mr, client := setupRedis(t)
		mr.Close()
		v := &countingVerifier{id: identity.Identity{Username: "alice"}}
		r := identity.NewCachedResolver(v, client, time.Minute)

		username, err := r.ResolveUsername(ctx, "token-a")
		require.NoError(t, err)
		assert.Equal(t, "alice", username)
	})

	t.Run("verifier error propagates", func(t *testing.T) {
		_, client := setupRedis(t)
		boom := errors.New("boom")
		r := identity.NewCachedResolver(&countingVerifier{err: boom}, client, time.Minute)

		_, err := r.ResolveUsername(ctx, "token-a")
		assert.ErrorIs(t, err, boom)
	})
}
