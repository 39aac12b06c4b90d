package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/supplylink/supplylink/internal/shared"
)

// TokenStore keeps bearer tokens in Redis with a sliding TTL.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

type tokenPayload struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	VendorID string `json:"vendor_id,omitempty"`
}

// TTL reports the configured token lifetime.
func (s *TokenStore) TTL() time.Duration {
	return s.ttl
}

// Issue creates a token for the actor and stores it.
func (s *TokenStore) Issue(ctx context.Context, actor shared.Actor) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	payload, err := json.Marshal(tokenPayload{UserID: actor.UserID, Role: string(actor.Role), VendorID: actor.VendorID})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.redisKey(token), payload, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Lookup resolves a token into the actor it was issued for and refreshes
// its TTL. Unknown or expired tokens map to ErrUnauthorized.
func (s *TokenStore) Lookup(ctx context.Context, token string) (*shared.Actor, error) {
	if token == "" {
		return nil, shared.ErrUnauthorized
	}
	data, err := s.client.Get(ctx, s.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}
	var payload tokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	_ = s.client.Expire(ctx, s.redisKey(token), s.ttl).Err()
	return &shared.Actor{UserID: payload.UserID, Role: shared.Role(payload.Role), VendorID: payload.VendorID}, nil
}

// Revoke deletes a token.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.client.Del(ctx, s.redisKey(token)).Err()
}

func (s *TokenStore) redisKey(token string) string {
	return "supplylink:token:" + token
}
