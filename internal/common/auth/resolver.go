// internal/common/auth/resolver.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"farmstand-realtime/internal/common/errors"
	"farmstand-realtime/internal/models"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// Resolver maps a handshake identity token to a user identity. It is the
// gateway's view of the external identity collaborator.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*models.Identity, error)
}

// RedisResolver resolves tokens against session documents the marketplace
// writes to Redis at login.
type RedisResolver struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisResolver creates a resolver backed by the given Redis client.
func NewRedisResolver(client *redis.Client) *RedisResolver {
	return &RedisResolver{
		client:  client,
		timeout: 3 * time.Second,
	}
}

// Resolve looks up the session document for token. A missing or malformed
// session yields Unauthorized; a Redis failure yields a retryable
// IdentityResolutionFailed so callers can distinguish bad credentials from a
// sick collaborator.
func (r *RedisResolver) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, errors.NewMissingTokenError()
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err == redis.Nil {
		return nil, errors.NewUnauthorizedError("no session for token")
	}
	if err != nil {
		return nil, errors.NewIdentityResolutionFailedError(err)
	}

	var identity models.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil, errors.NewUnauthorizedError(fmt.Sprintf("corrupt session document: %v", err))
	}

	if identity.UserID == "" || !models.ValidRole(string(identity.Role)) {
		return nil, errors.NewUnauthorizedError("session missing user id or role")
	}

	return &identity, nil
}
