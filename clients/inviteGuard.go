package clients

import (
	"context"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kindo-app/doorbell/models"
)

const inviteLockPrefix = "doorbell:invite:"

type GuardConfig struct {
	Address  string        `envconfig:"REDIS_ADDRESS"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	LockTTL  time.Duration `envconfig:"INVITE_LOCK_TTL" default:"2m"`
}

func (c GuardConfig) Enabled() bool {
	return c.Address != ""
}

func GuardConfigProvider() (GuardConfig, error) {
	var config GuardConfig
	if err := envconfig.Process("", &config); err != nil {
		return GuardConfig{}, err
	}
	return config, nil
}

// RedisInviteGuard holds a short-lived lock per email while an invitation runs.
// It does not make repeated invitations idempotent: once released, the next
// request for the same email provisions again.
type RedisInviteGuard struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewRedisInviteGuard(client redis.UniversalClient, ttl time.Duration, logger *zap.SugaredLogger) *RedisInviteGuard {
	return &RedisInviteGuard{client: client, ttl: ttl, logger: logger}
}

func NewRedisClient(config GuardConfig) redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})
}

func inviteLockKey(email string) string {
	return inviteLockPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Acquire returns models.ErrInviteInProgress when the lock is already held
func (g *RedisInviteGuard) Acquire(ctx context.Context, email string) (func(), error) {
	key := inviteLockKey(email)
	locked, err := g.client.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		return nil, errors.Wrap(err, "acquiring invite lock")
	}
	if !locked {
		return nil, models.ErrInviteInProgress
	}
	return func() {
		// the request context may already be gone; the lock must still be dropped
		if err := g.client.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
			g.logger.With(zap.Error(err), zap.String("key", key)).Warn("releasing invite lock")
		}
	}, nil
}

func (g *RedisInviteGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

// NoopInviteGuard lets every invitation through
type NoopInviteGuard struct{}

func (NoopInviteGuard) Acquire(ctx context.Context, email string) (func(), error) {
	return func() {}, nil
}
