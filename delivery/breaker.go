package delivery

import (
	"context"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerConfig struct {
	Failures uint32        `envconfig:"DELIVERY_BREAKER_FAILURES" default:"5"`
	Cooldown time.Duration `envconfig:"DELIVERY_BREAKER_COOLDOWN" default:"60s"`
}

func BreakerConfigProvider() (BreakerConfig, error) {
	config := BreakerConfig{}
	err := envconfig.Process("", &config)
	return config, err
}

// breakerChannel stops calling a channel after consecutive failures until the cooldown passes
type breakerChannel struct {
	channel Channel
	breaker *gobreaker.CircuitBreaker[Result]
}

// WithBreaker wraps channel in a circuit breaker. A zero failure threshold disables it.
func WithBreaker(channel Channel, config BreakerConfig, logger *zap.SugaredLogger) Channel {
	if config.Failures == 0 {
		return channel
	}
	settings := gobreaker.Settings{
		Name:        channel.Name(),
		MaxRequests: 1,
		Timeout:     config.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.Failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnw("delivery breaker changed state", "channel", name, "from", from.String(), "to", to.String())
		},
	}
	return &breakerChannel{
		channel: channel,
		breaker: gobreaker.NewCircuitBreaker[Result](settings),
	}
}

func (b *breakerChannel) Name() string {
	return b.channel.Name()
}

func (b *breakerChannel) Deliver(ctx context.Context, msg Message) Result {
	result, err := b.breaker.Execute(func() (Result, error) {
		result := b.channel.Deliver(ctx, msg)
		return result, result.Err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Result{Channel: b.channel.Name(), Err: errors.Wrapf(err, "%s channel short-circuited", b.channel.Name())}
	}
	return result
}

func (b *breakerChannel) State() gobreaker.State {
	return b.breaker.State()
}
