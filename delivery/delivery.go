// Package delivery attempts to reach a recipient over several independent channels.
// A channel never aborts its siblings: every channel is tried, in order, and each
// returns a Result instead of failing the whole fan-out.
package delivery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kindo-app/doorbell/metrics"
	"github.com/kindo-app/doorbell/models"
)

type (
	// Message is what gets delivered. Template and Content are used by channels that
	// render a body; the others only need the address, name and link.
	Message struct {
		Email     string
		Name      string
		ResetLink string
		Template  models.TemplateName
		Content   interface{}
	}

	Result struct {
		Channel string
		Status  int
		Err     error
	}

	Channel interface {
		Name() string
		Deliver(ctx context.Context, msg Message) Result
	}

	// Outcome lists the results of a fan-out in channel order
	Outcome struct {
		Results []Result
	}

	// Policy turns an outcome into the aggregate error reported to the caller
	Policy func(Outcome) error

	Dispatcher struct {
		channels []Channel
		policy   Policy
		timeout  time.Duration
		logger   *zap.SugaredLogger
		metrics  *metrics.Metrics
	}
)

func (r Result) OK() bool {
	return r.Err == nil
}

// Succeeded reports whether at least one channel delivered
func (o Outcome) Succeeded() bool {
	for _, result := range o.Results {
		if result.OK() {
			return true
		}
	}
	return false
}

// FirstError returns the error of the earliest failed channel
func (o Outcome) FirstError() error {
	for _, result := range o.Results {
		if !result.OK() {
			return result.Err
		}
	}
	return nil
}

// BestEffort never fails: delivery problems are logged and counted only.
func BestEffort(Outcome) error {
	return nil
}

// AnySucceeds fails only when no channel delivered, with the first error encountered.
func AnySucceeds(outcome Outcome) error {
	if outcome.Succeeded() {
		return nil
	}
	if err := outcome.FirstError(); err != nil {
		return err
	}
	return fmt.Errorf("no delivery channel configured")
}

// NewDispatcher builds a dispatcher trying channels in the given order. A positive
// timeout bounds each channel individually.
func NewDispatcher(policy Policy, timeout time.Duration, logger *zap.SugaredLogger, m *metrics.Metrics, channels ...Channel) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		policy:   policy,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
	}
}

// Dispatch runs every channel and applies the policy to the outcome
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) (Outcome, error) {
	outcome := FanOut(ctx, msg, d.timeout, d.channels...)
	for _, result := range outcome.Results {
		if d.metrics != nil {
			d.metrics.RecordDelivery(result.Channel, result.Err)
		}
		if result.OK() {
			d.logger.Infow("delivered", "channel", result.Channel, "to", msg.Email)
		} else {
			d.logger.Warnw("delivery failed", "channel", result.Channel, "to", msg.Email, "status", result.Status, zap.Error(result.Err))
		}
	}
	return outcome, d.policy(outcome)
}

// FanOut attempts every channel in order regardless of earlier results.
func FanOut(ctx context.Context, msg Message, timeout time.Duration, channels ...Channel) Outcome {
	outcome := Outcome{Results: make([]Result, 0, len(channels))}
	for _, channel := range channels {
		outcome.Results = append(outcome.Results, attempt(ctx, msg, timeout, channel))
	}
	return outcome
}

func attempt(ctx context.Context, msg Message, timeout time.Duration, channel Channel) (result Result) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			result = Result{Channel: channel.Name(), Err: fmt.Errorf("channel %s panicked: %v", channel.Name(), r)}
		}
	}()
	result = channel.Deliver(ctx, msg)
	if result.Channel == "" {
		result.Channel = channel.Name()
	}
	return result
}
