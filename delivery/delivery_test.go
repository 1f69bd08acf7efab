package delivery

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindo-app/doorbell/clients"
	"github.com/kindo-app/doorbell/metrics"
	"github.com/kindo-app/doorbell/models"
	"github.com/kindo-app/doorbell/templates"
	dbtestutil "github.com/kindo-app/doorbell/testutil"
)

type stubChannel struct {
	name  string
	err   error
	panic bool
	calls int
	ctxs  []context.Context
}

func (s *stubChannel) Name() string { return s.name }

func (s *stubChannel) Deliver(ctx context.Context, msg Message) Result {
	s.calls++
	s.ctxs = append(s.ctxs, ctx)
	if s.panic {
		panic("boom")
	}
	return Result{Channel: s.name, Err: s.err}
}

type stubFunctionClient struct {
	requests []models.SendInvitationRequest
	status   int
	err      error
}

func (s *stubFunctionClient) SendInvitation(ctx context.Context, request models.SendInvitationRequest) (int, error) {
	s.requests = append(s.requests, request)
	return s.status, s.err
}

func (s *stubFunctionClient) TestDelivery(ctx context.Context, email string) (*models.TestDeliveryResponse, error) {
	return nil, errors.New("not used")
}

type stubIssuer struct {
	requests []models.LinkRequest
	link     *models.ActionLink
	err      error
}

func (s *stubIssuer) IssueLink(ctx context.Context, request models.LinkRequest) (*models.ActionLink, error) {
	s.requests = append(s.requests, request)
	return s.link, s.err
}

var firstErr = errors.New("first failure")
var secondErr = errors.New("second failure")

func TestPolicies(t *testing.T) {
	type toTest struct {
		desc        string
		channels    []*stubChannel
		bestEffort  error
		anySucceeds error
	}
	tests := []toTest{
		{
			desc:     "both succeed",
			channels: []*stubChannel{{name: "a"}, {name: "b"}},
		},
		{
			desc:     "first fails, second succeeds",
			channels: []*stubChannel{{name: "a", err: firstErr}, {name: "b"}},
		},
		{
			desc:     "first succeeds, second fails",
			channels: []*stubChannel{{name: "a"}, {name: "b", err: secondErr}},
		},
		{
			desc:        "both fail reports the first error",
			channels:    []*stubChannel{{name: "a", err: firstErr}, {name: "b", err: secondErr}},
			anySucceeds: firstErr,
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			channels := make([]Channel, 0, len(test.channels))
			for _, channel := range test.channels {
				channels = append(channels, channel)
			}
			outcome := FanOut(context.Background(), Message{Email: "a@b.com"}, 0, channels...)

			require.Len(t, outcome.Results, len(test.channels))
			for _, channel := range test.channels {
				assert.Equal(t, 1, channel.calls, "channel %s should be attempted once", channel.name)
			}
			assert.Equal(t, test.bestEffort, BestEffort(outcome))
			assert.Equal(t, test.anySucceeds, AnySucceeds(outcome))
		})
	}
}

func TestAnySucceedsWithoutChannels(t *testing.T) {
	assert.Error(t, AnySucceeds(Outcome{}))
}

func TestFanOutRecoversPanics(t *testing.T) {
	panicking := &stubChannel{name: "a", panic: true}
	after := &stubChannel{name: "b"}

	outcome := FanOut(context.Background(), Message{}, 0, panicking, after)

	require.Len(t, outcome.Results, 2)
	assert.EqualError(t, outcome.Results[0].Err, "channel a panicked: boom")
	assert.True(t, outcome.Results[1].OK())
	assert.Equal(t, 1, after.calls)
}

func TestFanOutBoundsEachChannel(t *testing.T) {
	first := &stubChannel{name: "a"}
	second := &stubChannel{name: "b"}

	FanOut(context.Background(), Message{}, time.Second, first, second)

	for _, channel := range []*stubChannel{first, second} {
		deadline, ok := channel.ctxs[0].Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
	}
}

func TestDispatcher(t *testing.T) {
	logger, logs := dbtestutil.NewObservedLogger(t)
	m := metrics.NewNop()
	failing := &stubChannel{name: "direct", err: firstErr}
	working := &stubChannel{name: "function"}

	dispatcher := NewDispatcher(BestEffort, 0, logger, m, failing, working)
	outcome, err := dispatcher.Dispatch(context.Background(), Message{Email: "a@b.com"})

	assert.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	dbtestutil.RequireLogged(t, logs, "delivery failed")
	dbtestutil.RequireLogged(t, logs, "delivered")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DeliveryAttemptsTotal.WithLabelValues("direct", "failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DeliveryAttemptsTotal.WithLabelValues("function", "success")))
}

func TestNotifierChannel(t *testing.T) {
	tmpls, err := templates.New()
	require.NoError(t, err)
	msg := Message{
		Email:    "a@b.com",
		Template: models.TemplateNameInvitation,
		Content:  map[string]interface{}{"Name": "Ann", "ResetLink": "https://x/verify", "ExpiresInDays": 7},
	}

	notifier := clients.NewMockNotifier()
	result := NewNotifierChannel(ChannelDirect, notifier, tmpls).Deliver(context.Background(), msg)
	assert.True(t, result.OK())
	assert.Equal(t, "You've been invited to KinDo", notifier.GetLastEmailSubject())
	assert.Equal(t, []string{"a@b.com"}, notifier.Sent()[0].To)

	failing := clients.NewFailingMockNotifier(http.StatusInternalServerError, "relay refused")
	result = NewNotifierChannel(ChannelDirect, failing, tmpls).Deliver(context.Background(), msg)
	assert.EqualError(t, result.Err, "relay refused")
	assert.Equal(t, http.StatusInternalServerError, result.Status)

	msg.Template = models.TemplateNameUndefined
	result = NewNotifierChannel(ChannelDirect, notifier, tmpls).Deliver(context.Background(), msg)
	assert.Error(t, result.Err)
	assert.Len(t, notifier.Sent(), 1)
}

func TestFunctionChannel(t *testing.T) {
	client := &stubFunctionClient{status: http.StatusOK}
	result := NewFunctionChannel(client).Deliver(context.Background(), Message{Email: "a@b.com", Name: "Ann", ResetLink: "https://x/verify"})

	assert.True(t, result.OK())
	assert.Equal(t, ChannelFunction, result.Channel)
	require.Len(t, client.requests, 1)
	assert.Equal(t, models.SendInvitationRequest{Email: "a@b.com", Name: "Ann", ResetLink: "https://x/verify"}, client.requests[0])

	client.status, client.err = http.StatusBadGateway, secondErr
	result = NewFunctionChannel(client).Deliver(context.Background(), Message{Email: "a@b.com"})
	assert.Equal(t, secondErr, result.Err)
	assert.Equal(t, http.StatusBadGateway, result.Status)
}

func TestLinkChannel(t *testing.T) {
	issuer := &stubIssuer{link: &models.ActionLink{URL: "https://x/verify"}}
	result := NewLinkChannel(issuer, "https://kindo.example/").Deliver(context.Background(), Message{Email: "a@b.com"})

	assert.True(t, result.OK())
	require.Len(t, issuer.requests, 1)
	assert.Equal(t, models.LinkTypeRecovery, issuer.requests[0].Type)
	assert.Equal(t, "https://kindo.example/reset-password?email=a@b.com", issuer.requests[0].RedirectTo)

	issuer.link = &models.ActionLink{}
	assert.Error(t, NewLinkChannel(issuer, "").Deliver(context.Background(), Message{Email: "a@b.com"}).Err)

	issuer.err = firstErr
	assert.Equal(t, firstErr, NewLinkChannel(issuer, "").Deliver(context.Background(), Message{Email: "a@b.com"}).Err)
}

func TestBreakerShortCircuits(t *testing.T) {
	failing := &stubChannel{name: "direct", err: firstErr}
	channel := WithBreaker(failing, BreakerConfig{Failures: 2, Cooldown: time.Minute}, dbtestutil.NewLogger(t))

	assert.Equal(t, firstErr, channel.Deliver(context.Background(), Message{}).Err)
	assert.Equal(t, firstErr, channel.Deliver(context.Background(), Message{}).Err)
	assert.Equal(t, gobreaker.StateOpen, channel.(*breakerChannel).State())

	result := channel.Deliver(context.Background(), Message{})
	assert.ErrorIs(t, result.Err, gobreaker.ErrOpenState)
	assert.Equal(t, "direct", result.Channel)
	assert.Equal(t, 2, failing.calls, "an open breaker must not call the transport")
}

func TestBreakerDisabled(t *testing.T) {
	channel := &stubChannel{name: "direct"}
	assert.Same(t, channel, WithBreaker(channel, BreakerConfig{}, dbtestutil.NewLogger(t)))
}
