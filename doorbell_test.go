package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindo-app/doorbell/api"
	sc "github.com/kindo-app/doorbell/clients"
	"github.com/kindo-app/doorbell/clients/backend"
	"github.com/kindo-app/doorbell/testutil"
)

func TestNotifierProvider(t *testing.T) {
	logger := testutil.NewLogger(t)
	backendClient := backend.NewClientBuilder().WithHost("https://project.example.co").WithServiceKey("key").Build()

	notifier, err := notifierProvider(api.Config{MailTransport: api.MailTransportBackend}, backendClient, logger)
	require.NoError(t, err)
	assert.Same(t, backendClient, notifier)

	notifier, err = notifierProvider(api.Config{MailTransport: api.MailTransportNull}, backendClient, logger)
	require.NoError(t, err)
	assert.IsType(t, &sc.NullNotifier{}, notifier)

	_, err = notifierProvider(api.Config{MailTransport: "pigeon"}, backendClient, logger)
	assert.EqualError(t, err, `unknown mail transport "pigeon"`)
}

func TestRelayProviderOnlyInRelayMode(t *testing.T) {
	relay, err := relayProvider(api.Config{SendMode: api.SendModeSimulate}, testutil.NewLogger(t))
	require.NoError(t, err)
	assert.Nil(t, relay)
}

func TestRelayProviderWithoutCredentials(t *testing.T) {
	t.Setenv("SMTP_HOSTNAME", "")
	relay, err := relayProvider(api.Config{SendMode: api.SendModeRelay}, testutil.NewLogger(t))
	require.NoError(t, err)
	assert.Nil(t, relay)
}

func TestDoorbellClientProviderDefaultsToBackendFunctions(t *testing.T) {
	client := doorbellClientProvider(OutboundConfig{}, backend.Config{URL: "https://project.example.co/", ServiceRoleKey: "key"})
	assert.NotNil(t, client)
}
