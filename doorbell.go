package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kindo-app/doorbell/api"
	sc "github.com/kindo-app/doorbell/clients"
	"github.com/kindo-app/doorbell/clients/backend"
	"github.com/kindo-app/doorbell/clients/doorbell"
	"github.com/kindo-app/doorbell/clients/membership"
	"github.com/kindo-app/doorbell/delivery"
	"github.com/kindo-app/doorbell/invitation"
	"github.com/kindo-app/doorbell/metrics"
	"github.com/kindo-app/doorbell/models"
	"github.com/kindo-app/doorbell/templates"
)

var defaultStopTimeout = 60 * time.Second

type (
	// OutboundConfig contains how doorbell reaches its own functions
	OutboundConfig struct {
		FunctionsURL string `split_words:"true"`
	}

	//InboundConfig describes how to receive inbound communication
	InboundConfig struct {
		ListenAddress string `split_words:"true" required:"true"`
	}
)

func configProvider() (OutboundConfig, error) {
	var config OutboundConfig
	err := envconfig.Process("doorbell", &config)
	if err != nil {
		return OutboundConfig{}, err
	}
	return config, nil
}

func serviceConfigProvider() (InboundConfig, error) {
	var config InboundConfig
	err := envconfig.Process("service", &config)
	if err != nil {
		return InboundConfig{}, err
	}
	return config, nil
}

func emailTemplateProvider() (models.Templates, error) {
	emailTemplates, err := templates.New()
	return emailTemplates, err
}

func serverProvider(config InboundConfig, rtr *mux.Router) *http.Server {
	return &http.Server{
		Addr:    config.ListenAddress,
		Handler: rtr,
	}
}

func loggerProvider() (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	config.EncoderConfig.FunctionKey = "function"
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// notifierProvider picks the direct mail transport. Only the selected transport
// reads its configuration.
func notifierProvider(config api.Config, backendClient *backend.Client, logger *zap.SugaredLogger) (sc.Notifier, error) {
	switch config.MailTransport {
	case api.MailTransportBackend:
		return backendClient, nil
	case api.MailTransportSES:
		sesConfig, err := sc.SesNotifierConfigProvider()
		if err != nil {
			return nil, err
		}
		return sc.NewSesNotifier(sesConfig, logger)
	case api.MailTransportSMTP:
		smtpConfig, err := sc.SMTPNotifierConfigProvider()
		if err != nil {
			return nil, err
		}
		if !smtpConfig.IsValid() {
			return nil, errors.New("smtp transport selected without SMTP_HOSTNAME, SMTP_USERNAME and SMTP_PASSWORD")
		}
		return sc.NewSMTPNotifier(smtpConfig), nil
	case api.MailTransportNull:
		return sc.NewNullNotifier(logger), nil
	default:
		return nil, errors.Errorf("unknown mail transport %q", config.MailTransport)
	}
}

// relayProvider returns nil unless send-invitation runs in relay mode. A relay
// without credentials is left nil so the handler reports it as not configured.
func relayProvider(config api.Config, logger *zap.SugaredLogger) (api.Relay, error) {
	if config.SendMode != api.SendModeRelay {
		return nil, nil
	}
	smtpConfig, err := sc.SMTPNotifierConfigProvider()
	if err != nil {
		return nil, err
	}
	if !smtpConfig.IsValid() {
		logger.Warnw("relay mode without smtp credentials", "hostname", smtpConfig.Hostname)
		return nil, nil
	}
	return sc.NewSMTPNotifier(smtpConfig), nil
}

func doorbellClientProvider(config OutboundConfig, backendConfig backend.Config) doorbell.ClientInterface {
	host := config.FunctionsURL
	if host == "" {
		host = strings.TrimRight(backendConfig.URL, "/") + "/functions/v1"
	}
	return doorbell.NewClientBuilder().
		WithHost(host).
		WithToken(backendConfig.ServiceRoleKey).
		WithHTTPClient(&http.Client{Timeout: backendConfig.Timeout}).
		Build()
}

func guardProvider(lc fx.Lifecycle, config sc.GuardConfig, logger *zap.SugaredLogger) invitation.Guard {
	if !config.Enabled() {
		return sc.NoopInviteGuard{}
	}
	client := sc.NewRedisClient(config)
	guard := sc.NewRedisInviteGuard(client, config.LockTTL, logger)
	lc.Append(fx.Hook{
		OnStart: guard.Ping,
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return guard
}

func recorderProvider(lc fx.Lifecycle, config membership.Config, backendClient *backend.Client, logger *zap.SugaredLogger) (invitation.MembershipRecorder, error) {
	if !config.Enabled() {
		return backendClient, nil
	}
	recorder, err := membership.Open(config, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: recorder.Ping,
		OnStop: func(ctx context.Context) error {
			return recorder.Close()
		},
	})
	return recorder, nil
}

func provisionerProvider(backendClient *backend.Client) invitation.AccountProvisioner {
	return backendClient
}

func issuerProvider(backendClient *backend.Client) invitation.LinkIssuer {
	return backendClient
}

func reconcilerProvider(store sc.StoreClient) invitation.Reconciler {
	return store
}

func inviterProvider(workflow *invitation.Workflow) api.Inviter {
	return workflow
}

// DeliveryParams are the collaborators shared by the invitation and probe dispatchers
type DeliveryParams struct {
	fx.In

	Notifier   sc.Notifier
	Functions  doorbell.ClientInterface
	Backend    *backend.Client
	Templates  models.Templates
	Invitation invitation.Config
	Breaker    delivery.BreakerConfig
	Metrics    *metrics.Metrics
	Logger     *zap.SugaredLogger
}

// delivererProvider fans the invitation out over the direct transport and the
// send-invitation function. Neither failure fails the invitation.
func delivererProvider(p DeliveryParams) invitation.Deliverer {
	return delivery.NewDispatcher(delivery.BestEffort, p.Invitation.CallTimeout, p.Logger, p.Metrics,
		delivery.WithBreaker(delivery.NewNotifierChannel(delivery.ChannelDirect, p.Notifier, p.Templates), p.Breaker, p.Logger),
		delivery.WithBreaker(delivery.NewFunctionChannel(p.Functions), p.Breaker, p.Logger),
	)
}

// proberProvider tries the direct transport and a recovery link; one success is enough.
func proberProvider(p DeliveryParams) api.Prober {
	return delivery.NewDispatcher(delivery.AnySucceeds, p.Invitation.CallTimeout, p.Logger, p.Metrics,
		delivery.NewNotifierChannel(delivery.ChannelDirect, p.Notifier, p.Templates),
		delivery.NewLinkChannel(p.Backend, p.Invitation.SiteURL),
	)
}

// InvocationParams are the parameters need to kick off a service
type InvocationParams struct {
	fx.In
	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Config     InboundConfig
	Server     *http.Server
}

func startServer(p InvocationParams) {
	p.Lifecycle.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Printf("Server error: %v", err)
						log.Printf("Shutting down the service")
						if shutdownErr := p.Shutdowner.Shutdown(); shutdownErr != nil {
							log.Printf("Failed to shutdown: %v", shutdownErr)
						}
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return p.Server.Shutdown(ctx)
			},
		},
	)
}

func main() {
	fx.New(
		backend.Module,
		sc.MongoModule,
		metrics.Module,
		invitation.Module,
		api.RouterModule,
		fx.Provide(
			sc.GuardConfigProvider,
			membership.ConfigProvider,
			delivery.BreakerConfigProvider,
			api.ConfigProvider,
		),
		fx.Provide(
			configProvider,
			serviceConfigProvider,
			emailTemplateProvider,
			serverProvider,
			loggerProvider,
			notifierProvider,
			relayProvider,
			doorbellClientProvider,
			guardProvider,
			recorderProvider,
			provisionerProvider,
			issuerProvider,
			reconcilerProvider,
			inviterProvider,
			delivererProvider,
			proberProvider,
		),
		fx.Invoke(startServer),
		fx.StopTimeout(defaultStopTimeout),
	).Run()
}
