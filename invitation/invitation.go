// Package invitation provisions an invited family member and gets an action link to them.
//
// The steps run strictly in order and each one depends on the previous one:
// provision the identity, record the profile and the family membership, issue a
// recovery link, then fan the link out over the delivery channels. Nothing done
// before a failure is rolled back; a reconciliation record is written instead.
package invitation

//go:generate mockgen -destination=mock_invitation/mock_invitation.go -package=mock_invitation github.com/kindo-app/doorbell/invitation AccountProvisioner,MembershipRecorder,LinkIssuer,Deliverer,Guard,Reconciler

import (
	"context"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kindo-app/doorbell/delivery"
	"github.com/kindo-app/doorbell/metrics"
	"github.com/kindo-app/doorbell/models"
)

type (
	Config struct {
		SiteURL          string        `envconfig:"SITE_URL" required:"true"`
		CallTimeout      time.Duration `envconfig:"INVITE_CALL_TIMEOUT" default:"10s"`
		CredentialLength int           `envconfig:"INVITE_CREDENTIAL_LENGTH" default:"16"`
	}

	AccountProvisioner interface {
		Provision(ctx context.Context, invitee models.Invitee, password string) (*models.ProvisionedIdentity, error)
	}

	MembershipRecorder interface {
		RecordProfile(ctx context.Context, profile *models.Profile) error
		RecordFamilyMember(ctx context.Context, member *models.FamilyMember) error
	}

	LinkIssuer interface {
		IssueLink(ctx context.Context, request models.LinkRequest) (*models.ActionLink, error)
	}

	Deliverer interface {
		Dispatch(ctx context.Context, msg delivery.Message) (delivery.Outcome, error)
	}

	// Guard serializes invitations for the same email. Acquire returns
	// models.ErrInviteInProgress while another invitation holds the email.
	Guard interface {
		Acquire(ctx context.Context, email string) (func(), error)
	}

	Reconciler interface {
		InsertReconciliation(ctx context.Context, reconciliation *models.Reconciliation) error
	}

	// Invitation is the result of a successful invite
	Invitation struct {
		UserID     string
		ResetLink  string
		Deliveries delivery.Outcome
	}

	Workflow struct {
		config      Config
		provisioner AccountProvisioner
		recorder    MembershipRecorder
		issuer      LinkIssuer
		deliverer   Deliverer
		guard       Guard
		reconciler  Reconciler
		metrics     *metrics.Metrics
		logger      *zap.SugaredLogger
	}

	Params struct {
		fx.In

		Config      Config
		Provisioner AccountProvisioner
		Recorder    MembershipRecorder
		Issuer      LinkIssuer
		Deliverer   Deliverer
		Guard       Guard
		Reconciler  Reconciler
		Metrics     *metrics.Metrics
		Logger      *zap.SugaredLogger
	}
)

func ConfigProvider() (Config, error) {
	config := Config{}
	err := envconfig.Process("", &config)
	return config, err
}

func NewWorkflow(p Params) *Workflow {
	if p.Config.CredentialLength <= 0 {
		p.Config.CredentialLength = models.DefaultCredentialLength
	}
	return &Workflow{
		config:      p.Config,
		provisioner: p.Provisioner,
		recorder:    p.Recorder,
		issuer:      p.Issuer,
		deliverer:   p.Deliverer,
		guard:       p.Guard,
		reconciler:  p.Reconciler,
		metrics:     p.Metrics,
		logger:      p.Logger,
	}
}

var Module = fx.Options(
	fx.Provide(ConfigProvider),
	fx.Provide(NewWorkflow),
)
