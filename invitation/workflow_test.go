package invitation_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindo-app/doorbell/clients"
	"github.com/kindo-app/doorbell/delivery"
	"github.com/kindo-app/doorbell/invitation"
	"github.com/kindo-app/doorbell/invitation/mock_invitation"
	"github.com/kindo-app/doorbell/metrics"
	"github.com/kindo-app/doorbell/models"
	"github.com/kindo-app/doorbell/templates"
	dbtestutil "github.com/kindo-app/doorbell/testutil"
)

const (
	siteURL    = "https://kindo.example"
	actionLink = "https://project.example.co/auth/v1/verify?token=abc&type=recovery&redirect_to=https://kindo.example/reset-password?email=a@b.com"
)

type fixture struct {
	provisioner *mock_invitation.MockAccountProvisioner
	recorder    *mock_invitation.MockMembershipRecorder
	issuer      *mock_invitation.MockLinkIssuer
	deliverer   *mock_invitation.MockDeliverer
	guard       *mock_invitation.MockGuard
	reconciler  *mock_invitation.MockReconciler
	metrics     *metrics.Metrics
	params      invitation.Params
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		provisioner: mock_invitation.NewMockAccountProvisioner(ctrl),
		recorder:    mock_invitation.NewMockMembershipRecorder(ctrl),
		issuer:      mock_invitation.NewMockLinkIssuer(ctrl),
		deliverer:   mock_invitation.NewMockDeliverer(ctrl),
		guard:       mock_invitation.NewMockGuard(ctrl),
		reconciler:  mock_invitation.NewMockReconciler(ctrl),
		metrics:     metrics.NewNop(),
	}
	f.params = invitation.Params{
		Config:      invitation.Config{SiteURL: siteURL, CredentialLength: models.DefaultCredentialLength},
		Provisioner: f.provisioner,
		Recorder:    f.recorder,
		Issuer:      f.issuer,
		Deliverer:   f.deliverer,
		Guard:       f.guard,
		Reconciler:  f.reconciler,
		Metrics:     f.metrics,
		Logger:      dbtestutil.NewLogger(t),
	}
	return f
}

func (f *fixture) workflow() *invitation.Workflow {
	return invitation.NewWorkflow(f.params)
}

func (f *fixture) expectGuard(email string) *bool {
	released := false
	f.guard.EXPECT().Acquire(gomock.Any(), email).Return(func() { released = true }, nil)
	return &released
}

func (f *fixture) outcomeCount(outcome string) float64 {
	return testutil.ToFloat64(f.metrics.InvitationsTotal.WithLabelValues(outcome))
}

func ptr[T any](v T) *T {
	return &v
}

var ann = models.InvitationRequest{Email: "a@b.com", Name: ptr("Ann"), FamilyID: "fam1"}

// stageMatcher matches a pending reconciliation for one stage
type stageMatcher models.Stage

func (m stageMatcher) Matches(x interface{}) bool {
	r, ok := x.(*models.Reconciliation)
	return ok && r.Stage == models.Stage(m) && r.Status == models.ReconciliationPending
}

func (m stageMatcher) String() string {
	return "pending reconciliation at stage " + string(m)
}

func stage(s models.Stage) gomock.Matcher {
	return stageMatcher(s)
}

func TestInviteRejectsMissingFieldsWithoutSideEffects(t *testing.T) {
	tests := []struct {
		desc    string
		request models.InvitationRequest
		message string
	}{
		{desc: "no email", request: models.InvitationRequest{FamilyID: "fam1"}, message: "Email is required"},
		{desc: "no family", request: models.InvitationRequest{Email: "a@b.com"}, message: "Family ID is required"},
		{desc: "nothing", request: models.InvitationRequest{}, message: "Email is required"},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			f := newFixture(t)

			result, err := f.workflow().Invite(context.Background(), test.request)

			assert.Nil(t, result)
			var validation *models.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, test.message, err.Error())
			assert.Equal(t, float64(1), f.outcomeCount(metrics.OutcomeInvalid))
		})
	}
}

func TestInviteSucceeds(t *testing.T) {
	f := newFixture(t)
	released := f.expectGuard("a@b.com")

	var password string
	gomock.InOrder(
		f.provisioner.EXPECT().
			Provision(gomock.Any(), models.Invitee{Email: "a@b.com", Name: "Ann", IsParent: true, FamilyID: "fam1"}, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ models.Invitee, pw string) (*models.ProvisionedIdentity, error) {
				password = pw
				return &models.ProvisionedIdentity{UserID: "u1", Email: "a@b.com"}, nil
			}),
		f.recorder.EXPECT().RecordProfile(gomock.Any(), &models.Profile{ID: "u1", Email: "a@b.com", Name: "Ann", IsParent: true}).Return(nil),
		f.recorder.EXPECT().RecordFamilyMember(gomock.Any(), &models.FamilyMember{FamilyID: "fam1", UserID: "u1"}).Return(nil),
		f.issuer.EXPECT().IssueLink(gomock.Any(), models.LinkRequest{
			Type:       models.LinkTypeRecovery,
			Email:      "a@b.com",
			RedirectTo: "https://kindo.example/reset-password?email=a@b.com",
			Claims:     &models.LinkClaims{Name: "Ann", IsParent: true, FamilyID: "fam1"},
		}).Return(&models.ActionLink{URL: actionLink}, nil),
		f.deliverer.EXPECT().Dispatch(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msg delivery.Message) (delivery.Outcome, error) {
				assert.Equal(t, "a@b.com", msg.Email)
				assert.Equal(t, "Ann", msg.Name)
				assert.Equal(t, actionLink, msg.ResetLink)
				assert.Equal(t, models.TemplateNameInvitation, msg.Template)
				return delivery.Outcome{Results: []delivery.Result{{Channel: "direct"}, {Channel: "function"}}}, nil
			}),
	)

	result, err := f.workflow().Invite(context.Background(), ann)

	require.NoError(t, err)
	assert.Equal(t, "u1", result.UserID)
	assert.Equal(t, actionLink, result.ResetLink)
	assert.Len(t, password, models.DefaultCredentialLength)
	for _, c := range password {
		assert.True(t, strings.ContainsRune(models.CredentialCharset, c), "unexpected character %q", c)
	}
	assert.True(t, *released, "guard should be released")
	assert.Equal(t, float64(1), f.outcomeCount(metrics.OutcomeSuccess))
}

func TestInviteDefaultsNameAndRole(t *testing.T) {
	f := newFixture(t)
	f.expectGuard("a@b.com")

	f.provisioner.EXPECT().
		Provision(gomock.Any(), models.Invitee{Email: "a@b.com", Name: models.DefaultName, IsParent: true, FamilyID: "fam1"}, gomock.Any()).
		Return(&models.ProvisionedIdentity{UserID: "u1", Email: "a@b.com"}, nil)
	f.recorder.EXPECT().RecordProfile(gomock.Any(), gomock.Any()).Return(nil)
	f.recorder.EXPECT().RecordFamilyMember(gomock.Any(), gomock.Any()).Return(nil)
	f.issuer.EXPECT().IssueLink(gomock.Any(), gomock.Any()).Return(&models.ActionLink{URL: actionLink}, nil)
	f.deliverer.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(delivery.Outcome{Results: []delivery.Result{{Channel: "direct"}}}, nil)

	_, err := f.workflow().Invite(context.Background(), models.InvitationRequest{Email: "a@b.com", FamilyID: "fam1"})
	require.NoError(t, err)
}

func TestInviteStopsWhenProvisioningFails(t *testing.T) {
	f := newFixture(t)
	f.expectGuard("a@b.com")
	provisionErr := errors.New("A user with this email address has already been registered")

	f.provisioner.EXPECT().Provision(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, provisionErr)

	result, err := f.workflow().Invite(context.Background(), ann)

	assert.Nil(t, result)
	assert.Equal(t, provisionErr, err)
	assert.Equal(t, float64(1), f.outcomeCount(metrics.OutcomeProvision))
}

func TestInviteRejectsIdentityWithoutID(t *testing.T) {
	f := newFixture(t)
	f.expectGuard("a@b.com")
	f.provisioner.EXPECT().Provision(gomock.Any(), gomock.Any(), gomock.Any()).Return(&models.ProvisionedIdentity{}, nil)

	_, err := f.workflow().Invite(context.Background(), ann)
	assert.EqualError(t, err, "user created without an id")
}

func TestInviteProfileFailureLeavesIdentity(t *testing.T) {
	f := newFixture(t)
	f.expectGuard("a@b.com")
	profileErr := errors.New("new row violates row-level security policy")

	gomock.InOrder(
		f.provisioner.EXPECT().Provision(gomock.Any(), gomock.Any(), gomock.Any()).Return(&models.ProvisionedIdentity{UserID: "u1"}, nil),
		f.recorder.EXPECT().RecordProfile(gomock.Any(), gomock.Any()).Return(profileErr),
		f.reconciler.EXPECT().InsertReconciliation(gomock.Any(), stage(models.StageProfile)).Return(nil),
	)

	_, err := f.workflow().Invite(context.Background(), ann)

	assert.Equal(t, profileErr, err)
	assert.Equal(t, float64(1), f.outcomeCount(metrics.OutcomeMembership))
}

func TestInviteMembershipFailureKeepsProfile(t *testing.T) {
	f := newFixture(t)
	f.expectGuard("a@b.com")
	memberErr := errors.New(`insert or update on table "family_members" violates foreign key constraint`)

	var recorded *models.Reconciliation
	gomock.InOrder(
		f.provisioner.EXPECT().Provision(gomock.Any(), gomock.Any(), gomock.Any()).Return(&models.ProvisionedIdentity{UserID: "u1"}, nil),
		f.recorder.EXPECT().RecordProfile(gomock.Any(), gomock.Any()).Return(nil),
		f.recorder.EXPECT().RecordFamilyMember(gomock.Any(), gomock.Any()).Return(memberErr),
		f.reconciler.EXPECT().InsertReconciliation(gomock.Any(), stage(models.StageFamilyMember)).
			DoAndReturn(func(_ context.Context, r *models.Reconciliation) error {
				recorded = r
				return nil
			}),
	)

	_, err := f.workflow().Invite(context.Background(), ann)

	assert.Equal(t, memberErr, err)
	require.NotNil(t, recorded)
	assert.Equal(t, "u1", recorded.UserID)
	assert.Equal(t, "fam1", recorded.FamilyID)
	assert.Equal(t, memberErr.Error(), recorded.Reason)
}

func TestInviteLinkFailure(t *testing.T) {
	f := newFixture(t)
	f.expectGuard("a@b.com")
	linkErr := errors.New("User not found")

	gomock.InOrder(
		f.provisioner.EXPECT().Provision(gomock.Any(), gomock.Any(), gomock.Any()).Return(&models.ProvisionedIdentity{UserID: "u1"}, nil),
		f.recorder.EXPECT().RecordProfile(gomock.Any(), gomock.Any()).Return(nil),
		f.recorder.EXPECT().RecordFamilyMember(gomock.Any(), gomock.Any()).Return(nil),
		f.issuer.EXPECT().IssueLink(gomock.Any(), gomock.Any()).Return(nil, linkErr),
		f.reconciler.EXPECT().InsertReconciliation(gomock.Any(), stage(models.StageLink)).Return(errors.New("store down")),
	)

	_, err := f.workflow().Invite(context.Background(), ann)

	assert.Equal(t, linkErr, err)
	assert.Equal(t, float64(1), f.outcomeCount(metrics.OutcomeLink))
}

type failingFunctionClient struct {
	calls int
}

func (c *failingFunctionClient) SendInvitation(ctx context.Context, request models.SendInvitationRequest) (int, error) {
	c.calls++
	return http.StatusInternalServerError, errors.New("function crashed")
}

func (c *failingFunctionClient) TestDelivery(ctx context.Context, email string) (*models.TestDeliveryResponse, error) {
	return nil, errors.New("not used")
}

func TestInviteSucceedsWhenEveryDeliveryFails(t *testing.T) {
	f := newFixture(t)
	f.expectGuard("a@b.com")

	tmpls, err := templates.New()
	require.NoError(t, err)
	notifier := clients.NewFailingMockNotifier(http.StatusBadGateway, "mailer unavailable")
	function := &failingFunctionClient{}
	f.params.Deliverer = delivery.NewDispatcher(delivery.BestEffort, 0, dbtestutil.NewLogger(t), f.metrics,
		delivery.NewNotifierChannel(delivery.ChannelDirect, notifier, tmpls),
		delivery.NewFunctionChannel(function),
	)

	var recorded *models.Reconciliation
	gomock.InOrder(
		f.provisioner.EXPECT().Provision(gomock.Any(), gomock.Any(), gomock.Any()).Return(&models.ProvisionedIdentity{UserID: "u1"}, nil),
		f.recorder.EXPECT().RecordProfile(gomock.Any(), gomock.Any()).Return(nil),
		f.recorder.EXPECT().RecordFamilyMember(gomock.Any(), gomock.Any()).Return(nil),
		f.issuer.EXPECT().IssueLink(gomock.Any(), gomock.Any()).Return(&models.ActionLink{URL: actionLink}, nil),
		f.reconciler.EXPECT().InsertReconciliation(gomock.Any(), stage(models.StageDelivery)).
			DoAndReturn(func(_ context.Context, r *models.Reconciliation) error {
				recorded = r
				return nil
			}),
	)

	result, err := f.workflow().Invite(context.Background(), ann)

	require.NoError(t, err)
	assert.Equal(t, actionLink, result.ResetLink)
	assert.False(t, result.Deliveries.Succeeded())
	assert.Len(t, notifier.Sent(), 1)
	assert.Equal(t, 1, function.calls)
	require.NotNil(t, recorded)
	assert.Equal(t, actionLink, recorded.ResetLink)
	assert.Contains(t, recorded.Reason, "mailer unavailable")
}

func TestInviteOneDeliveryFailing(t *testing.T) {
	f := newFixture(t)
	f.expectGuard("a@b.com")

	f.provisioner.EXPECT().Provision(gomock.Any(), gomock.Any(), gomock.Any()).Return(&models.ProvisionedIdentity{UserID: "u1"}, nil)
	f.recorder.EXPECT().RecordProfile(gomock.Any(), gomock.Any()).Return(nil)
	f.recorder.EXPECT().RecordFamilyMember(gomock.Any(), gomock.Any()).Return(nil)
	f.issuer.EXPECT().IssueLink(gomock.Any(), gomock.Any()).Return(&models.ActionLink{URL: actionLink}, nil)
	f.deliverer.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(delivery.Outcome{Results: []delivery.Result{
		{Channel: "direct", Err: errors.New("mailer unavailable")},
		{Channel: "function"},
	}}, nil)

	result, err := f.workflow().Invite(context.Background(), ann)
	require.NoError(t, err)
	assert.True(t, result.Deliveries.Succeeded())
}

func TestInviteRejectedWhileInProgress(t *testing.T) {
	f := newFixture(t)
	f.guard.EXPECT().Acquire(gomock.Any(), "a@b.com").Return(nil, models.ErrInviteInProgress)

	_, err := f.workflow().Invite(context.Background(), ann)

	assert.ErrorIs(t, err, models.ErrInviteInProgress)
	assert.Equal(t, float64(1), f.outcomeCount(metrics.OutcomeInProgress))
}

func TestInviteIgnoresCancellationAfterProvisioning(t *testing.T) {
	f := newFixture(t)
	f.params.Config.CallTimeout = 0
	f.expectGuard("a@b.com")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notCancelled := func(ctx context.Context) { assert.NoError(t, ctx.Err()) }
	f.provisioner.EXPECT().Provision(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.Invitee, string) (*models.ProvisionedIdentity, error) {
			cancel()
			return &models.ProvisionedIdentity{UserID: "u1"}, nil
		})
	f.recorder.EXPECT().RecordProfile(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ *models.Profile) error { notCancelled(ctx); return nil })
	f.recorder.EXPECT().RecordFamilyMember(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ *models.FamilyMember) error { notCancelled(ctx); return nil })
	f.issuer.EXPECT().IssueLink(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ models.LinkRequest) (*models.ActionLink, error) {
			notCancelled(ctx)
			return &models.ActionLink{URL: actionLink}, nil
		})
	f.deliverer.EXPECT().Dispatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ delivery.Message) (delivery.Outcome, error) {
			notCancelled(ctx)
			return delivery.Outcome{Results: []delivery.Result{{Channel: "direct"}}}, nil
		})

	result, err := f.workflow().Invite(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, "u1", result.UserID)
}

func TestInviteProvisionsAnewOnRepeat(t *testing.T) {
	f := newFixture(t)
	f.guard.EXPECT().Acquire(gomock.Any(), "a@b.com").Return(func() {}, nil).Times(2)

	var passwords []string
	f.provisioner.EXPECT().Provision(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.Invitee, pw string) (*models.ProvisionedIdentity, error) {
			passwords = append(passwords, pw)
			return nil, errors.New("A user with this email address has already been registered")
		}).Times(2)

	workflow := f.workflow()
	_, err := workflow.Invite(context.Background(), ann)
	assert.Error(t, err)
	_, err = workflow.Invite(context.Background(), ann)
	assert.Error(t, err)

	require.Len(t, passwords, 2)
	assert.NotEqual(t, passwords[0], passwords[1])
}
