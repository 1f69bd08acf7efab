package invitation

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kindo-app/doorbell/delivery"
	"github.com/kindo-app/doorbell/metrics"
	"github.com/kindo-app/doorbell/models"
)

// Invite runs the invitation for one request.
//
// Validation errors come back as *models.ValidationError before anything is called.
// Provisioning, recording and link errors are returned as the collaborator reported
// them. Delivery failures are never returned.
func (w *Workflow) Invite(ctx context.Context, req models.InvitationRequest) (*Invitation, error) {
	if err := req.Validate(); err != nil {
		w.metrics.RecordInvitation(metrics.OutcomeInvalid)
		return nil, err
	}

	if w.guard != nil {
		release, err := w.guard.Acquire(ctx, req.Email)
		if err != nil {
			if errors.Is(err, models.ErrInviteInProgress) {
				w.metrics.RecordInvitation(metrics.OutcomeInProgress)
			}
			return nil, err
		}
		defer release()
	}

	invitee := req.WithDefaults()
	logger := w.logger.With("email", invitee.Email, "familyId", invitee.FamilyID)
	logger.Infow("processing invitation", "name", invitee.Name)

	password, err := models.GenerateTemporaryPassword(w.config.CredentialLength)
	if err != nil {
		return nil, errors.Wrap(err, "generating temporary password")
	}

	var identity *models.ProvisionedIdentity
	err = w.call(ctx, "provision", func(ctx context.Context) error {
		identity, err = w.provisioner.Provision(ctx, invitee, password)
		if err == nil && (identity == nil || identity.UserID == "") {
			err = errors.New("user created without an id")
		}
		return err
	})
	if err != nil {
		logger.Warnw("error creating user", zap.Error(err))
		w.metrics.RecordInvitation(metrics.OutcomeProvision)
		return nil, err
	}
	identity.TemporaryPassword = password
	logger = logger.With("userId", identity.UserID)
	logger.Infow("user created", "password", identity.MaskedPassword())

	// The identity exists now: the caller going away must not leave it half set up.
	ctx = context.WithoutCancel(ctx)

	if err := w.call(ctx, "record_profile", func(ctx context.Context) error {
		return w.recorder.RecordProfile(ctx, invitee.Profile(identity.UserID))
	}); err != nil {
		logger.Warnw("error creating profile", zap.Error(err))
		w.reconcile(ctx, logger, models.NewReconciliation(models.StageProfile, identity.UserID, invitee, err.Error()))
		w.metrics.RecordInvitation(metrics.OutcomeMembership)
		return nil, err
	}

	if err := w.call(ctx, "record_family_member", func(ctx context.Context) error {
		return w.recorder.RecordFamilyMember(ctx, invitee.FamilyMember(identity.UserID))
	}); err != nil {
		logger.Warnw("error adding user to family", zap.Error(err))
		w.reconcile(ctx, logger, models.NewReconciliation(models.StageFamilyMember, identity.UserID, invitee, err.Error()))
		w.metrics.RecordInvitation(metrics.OutcomeMembership)
		return nil, err
	}

	redirectTo := models.ResetPasswordRedirect(w.config.SiteURL, invitee.Email)
	var link *models.ActionLink
	err = w.call(ctx, "issue_link", func(ctx context.Context) error {
		link, err = w.issuer.IssueLink(ctx, models.LinkRequest{
			Type:       models.LinkTypeRecovery,
			Email:      invitee.Email,
			RedirectTo: redirectTo,
			Claims:     invitee.Claims(),
		})
		return err
	})
	if err != nil {
		logger.Warnw("error generating reset link", "redirectTo", redirectTo, zap.Error(err))
		w.reconcile(ctx, logger, models.NewReconciliation(models.StageLink, identity.UserID, invitee, err.Error()))
		w.metrics.RecordInvitation(metrics.OutcomeLink)
		return nil, err
	}
	logger.Infow("generated reset link", "redirectTo", redirectTo)

	outcome, _ := w.deliverer.Dispatch(ctx, delivery.Message{
		Email:     invitee.Email,
		Name:      invitee.Name,
		ResetLink: link.URL,
		Template:  models.TemplateNameInvitation,
		Content: map[string]interface{}{
			"Name":          invitee.Name,
			"ResetLink":     link.URL,
			"ExpiresInDays": int(models.ActionLinkValidity / (24 * time.Hour)),
		},
	})
	if !outcome.Succeeded() {
		reconciliation := models.NewReconciliation(models.StageDelivery, identity.UserID, invitee, reason(outcome))
		reconciliation.ResetLink = link.URL
		w.reconcile(ctx, logger, reconciliation)
	}

	w.metrics.RecordInvitation(metrics.OutcomeSuccess)
	return &Invitation{UserID: identity.UserID, ResetLink: link.URL, Deliveries: outcome}, nil
}

// call bounds one collaborator call with the configured timeout
func (w *Workflow) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	if w.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.CallTimeout)
		defer cancel()
	}
	start := time.Now()
	err := fn(ctx)
	w.metrics.RecordBackendCall(operation, err, time.Since(start))
	return err
}

func (w *Workflow) reconcile(ctx context.Context, logger *zap.SugaredLogger, reconciliation *models.Reconciliation) {
	w.metrics.RecordReconciliation(string(reconciliation.Stage))
	if w.reconciler == nil {
		logger.Errorw("reconciliation needed", "stage", reconciliation.Stage, "reason", reconciliation.Reason)
		return
	}
	if err := w.call(ctx, "reconciliation", func(ctx context.Context) error {
		return w.reconciler.InsertReconciliation(ctx, reconciliation)
	}); err != nil {
		logger.Errorw("unable to record reconciliation", "stage", reconciliation.Stage, "reason", reconciliation.Reason, zap.Error(err))
		return
	}
	logger.Infow("reconciliation recorded", "id", reconciliation.ID, "stage", reconciliation.Stage)
}

func reason(outcome delivery.Outcome) string {
	if err := outcome.FirstError(); err != nil {
		return "no delivery channel succeeded: " + err.Error()
	}
	return "no delivery channel succeeded"
}
