package api

import (
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kindo-app/doorbell/models"
)

// InviteUser creates an account for a new family member and sends the set-password link
//
// status: 200 models.InviteResponse
// status: 400 {error} when a field is missing or a backend step failed
// status: 409 {error} when an invitation for the same email is already running
func (a *Api) InviteUser(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	defer a.recoverWith(ctx, func(reason string) {
		a.sendError(ctx, res, http.StatusBadRequest, reason)
	})

	var body models.InvitationRequest
	if err := a.decode(req, &body); err != nil {
		a.sendError(ctx, res, http.StatusBadRequest, err.Error(), err)
		return
	}
	a.logger(ctx).Infow("invite user called", "email", body.Email)

	result, err := a.invites.Invite(ctx, body)
	if err != nil {
		statusCode := http.StatusBadRequest
		if errors.Is(err, models.ErrInviteInProgress) {
			statusCode = http.StatusConflict
		}
		a.sendError(ctx, res, statusCode, err.Error(), zap.String("step", STATUS_ERR_INVITING), err)
		return
	}

	a.sendModelAsResWithStatus(ctx, res, models.NewInviteResponse(result.UserID, result.ResetLink), http.StatusOK)
}
