package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kindo-app/doorbell/models"
)

// SendInvitation sends, or only pretends to send, one invitation email.
//
// In simulate mode the payload is logged and echoed back; nothing is sent.
// In relay mode one message is rendered and sent through the mail relay.
func (a *Api) SendInvitation(res http.ResponseWriter, req *http.Request) {
	if a.Config.SendMode == SendModeRelay {
		a.relayInvitation(res, req)
		return
	}
	a.simulateInvitation(res, req)
}

// status: 200 models.SimulatedSendResponse
// status: 500 {success:false, error} when the body cannot be read
func (a *Api) simulateInvitation(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	fail := func(reason string) {
		a.sendErrorLog(ctx, http.StatusInternalServerError, STATUS_ERR_DECODING_REQUEST, reason)
		a.sendModelAsResWithStatus(ctx, res, models.SimulatedSendResponse{
			Success: false,
			Error:   "Function error: " + reason,
		}, http.StatusInternalServerError)
	}
	defer a.recoverWith(ctx, fail)

	var body models.SendInvitationRequest
	if err := a.decode(req, &body); err != nil {
		fail(err.Error())
		return
	}

	a.logger(ctx).Infow("email would be sent in a production environment",
		"email", body.Email,
		"name", body.Name,
		"familyName", body.FamilyName,
		"isExistingUser", body.IsExistingUser,
	)

	a.sendModelAsResWithStatus(ctx, res, models.SimulatedSendResponse{
		Success:   true,
		Message:   STATUS_SIMULATED,
		Recipient: body.Email,
		Debug: &models.SimulatedSendDebug{
			RequestParams: models.SimulatedSendParams{
				Email:          body.Email,
				Name:           body.Name,
				FamilyName:     body.FamilyName,
				IsExistingUser: body.IsExistingUser,
			},
			TemporaryPassword: models.MaskSecret(body.Password()),
		},
	}, http.StatusOK)
}

// status: 200 {message}
// status: 500 {error} for a bad body or any transport failure
func (a *Api) relayInvitation(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	fail := func(reason string, extras ...interface{}) {
		a.sendErrorLog(ctx, http.StatusInternalServerError, STATUS_ERR_SENDING_EMAIL, append(extras, reason)...)
		a.sendModelAsResWithStatus(ctx, res, models.RelaySendResponse{Error: reason}, http.StatusInternalServerError)
	}
	defer a.recoverWith(ctx, func(reason string) { fail(reason) })

	if a.relay == nil {
		fail(STATUS_ERR_RELAY_NOT_CONFIGURED)
		return
	}

	var body models.SendInvitationRequest
	if err := a.decode(req, &body); err != nil {
		fail(err.Error())
		return
	}
	if body.Email == "" {
		fail("Email is required")
		return
	}

	subject, message, err := a.renderRelayInvitation(body)
	if err != nil {
		fail(err.Error(), err)
		return
	}

	if status, details := a.relay.Send(ctx, []string{body.Email}, subject, message); status != http.StatusOK {
		fail(details, fmt.Sprintf("status %d", status))
		return
	}

	a.logger(ctx).Infow("invitation email relayed", "email", body.Email)
	a.sendModelAsResWithStatus(ctx, res, models.RelaySendResponse{
		Message: fmt.Sprintf("Invitation email sent to %s", body.Email),
	}, http.StatusOK)
}

func (a *Api) renderRelayInvitation(body models.SendInvitationRequest) (string, string, error) {
	template, ok := a.templates[models.TemplateNameRelayInvitation]
	if !ok {
		return "", "", fmt.Errorf("unknown template %s", models.TemplateNameRelayInvitation)
	}
	name := body.Name
	if name == "" {
		name = models.DefaultName
	}
	return template.Execute(map[string]interface{}{
		"Name":              name,
		"FamilyName":        body.FamilyName,
		"ResetLink":         body.Link(),
		"TemporaryPassword": body.Password(),
		"ExpiresInDays":     int(models.ActionLinkValidity / (24 * time.Hour)),
	})
}
