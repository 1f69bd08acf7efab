package api

import (
	"net/http"
	"time"

	"github.com/kindo-app/doorbell/delivery"
	"github.com/kindo-app/doorbell/models"
)

// TestDelivery checks the delivery configuration is live by sending a test email
// and generating a recovery link for the given address. One working method is enough.
//
// status: 200 {success:true, message}
// status: 400 {error, message} with the first error when both methods failed
func (a *Api) TestDelivery(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	fail := func(reason string, extras ...interface{}) {
		a.sendErrorLog(ctx, http.StatusBadRequest, STATUS_ERR_SENDING_TEST_EMAIL, append(extras, reason)...)
		a.sendModelAsResWithStatus(ctx, res, models.TestDeliveryResponse{
			Error:   reason,
			Message: STATUS_TEST_EMAIL_FAILED,
		}, http.StatusBadRequest)
	}
	defer a.recoverWith(ctx, func(reason string) { fail(reason) })

	var body models.TestDeliveryRequest
	if err := a.decode(req, &body); err != nil {
		fail(err.Error(), err)
		return
	}
	if body.Email == "" {
		fail("Email is required")
		return
	}
	a.logger(ctx).Infow("attempting to send test email", "email", body.Email)

	_, err := a.probe.Dispatch(ctx, delivery.Message{
		Email:    body.Email,
		Template: models.TemplateNameDeliveryTest,
		Content: map[string]interface{}{
			"SentAt":        time.Now().UTC().Format(time.RFC3339),
			"BackendURL":    a.backendURL(),
			"EmailProvider": a.backend.EmailProvider,
		},
	})
	if err != nil {
		fail(err.Error(), err)
		return
	}

	a.sendModelAsResWithStatus(ctx, res, models.TestDeliveryResponse{
		Success: true,
		Message: STATUS_TEST_EMAIL_SENT,
	}, http.StatusOK)
}

func (a *Api) backendURL() string {
	if a.backend.URL == "" {
		return "Not set"
	}
	return a.backend.URL
}
