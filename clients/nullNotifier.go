package clients

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type (
	// NullNotifier for dummy e-mail client
	NullNotifier struct {
		logger *zap.SugaredLogger
	}
)

// NewNullNotifier Create a dummy e-mail notifier
func NewNullNotifier(logger *zap.SugaredLogger) *NullNotifier {
	logger.Info("mail functionality is disabled, no e-mail will be sent")
	return &NullNotifier{logger: logger}
}

// Send do nothing, return 200, "OK"
func (c *NullNotifier) Send(ctx context.Context, to []string, subject string, msg string) (int, string) {
	c.logger.With(zap.Strings("email", to), zap.String("subject", subject)).
		Info("not sending mail, disabled by server configuration")
	return http.StatusOK, "OK"
}
