package clients

import "context"

// Notifier sends one html message to a list of recipients.
// It returns an http-style status code and details from the transport.
type Notifier interface {
	Send(ctx context.Context, addresses []string, subject, content string) (int, string)
}
