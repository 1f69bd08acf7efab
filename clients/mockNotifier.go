package clients

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

type (
	MockNotifier struct {
		mu      sync.Mutex
		sent    []EmailArgs
		Status  int
		Details string
	}

	EmailArgs struct {
		To      []string
		Subject string
		Msg     string
	}
)

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{Status: http.StatusOK}
}

// NewFailingMockNotifier returns a notifier answering every send with the given status
func NewFailingMockNotifier(status int, details string) *MockNotifier {
	return &MockNotifier{Status: status, Details: details}
}

func (c *MockNotifier) Send(ctx context.Context, to []string, subject string, msg string) (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, EmailArgs{To: to, Subject: subject, Msg: msg})
	if c.Details != "" {
		return c.Status, c.Details
	}
	return c.Status, fmt.Sprintf("Send message with subject[%s] to %v", subject, to)
}

func (c *MockNotifier) Sent() []EmailArgs {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]EmailArgs(nil), c.sent...)
}

func (c *MockNotifier) GetLastEmailSubject() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1].Subject
}
