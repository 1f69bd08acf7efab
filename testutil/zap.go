package testutil

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NewLogger provides a logger that discards everything.
func NewLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	return zap.NewNop().Sugar()
}

// NewObservedLogger provides a logger whose entries can be inspected by the test.
//
// Entries at debug level and above are captured; use the returned observer to
// filter by message or field.
func NewObservedLogger(t *testing.T) (*zap.SugaredLogger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core).Sugar(), logs
}

// RequireLogged fails the test when no entry with the message was captured.
func RequireLogged(t *testing.T, logs *observer.ObservedLogs, message string) {
	t.Helper()
	if logs.FilterMessage(message).Len() == 0 {
		var seen []string
		for _, entry := range logs.All() {
			seen = append(seen, entry.Message)
		}
		t.Fatalf("expected a log entry %q, saw %v", message, seen)
	}
}
