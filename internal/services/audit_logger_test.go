package services

import (
	"bytes"
	"context"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/Dylansm37/guardfile/domain"
)

func captureLog(t *testing.T, fn func()) string {
	t.Helper()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	fn()
	return buf.String()
}

// Detail like the reported and stored counter values only lives in the
// metadata map, so the log line must carry it.
func TestLogAuditLogger_MetadataReachesTheLogLine(t *testing.T) {
	logger := NewAuditLogger()

	event := domain.NewAuditEvent(domain.CounterReplayEvent, 1).
		WithError(domain.ErrCounterReplay).
		WithMetadata("credential_id", "cred-1").
		WithMetadata("reported", uint32(5)).
		WithMetadata("stored", uint32(5))

	out := captureLog(t, func() {
		if err := logger.LogEvent(context.Background(), event); err != nil {
			t.Fatalf("log event failed: %v", err)
		}
	})

	for _, want := range []string{
		string(domain.CounterReplayEvent),
		"credential_id=cred-1",
		"reported=5",
		"stored=5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log line to contain %q, got %q", want, out)
		}
	}
}

func TestLogAuditLogger_NoMetadataAddsNothing(t *testing.T) {
	logger := NewAuditLogger()

	event := domain.NewAuditEvent(domain.UserLoginEvent, 1).WithEmail("alice@example.com")

	out := captureLog(t, func() {
		if err := logger.LogEvent(context.Background(), event); err != nil {
			t.Fatalf("log event failed: %v", err)
		}
	})

	if !strings.Contains(out, "email=alice@example.com timestamp=") {
		t.Errorf("expected plain line without metadata gap, got %q", out)
	}
}
