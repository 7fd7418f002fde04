package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/Dylansm37/guardfile/domain"
)

// LogAuditLogger implements domain.AuditLogger on top of the standard logger.
// Security events carry their detailed cause here and only here; HTTP
// responses never echo it.
type LogAuditLogger struct{}

// NewAuditLogger creates a new log-backed audit logger
func NewAuditLogger() domain.AuditLogger {
	return &LogAuditLogger{}
}

// LogEvent implements domain.AuditLogger
func (l *LogAuditLogger) LogEvent(_ context.Context, event *domain.AuditEvent) error {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	if event.Success {
		log.Printf("%s: user_id=%d email=%s%s timestamp=%s",
			event.EventType, event.UserID, event.Email, formatMetadata(event.Metadata), ts.Format(time.RFC3339))
		return nil
	}

	log.Printf("%s: user_id=%d email=%s error=%q%s timestamp=%s",
		event.EventType, event.UserID, event.Email, event.ErrorMsg, formatMetadata(event.Metadata), ts.Format(time.RFC3339))
	return nil
}

// formatMetadata renders event metadata as sorted key=value pairs with a
// leading space, or an empty string when there is nothing to add.
func formatMetadata(metadata map[string]interface{}) string {
	if len(metadata) == 0 {
		return ""
	}

	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, metadata[key])
	}
	return b.String()
}
