package sessionvault

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AuditEvent records a session-lifecycle observation. Identifiers are
// truncated and tokens never appear in events.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserRef   string            `json:"user_ref,omitempty"`
	State     string            `json:"state,omitempty"`
	ErrorKind string            `json:"error_kind,omitempty"`
	Success   bool              `json:"success"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Audit event types emitted by the Manager.
const (
	AuditSessionSaved      = "session_saved"
	AuditSessionRefreshed  = "session_refreshed"
	AuditSessionCleared    = "session_cleared"
	AuditSessionVerified   = "session_verified"
	AuditSessionCorrupt    = "session_corrupt"
	AuditCorruptionCleanup = "corruption_cleanup"
	AuditFallbackStorage   = "fallback_storage"
)

// AuditSink receives events from the dispatcher. Emit must be safe for
// concurrent use and should not block indefinitely.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards events.
type NoOpSink struct{}

// Emit discards the event.
func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink buffers events on a channel for test and pipeline consumers.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink creates a sink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan AuditEvent, buffer)}
}

// Emit queues the event, abandoning it on context cancellation.
func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the receiving side of the sink.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON event per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a line-oriented JSON sink over w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

// Emit serializes and writes the event. Serialization failures are dropped.
func (s *JSONWriterSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// truncateRef shortens an identifier for audit events so logs stay
// diagnosable without carrying full identities. Cuts on rune boundaries
// so multibyte identifiers stay valid UTF-8.
func truncateRef(id string) string {
	const keep = 8
	seen := 0
	for i := range id {
		if seen == keep {
			return id[:i] + "…"
		}
		seen++
	}
	return id
}
