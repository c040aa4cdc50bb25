package audit

import "time"

// Event is an immutable, append-only record of something the call engine did.
//
// Invariants:
// - Events are never updated or deleted, and never read back to make decisions.
// - Appends are best-effort; do not block call flows on audit failures.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// Phone is the lead identity (outbound) or the caller (inbound legs).
	Phone string `json:"phone,omitempty" db:"phone"`

	// SessionID is the provider session of the leg (CallSid), when known.
	SessionID string `json:"session_id,omitempty" db:"session_id"`

	// ProviderRef is the id returned by a provider (queued call sid, voice agent call id).
	ProviderRef string `json:"provider_ref,omitempty" db:"provider_ref"`

	Attempt int    `json:"attempt,omitempty" db:"attempt"`
	Status  string `json:"status,omitempty" db:"status"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeCallDispatched EventType = "call_dispatched"
	EventTypeCallRefused    EventType = "call_refused"
	EventTypeDispatchFailed EventType = "dispatch_failed"
	EventTypeRetryScheduled EventType = "retry_scheduled"
	EventTypeCallRouted     EventType = "call_routed"
	EventTypeCallStatus     EventType = "call_status"
)
