package calls

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CallStatus is the terminal or progress status a calling provider reports for a leg.
// Values are provider wire values (Twilio uses hyphens).
type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCanceled   CallStatus = "canceled"
)

// ParseCallStatus maps a raw webhook value to a known status.
// Unknown and empty values report ok=false and must be treated as no-ops.
func ParseCallStatus(raw string) (CallStatus, bool) {
	s := CallStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case CallStatusQueued, CallStatusRinging, CallStatusInProgress, CallStatusCompleted,
		CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled:
		return s, true
	default:
		return "", false
	}
}

// Outcome reports what PlaceOutboundCall did. It is for observability only.
type Outcome string

const (
	OutcomeDispatched    Outcome = "dispatched"
	OutcomeMaxAttempts   Outcome = "max_attempts"
	OutcomeConfigError   Outcome = "config_error"
	OutcomeProviderError Outcome = "provider_error"
	OutcomeInvalid       Outcome = "invalid"
)

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"

	MachineDetectionEnable = "Enable"
)

// Webhook paths the orchestrator hands to the calling provider, relative to BASE_URL.
const (
	RouterPath     = "/telephony/router"
	StatusPath     = "/telephony/call-status"
	DialResultPath = "/telephony/dial-result"
)

var (
	ErrConfiguration           = errors.New("calls: not configured")
	ErrVoiceAgentNotConfigured = fmt.Errorf("%w: voice agent", ErrConfiguration)
	ErrProvider                = errors.New("calls: provider request failed")
	ErrInvalidIdentity         = errors.New("calls: identity is required")
	ErrInvalidSession          = errors.New("calls: session id is required")
	ErrSchedulerStopped        = errors.New("calls: retry scheduler stopped")
)

// OutboundCall is a provider-agnostic outbound call request.
type OutboundCall struct {
	To   string
	From string

	// InstructionsURL is fetched by the provider once the callee answers.
	InstructionsURL string
	// StatusCallbackURL receives the terminal status of the leg.
	StatusCallbackURL string

	MachineDetection string
}

// VoiceAgentSession describes a call leg to register with the AI voice agent provider.
type VoiceAgentSession struct {
	AgentID   string
	Direction string
	From      string
	To        string
}

type Dispatcher interface {
	// DispatchCall asks the provider to place a call and returns its call sid.
	DispatchCall(ctx context.Context, call OutboundCall) (string, error)
}

type Messenger interface {
	SendMessage(ctx context.Context, to, from, body string) error
}

type VoiceAgentRegistrar interface {
	// RegisterSession returns the provider call id for the leg.
	RegisterSession(ctx context.Context, s VoiceAgentSession) (string, error)
}
