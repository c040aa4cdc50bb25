package telephony

import "errors"

// Provider is implemented by every outbound provider adapter so startup can report
// which integrations are live. Business logic only sees the calls package interfaces.
type Provider interface {
	Name() string
	Configured() bool
}

var (
	ErrNotConfigured = errors.New("telephony: provider not configured")
	ErrEmptyResponse = errors.New("telephony: provider returned no id")
)
