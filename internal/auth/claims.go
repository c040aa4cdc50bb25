package auth

import "github.com/golang-jwt/jwt/v5"

// ScopeTriggerCalls allows placing calls through the manual trigger endpoint.
const ScopeTriggerCalls = "calls:trigger"

// Claims are the only supported JWT claims shape for this service.
// Tokens are minted for operators, never for leads or providers.
type Claims struct {
	jwt.RegisteredClaims

	Operator string `json:"operator"`
	Scope    string `json:"scope"`
}
