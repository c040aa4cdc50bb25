package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lead-dialer/internal/calls"
)

const (
	defaultRetellBaseURL = "https://api.retellai.com"
	retellSIPDomain      = "sip.retellai.com"
)

type RetellConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// RetellClient registers phone call legs with the Retell voice agent platform.
type RetellClient struct {
	config RetellConfig
	client *http.Client
}

func NewRetellClient(cfg RetellConfig) *RetellClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultRetellBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &RetellClient{config: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (c *RetellClient) Name() string     { return "retell" }
func (c *RetellClient) Configured() bool { return c.config.APIKey != "" }

type registerPhoneCallRequest struct {
	AgentID    string `json:"agent_id"`
	Direction  string `json:"direction,omitempty"`
	FromNumber string `json:"from_number,omitempty"`
	ToNumber   string `json:"to_number,omitempty"`
}

type registerPhoneCallResponse struct {
	CallID string `json:"call_id"`
}

// RegisterSession registers the leg and returns the Retell call id.
func (c *RetellClient) RegisterSession(ctx context.Context, s calls.VoiceAgentSession) (string, error) {
	if c.config.APIKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(registerPhoneCallRequest{
		AgentID:    s.AgentID,
		Direction:  s.Direction,
		FromNumber: s.From,
		ToNumber:   s.To,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v2/register-phone-call", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("retell register call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("retell register call: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out registerPhoneCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode retell response: %w", err)
	}
	if out.CallID == "" {
		return "", ErrEmptyResponse
	}
	return out.CallID, nil
}

// SIPURI is the address Twilio dials to bridge a leg into a registered Retell call.
func SIPURI(callID string) string {
	return "sip:" + callID + "@" + retellSIPDomain
}
