package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lead-dialer/internal/calls"
)

func TestRetellClient_RegisterSession(t *testing.T) {
	var got registerPhoneCallRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/register-phone-call" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key_123" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"call_id":"call_abc","agent_id":"agent_1"}`))
	}))
	defer srv.Close()

	c := NewRetellClient(RetellConfig{APIKey: "key_123", BaseURL: srv.URL + "/"})
	id, err := c.RegisterSession(context.Background(), calls.VoiceAgentSession{
		AgentID: "agent_1", Direction: calls.DirectionInbound, From: "+1", To: "+2",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if id != "call_abc" {
		t.Fatalf("expected call_abc, got %q", id)
	}
	if got.AgentID != "agent_1" || got.Direction != "inbound" || got.FromNumber != "+1" || got.ToNumber != "+2" {
		t.Fatalf("unexpected request body %+v", got)
	}
}

func TestRetellClient_Errors(t *testing.T) {
	if _, err := NewRetellClient(RetellConfig{}).RegisterSession(context.Background(), calls.VoiceAgentSession{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "agent not found", http.StatusNotFound)
	}))
	defer srv.Close()
	c := NewRetellClient(RetellConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := c.RegisterSession(context.Background(), calls.VoiceAgentSession{AgentID: "missing"})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer empty.Close()
	c = NewRetellClient(RetellConfig{APIKey: "k", BaseURL: empty.URL})
	if _, err := c.RegisterSession(context.Background(), calls.VoiceAgentSession{AgentID: "a"}); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestSIPURI(t *testing.T) {
	if got := SIPURI("call_abc"); got != "sip:call_abc@sip.retellai.com" {
		t.Fatalf("unexpected sip uri %q", got)
	}
}
