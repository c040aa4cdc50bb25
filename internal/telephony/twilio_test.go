package telephony

import (
	"context"
	"errors"
	"testing"

	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"lead-dialer/internal/calls"
)

type fakeTwilioAPI struct {
	call    *openapi.CreateCallParams
	message *openapi.CreateMessageParams
	sid     *string
	err     error
}

func (f *fakeTwilioAPI) CreateCall(p *openapi.CreateCallParams) (*openapi.ApiV2010Call, error) {
	f.call = p
	if f.err != nil {
		return nil, f.err
	}
	return &openapi.ApiV2010Call{Sid: f.sid}, nil
}

func (f *fakeTwilioAPI) CreateMessage(p *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.message = p
	if f.err != nil {
		return nil, f.err
	}
	return &openapi.ApiV2010Message{}, nil
}

func TestTwilioClient_DispatchCallMapsParams(t *testing.T) {
	sid := "CA123"
	api := &fakeTwilioAPI{sid: &sid}
	c := &TwilioClient{api: api}

	got, err := c.DispatchCall(context.Background(), calls.OutboundCall{
		To:                "+447700900123",
		From:              "+442000000000",
		InstructionsURL:   "https://leads.example.com/telephony/router",
		StatusCallbackURL: "https://leads.example.com/telephony/call-status",
		MachineDetection:  calls.MachineDetectionEnable,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != "CA123" {
		t.Fatalf("expected CA123, got %q", got)
	}
	p := api.call
	if *p.To != "+447700900123" || *p.From != "+442000000000" {
		t.Fatalf("unexpected numbers %q %q", *p.To, *p.From)
	}
	if *p.Url != "https://leads.example.com/telephony/router" {
		t.Fatalf("unexpected url %q", *p.Url)
	}
	if *p.StatusCallback != "https://leads.example.com/telephony/call-status" {
		t.Fatalf("unexpected status callback %q", *p.StatusCallback)
	}
	if *p.MachineDetection != "Enable" {
		t.Fatalf("unexpected machine detection %q", *p.MachineDetection)
	}
}

func TestTwilioClient_DispatchCallErrors(t *testing.T) {
	if _, err := NewTwilioClient("", "").DispatchCall(context.Background(), calls.OutboundCall{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	boom := errors.New("boom")
	c := &TwilioClient{api: &fakeTwilioAPI{err: boom}}
	if _, err := c.DispatchCall(context.Background(), calls.OutboundCall{To: "+1"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}

	c = &TwilioClient{api: &fakeTwilioAPI{}}
	if _, err := c.DispatchCall(context.Background(), calls.OutboundCall{To: "+1"}); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestTwilioClient_SendMessage(t *testing.T) {
	api := &fakeTwilioAPI{}
	c := &TwilioClient{api: api}
	if err := c.SendMessage(context.Background(), "+1", "+2", "hello"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if *api.message.To != "+1" || *api.message.From != "+2" || *api.message.Body != "hello" {
		t.Fatalf("unexpected message params")
	}
	if !c.Configured() || NewTwilioClient("", "").Configured() {
		t.Fatalf("unexpected Configured result")
	}
}
