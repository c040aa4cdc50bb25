package telephony

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"lead-dialer/internal/calls"
)

// twilioAPI is the subset of the Twilio REST API used here.
type twilioAPI interface {
	CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error)
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioClient places calls and sends SMS through the Twilio REST API.
type TwilioClient struct {
	api twilioAPI
}

// NewTwilioClient returns a client that reports ErrNotConfigured when credentials are missing.
func NewTwilioClient(accountSID, authToken string) *TwilioClient {
	if accountSID == "" || authToken == "" {
		return &TwilioClient{}
	}
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioClient{api: rc.Api}
}

func (c *TwilioClient) Name() string     { return "twilio" }
func (c *TwilioClient) Configured() bool { return c.api != nil }

func (c *TwilioClient) DispatchCall(ctx context.Context, call calls.OutboundCall) (string, error) {
	if c.api == nil {
		return "", ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateCallParams{}
	params.SetTo(call.To)
	params.SetFrom(call.From)
	params.SetUrl(call.InstructionsURL)
	if call.StatusCallbackURL != "" {
		params.SetStatusCallback(call.StatusCallbackURL)
	}
	if call.MachineDetection != "" {
		params.SetMachineDetection(call.MachineDetection)
	}

	resp, err := c.api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("twilio create call: %w", err)
	}
	if resp == nil || resp.Sid == nil {
		return "", ErrEmptyResponse
	}
	return *resp.Sid, nil
}

func (c *TwilioClient) SendMessage(ctx context.Context, to, from, body string) error {
	if c.api == nil {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	if _, err := c.api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	return nil
}
