package qualify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"lead-dialer/pkg/logger"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "openai/gpt-4o"
	defaultRegion  = "GB"
	defaultTimeout = 60 * time.Second
)

var (
	ErrNotConfigured = errors.New("qualify: api key not configured")
	ErrEmptyResponse = errors.New("qualify: model returned no choices")
)

// Qualification is the verdict on one inbound lead message.
// PhoneNumber is empty when the model found none; it is never reformatted.
type Qualification struct {
	IsQualified bool   `json:"isQualified"`
	PhoneNumber string `json:"phoneNumber"`
	Reason      string `json:"reason"`
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// Region is the default region used to check that an extracted number is dialable.
	Region  string
	Timeout time.Duration
}

// OpenRouterQualifier asks an OpenAI-compatible chat model (OpenRouter by default)
// to qualify a lead and extract its callback number.
type OpenRouterQualifier struct {
	client  *openai.Client
	model   string
	region  string
	timeout time.Duration
	log     *slog.Logger
}

func NewOpenRouterQualifier(cfg Config, log *slog.Logger) *OpenRouterQualifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	q := &OpenRouterQualifier{model: cfg.Model, region: strings.ToUpper(cfg.Region), timeout: cfg.Timeout, log: log}
	if cfg.APIKey != "" {
		config := openai.DefaultConfig(cfg.APIKey)
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		q.client = openai.NewClientWithConfig(config)
	}
	return q
}

func (q *OpenRouterQualifier) Configured() bool { return q.client != nil }

// Qualify never fails: any error yields a not-qualified verdict.
func (q *OpenRouterQualifier) Qualify(ctx context.Context, subject, body string) Qualification {
	log := logger.FromOr(ctx, q.log)
	log.Info("qualifying lead message", "subject", subject)

	res, err := q.qualify(ctx, subject, body)
	if err != nil {
		log.Error("lead qualification failed", "err", err)
		return Qualification{Reason: "qualification unavailable"}
	}

	if res.PhoneNumber != "" && !q.dialable(res.PhoneNumber) {
		log.Warn("extracted phone number looks implausible, passing it on unchanged", "phone", res.PhoneNumber, "region", q.region)
	}
	log.Info("lead qualification result", "qualified", res.IsQualified, "phone", res.PhoneNumber, "reason", res.Reason)
	return res
}

func (q *OpenRouterQualifier) qualify(ctx context.Context, subject, body string) (Qualification, error) {
	if q.client == nil {
		return Qualification{}, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	resp, err := q.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: q.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(subject, body)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "lead_qualification",
				Schema: &qualificationSchema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return Qualification{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Qualification{}, ErrEmptyResponse
	}

	return parseQualification(resp.Choices[0].Message.Content)
}

func parseQualification(content string) (Qualification, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var out Qualification
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &out); err != nil {
		return Qualification{}, fmt.Errorf("decode qualification: %w", err)
	}
	out.PhoneNumber = strings.TrimSpace(out.PhoneNumber)
	return out, nil
}

// dialable reports whether raw could be a phone number, using the default region for
// national formats. The number itself is passed on untouched.
func (q *OpenRouterQualifier) dialable(raw string) bool {
	num, err := phonenumbers.Parse(raw, q.region)
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumber(num)
}

var qualificationSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"isQualified": {
			Type:        jsonschema.Boolean,
			Description: "Whether the lead meets all qualification criteria (valid phone, approved geography, service alignment).",
		},
		"phoneNumber": {
			Type:        jsonschema.String,
			Description: "The phone number found in the email, formatted as E.164 if possible (e.g. +44...). Empty string if not found.",
		},
		"reason": {
			Type:        jsonschema.String,
			Description: "Short reason for the qualification decision.",
		},
	},
	Required:             []string{"isQualified", "phoneNumber", "reason"},
	AdditionalProperties: false,
}
