package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the API process.
// Values come from the environment, optionally seeded from a .env file.
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	Twilio  TwilioConfig
	Retell  RetellConfig
	Agents  AgentConfig
	Routing RoutingConfig
	LLM     LLMConfig
	Email   EmailConfig
	Redis   RedisConfig
	DB      DBConfig
	Auth    AuthConfig
}

type AppConfig struct {
	Env  string
	Port int

	// BaseURL is the public origin Twilio uses to reach the webhooks.
	BaseURL string
}

type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

type RetellConfig struct {
	APIKey  string
	AgentID string
	BaseURL string
}

type AgentConfig struct {
	PrimaryPhone string
	BackupPhone  string
}

type RoutingConfig struct {
	// Timezone is an IANA name; empty means the host's local zone.
	Timezone string
	Location *time.Location

	// MissedCallSMS is texted to a lead after a no-answer. Empty disables it.
	MissedCallSMS string
}

type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string

	// Region is the default region used to sanity-check extracted phone numbers.
	Region string
}

type EmailConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Folder       string
	PollInterval time.Duration
}

type RedisConfig struct {
	URL   string
	Queue string
}

type DBConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
}

const (
	defaultPort         = 3000
	defaultEmailHost    = "imap.gmail.com"
	defaultEmailPort    = 993
	defaultEmailFolder  = "INBOX"
	defaultPollInterval = 30 * time.Second
	defaultLLMBaseURL   = "https://openrouter.ai/api/v1"
	defaultLLMModel     = "openai/gpt-4o"
	defaultRetellURL    = "https://api.retellai.com"
	defaultRegion       = "GB"
	defaultQueue        = "calls"
	defaultTokenTTL     = 12 * time.Hour
)

func Load() (Config, error) {
	_ = godotenv.Load()

	c := Config{}
	var parseErrs []error

	c.App.Env = getEnv("APP_ENV", "local")
	c.App.Port, parseErrs = intEnv(parseErrs, "PORT", defaultPort)
	c.App.BaseURL = strings.TrimRight(getEnv("BASE_URL", ""), "/")

	c.Twilio.AccountSID = getEnv("TWILIO_ACCOUNT_SID", "")
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.PhoneNumber = getEnv("TWILIO_PHONE_NUMBER", "")

	c.Retell.APIKey = os.Getenv("RETELL_API_KEY")
	c.Retell.AgentID = getEnv("RETELL_AGENT_ID", "")
	c.Retell.BaseURL = strings.TrimRight(getEnv("RETELL_BASE_URL", defaultRetellURL), "/")

	c.Agents.PrimaryPhone = getEnv("AGENT_PHONE_PRIMARY", "")
	c.Agents.BackupPhone = getEnv("AGENT_PHONE_BACKUP", "")

	c.Routing.Timezone = getEnv("BUSINESS_TIMEZONE", "")
	c.Routing.MissedCallSMS = getEnv("MISSED_CALL_SMS", "")

	c.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
	c.LLM.BaseURL = strings.TrimRight(getEnv("OPENROUTER_BASE_URL", defaultLLMBaseURL), "/")
	c.LLM.Model = getEnv("OPENROUTER_MODEL", defaultLLMModel)
	c.LLM.Region = strings.ToUpper(getEnv("LEAD_REGION", defaultRegion))

	c.Email.Host = getEnv("EMAIL_HOST", defaultEmailHost)
	c.Email.Port, parseErrs = intEnv(parseErrs, "EMAIL_PORT", defaultEmailPort)
	c.Email.User = getEnv("EMAIL_USER", "")
	c.Email.Password = os.Getenv("EMAIL_PASSWORD")
	c.Email.Folder = getEnv("EMAIL_FOLDER", defaultEmailFolder)
	c.Email.PollInterval, parseErrs = durationEnv(parseErrs, "EMAIL_POLL_INTERVAL", defaultPollInterval)

	c.Redis.URL = getEnv("REDIS_URL", "")
	c.Redis.Queue = getEnv("RETRY_QUEUE", defaultQueue)

	c.DB.URL = os.Getenv("DATABASE_URL")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = getEnv("JWT_ISSUER", "lead-dialer")
	c.Auth.TokenTTL, parseErrs = durationEnv(parseErrs, "JWT_TTL", defaultTokenTTL)

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	loc, err := c.Routing.location()
	if err != nil {
		return Config{}, err
	}
	c.Routing.Location = loc
	return c, nil
}

// Validate rejects malformed values. Missing provider credentials are not errors:
// the affected features report a configuration error when used (see Warnings).
func (c Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.BaseURL != "" && !isHTTPURL(c.App.BaseURL) {
		errs = append(errs, fmt.Errorf("BASE_URL must be an absolute http(s) URL, got %q", c.App.BaseURL))
	}
	if c.Email.Port <= 0 || c.Email.Port > 65535 {
		errs = append(errs, fmt.Errorf("EMAIL_PORT must be a valid port, got %d", c.Email.Port))
	}
	if c.Email.PollInterval <= 0 {
		errs = append(errs, errors.New("EMAIL_POLL_INTERVAL must be positive"))
	}
	if _, err := c.Routing.location(); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.JWTSecret != "" && c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.IsProduction() && c.App.BaseURL != "" && !strings.HasPrefix(c.App.BaseURL, "https://") {
		errs = append(errs, errors.New("BASE_URL must use https in production"))
	}

	return joinErrors(errs)
}

// Warnings lists features that are disabled by missing configuration.
func (c Config) Warnings() []string {
	var out []string
	if !c.TwilioEnabled() {
		out = append(out, "Twilio credentials not configured")
	}
	if c.Twilio.PhoneNumber == "" {
		out = append(out, "TWILIO_PHONE_NUMBER is not defined")
	}
	if c.App.BaseURL == "" {
		out = append(out, "BASE_URL is not defined")
	}
	if c.Retell.APIKey == "" {
		out = append(out, "Retell API key not configured")
	}
	if c.Agents.PrimaryPhone == "" && c.Agents.BackupPhone == "" {
		out = append(out, "no human agent number configured")
	}
	if c.LLM.APIKey == "" {
		out = append(out, "OPENROUTER_API_KEY not configured")
	}
	if !c.MailboxEnabled() {
		out = append(out, "mailbox credentials not configured")
	}
	return out
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) TwilioEnabled() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != ""
}

func (c Config) MailboxEnabled() bool {
	return c.Email.User != "" && c.Email.Password != ""
}

func (r RoutingConfig) location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("BUSINESS_TIMEZONE is not a known zone, got %q", r.Timezone)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(errs []error, key string, fallback int) (int, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, errs
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be an integer, got %q", key, v))
	}
	return n, errs
}

func durationEnv(errs []error, key string, fallback time.Duration) (time.Duration, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, errs
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be a duration, got %q", key, v))
	}
	return d, errs
}

func isHTTPURL(v string) bool {
	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
