package calls

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"lead-dialer/internal/audit"
	"lead-dialer/internal/routing"
	"lead-dialer/pkg/logger"
)

// providerTimeout bounds provider calls made outside a request (retries, SMS).
const providerTimeout = 30 * time.Second

type Options struct {
	Dispatcher Dispatcher
	Messenger  Messenger
	VoiceAgent VoiceAgentRegistrar

	// VoiceAgentID is the provider agent that takes after-hours calls.
	VoiceAgentID string
	// SourceNumber is the caller id for outbound calls.
	SourceNumber string
	// BaseURL is the public origin of this service, used for provider webhooks.
	BaseURL string

	Router *routing.Engine

	// Retry defaults to an in-process TimerScheduler.
	Retry      RetryScheduler
	RetryDelay time.Duration

	// MissedCallSMS is texted to a lead after a no-answer. Empty disables it.
	MissedCallSMS string

	Audit  *audit.Service
	Logger *slog.Logger
	Now    func() time.Time
}

// Orchestrator places outbound calls, reacts to call status callbacks and routes answered legs.
// It exclusively owns the attempt counts and the voice agent session cache.
type Orchestrator struct {
	dispatcher   Dispatcher
	messenger    Messenger
	voiceAgent   VoiceAgentRegistrar
	voiceAgentID string
	sourceNumber string
	baseURL      string
	smsText      string

	router     *routing.Engine
	retry      RetryScheduler
	timers     *TimerScheduler
	retryDelay time.Duration

	attempts *AttemptTracker
	sessions *SessionCache

	audit *audit.Service
	log   *slog.Logger
	now   func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	cron *cron.Cron
}

func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		dispatcher:   opts.Dispatcher,
		messenger:    opts.Messenger,
		voiceAgent:   opts.VoiceAgent,
		voiceAgentID: strings.TrimSpace(opts.VoiceAgentID),
		sourceNumber: strings.TrimSpace(opts.SourceNumber),
		baseURL:      strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		smsText:      strings.TrimSpace(opts.MissedCallSMS),
		router:       opts.Router,
		retry:        opts.Retry,
		retryDelay:   opts.RetryDelay,
		attempts:     NewAttemptTracker(),
		sessions:     NewSessionCache(SessionRetention),
		audit:        opts.Audit,
		log:          opts.Logger,
		now:          opts.Now,
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	o.sessions.Now = o.now
	if o.router == nil {
		o.router = routing.NewEngine(routing.DefaultBusinessHours(nil), "", "")
		o.router.Now = o.now
	}
	if o.retryDelay <= 0 {
		o.retryDelay = RetryDelay
	}
	if o.retry == nil {
		o.timers = NewTimerScheduler(o.fireRetry)
		o.retry = o.timers
	}
	o.ctx, o.cancel = context.WithCancel(context.Background())
	return o
}

// Start begins the hourly session sweep. It is safe to call once.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cron != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", SweepInterval), o.sweepSessions); err != nil {
		return fmt.Errorf("calls: schedule session sweep: %w", err)
	}
	c.Start()
	o.cron = c
	logger.FromOr(ctx, o.log).Info("session sweep started", "interval", SweepInterval.String())
	return nil
}

// Close stops the sweep, cancels in-process retries and waits for background sends.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	c := o.cron
	o.cron = nil
	o.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
	if o.timers != nil {
		o.timers.Stop()
	}
	o.cancel()
	o.wg.Wait()
}

// Attempts reports the recorded dispatch attempts for identity.
func (o *Orchestrator) Attempts(identity string) int {
	return o.attempts.Attempts(identity)
}

// PlaceOutboundCall dials a lead unless it already reached MaxAttempts.
// The attempt is consumed before dispatch, so configuration and provider failures still count.
func (o *Orchestrator) PlaceOutboundCall(ctx context.Context, identity string) Outcome {
	log := logger.FromOr(ctx, o.log).With("to", identity)
	if strings.TrimSpace(identity) == "" {
		log.Warn("outbound call rejected", "err", ErrInvalidIdentity)
		return OutcomeInvalid
	}

	log.Info("initiating outbound call")
	attempt, ok := o.attempts.TryAcquire(identity, MaxAttempts)
	if !ok {
		log.Info("max attempts reached, not calling", "attempts", attempt)
		o.audit.Record(ctx, audit.Event{
			Type: audit.EventTypeCallRefused, Phone: identity, Attempt: attempt,
			Message: "max attempts reached",
		})
		return OutcomeMaxAttempts
	}

	call, err := o.outboundCall(identity)
	if err != nil {
		log.Error("outbound call not configured", "attempt", attempt, "err", err)
		o.audit.Record(ctx, audit.Event{
			Type: audit.EventTypeDispatchFailed, Phone: identity, Attempt: attempt, Message: err.Error(),
		})
		return OutcomeConfigError
	}

	sid, err := o.dispatcher.DispatchCall(ctx, call)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrProvider, err)
		log.Error("outbound call failed", "attempt", attempt, "err", err)
		o.audit.Record(ctx, audit.Event{
			Type: audit.EventTypeDispatchFailed, Phone: identity, Attempt: attempt, Message: err.Error(),
		})
		return OutcomeProviderError
	}

	log.Info("outbound call queued", "call_sid", sid, "attempt", attempt)
	o.audit.Record(ctx, audit.Event{
		Type: audit.EventTypeCallDispatched, Phone: identity, ProviderRef: sid, Attempt: attempt,
	})
	return OutcomeDispatched
}

func (o *Orchestrator) outboundCall(identity string) (OutboundCall, error) {
	switch {
	case o.dispatcher == nil:
		return OutboundCall{}, fmt.Errorf("%w: calling provider", ErrConfiguration)
	case o.sourceNumber == "":
		return OutboundCall{}, fmt.Errorf("%w: source number", ErrConfiguration)
	case o.baseURL == "":
		return OutboundCall{}, fmt.Errorf("%w: base url", ErrConfiguration)
	}
	return OutboundCall{
		To:                identity,
		From:              o.sourceNumber,
		InstructionsURL:   o.baseURL + RouterPath,
		StatusCallbackURL: o.baseURL + StatusPath,
		MachineDetection:  MachineDetectionEnable,
	}, nil
}

// RouteCall decides who takes an inbound or answered leg. It always returns a decision.
func (o *Orchestrator) RouteCall(ctx context.Context, sessionID, from, to string) routing.Decision {
	log := logger.FromOr(ctx, o.log).With("call_sid", sessionID)

	var d routing.Decision
	if o.router.Target() == routing.TargetHuman {
		d = o.router.Human("business_hours")
	} else {
		id, err := o.RegisterVoiceAgentSession(ctx, sessionID, DirectionInbound, from, to)
		if err != nil {
			log.Error("voice agent unavailable, routing to human", "err", err)
			d = o.router.Human("voice_agent_unavailable")
		} else {
			d = routing.DialVoiceAgent(id, "after_hours")
		}
	}

	log.Info("call routed", "action", d.Action, "reason", d.Reason)
	o.audit.Record(ctx, audit.Event{
		Type: audit.EventTypeCallRouted, Phone: from, SessionID: sessionID,
		Status: string(d.Action), Message: d.Reason,
	})
	return d
}

// RegisterVoiceAgentSession returns the voice agent call id for sessionID,
// registering the leg with the provider only on a cache miss.
func (o *Orchestrator) RegisterVoiceAgentSession(ctx context.Context, sessionID, direction, from, to string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	log := logger.FromOr(ctx, o.log).With("call_sid", sessionID)

	id, cached, err := o.sessions.GetOrRegister(ctx, sessionID, func(ctx context.Context) (string, error) {
		if o.voiceAgent == nil || o.voiceAgentID == "" {
			return "", ErrVoiceAgentNotConfigured
		}
		id, err := o.voiceAgent.RegisterSession(ctx, VoiceAgentSession{
			AgentID: o.voiceAgentID, Direction: direction, From: from, To: to,
		})
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrProvider, err)
		}
		return id, nil
	})
	if err != nil {
		return "", err
	}
	if cached {
		log.Debug("voice agent session reused", "agent_call_id", id)
	} else {
		log.Info("voice agent session registered", "agent_call_id", id)
	}
	return id, nil
}

// OnCallStatus reacts to a terminal call status. Only no-answer schedules a retry.
func (o *Orchestrator) OnCallStatus(ctx context.Context, rawStatus, destination string) {
	log := logger.FromOr(ctx, o.log).With("to", destination)
	status, ok := ParseCallStatus(rawStatus)
	if !ok {
		log.Debug("ignoring call status", "status", rawStatus)
		return
	}
	o.audit.Record(ctx, audit.Event{Type: audit.EventTypeCallStatus, Phone: destination, Status: string(status)})

	switch status {
	case CallStatusNoAnswer:
		if strings.TrimSpace(destination) == "" {
			log.Warn("no-answer without destination, not retrying")
			return
		}
		log.Warn("call not answered, scheduling retry", "delay", o.retryDelay.String())
		if err := o.retry.Schedule(ctx, destination, o.retryDelay); err != nil {
			log.Error("retry scheduling failed", "err", err)
		} else {
			o.audit.Record(ctx, audit.Event{Type: audit.EventTypeRetryScheduled, Phone: destination})
		}
		o.sendMissedCallSMS(destination)
	case CallStatusCompleted:
		log.Info("call completed")
	case CallStatusFailed, CallStatusBusy:
		log.Warn("call not connected, no retry", "status", status)
	default:
		log.Debug("ignoring call status", "status", status)
	}
}

// DialResult decides what follows a human dial leg.
func (o *Orchestrator) DialResult(ctx context.Context, dialStatus, dialed string) routing.Decision {
	d := o.router.AfterDial(dialStatus, dialed)
	logger.FromOr(ctx, o.log).Info("dial result", "dial_status", dialStatus, "action", d.Action, "reason", d.Reason)
	return d
}

func (o *Orchestrator) sendMissedCallSMS(to string) {
	if o.smsText == "" || o.messenger == nil || o.sourceNumber == "" {
		return
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ctx, cancel := context.WithTimeout(o.ctx, providerTimeout)
		defer cancel()
		if err := o.messenger.SendMessage(ctx, to, o.sourceNumber, o.smsText); err != nil {
			o.log.Warn("missed call sms failed", "to", to, "err", err)
			return
		}
		o.log.Info("missed call sms sent", "to", to)
	}()
}

func (o *Orchestrator) fireRetry(identity string) {
	ctx, cancel := context.WithTimeout(o.ctx, providerTimeout)
	defer cancel()
	o.log.Info("executing retry", "to", identity)
	o.PlaceOutboundCall(ctx, identity)
}

func (o *Orchestrator) sweepSessions() {
	if n := o.sessions.Sweep(o.now()); n > 0 {
		o.log.Debug("expired voice agent sessions removed", "count", n)
	}
}
