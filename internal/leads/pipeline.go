package leads

import (
	"context"
	"log/slog"

	"lead-dialer/internal/calls"
	"lead-dialer/internal/mailbox"
	"lead-dialer/internal/qualify"
	"lead-dialer/pkg/logger"
)

type Qualifier interface {
	Qualify(ctx context.Context, subject, body string) qualify.Qualification
}

type Caller interface {
	PlaceOutboundCall(ctx context.Context, identity string) calls.Outcome
}

// OutcomeNotQualified reports a message that did not lead to a call.
const OutcomeNotQualified calls.Outcome = "not_qualified"

// Pipeline turns an inbound lead message into at most one outbound call.
type Pipeline struct {
	qualifier Qualifier
	caller    Caller
	log       *slog.Logger
}

func NewPipeline(q Qualifier, c Caller, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{qualifier: q, caller: c, log: log}
}

// Process qualifies a message and dials the extracted number when the lead is qualified.
func (p *Pipeline) Process(ctx context.Context, subject, body string) calls.Outcome {
	log := logger.FromOr(ctx, p.log).With("subject", subject)
	log.Info("analyzing lead")

	q := p.qualifier.Qualify(ctx, subject, body)
	switch {
	case !q.IsQualified:
		log.Info("lead not qualified", "reason", q.Reason)
		return OutcomeNotQualified
	case q.PhoneNumber == "":
		log.Info("lead qualified but no phone number found", "reason", q.Reason)
		return OutcomeNotQualified
	}

	log.Info("lead qualified, calling", "to", q.PhoneNumber)
	return p.caller.PlaceOutboundCall(ctx, q.PhoneNumber)
}

// HandleMessage adapts Process to the mailbox watcher.
func (p *Pipeline) HandleMessage(ctx context.Context, m mailbox.Message) {
	ctx = logger.With(ctx, logger.FromOr(ctx, p.log).With("mail_uid", m.UID))
	p.Process(ctx, m.Subject, m.Body)
}
