package routing

import (
	"strings"
	"time"
)

// Engine evaluates time-of-day routing for inbound and answered outbound legs.
//
// Return routing decisions only. No side effects (no provider calls): the caller
// owns voice agent registration and falls back to Human when it fails.
type Engine struct {
	Hours BusinessHours

	PrimaryAgent string
	BackupAgent  string

	Now func() time.Time
}

// Target is who should take the call before any provider interaction.
type Target string

const (
	TargetHuman      Target = "human"
	TargetVoiceAgent Target = "voice_agent"
)

func NewEngine(hours BusinessHours, primaryAgent, backupAgent string) *Engine {
	return &Engine{
		Hours:        hours,
		PrimaryAgent: strings.TrimSpace(primaryAgent),
		BackupAgent:  strings.TrimSpace(backupAgent),
		Now:          time.Now,
	}
}

// Target picks human during business hours and the voice agent otherwise.
func (e *Engine) Target() Target {
	if e.Hours.IsInHours(e.now()) {
		return TargetHuman
	}
	return TargetVoiceAgent
}

// AgentPhone is the primary agent number, or the backup when no primary is set.
func (e *Engine) AgentPhone() string {
	if e.PrimaryAgent != "" {
		return e.PrimaryAgent
	}
	return e.BackupAgent
}

// Human dials the agent, or announces that no agent is configured.
// The dial asks for a follow-up when a distinct backup number could still be tried.
func (e *Engine) Human(reason string) Decision {
	phone := e.AgentPhone()
	if phone == "" {
		return Announce(NoAgentMessage, "no_agent_configured")
	}
	d := DialHuman(phone, reason)
	d.FollowUp = e.hasDistinctBackup(phone)
	return d
}

// AfterDial decides what happens once a human dial leg ends.
// A leg that was not answered rolls over to the backup agent once.
func (e *Engine) AfterDial(dialStatus, dialed string) Decision {
	switch strings.ToLower(strings.TrimSpace(dialStatus)) {
	case "completed", "answered":
		return Hangup("agent_answered")
	}
	if dialed == e.BackupAgent || !e.hasDistinctBackup(e.AgentPhone()) {
		return Hangup("no_agent_available")
	}
	return DialHuman(e.BackupAgent, "backup_agent")
}

func (e *Engine) hasDistinctBackup(dialed string) bool {
	return e.BackupAgent != "" && e.BackupAgent != dialed
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
