package routing

// Decision is the provider-agnostic output of call routing.
//
// It must contain *only* information required for the provider adapter boundary
// (e.g., the TwiML builder) to execute the decision.
//
// No provider identity and no provider-specific fields belong here: a voice agent
// session is carried as its id, and the adapter decides how to dial it.
type Decision struct {
	Action Action `json:"action"`

	// Target is the agent phone for ActionDialHuman and the voice agent
	// session id for ActionDialVoiceAgent.
	Target string `json:"target,omitempty"`

	// Message is spoken for ActionAnnounce.
	Message string `json:"message,omitempty"`

	// FollowUp asks the adapter to report the dial result back so a backup
	// agent can be tried. Only meaningful for ActionDialHuman.
	FollowUp bool `json:"follow_up,omitempty"`

	// Reason is optional and intended for internal logs/metrics.
	Reason string `json:"reason,omitempty"`
}

type Action string

const (
	ActionDialHuman      Action = "dial_human"
	ActionDialVoiceAgent Action = "dial_voice_agent"
	ActionAnnounce       Action = "announce"
	ActionHangup         Action = "hangup"
)

// NoAgentMessage is announced when no human agent number is configured.
const NoAgentMessage = "No agent number configured."

func DialHuman(phone, reason string) Decision {
	return Decision{Action: ActionDialHuman, Target: phone, Reason: reason}
}

func DialVoiceAgent(sessionID, reason string) Decision {
	return Decision{Action: ActionDialVoiceAgent, Target: sessionID, Reason: reason}
}

func Announce(message, reason string) Decision {
	return Decision{Action: ActionAnnounce, Message: message, Reason: reason}
}

func Hangup(reason string) Decision {
	return Decision{Action: ActionHangup, Reason: reason}
}
