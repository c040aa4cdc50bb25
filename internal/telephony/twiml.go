package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"net/url"
	"strings"

	"lead-dialer/internal/routing"
)

// TwiML is a minimal Twilio Markup Language response builder.
// Only the verbs routing decisions need are modelled.

const ContentTypeTwiML = "text/xml"

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlDial struct {
	XMLName xml.Name  `xml:"Dial"`
	Action  string    `xml:"action,attr,omitempty"`
	Method  string    `xml:"method,attr,omitempty"`
	Number  string    `xml:"Number,omitempty"`
	Sip     *twimlSip `xml:"Sip,omitempty"`
}

type twimlSip struct {
	URI string `xml:",chardata"`
}

// RenderOptions carries the absolute URLs a rendered document may point back to.
type RenderOptions struct {
	// DialResultURL receives the outcome of a human dial that asked for a follow-up.
	DialResultURL string
}

// RenderTwiML maps a routing decision to a TwiML document.
func RenderTwiML(d routing.Decision, opts RenderOptions) (string, error) {
	var r twimlResponse

	switch d.Action {
	case routing.ActionDialHuman:
		if strings.TrimSpace(d.Target) == "" {
			return "", errors.New("telephony: target required for dial_human")
		}
		dial := twimlDial{Number: d.Target}
		if d.FollowUp && opts.DialResultURL != "" {
			dial.Action = dialResultURL(opts.DialResultURL, d.Target)
			dial.Method = "POST"
		}
		r.Verbs = append(r.Verbs, dial)
	case routing.ActionDialVoiceAgent:
		if strings.TrimSpace(d.Target) == "" {
			return "", errors.New("telephony: target required for dial_voice_agent")
		}
		r.Verbs = append(r.Verbs, twimlDial{Sip: &twimlSip{URI: SIPURI(d.Target)}})
	case routing.ActionAnnounce:
		r.Verbs = append(r.Verbs, twimlSay{Text: d.Message})
	case routing.ActionHangup:
		r.Verbs = append(r.Verbs, twimlHangup{})
	default:
		return "", errors.New("telephony: unknown routing action")
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// dialResultURL tags the callback with the dialed number, which Twilio does not echo back.
func dialResultURL(base, dialed string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("dialed", dialed)
	u.RawQuery = q.Encode()
	return u.String()
}
