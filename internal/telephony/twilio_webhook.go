package telephony

import "strings"

// Twilio posts application/x-www-form-urlencoded by default; the json tags let
// the same forms bind from JSON bodies used by tooling and tests.

// CallStatusForm is the status callback for an outbound leg.
type CallStatusForm struct {
	CallSid    string `form:"CallSid" json:"CallSid"`
	CallStatus string `form:"CallStatus" json:"CallStatus"`
	To         string `form:"To" json:"To"`
	AnsweredBy string `form:"AnsweredBy" json:"AnsweredBy"`
}

// VoiceForm is the voice request Twilio sends when a leg needs instructions.
type VoiceForm struct {
	CallSid    string `form:"CallSid" json:"CallSid"`
	AccountSid string `form:"AccountSid" json:"AccountSid"`
	From       string `form:"From" json:"From"`
	To         string `form:"To" json:"To"`
	Direction  string `form:"Direction" json:"Direction"`
	CallStatus string `form:"CallStatus" json:"CallStatus"`
	AnsweredBy string `form:"AnsweredBy" json:"AnsweredBy"`
}

// DialResultForm is posted to a <Dial action> once the dialed party hangs up or never answers.
type DialResultForm struct {
	CallSid        string `form:"CallSid" json:"CallSid"`
	DialCallStatus string `form:"DialCallStatus" json:"DialCallStatus"`
	DialCallSid    string `form:"DialCallSid" json:"DialCallSid"`
}

func (f *CallStatusForm) normalize() {
	f.CallStatus = strings.TrimSpace(f.CallStatus)
	f.To = strings.TrimSpace(f.To)
}

func (f *VoiceForm) normalize() {
	f.CallSid = strings.TrimSpace(f.CallSid)
	f.From = strings.TrimSpace(f.From)
	f.To = strings.TrimSpace(f.To)
}
