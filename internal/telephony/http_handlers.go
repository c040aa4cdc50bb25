package telephony

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"lead-dialer/internal/calls"
	"lead-dialer/internal/routing"
	"lead-dialer/pkg/logger"
)

// UnavailableMessage is announced when a voice request cannot be understood.
const UnavailableMessage = "We are unable to take your call right now. Please try again later."

// CallEngine is the part of the orchestrator the webhooks drive.
type CallEngine interface {
	RouteCall(ctx context.Context, sessionID, from, to string) routing.Decision
	OnCallStatus(ctx context.Context, status, destination string)
	DialResult(ctx context.Context, dialStatus, dialed string) routing.Decision
}

// WebhookHandler converts Twilio webhooks to orchestrator calls and writes TwiML.
//
// No business logic here. Provider callbacks always get 200: a non-2xx makes
// Twilio retry or play an error to the caller.
type WebhookHandler struct {
	Calls CallEngine

	// BaseURL is the public origin used to build the dial-result callback.
	BaseURL string
}

func (h WebhookHandler) Register(r gin.IRoutes) {
	r.POST(calls.StatusPath, h.CallStatus)
	r.POST(calls.RouterPath, h.Router)
	r.POST(calls.DialResultPath, h.DialResult)
}

func (h WebhookHandler) CallStatus(c *gin.Context) {
	log := logger.FromGin(c)

	var form CallStatusForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warn("call status webhook parse failed", "err", err)
		c.Status(http.StatusOK)
		return
	}
	form.normalize()
	log.Info("call status webhook", "call_sid", form.CallSid, "status", form.CallStatus, "to", form.To)

	h.Calls.OnCallStatus(c.Request.Context(), form.CallStatus, form.To)
	c.Status(http.StatusOK)
}

func (h WebhookHandler) Router(c *gin.Context) {
	log := logger.FromGin(c)

	var form VoiceForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warn("router webhook parse failed", "err", err)
		h.writeTwiML(c, routing.Announce(UnavailableMessage, "invalid_request"))
		return
	}
	form.normalize()
	log.Info("router webhook", "call_sid", form.CallSid, "from", form.From, "to", form.To, "direction", form.Direction)

	d := h.Calls.RouteCall(c.Request.Context(), form.CallSid, form.From, form.To)
	h.writeTwiML(c, d)
}

func (h WebhookHandler) DialResult(c *gin.Context) {
	log := logger.FromGin(c)

	var form DialResultForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warn("dial result webhook parse failed", "err", err)
		h.writeTwiML(c, routing.Hangup("invalid_request"))
		return
	}
	dialed := c.Query("dialed")

	d := h.Calls.DialResult(c.Request.Context(), form.DialCallStatus, dialed)
	h.writeTwiML(c, d)
}

func (h WebhookHandler) writeTwiML(c *gin.Context, d routing.Decision) {
	twiml, err := RenderTwiML(d, RenderOptions{DialResultURL: h.dialResultURL()})
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "action", d.Action, "err", err)
		twiml, _ = RenderTwiML(routing.Announce(UnavailableMessage, "render_failed"), RenderOptions{})
	}
	c.Data(http.StatusOK, ContentTypeTwiML, []byte(twiml))
}

func (h WebhookHandler) dialResultURL() string {
	if h.BaseURL == "" {
		return ""
	}
	return h.BaseURL + calls.DialResultPath
}
