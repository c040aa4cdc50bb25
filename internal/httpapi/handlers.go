package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"lead-dialer/internal/auth"
	"lead-dialer/internal/calls"
	"lead-dialer/pkg/logger"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Calls calls.OutboundPlacer

	// Checks are run by Healthz; a failing check reports 503.
	Checks map[string]func(ctx context.Context) error
}

// TestCall places an outbound call to ?phone= through the normal attempt policy.
func (h Handlers) TestCall(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	phone := strings.TrimSpace(c.Query("phone"))
	if phone == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "Please provide a phone number query parameter, e.g., /test-call?phone=+1234567890",
		})
		return
	}

	ctx := c.Request.Context()
	log := logger.FromGin(c)
	if op, err := auth.Operator(ctx); err == nil {
		log = log.With("operator", op)
		ctx = logger.With(ctx, log)
	}
	log.Info("manual test call requested", "to", phone)
	outcome := h.Calls.PlaceOutboundCall(ctx, phone)
	c.JSON(http.StatusOK, gin.H{
		"to":      phone,
		"outcome": outcome,
		"message": outcomeMessage(outcome, phone),
	})
}

func outcomeMessage(o calls.Outcome, phone string) string {
	switch o {
	case calls.OutcomeDispatched:
		return fmt.Sprintf("Call initiated to %s", phone)
	case calls.OutcomeMaxAttempts:
		return fmt.Sprintf("Max attempts reached for %s", phone)
	case calls.OutcomeConfigError:
		return "Calling is not configured"
	case calls.OutcomeProviderError:
		return "Calling provider rejected the call"
	default:
		return "Call not placed"
	}
}

func (h Handlers) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			logger.FromGin(c).Warn("health check failed", "check", name, "err", err)
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := gin.H{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(checks) > 0 {
		body["checks"] = checks
	}
	c.JSON(status, body)
}
