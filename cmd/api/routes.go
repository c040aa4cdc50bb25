package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"lead-dialer/internal/auth"
	"lead-dialer/internal/calls"
	"lead-dialer/internal/httpapi"
	"lead-dialer/internal/telephony"
)

type routeDeps struct {
	Orchestrator *calls.Orchestrator
	Auth         *auth.Manager
	BaseURL      string
	Checks       map[string]func(context.Context) error
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	h := httpapi.Handlers{Calls: d.Orchestrator, Checks: d.Checks}

	// public
	r.GET("/healthz", h.Healthz)

	// Provider webhooks (public, unauthenticated).
	telephony.WebhookHandler{Calls: d.Orchestrator, BaseURL: d.BaseURL}.Register(r)

	// Manual trigger: 6 requests per minute per IP, operator token when auth is enabled.
	limiter := httpapi.NewIPRateLimiter(rate.Limit(6.0/60.0), 3)
	r.GET("/test-call", limiter.Middleware(), auth.RequireOperator(d.Auth), h.TestCall)
}
