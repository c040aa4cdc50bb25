package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"lead-dialer/internal/auth"
	"lead-dialer/internal/calls"
	"lead-dialer/pkg/logger"
)

type stubPlacer struct {
	dialed  []string
	outcome calls.Outcome
	ctx     context.Context
}

func (s *stubPlacer) PlaceOutboundCall(ctx context.Context, identity string) calls.Outcome {
	s.dialed = append(s.dialed, identity)
	s.ctx = ctx
	return s.outcome
}

func newTestRouter(h Handlers, mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", h.Healthz)
	r.GET("/test-call", append(mw, h.TestCall)...)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestTestCall_RequiresPhone(t *testing.T) {
	p := &stubPlacer{}
	w := get(newTestRouter(Handlers{Calls: p}), "/test-call")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(p.dialed) != 0 {
		t.Fatalf("expected no call")
	}
}

func TestTestCall_PlacesCall(t *testing.T) {
	p := &stubPlacer{outcome: calls.OutcomeDispatched}
	w := get(newTestRouter(Handlers{Calls: p}), "/test-call?phone=%2B447700900123")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		To      string `json:"to"`
		Outcome string `json:"outcome"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.To != "+447700900123" || body.Outcome != "dispatched" || body.Message != "Call initiated to +447700900123" {
		t.Fatalf("unexpected body %+v", body)
	}
	if len(p.dialed) != 1 || p.dialed[0] != "+447700900123" {
		t.Fatalf("unexpected calls %v", p.dialed)
	}
}

func TestTestCall_RateLimited(t *testing.T) {
	p := &stubPlacer{outcome: calls.OutcomeDispatched}
	limiter := NewIPRateLimiter(rate.Limit(0.001), 1)
	r := newTestRouter(Handlers{Calls: p}, limiter.Middleware())

	if w := get(r, "/test-call?phone=1"); w.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", w.Code)
	}
	if w := get(r, "/test-call?phone=1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if len(p.dialed) != 1 {
		t.Fatalf("expected one call, got %d", len(p.dialed))
	}
}

func TestHealthz(t *testing.T) {
	w := get(newTestRouter(Handlers{}), "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	h := Handlers{Checks: map[string]func(context.Context) error{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("down") },
	}}
	w = get(newTestRouter(h), "/healthz")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Status != "degraded" || body.Checks["redis"] != "down" || body.Checks["postgres"] != "ok" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestTestCall_LogsRequestingOperator(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	withOperator := func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.WithOperator(c.Request.Context(), "ops@example.com"))
		c.Next()
	}
	p := &stubPlacer{outcome: calls.OutcomeDispatched}
	r := newTestRouter(Handlers{Calls: p}, logger.Middleware(log), withOperator)

	if w := get(r, "/test-call?phone=%2B447700900123"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"operator":"ops@example.com"`)) {
		t.Fatalf("expected operator in request log, got %s", buf.String())
	}

	// The placer logs through the same operator-scoped logger.
	buf.Reset()
	logger.From(p.ctx).Info("placed")
	if !bytes.Contains(buf.Bytes(), []byte(`"operator":"ops@example.com"`)) {
		t.Fatalf("expected operator on call context logger, got %s", buf.String())
	}
}
