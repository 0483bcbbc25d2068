package rest

import (
	"net/http"
	"time"

	"github.com/chat-ops/chat-relay/internal/security"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

type RouterDeps struct {
	Handler *Handler
	// Verifier is optional; nil disables inbound token verification.
	Verifier security.BearerVerifier

	RateLimitEnabled bool
	RateLimit        int
	RateLimitWindow  time.Duration
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Handler == nil {
		panic("rest.NewRouter: nil handler")
	}

	r := chi.NewRouter()

	// Request ID + trace + structured access log
	r.Use(RequestID)
	r.Use(TraceContext)
	r.Use(HTTPLogger)
	r.Use(SecurityHeaders)

	if d.RateLimitEnabled {
		r.Use(httprate.LimitByIP(d.RateLimit, d.RateLimitWindow))
	}

	r.Get("/", d.Handler.Liveness)
	r.Get("/healthz", d.Handler.Liveness)

	// Inbound event turn: errors and panics are absorbed into empty 200s.
	r.Group(func(r chi.Router) {
		r.Use(AbsorbErrors)
		r.Use(CallbackFlagRouter(d.Handler))
		if d.Verifier != nil {
			r.Use(VerifyBearer(d.Verifier))
		}
		r.Post("/", d.Handler.Inbound)
	})

	// Callback turn: errors are surfaced so the engine may retry.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recoverer)
		r.Post("/callback", d.Handler.Callback)
	})

	return r
}
