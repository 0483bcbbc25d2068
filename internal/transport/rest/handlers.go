package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/chat-ops/chat-relay/internal/contracts/chatevent"
	"github.com/chat-ops/chat-relay/internal/domain"
	"github.com/chat-ops/chat-relay/internal/logger"
	appCtx "github.com/chat-ops/chat-relay/internal/pkg/context"
	"github.com/chat-ops/chat-relay/internal/service"
	"github.com/chat-ops/chat-relay/internal/transport/rest/response"
	"github.com/go-chi/render"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	svc *service.RelayService
}

func NewHandler(svc *service.RelayService) *Handler {
	return &Handler{svc: svc}
}

// Liveness answers the platform's probe. No body processing.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Inbound receives the raw platform envelope. The contract with the platform
// is strict: HTTP 200 with an empty JSON body, success or not. Internal
// failures are logged and absorbed so the platform never starts a retry
// storm or flags the bot as broken. Callback-flagged bodies never reach this
// handler; CallbackFlagRouter peels them off upstream.
func (h *Handler) Inbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Msg("inbound_body_read_failed")
		response.Empty(w)
		return
	}

	var env chatevent.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Msg("inbound_envelope_invalid")
		response.Empty(w)
		return
	}

	h.svc.HandleEvent(r.Context(), env)
	response.Empty(w)
}

// Callback receives the engine's completion event on the dedicated route.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	var res domain.CallbackResult
	if err := render.DecodeJSON(io.LimitReader(r.Body, maxBodyBytes), &res); err != nil {
		response.Fail(w, http.StatusBadRequest, "callback.invalid", "invalid body", appCtx.GetRequestID(r.Context()))
		return
	}
	h.reconcile(w, r, res)
}

func (h *Handler) reconcileRaw(w http.ResponseWriter, r *http.Request, body []byte) {
	var res domain.CallbackResult
	if err := json.Unmarshal(body, &res); err != nil {
		response.Fail(w, http.StatusBadRequest, "callback.invalid", "invalid body", appCtx.GetRequestID(r.Context()))
		return
	}
	h.reconcile(w, r, res)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request, res domain.CallbackResult) {
	if err := h.svc.Reconcile(r.Context(), res); err != nil {
		if errors.Is(err, domain.ErrMissingIdentity) {
			response.Fail(w, http.StatusBadRequest, "callback.missing_identity", err.Error(), appCtx.GetRequestID(r.Context()))
			return
		}
		// Platform patch failure: tell the engine so it may retry.
		response.Fail(w, http.StatusInternalServerError, "callback.patch_failed", "message patch failed", appCtx.GetRequestID(r.Context()))
		return
	}

	response.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
