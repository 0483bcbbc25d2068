package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chat-ops/chat-relay/internal/chat"
	"github.com/chat-ops/chat-relay/internal/contracts/chatevent"
	"github.com/chat-ops/chat-relay/internal/dispatch"
	"github.com/chat-ops/chat-relay/internal/domain"
	"github.com/chat-ops/chat-relay/internal/logger"
	appCtx "github.com/chat-ops/chat-relay/internal/pkg/context"
)

// emptyTextMarker is echoed when an actionable event carries no text.
const emptyTextMarker = "[no text]"

// PendingRef identifies a dispatched placeholder awaiting reconciliation.
type PendingRef struct {
	SpaceID   string
	MessageID string
}

// PendingStore tracks dispatched placeholders so the sweeper can finalize
// the ones whose callback never arrived. Optional: a nil store disables
// tracking and the relay stays fully stateless.
type PendingStore interface {
	Add(ctx context.Context, ref PendingRef, at time.Time) error
	Remove(ctx context.Context, ref PendingRef) error
	Stale(ctx context.Context, olderThan time.Time) ([]PendingRef, error)
}

type RelayService struct {
	chat       chat.Client
	dispatcher *dispatch.Dispatcher
	pending    PendingStore // may be nil

	callbackURL     string
	placeholderText string
	fallbackText    string
}

func NewRelayService(chatClient chat.Client, dispatcher *dispatch.Dispatcher, pending PendingStore, callbackURL, placeholderText, fallbackText string) *RelayService {
	return &RelayService{
		chat:            chatClient,
		dispatcher:      dispatcher,
		pending:         pending,
		callbackURL:     callbackURL,
		placeholderText: placeholderText,
		fallbackText:    fallbackText,
	}
}

// HandleEvent runs one inbound turn: normalize, publish the placeholder,
// dispatch. It never returns an error for collaborator failures; the caller
// owes the platform a success response either way, so failures are logged
// and absorbed here.
func (s *RelayService) HandleEvent(ctx context.Context, env chatevent.Envelope) {
	ev := chatevent.Normalize(env)
	if !ev.Actionable() {
		logger.Ctx(ctx).Debug().
			Str("event_type", string(ev.EventType)).
			Msg("event_not_actionable")
		return
	}

	messageID := domain.NewMessageID()
	ctx = appCtx.WithCorrelationID(ctx, messageID)
	log := logger.Ctx(ctx)

	if err := s.chat.CreateMessage(ctx, ev.SpaceID, messageID, s.placeholderText, ev.ThreadID); err != nil {
		// Availability over consistency: the turn still answers the platform
		// with success. Without a placeholder there is nothing for a callback
		// to patch, so the job is not dispatched either.
		log.Error().Err(err).
			Str("space_id", ev.SpaceID).
			Msg("placeholder_create_failed")
		return
	}
	log.Info().
		Str("space_id", ev.SpaceID).
		Str("event_type", string(ev.EventType)).
		Msg("placeholder_created")

	if !s.dispatcher.Enabled() {
		s.echo(ctx, ev, messageID)
		return
	}

	if s.pending != nil {
		ref := PendingRef{SpaceID: ev.SpaceID, MessageID: messageID}
		if err := s.pending.Add(ctx, ref, time.Now()); err != nil {
			log.Warn().Err(err).Msg("pending_track_failed")
		}
	}

	s.dispatcher.Dispatch(ctx, domain.DispatchJob{
		SessionID:       ev.SpaceID,
		UserDisplayName: ev.UserDisplayName,
		Action:          string(ev.EventType),
		InputText:       ev.Text,
		Callback: domain.CallbackDescriptor{
			CallbackURL: s.callbackURL,
			SpaceID:     ev.SpaceID,
			MessageID:   messageID,
		},
	})
}

// echo is the degraded/offline path used when no engine is configured: the
// placeholder is patched synchronously with a deterministic string.
func (s *RelayService) echo(ctx context.Context, ev domain.NormalizedEvent, messageID string) {
	text := ev.Text
	if text == "" {
		text = emptyTextMarker
	}
	final := fmt.Sprintf("Echo (%s): %s", ev.UserDisplayName, text)

	if err := s.chat.PatchMessage(ctx, ev.SpaceID, messageID, final); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("echo_patch_failed")
		return
	}
	logger.Ctx(ctx).Info().Msg("echo_patched")
}

// Reconcile finalizes the placeholder named by the callback. The placeholder
// is always replaced with readable content: the engine's text when present
// and the error flag is clear, the configured fallback otherwise. The patch
// is a full replace, so repeated callbacks for the same message id are
// harmless and last write wins.
func (s *RelayService) Reconcile(ctx context.Context, res domain.CallbackResult) error {
	if strings.TrimSpace(res.SpaceID) == "" || strings.TrimSpace(res.MessageID) == "" {
		return domain.ErrMissingIdentity
	}

	ctx = appCtx.WithCorrelationID(ctx, res.MessageID)

	final := s.fallbackText
	if !res.Error && strings.TrimSpace(res.Text) != "" {
		final = res.Text
	}

	if err := s.chat.PatchMessage(ctx, res.SpaceID, res.MessageID, final); err != nil {
		// Platform error: surfaced so the engine may retry the callback.
		logger.Ctx(ctx).Error().Err(err).
			Str("space_id", res.SpaceID).
			Msg("reconcile_patch_failed")
		return err
	}

	if s.pending != nil {
		ref := PendingRef{SpaceID: res.SpaceID, MessageID: res.MessageID}
		if err := s.pending.Remove(ctx, ref); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("pending_remove_failed")
		}
	}

	logger.Ctx(ctx).Info().
		Str("space_id", res.SpaceID).
		Bool("engine_error", res.Error).
		Msg("placeholder_finalized")
	return nil
}
