package service

import (
	"context"
	"time"

	"github.com/chat-ops/chat-relay/internal/chat"
	"github.com/chat-ops/chat-relay/internal/logger"
)

// Sweeper finalizes placeholders whose callback never arrived: anything
// tracked in the pending store for longer than `after` gets patched with the
// fallback text and dropped. Without it a silently failed dispatch leaves a
// "working" message in the conversation forever.
type Sweeper struct {
	chat     chat.Client
	store    PendingStore
	fallback string
	after    time.Duration
	interval time.Duration
}

func NewSweeper(chatClient chat.Client, store PendingStore, fallbackText string, after, interval time.Duration) *Sweeper {
	return &Sweeper{
		chat:     chatClient,
		store:    store,
		fallback: fallbackText,
		after:    after,
		interval: interval,
	}
}

// Start runs the sweep loop until ctx is canceled.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Sweep runs one pass. Entries whose patch fails stay tracked and are
// retried on the next pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	refs, err := s.store.Stale(ctx, time.Now().Add(-s.after))
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("sweep_list_failed")
		return
	}

	for _, ref := range refs {
		if err := s.chat.PatchMessage(ctx, ref.SpaceID, ref.MessageID, s.fallback); err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Str("space_id", ref.SpaceID).
				Str("message_id", ref.MessageID).
				Msg("sweep_patch_failed")
			continue
		}
		if err := s.store.Remove(ctx, ref); err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Str("message_id", ref.MessageID).
				Msg("sweep_remove_failed")
			continue
		}
		logger.Ctx(ctx).Info().
			Str("space_id", ref.SpaceID).
			Str("message_id", ref.MessageID).
			Msg("stale_placeholder_finalized")
	}
}
