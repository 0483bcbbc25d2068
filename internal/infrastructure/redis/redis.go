// PATH: internal/infrastructure/redis/redis.go
package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chat-ops/chat-relay/internal/logger"
	"github.com/chat-ops/chat-relay/internal/service"
	"github.com/redis/go-redis/v9"
)

const pendingKey = "relay:pending"

// retention caps how long an entry can sit in the set even if its patch
// keeps failing; members older than this get one last sweep and are trimmed.
const retention = 24 * time.Hour

// PendingStore keeps dispatched placeholders in a sorted set scored by
// dispatch time. Members are "spaceID|messageID"; the space name cannot
// contain '|' so the split is unambiguous.
type PendingStore struct {
	Client *redis.Client
}

func New(addr, pass string, db int) *PendingStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr, Password: pass, DB: db,
	})
	return &PendingStore{Client: rdb}
}

func member(ref service.PendingRef) string {
	return ref.SpaceID + "|" + ref.MessageID
}

func parseMember(m string) (service.PendingRef, bool) {
	i := strings.LastIndex(m, "|")
	if i <= 0 || i == len(m)-1 {
		return service.PendingRef{}, false
	}
	return service.PendingRef{SpaceID: m[:i], MessageID: m[i+1:]}, true
}

func (s *PendingStore) Add(ctx context.Context, ref service.PendingRef, at time.Time) error {
	return s.Client.ZAdd(ctx, pendingKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: member(ref),
	}).Err()
}

func (s *PendingStore) Remove(ctx context.Context, ref service.PendingRef) error {
	return s.Client.ZRem(ctx, pendingKey, member(ref)).Err()
}

func (s *PendingStore) Stale(ctx context.Context, olderThan time.Time) ([]service.PendingRef, error) {
	members, err := s.Client.ZRangeByScore(ctx, pendingKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", olderThan.Unix()),
	}).Result()
	if err != nil {
		return nil, err
	}

	// Entries beyond the retention window are still in the returned set, so
	// the caller finalizes them on this pass; the trim only stops the set
	// from growing when a patch keeps failing.
	cutoff := time.Now().Add(-retention).Unix()
	trimmed, err := s.Client.ZRemRangeByScore(ctx, pendingKey, "-inf", strconv.FormatInt(cutoff, 10)).Result()
	if err == nil && trimmed > 0 {
		logger.Ctx(ctx).Warn().Int64("count", trimmed).Msg("pending_retention_trimmed")
	}

	refs := make([]service.PendingRef, 0, len(members))
	for _, m := range members {
		if ref, ok := parseMember(m); ok {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}
