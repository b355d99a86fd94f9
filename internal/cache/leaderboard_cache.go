package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizroom/internal/model"
)

// LeaderboardCache keeps the last computed ranking of a room. The ZSET holds
// participant IDs scored by rank; the hash holds the full result rows.
// Every Invalidate bumps a generation counter. A ranking computed before a
// bump is refused by Store, so an invalidation is never undone by a slower
// reader.
type LeaderboardCache interface {
	Generation(ctx context.Context, roomID string) (int64, error)
	Store(ctx context.Context, roomID string, gen int64, ranked []model.ParticipantResult) (bool, error)
	Top(ctx context.Context, roomID string, limit int) ([]model.ParticipantResult, bool, error)
	Rank(ctx context.Context, roomID, participantID string) (int64, error)
	Invalidate(ctx context.Context, roomID string) error
}

type leaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *leaderboardCache) key(roomID string) string {
	return fmt.Sprintf("room:%s:lb", roomID)
}

func (c *leaderboardCache) entriesKey(roomID string) string {
	return fmt.Sprintf("room:%s:lb:entries", roomID)
}

func (c *leaderboardCache) genKey(roomID string) string {
	return fmt.Sprintf("room:%s:lb:gen", roomID)
}

// Generation returns the current invalidation counter of a room, 0 if it
// was never invalidated. Read it before reading the answer ledger.
func (c *leaderboardCache) Generation(ctx context.Context, roomID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(roomID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// Store replaces the cached ranking if the room is still at generation gen.
// It reports false when an invalidation got in first.
func (c *leaderboardCache) Store(ctx context.Context, roomID string, gen int64, ranked []model.ParticipantResult) (bool, error) {
	zs := make([]redis.Z, 0, len(ranked))
	entries := make(map[string]interface{}, len(ranked))
	for _, r := range ranked {
		data, err := json.Marshal(r)
		if err != nil {
			return false, err
		}
		zs = append(zs, redis.Z{Score: float64(r.Rank), Member: r.ParticipantID})
		entries[r.ParticipantID] = data
	}

	stored := false
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, c.genKey(roomID)).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, c.key(roomID), c.entriesKey(roomID))
			if len(zs) > 0 {
				pipe.ZAdd(ctx, c.key(roomID), zs...)
				pipe.HSet(ctx, c.entriesKey(roomID), entries)
				pipe.Expire(ctx, c.key(roomID), c.ttl)
				pipe.Expire(ctx, c.entriesKey(roomID), c.ttl)
			}
			return nil
		})
		if err != nil {
			return err
		}
		stored = true
		return nil
	}, c.genKey(roomID))
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored, nil
}

// Top returns the best limit entries in rank order. The boolean is false on a cache miss.
func (c *leaderboardCache) Top(ctx context.Context, roomID string, limit int) ([]model.ParticipantResult, bool, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := c.client.ZRange(ctx, c.key(roomID), 0, stop).Result()
	if err != nil {
		return nil, false, err
	}
	if len(ids) == 0 {
		return nil, false, nil
	}

	raw, err := c.client.HMGet(ctx, c.entriesKey(roomID), ids...).Result()
	if err != nil {
		return nil, false, err
	}
	entries := make([]model.ParticipantResult, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			// entries hash expired or was cleared under us
			return nil, false, nil
		}
		var entry model.ParticipantResult
		if err := json.Unmarshal([]byte(s), &entry); err != nil {
			return nil, false, err
		}
		entries = append(entries, entry)
	}
	return entries, true, nil
}

// Rank returns the 1-based rank of a participant, or -1 if it is not cached.
func (c *leaderboardCache) Rank(ctx context.Context, roomID, participantID string) (int64, error) {
	score, err := c.client.ZScore(ctx, c.key(roomID), participantID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	return int64(score), nil
}

// Invalidate drops the cached ranking and bumps the generation.
func (c *leaderboardCache) Invalidate(ctx context.Context, roomID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(roomID))
		pipe.Expire(ctx, c.genKey(roomID), c.ttl)
		pipe.Del(ctx, c.key(roomID), c.entriesKey(roomID))
		return nil
	})
	return err
}
