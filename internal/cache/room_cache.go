package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizroom/internal/model"
)

// RoomCache handles Redis operations for room codes and room metadata
type RoomCache interface {
	ReserveCode(ctx context.Context, code string) (bool, error)
	ReleaseCode(ctx context.Context, code string) error
	SetMeta(ctx context.Context, code string, meta *model.RoomMeta) error
	GetMeta(ctx context.Context, code string) (*model.RoomMeta, error)
	SetStatus(ctx context.Context, code string, status model.RoomStatus) error
	Delete(ctx context.Context, code string) error
}

type roomCache struct {
	client     *redis.Client
	ttl        time.Duration
	reserveTTL time.Duration
}

// NewRoomCache creates a new room cache
func NewRoomCache(client *redis.Client) RoomCache {
	return &roomCache{
		client:     client,
		ttl:        24 * time.Hour,
		reserveTTL: time.Minute,
	}
}

func (c *roomCache) key(code string) string {
	return fmt.Sprintf("room:%s", code)
}

func (c *roomCache) codeKey(code string) string {
	return fmt.Sprintf("room:code:%s", code)
}

// ReserveCode claims code for a pending room creation. The claim is short-lived;
// the unique index on rooms.code remains the authority.
func (c *roomCache) ReserveCode(ctx context.Context, code string) (bool, error) {
	return c.client.SetNX(ctx, c.codeKey(code), time.Now().Unix(), c.reserveTTL).Result()
}

func (c *roomCache) ReleaseCode(ctx context.Context, code string) error {
	return c.client.Del(ctx, c.codeKey(code)).Err()
}

func (c *roomCache) SetMeta(ctx context.Context, code string, meta *model.RoomMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(code), data, c.ttl).Err()
}

func (c *roomCache) GetMeta(ctx context.Context, code string) (*model.RoomMeta, error) {
	data, err := c.client.Get(ctx, c.key(code)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var meta model.RoomMeta
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *roomCache) SetStatus(ctx context.Context, code string, status model.RoomStatus) error {
	meta, err := c.GetMeta(ctx, code)
	if err != nil {
		return err
	}
	if meta == nil {
		return nil
	}
	meta.Status = status
	return c.SetMeta(ctx, code, meta)
}

func (c *roomCache) Delete(ctx context.Context, code string) error {
	return c.client.Del(ctx, c.key(code), c.codeKey(code)).Err()
}
