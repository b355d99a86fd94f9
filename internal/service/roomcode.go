package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"quizroom/internal/cache"
	"quizroom/internal/model"
	"quizroom/internal/repository"
)

const (
	roomCodeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomCodeLength      = 6
	roomCodeMaxAttempts = 10
)

// generateRoomCode samples a 6-char code. 256 is a multiple of the alphabet
// size, so reducing a random byte modulo 32 stays uniform.
func generateRoomCode() (string, error) {
	b := make([]byte, roomCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = roomCodeAlphabet[int(b[i])%len(roomCodeAlphabet)]
	}
	return string(b), nil
}

// NormalizeRoomCode makes user-supplied codes comparable with stored ones.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func roomMeta(room *model.Room) *model.RoomMeta {
	return &model.RoomMeta{RoomID: room.ID, CreatorID: room.CreatorID, Status: room.Status, CreatedAt: room.CreatedAt}
}

// findRoomByCode resolves a normalized code through the Redis code index and
// loads the room by ID. Index misses fall back to the code lookup and refill
// the index; entries pointing at a missing or recoded room are dropped.
// Returns nil, nil when no room has the code.
func findRoomByCode(ctx context.Context, rooms repository.RoomRepo, index cache.RoomCache, log *zerolog.Logger, code string) (*model.Room, error) {
	meta, err := index.GetMeta(ctx, code)
	if err != nil {
		log.Warn().Err(err).Str("code", code).Msg("room index unavailable")
	}
	if meta != nil {
		room, err := rooms.GetByID(ctx, meta.RoomID)
		if err != nil {
			return nil, fmt.Errorf("failed to get room: %w", err)
		}
		if room != nil && room.Code == code {
			return room, nil
		}
		if err := index.Delete(ctx, code); err != nil {
			log.Warn().Err(err).Str("code", code).Msg("failed to drop stale room index entry")
		}
	}

	room, err := rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, nil
	}
	if err := index.SetMeta(ctx, code, roomMeta(room)); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("failed to cache room meta")
	}
	return room, nil
}
