package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"quizroom/internal/repository"
)

// Sweeper deletes records whose room no longer exists. It finishes cascades
// that DeleteRoom could not complete.
type Sweeper struct {
	rooms  repository.RoomRepo
	scoped map[string]repository.RoomScoped
	log    *zerolog.Logger
}

// NewSweeper creates a sweeper over the room-keyed collections in scoped,
// keyed by collection name.
func NewSweeper(rooms repository.RoomRepo, scoped map[string]repository.RoomScoped, log *zerolog.Logger) *Sweeper {
	return &Sweeper{rooms: rooms, scoped: scoped, log: log}
}

// Sweep returns the number of deleted records per collection
func (s *Sweeper) Sweep(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(s.scoped))
	for name, repo := range s.scoped {
		roomIDs, err := repo.RoomIDs(ctx)
		if err != nil {
			return counts, fmt.Errorf("failed to list room ids of %s: %w", name, err)
		}
		existing, err := s.rooms.ExistingIDs(ctx, roomIDs)
		if err != nil {
			return counts, fmt.Errorf("failed to check rooms: %w", err)
		}
		for _, id := range roomIDs {
			if existing[id] {
				continue
			}
			n, err := repo.DeleteByRoom(ctx, id)
			if err != nil {
				return counts, fmt.Errorf("failed to delete orphans of room %s in %s: %w", id, name, err)
			}
			counts[name] += n
			s.log.Info().Str("collection", name).Str("room_id", id).Int64("deleted", n).Msg("swept orphaned records")
		}
	}
	return counts, nil
}
