package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"quizroom/internal/model"
	"quizroom/internal/repository"
)

// RatingService records room ratings and keeps the room's rating statistics current
type RatingService struct {
	rooms    repository.RoomRepo
	ratings  repository.RatingRepo
	activity *ActivityRecorder
	log      *zerolog.Logger
}

// NewRatingService creates a new rating service
func NewRatingService(rooms repository.RoomRepo, ratings repository.RatingRepo, activity *ActivityRecorder, log *zerolog.Logger) *RatingService {
	return &RatingService{rooms: rooms, ratings: ratings, activity: activity, log: log}
}

// SubmitRating stores one rating per room and rater. Signed-in users rate by
// user ID; guests rate through the participant ID of their guest token.
func (s *RatingService) SubmitRating(ctx context.Context, caller model.Identity, roomID string, rating int) (*model.RoomRating, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	r := &model.RoomRating{RoomID: roomID, Rating: rating, CreatedAt: time.Now()}
	switch {
	case caller.Authenticated:
		r.RaterID = caller.UserID
		r.UserName = caller.Name
		r.IsAuthenticated = true
	case caller.GuestFor(roomID) != "":
		r.RaterID = caller.GuestID
		r.UserName = caller.GuestName
	default:
		return nil, ErrParticipantsOnly
	}

	rated, err := s.ratings.Exists(ctx, roomID, r.RaterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check rating: %w", err)
	}
	if rated {
		return nil, ErrAlreadyRated
	}
	if memberOf(room, caller) == nil {
		return nil, ErrParticipantsOnly
	}

	if err := s.ratings.Create(ctx, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyRated
		}
		return nil, fmt.Errorf("failed to store rating: %w", err)
	}

	all, err := s.ratings.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	avg, total := averageRating(all)
	if err := s.rooms.SetRatingStats(ctx, roomID, avg, total); err != nil {
		return nil, fmt.Errorf("failed to update rating statistics: %w", err)
	}

	s.activity.Record(ctx, roomID, model.ActivityRatingSubmitted, caller, map[string]string{"rating": strconv.Itoa(rating)})
	return r, nil
}

// GetRatings returns every rating of a room, newest first, with a 1-5 histogram
func (s *RatingService) GetRatings(ctx context.Context, roomID string) (*model.RatingSummary, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	all, err := s.ratings.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}

	summary := &model.RatingSummary{
		Ratings:      make([]model.RoomRating, 0, len(all)),
		Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	for _, r := range all {
		summary.Ratings = append(summary.Ratings, *r)
		summary.Distribution[r.Rating]++
	}
	summary.AverageRating, summary.TotalRatings = averageRating(all)
	return summary, nil
}

// averageRating is the mean rounded to one decimal
func averageRating(all []*model.RoomRating) (float64, int) {
	if len(all) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range all {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(all))*10) / 10, len(all)
}
