package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quizroom/internal/cache"
	"quizroom/internal/model"
	"quizroom/internal/repository"
)

// ParticipationService handles joining and leaving rooms
type ParticipationService struct {
	rooms       repository.RoomRepo
	roomCache   cache.RoomCache
	leaderboard cache.LeaderboardCache
	authSvc     *AuthService
	activity    *ActivityRecorder
	log         *zerolog.Logger
}

// NewParticipationService creates a new participation service
func NewParticipationService(
	rooms repository.RoomRepo,
	roomCache cache.RoomCache,
	leaderboard cache.LeaderboardCache,
	authSvc *AuthService,
	activity *ActivityRecorder,
	log *zerolog.Logger,
) *ParticipationService {
	return &ParticipationService{
		rooms:       rooms,
		roomCache:   roomCache,
		leaderboard: leaderboard,
		authSvc:     authSvc,
		activity:    activity,
		log:         log,
	}
}

// JoinRequest identifies the room to join. GuestName is only used for
// callers without a session.
type JoinRequest struct {
	RoomCode  string `json:"roomCode" validate:"required"`
	GuestName string `json:"guestName" validate:"max=50"`
}

// JoinRoom adds the caller to a room. Signed-in users join under their
// account; everyone else joins as a guest and receives a room-scoped token.
func (s *ParticipationService) JoinRoom(ctx context.Context, caller model.Identity, req JoinRequest) (*model.JoinResponse, error) {
	code := NormalizeRoomCode(req.RoomCode)
	if code == "" {
		return nil, Validation("roomCode is required")
	}
	room, err := findRoomByCode(ctx, s.rooms, s.roomCache, s.log, code)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if err := joinRejection(room, caller); err != nil {
		return nil, err
	}

	now := time.Now()
	var p model.Participant
	rejoined := false
	if prior := memberOf(room, caller); prior != nil {
		// a departed participant comes back under the same ID so the
		// answer ledger still recognizes them
		ok, err := s.rooms.RejoinParticipant(ctx, room.ID, prior.ID, joinableStatuses(room), now)
		if err != nil {
			return nil, fmt.Errorf("failed to rejoin room: %w", err)
		}
		if !ok {
			return nil, s.joinLost(ctx, room.ID, caller)
		}
		p = *prior
		p.LeftAt = nil
		p.IsActive = true
		p.LastActivity = now
		rejoined = true
	} else {
		p = model.Participant{
			ID:           uuid.NewString(),
			JoinedAt:     now,
			IsActive:     true,
			LastActivity: now,
		}
		cond := repository.JoinCondition{Statuses: joinableStatuses(room)}
		if caller.Authenticated {
			p.UserID = caller.UserID
			p.UserName = caller.Name
			p.Email = caller.Email
			p.IsAuthenticated = true
			cond.UserID = caller.UserID
			cond.Email = caller.Email
		} else {
			p.UserName = strings.TrimSpace(req.GuestName)
			if p.UserName == "" {
				p.UserName = fmt.Sprintf("Guest_%d", now.UnixMilli())
			}
		}

		ok, err := s.rooms.AddParticipant(ctx, room.ID, p, cond)
		if err != nil {
			return nil, fmt.Errorf("failed to join room: %w", err)
		}
		if !ok {
			return nil, s.joinLost(ctx, room.ID, caller)
		}
	}

	viewer := caller
	resp := &model.JoinResponse{Participant: &p, Rejoined: rejoined}
	if !caller.Authenticated {
		token, err := s.authSvc.IssueGuestToken(room.ID, p.ID, p.UserName)
		if err != nil {
			return nil, fmt.Errorf("failed to issue guest token: %w", err)
		}
		resp.GuestToken = token
		viewer = model.Identity{GuestID: p.ID, GuestRoomID: room.ID, GuestName: p.UserName}
	}

	if err := s.leaderboard.Invalidate(ctx, room.ID); err != nil {
		s.log.Warn().Err(err).Str("room_id", room.ID).Msg("failed to drop cached leaderboard")
	}
	s.activity.Record(ctx, room.ID, model.ActivityParticipantJoined, viewer, map[string]string{"participantId": p.ID, "userName": p.UserName})
	s.log.Info().Str("room_id", room.ID).Str("participant_id", p.ID).Bool("guest", !p.IsAuthenticated).Bool("rejoined", rejoined).Msg("participant joined")

	fresh, err := s.rooms.GetByID(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if fresh == nil {
		return nil, ErrRoomNotFound
	}
	resp.Room = project(fresh, viewer)
	return resp, nil
}

// joinLost explains a conditional join that did not apply by re-reading
// the room.
func (s *ParticipationService) joinLost(ctx context.Context, roomID string, caller model.Identity) error {
	again, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	if again == nil {
		return ErrRoomNotFound
	}
	if err := joinRejection(again, caller); err != nil {
		return err
	}
	return ErrJoinConflict
}

// joinRejection checks a room against a join attempt, in the order the
// rejections are reported to clients. A caller whose record is marked as
// departed may join again.
func joinRejection(room *model.Room, caller model.Identity) error {
	switch room.Status {
	case model.RoomCompleted:
		return ErrAlreadyEnded
	case model.RoomCancelled:
		return ErrRoomCancelled
	case model.RoomActive, model.RoomPaused:
		if !room.AllowLateJoin {
			return ErrLateJoinDisabled
		}
	}
	if room.CurrentParticipants >= room.MaxParticipants {
		return ErrRoomFull
	}
	if prior := memberOf(room, caller); prior != nil {
		if prior.Present() {
			return ErrAlreadyJoined
		}
		return nil
	}
	if caller.Authenticated && room.HasEmail(caller.Email) {
		return ErrAlreadyJoined
	}
	return nil
}

func joinableStatuses(room *model.Room) []model.RoomStatus {
	if room.AllowLateJoin {
		return []model.RoomStatus{model.RoomWaiting, model.RoomActive, model.RoomPaused}
	}
	return []model.RoomStatus{model.RoomWaiting}
}

// LeaveRoom marks the caller as departed. The record and its answers stay,
// so a later rejoin resumes under the same participant ID.
func (s *ParticipationService) LeaveRoom(ctx context.Context, caller model.Identity, roomID string) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if room.Status == model.RoomCompleted {
		return ErrAlreadyEnded
	}
	p := participantOf(room, caller)
	if p == nil {
		return ErrNotParticipant
	}
	participantID := p.ID

	left, err := s.rooms.MarkParticipantLeft(ctx, roomID, participantID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}
	if !left {
		return ErrNotParticipant
	}

	if err := s.leaderboard.Invalidate(ctx, roomID); err != nil {
		s.log.Warn().Err(err).Str("room_id", roomID).Msg("failed to drop cached leaderboard")
	}
	s.activity.Record(ctx, roomID, model.ActivityParticipantLeft, caller, map[string]string{"participantId": participantID})
	return nil
}
