package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"quizroom/internal/cache"
	"quizroom/internal/model"
	"quizroom/internal/repository"
)

// RoomService handles the room lifecycle and the question composition of rooms
type RoomService struct {
	rooms         repository.RoomRepo
	roomQuestions repository.RoomQuestionRepo
	questions     repository.QuestionRepo
	sessions      repository.SessionRepo
	dependents    []repository.RoomScoped
	roomCache     cache.RoomCache
	leaderboard   cache.LeaderboardCache
	results       *ResultsService
	activity      *ActivityRecorder
	log           *zerolog.Logger
}

// RoomStores groups the repositories the room service works on
type RoomStores struct {
	Rooms         repository.RoomRepo
	RoomQuestions repository.RoomQuestionRepo
	Questions     repository.QuestionRepo
	Answers       repository.AnswerRepo
	Ratings       repository.RatingRepo
	Activities    repository.ActivityRepo
	Sessions      repository.SessionRepo
}

// NewRoomService creates a new room service
func NewRoomService(
	stores RoomStores,
	roomCache cache.RoomCache,
	leaderboard cache.LeaderboardCache,
	results *ResultsService,
	activity *ActivityRecorder,
	log *zerolog.Logger,
) *RoomService {
	return &RoomService{
		rooms:         stores.Rooms,
		roomQuestions: stores.RoomQuestions,
		questions:     stores.Questions,
		sessions:      stores.Sessions,
		dependents:    []repository.RoomScoped{stores.RoomQuestions, stores.Answers, stores.Activities, stores.Sessions, stores.Ratings},
		roomCache:     roomCache,
		leaderboard:   leaderboard,
		results:       results,
		activity:      activity,
		log:           log,
	}
}

// CreateRoomInput is the configuration of a new room
type CreateRoomInput struct {
	Title              string             `json:"title" validate:"required"`
	Description        string             `json:"description"`
	MaxParticipants    int                `json:"maxParticipants" validate:"min=1,max=1000"`
	IsPublic           bool               `json:"isPublic"`
	AllowLateJoin      bool               `json:"allowLateJoin"`
	ShowLeaderboard    bool               `json:"showLeaderboard"`
	ShuffleQuestions   bool               `json:"shuffleQuestions"`
	Category           string             `json:"category"`
	Difficulty         model.Difficulty   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	TimeLimit          int                `json:"timeLimit" validate:"min=0"`
	ScheduledStartTime *time.Time         `json:"scheduledStartTime"`
	Settings           model.RoomSettings `json:"settings"`
}

const defaultQuestionTimeLimit = 30

func validateCapacity(n int) error {
	if n < 1 || n > model.MaxRoomParticipants {
		return Validation(fmt.Sprintf("maxParticipants must be between 1 and %d", model.MaxRoomParticipants))
	}
	return nil
}

// CreateRoom creates a room in waiting status with a fresh unique code
func (s *RoomService) CreateRoom(ctx context.Context, caller model.Identity, in CreateRoomInput) (*model.RoomView, error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, Validation("title is required")
	}
	if err := validateCapacity(in.MaxParticipants); err != nil {
		return nil, err
	}
	if in.Difficulty == "" {
		in.Difficulty = model.DifficultyMedium
	}
	if !in.Difficulty.Valid() {
		return nil, Validation("difficulty must be easy, medium or hard")
	}
	if in.TimeLimit < 0 {
		return nil, Validation("timeLimit cannot be negative")
	}
	if in.TimeLimit == 0 {
		in.TimeLimit = defaultQuestionTimeLimit
	}

	now := time.Now()
	room := &model.Room{
		Title:              in.Title,
		Description:        strings.TrimSpace(in.Description),
		CreatorID:          caller.UserID,
		CreatorName:        caller.Name,
		MaxParticipants:    in.MaxParticipants,
		Status:             model.RoomWaiting,
		Participants:       []model.Participant{},
		Settings:           in.Settings,
		IsPublic:           in.IsPublic,
		AllowLateJoin:      in.AllowLateJoin,
		ShowLeaderboard:    in.ShowLeaderboard,
		ShuffleQuestions:   in.ShuffleQuestions,
		Category:           strings.TrimSpace(in.Category),
		Difficulty:         in.Difficulty,
		TimeLimit:          in.TimeLimit,
		ScheduledStartTime: in.ScheduledStartTime,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.insertWithUniqueCode(ctx, room); err != nil {
		return nil, err
	}

	if err := s.roomCache.SetMeta(ctx, room.Code, roomMeta(room)); err != nil {
		s.log.Warn().Err(err).Str("code", room.Code).Msg("failed to cache room meta")
	}

	s.activity.Record(ctx, room.ID, model.ActivityRoomCreated, caller, map[string]string{"code": room.Code, "title": room.Title})
	s.log.Info().Str("room_id", room.ID).Str("code", room.Code).Str("creator_id", room.CreatorID).Msg("room created")
	return project(room, caller), nil
}

// insertWithUniqueCode samples codes until one is both reserved in Redis and
// accepted by the unique index on rooms.code.
func (s *RoomService) insertWithUniqueCode(ctx context.Context, room *model.Room) error {
	for attempt := 0; attempt < roomCodeMaxAttempts; attempt++ {
		code, err := generateRoomCode()
		if err != nil {
			return fmt.Errorf("failed to generate room code: %w", err)
		}

		reserved, err := s.roomCache.ReserveCode(ctx, code)
		if err != nil {
			// the unique index still protects us
			s.log.Warn().Err(err).Msg("room code reservation unavailable")
			reserved = true
		}
		if !reserved {
			continue
		}

		room.ID = ""
		room.Code = code
		err = s.rooms.Create(ctx, room)
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			if err := s.roomCache.ReleaseCode(ctx, code); err != nil {
				s.log.Warn().Err(err).Str("code", code).Msg("failed to release room code")
			}
			return fmt.Errorf("failed to create room: %w", err)
		}
		return nil
	}
	return ErrCodeGenerationExhausted
}

func (s *RoomService) load(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *RoomService) loadOwned(ctx context.Context, caller model.Identity, roomID string) (*model.Room, error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}
	room, err := s.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.CreatorID != caller.UserID {
		return nil, ErrNotRoomCreator
	}
	return room, nil
}

// GetRoom returns the caller's projection of a room
func (s *RoomService) GetRoom(ctx context.Context, caller model.Identity, roomID string) (*model.RoomView, error) {
	room, err := s.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return project(room, caller), nil
}

// GetRoomByCode resolves a 6-character code, case-insensitively
func (s *RoomService) GetRoomByCode(ctx context.Context, caller model.Identity, code string) (*model.RoomView, error) {
	code = NormalizeRoomCode(code)
	if len(code) != roomCodeLength {
		return nil, Validation("room code must be 6 characters")
	}
	room, err := findRoomByCode(ctx, s.rooms, s.roomCache, s.log, code)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return project(room, caller), nil
}

// ListRoomsInput holds the query of a room listing
type ListRoomsInput struct {
	Type       string
	Page       int
	Limit      int
	Search     string
	Status     model.RoomStatus
	Category   string
	Difficulty model.Difficulty
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// ListRooms lists rooms visible to the caller. Anonymous callers always get public rooms.
func (s *RoomService) ListRooms(ctx context.Context, caller model.Identity, in ListRoomsInput) ([]*model.RoomView, model.Page, error) {
	page, limit := normalizePage(in.Page, in.Limit)
	f := model.RoomFilter{
		Search:     strings.TrimSpace(in.Search),
		Status:     in.Status,
		Category:   strings.TrimSpace(in.Category),
		Difficulty: in.Difficulty,
		Page:       page,
		Limit:      limit,
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, model.Page{}, Validation("unknown room status")
	}
	if f.Difficulty != "" && !f.Difficulty.Valid() {
		return nil, model.Page{}, Validation("difficulty must be easy, medium or hard")
	}

	typ := in.Type
	if !caller.Authenticated {
		typ = "public"
	} else if typ == "" {
		typ = "all"
	}
	switch typ {
	case "public":
		f.PublicOnly = true
	case "my":
		f.CreatorID = caller.UserID
	case "joined":
		f.Participant = caller.UserID
	case "all":
		f.PublicOrOf = caller.UserID
	default:
		return nil, model.Page{}, Validation("type must be one of public, my, joined, all")
	}

	rooms, total, err := s.rooms.List(ctx, f)
	if err != nil {
		return nil, model.Page{}, fmt.Errorf("failed to list rooms: %w", err)
	}
	views := make([]*model.RoomView, 0, len(rooms))
	for _, r := range rooms {
		views = append(views, project(r, caller))
	}
	return views, model.NewPage(page, limit, total), nil
}

// UpdateRoom applies a whitelisted patch. Status is never changed here.
func (s *RoomService) UpdateRoom(ctx context.Context, caller model.Identity, roomID string, u model.RoomUpdate) (*model.RoomView, error) {
	room, err := s.loadOwned(ctx, caller, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status == model.RoomActive || room.Status == model.RoomCompleted {
		return nil, ErrRoomLocked
	}
	if u.IsEmpty() {
		return nil, Validation("no updatable fields provided")
	}
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		if t == "" {
			return nil, Validation("title cannot be empty")
		}
		u.Title = &t
	}
	if u.MaxParticipants != nil {
		if err := validateCapacity(*u.MaxParticipants); err != nil {
			return nil, err
		}
		if *u.MaxParticipants < room.CurrentParticipants {
			return nil, ErrCapacityBelowCurrent
		}
	}
	if u.Difficulty != nil && !u.Difficulty.Valid() {
		return nil, Validation("difficulty must be easy, medium or hard")
	}
	if u.TimeLimit != nil && *u.TimeLimit < 0 {
		return nil, Validation("timeLimit cannot be negative")
	}

	updated, err := s.rooms.Update(ctx, roomID, u)
	if err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}
	if updated == nil {
		// either deleted or joined past the new capacity in between
		if again, _ := s.rooms.GetByID(ctx, roomID); again == nil {
			return nil, ErrRoomNotFound
		}
		return nil, ErrCapacityBelowCurrent
	}

	s.activity.Record(ctx, roomID, model.ActivityRoomUpdated, caller, nil)
	return project(updated, caller), nil
}

// ChangeStatus moves a room along its state machine
func (s *RoomService) ChangeStatus(ctx context.Context, caller model.Identity, roomID string, to model.RoomStatus) (*model.RoomView, error) {
	if !to.Valid() {
		return nil, Validation("unknown room status")
	}
	room, err := s.loadOwned(ctx, caller, roomID)
	if err != nil {
		return nil, err
	}
	from := room.Status
	if !from.CanTransitionTo(to) {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	ok, err := s.rooms.TransitionStatus(ctx, roomID, from, to, now)
	if err != nil {
		return nil, fmt.Errorf("failed to change room status: %w", err)
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	switch to {
	case model.RoomActive:
		s.openSession(ctx, roomID, now)
	case model.RoomCompleted:
		s.closeSession(ctx, roomID, now)
		s.writeResultStats(ctx, roomID)
	case model.RoomCancelled:
		s.closeSession(ctx, roomID, now)
	}

	if err := s.roomCache.SetStatus(ctx, room.Code, to); err != nil {
		s.log.Warn().Err(err).Str("code", room.Code).Msg("failed to update cached room status")
	}
	s.activity.Record(ctx, roomID, model.ActivityRoomStatusChanged, caller, map[string]string{"from": string(from), "to": string(to)})
	s.log.Info().Str("room_id", roomID).Str("from", string(from)).Str("to", string(to)).Msg("room status changed")

	return s.GetRoom(ctx, caller, roomID)
}

func (s *RoomService) openSession(ctx context.Context, roomID string, at time.Time) {
	active, err := s.sessions.GetActive(ctx, roomID)
	if err != nil {
		s.log.Warn().Err(err).Str("room_id", roomID).Msg("failed to look up room session")
		return
	}
	if active != nil {
		return // resumed from pause
	}
	if err := s.sessions.Create(ctx, &model.RoomSession{RoomID: roomID, Status: model.SessionActive, StartedAt: at}); err != nil {
		s.log.Warn().Err(err).Str("room_id", roomID).Msg("failed to open room session")
	}
}

func (s *RoomService) closeSession(ctx context.Context, roomID string, at time.Time) {
	active, err := s.sessions.GetActive(ctx, roomID)
	if err != nil || active == nil {
		if err != nil {
			s.log.Warn().Err(err).Str("room_id", roomID).Msg("failed to look up room session")
		}
		return
	}
	if err := s.sessions.End(ctx, active.ID, at); err != nil {
		s.log.Warn().Err(err).Str("room_id", roomID).Msg("failed to close room session")
	}
}

func (s *RoomService) writeResultStats(ctx context.Context, roomID string) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil || room == nil {
		return
	}
	res, err := s.results.Snapshot(ctx, room)
	if err != nil {
		s.log.Warn().Err(err).Str("room_id", roomID).Msg("failed to compute final results")
		return
	}
	if err := s.rooms.SetResultStats(ctx, roomID, float64(res.Summary.AverageScore), float64(res.Summary.CompletionRate)); err != nil {
		s.log.Warn().Err(err).Str("room_id", roomID).Msg("failed to store result statistics")
	}
}

// DeleteRoom removes a room and everything keyed by it. Dependent collections
// are cleared first and concurrently; a crash part way leaves orphans that
// the sweep command removes, and calling DeleteRoom again resumes the cascade.
func (s *RoomService) DeleteRoom(ctx context.Context, caller model.Identity, roomID string) error {
	room, err := s.loadOwned(ctx, caller, roomID)
	if err != nil {
		return err
	}
	if room.Status == model.RoomActive || room.Status == model.RoomPaused {
		return ErrRoomInProgress
	}

	if err := s.deleteDependents(ctx, roomID); err != nil {
		return fmt.Errorf("failed to delete room records: %w", err)
	}
	deleted, err := s.rooms.Delete(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if !deleted {
		return ErrRoomNotFound
	}

	if err := s.roomCache.Delete(ctx, room.Code); err != nil {
		s.log.Warn().Err(err).Str("code", room.Code).Msg("failed to drop cached room")
	}
	if err := s.leaderboard.Invalidate(ctx, roomID); err != nil {
		s.log.Warn().Err(err).Str("room_id", roomID).Msg("failed to drop cached leaderboard")
	}
	s.log.Info().Str("room_id", roomID).Str("code", room.Code).Msg("room deleted")
	return nil
}

func (s *RoomService) deleteDependents(ctx context.Context, roomID string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, repo := range s.dependents {
		repo := repo
		g.Go(func() error {
			_, err := repo.DeleteByRoom(gctx, roomID)
			return err
		})
	}
	return g.Wait()
}

// ListActivities returns the newest activity entries of a room to its creator
func (s *RoomService) ListActivities(ctx context.Context, caller model.Identity, roomID string, limit int) ([]*model.Activity, error) {
	if _, err := s.loadOwned(ctx, caller, roomID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 50 {
		limit = 50
	}
	items, err := s.activity.List(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return items, nil
}

// AddQuestionInput attaches a question to a room. Order defaults to the end.
type AddQuestionInput struct {
	QuestionID string `json:"questionId" validate:"required"`
	Order      *int   `json:"order" validate:"omitempty,min=0"`
}

func questionsEditable(status model.RoomStatus) bool {
	return status == model.RoomWaiting || status == model.RoomPaused
}

// AddQuestion attaches a question readable by the room creator
func (s *RoomService) AddQuestion(ctx context.Context, caller model.Identity, roomID string, in AddQuestionInput) (*model.RoomQuestion, error) {
	room, err := s.loadOwned(ctx, caller, roomID)
	if err != nil {
		return nil, err
	}
	if !questionsEditable(room.Status) {
		return nil, ErrRoomQuestionsLocked
	}
	q, err := s.questions.GetByID(ctx, in.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if q == nil || !q.ReadableBy(caller.UserID) {
		return nil, ErrQuestionNotFound
	}

	order := 0
	if in.Order != nil {
		order = *in.Order
	} else {
		existing, err := s.roomQuestions.ListByRoom(ctx, roomID)
		if err != nil {
			return nil, fmt.Errorf("failed to list room questions: %w", err)
		}
		for _, rq := range existing {
			if rq.Order >= order {
				order = rq.Order + 1
			}
		}
	}

	rq := &model.RoomQuestion{RoomID: roomID, QuestionID: q.ID, Order: order}
	if err := s.roomQuestions.Add(ctx, rq); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrQuestionInRoom
		}
		return nil, fmt.Errorf("failed to add question to room: %w", err)
	}
	if err := s.questions.IncrementUsage(ctx, q.ID); err != nil {
		s.log.Warn().Err(err).Str("question_id", q.ID).Msg("failed to bump usage count")
	}
	s.activity.Record(ctx, roomID, model.ActivityQuestionAdded, caller, map[string]string{"questionId": q.ID})
	return rq, nil
}

// RemoveQuestion detaches a question from a room
func (s *RoomService) RemoveQuestion(ctx context.Context, caller model.Identity, roomID, questionID string) error {
	room, err := s.loadOwned(ctx, caller, roomID)
	if err != nil {
		return err
	}
	if !questionsEditable(room.Status) {
		return ErrRoomQuestionsLocked
	}
	removed, err := s.roomQuestions.Remove(ctx, roomID, questionID)
	if err != nil {
		return fmt.Errorf("failed to remove room question: %w", err)
	}
	if !removed {
		return ErrQuestionNotInRoom
	}
	s.activity.Record(ctx, roomID, model.ActivityQuestionRemoved, caller, map[string]string{"questionId": questionID})
	return nil
}

// ListQuestions returns the questions of a room in display order. Only the
// creator sees correct answers; participants get a per-request shuffle when
// the room asks for it.
func (s *RoomService) ListQuestions(ctx context.Context, caller model.Identity, roomID string) ([]model.RoomQuestionView, error) {
	room, err := s.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	isCreator := caller.Authenticated && room.CreatorID == caller.UserID
	if !isCreator && participantOf(room, caller) == nil {
		return nil, ErrNotParticipant
	}

	rqs, err := s.roomQuestions.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list room questions: %w", err)
	}
	ids := make([]string, 0, len(rqs))
	for _, rq := range rqs {
		ids = append(ids, rq.QuestionID)
	}
	qs, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	byID := make(map[string]*model.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}

	views := make([]model.RoomQuestionView, 0, len(rqs))
	for _, rq := range rqs {
		q, ok := byID[rq.QuestionID]
		if !ok {
			continue
		}
		v := model.RoomQuestionView{
			Order:      rq.Order,
			QuestionID: q.ID,
			Title:      q.Title,
			Content:    q.Content,
			Options:    q.Options,
			Difficulty: q.Difficulty,
			Category:   q.Category,
			TimeLimit:  room.TimeLimit,
			Points:     q.PointValue(),
		}
		if q.TimeLimit != nil {
			v.TimeLimit = *q.TimeLimit
		}
		if isCreator {
			correct := q.CorrectAnswer
			v.CorrectAnswer = &correct
			v.Explanation = q.Explanation
		}
		views = append(views, v)
	}

	if room.ShuffleQuestions && !isCreator {
		rand.Shuffle(len(views), func(i, j int) { views[i], views[j] = views[j], views[i] })
	}
	return views, nil
}

// memberOf finds the caller's participant record, departed or not: by user
// ID when signed in, by guest token otherwise.
func memberOf(room *model.Room, caller model.Identity) *model.Participant {
	if caller.Authenticated {
		return room.FindParticipantByUser(caller.UserID)
	}
	if guestID := caller.GuestFor(room.ID); guestID != "" {
		return room.FindParticipant(guestID)
	}
	return nil
}

// participantOf is memberOf restricted to callers currently in the room.
func participantOf(room *model.Room, caller model.Identity) *model.Participant {
	if p := memberOf(room, caller); p != nil && p.Present() {
		return p
	}
	return nil
}

// project builds the caller's view of a room. The participant list is only
// shown to the creator and to participants.
func project(room *model.Room, caller model.Identity) *model.RoomView {
	v := &model.RoomView{
		Room:      *room,
		IsCreator: caller.Authenticated && room.CreatorID == caller.UserID,
		IsJoined:  participantOf(room, caller) != nil,
	}
	v.Room.Participants = nil
	if v.IsCreator || v.IsJoined {
		v.Participants = append([]model.Participant{}, room.Participants...)
	}
	return v
}
