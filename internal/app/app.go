// Package app wires configuration, storage, caches and services into the HTTP handler.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizroom/internal/cache"
	"quizroom/internal/config"
	"quizroom/internal/events"
	"quizroom/internal/notify"
	"quizroom/internal/repository"
	"quizroom/internal/repository/memory"
	"quizroom/internal/service"
	"quizroom/internal/transport/rest"
)

// Stores groups the repositories of one storage backend
type Stores struct {
	Users         repository.UserRepo
	Questions     repository.QuestionRepo
	Rooms         repository.RoomRepo
	RoomQuestions repository.RoomQuestionRepo
	Answers       repository.AnswerRepo
	Ratings       repository.RatingRepo
	Activities    repository.ActivityRepo
	Sessions      repository.SessionRepo
	OTPs          repository.OTPRepo
	Contacts      repository.ContactRepo
}

func mongoStores(db *mongo.Database) Stores {
	return Stores{
		Users:         repository.NewUserRepo(db),
		Questions:     repository.NewQuestionRepo(db),
		Rooms:         repository.NewRoomRepo(db),
		RoomQuestions: repository.NewRoomQuestionRepo(db),
		Answers:       repository.NewAnswerRepo(db),
		Ratings:       repository.NewRatingRepo(db),
		Activities:    repository.NewActivityRepo(db),
		Sessions:      repository.NewSessionRepo(db),
		OTPs:          repository.NewOTPRepo(db),
		Contacts:      repository.NewContactRepo(db),
	}
}

func memoryStores() Stores {
	return Stores{
		Users:         memory.NewUserRepo(),
		Questions:     memory.NewQuestionRepo(),
		Rooms:         memory.NewRoomRepo(),
		RoomQuestions: memory.NewRoomQuestionRepo(),
		Answers:       memory.NewAnswerRepo(),
		Ratings:       memory.NewRatingRepo(),
		Activities:    memory.NewActivityRepo(),
		Sessions:      memory.NewSessionRepo(),
		OTPs:          memory.NewOTPRepo(),
		Contacts:      memory.NewContactRepo(),
	}
}

// RoomScoped lists the collections swept for records of deleted rooms
func (s Stores) RoomScoped() map[string]repository.RoomScoped {
	return map[string]repository.RoomScoped{
		repository.RoomQuestionsCollection: s.RoomQuestions,
		repository.AnswersCollection:       s.Answers,
		repository.ActivitiesCollection:    s.Activities,
		repository.SessionsCollection:      s.Sessions,
		repository.RatingsCollection:       s.Ratings,
	}
}

// App is the assembled service
type App struct {
	Config  config.Config
	Log     *zerolog.Logger
	Stores  Stores
	Handler http.Handler
	Sweeper *service.Sweeper

	db        *mongo.Database
	mongo     *mongo.Client
	redis     *redis.Client
	publisher *events.KafkaPublisher
}

// Connect opens the configured storage and Redis without building services.
// The maintenance commands use it directly.
func Connect(ctx context.Context, cfg config.Config, log *zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.redis.Ping(pingCtx).Err(); err != nil {
		a.redis.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	switch cfg.Storage {
	case config.StorageMemory:
		a.Stores = memoryStores()
		log.Warn().Msg("using in-memory storage, data is lost on restart")
	default:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		if err := client.Ping(pingCtx, nil); err != nil {
			client.Disconnect(ctx)
			a.redis.Close()
			return nil, fmt.Errorf("failed to ping mongo: %w", err)
		}
		a.mongo = client
		a.db = client.Database(cfg.Mongo.Database)
		a.Stores = mongoStores(a.db)
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")
	}

	a.Sweeper = service.NewSweeper(a.Stores.Rooms, a.Stores.RoomScoped(), log)
	return a, nil
}

// New connects and builds the full HTTP service
func New(ctx context.Context, cfg config.Config, log *zerolog.Logger) (*App, error) {
	a, err := Connect(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if a.db != nil {
		repository.EnsureIndexes(ctx, a.db, log)
	}
	if a.Config.Auth.JWTSecret == "" {
		secret, err := ephemeralSecret()
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.Config.Auth.JWTSecret = secret
		log.Warn().Msg("JWT_SECRET not set, sessions will not survive a restart")
	}
	a.build()
	return a, nil
}

func ephemeralSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (a *App) build() {
	cfg, log, s := a.Config, a.Log, a.Stores

	roomCache := cache.NewRoomCache(a.redis)
	leaderboard := cache.NewLeaderboardCache(a.redis)
	verified := cache.NewVerificationCache(a.redis)
	rateLimits := cache.NewRateLimitCache(a.redis)

	notifier := notify.NewDispatcher(notify.NewMailer(cfg.SMTP, log), cfg.Contact.AdminEmail)

	activity := service.NewActivityRecorder(s.Activities, log)
	if len(cfg.Kafka.Brokers) > 0 {
		a.publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		activity.SetPublisher(a.publisher)
	}

	otpSvc := service.NewOTPService(s.OTPs, s.Users, verified, notifier, cfg.OTP, log)
	authSvc := service.NewAuthService(s.Users, otpSvc, verified, notifier, cfg.Auth, log)
	resultsSvc := service.NewResultsService(s.Rooms, s.Answers, s.RoomQuestions, s.Questions, leaderboard, log)
	roomSvc := service.NewRoomService(service.RoomStores{
		Rooms:         s.Rooms,
		RoomQuestions: s.RoomQuestions,
		Questions:     s.Questions,
		Answers:       s.Answers,
		Ratings:       s.Ratings,
		Activities:    s.Activities,
		Sessions:      s.Sessions,
	}, roomCache, leaderboard, resultsSvc, activity, log)

	a.Handler = rest.NewRouter(&rest.Container{
		Config:               cfg,
		Log:                  log,
		AuthService:          authSvc,
		OTPService:           otpSvc,
		RoomService:          roomSvc,
		QuestionService:      service.NewQuestionService(s.Questions, s.RoomQuestions, s.Rooms, log),
		ParticipationService: service.NewParticipationService(s.Rooms, roomCache, leaderboard, authSvc, activity, log),
		AnswerService:        service.NewAnswerService(s.Rooms, s.RoomQuestions, s.Questions, s.Answers, leaderboard, activity, log),
		ResultsService:       resultsSvc,
		RatingService:        service.NewRatingService(s.Rooms, s.Ratings, activity, log),
		ContactService:       service.NewContactService(s.Contacts, notifier, log),
		RateLimits:           rateLimits,
	})
}

// EnsureIndexes creates the Mongo indexes and returns how many failed.
func (a *App) EnsureIndexes(ctx context.Context) (int, error) {
	if a.db == nil {
		return 0, errors.New("indexes require mongo storage")
	}
	return repository.EnsureIndexes(ctx, a.db, a.Log), nil
}

// Close releases every connection. All errors are joined.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.mongo != nil {
		errs = append(errs, a.mongo.Disconnect(ctx))
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}
