package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"quizroom/internal/cache"
	"quizroom/internal/config"
	"quizroom/internal/model"
	"quizroom/internal/repository"
)

const minPasswordLength = 6

// AuthService handles accounts, session tokens and room-scoped guest tokens
type AuthService struct {
	users     repository.UserRepo
	otp       *OTPService
	verified  cache.VerificationCache
	notifier  Notifier
	jwtSecret []byte
	cfg       config.AuthConfig
	log       *zerolog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repository.UserRepo,
	otp *OTPService,
	verified cache.VerificationCache,
	notifier Notifier,
	cfg config.AuthConfig,
	log *zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		otp:       otp,
		verified:  verified,
		notifier:  notifier,
		jwtSecret: []byte(cfg.JWTSecret),
		cfg:       cfg,
		log:       log,
	}
}

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register creates an unverified account and emails a signup code. A failed
// email does not fail registration; the code can be requested again.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.UserView, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" {
		return nil, Validation("name is required")
	}
	if !strings.Contains(email, "@") {
		return nil, Validation("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, Validation("password must be at least 6 characters")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := time.Now()
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.otp.issue(ctx, user, model.OTPSignup); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to send signup code")
	}
	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user.View(), nil
}

// Login checks credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	token, err := s.IssueSession(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}
	return &model.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.cfg.SessionTTL / time.Second),
		User:      user.View(),
	}, nil
}

// IssueSession signs a session token for user
func (s *AuthService) IssueSession(user *model.User) (string, error) {
	now := time.Now()
	claims := &model.SessionClaims{
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SessionTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return s.jwtSecret, nil
}

// ParseSession validates a session token and returns its claims
func (s *AuthService) ParseSession(tokenString string) (*model.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.SessionClaims{}, s.keyFunc)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*model.SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate validates a session token and builds the caller from the
// current user record, so profile changes apply to tokens issued earlier.
// Tokens of deleted accounts are rejected.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (model.Identity, error) {
	claims, err := s.ParseSession(tokenString)
	if err != nil {
		return model.Identity{}, err
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return model.Identity{}, ErrInvalidToken
	}
	return model.Identity{
		UserID:        user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Authenticated: true,
	}, nil
}

// IssueGuestToken creates a room-scoped token for a guest participant
func (s *AuthService) IssueGuestToken(roomID, participantID, name string) (string, error) {
	now := time.Now()
	claims := &model.GuestClaims{
		ParticipantID: participantID,
		RoomID:        roomID,
		Name:          name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.GuestTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ParseGuestToken validates a guest token and returns its claims
func (s *AuthService) ParseGuestToken(tokenString string) (*model.GuestClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.GuestClaims{}, s.keyFunc)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*model.GuestClaims)
	if !ok || !token.Valid || claims.ParticipantID == "" || claims.RoomID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SessionTTL is the lifetime of issued session tokens
func (s *AuthService) SessionTTL() time.Duration {
	return s.cfg.SessionTTL
}

// Profile returns the caller's account
func (s *AuthService) Profile(ctx context.Context, caller model.Identity) (*model.UserView, error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user.View(), nil
}

// UpdateProfileRequest is the body of PUT /profile
type UpdateProfileRequest struct {
	Name            string `json:"name" validate:"omitempty,max=100"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,min=6"`
}

// UpdateProfile changes the caller's name and, given the current password, the password
func (s *AuthService) UpdateProfile(ctx context.Context, caller model.Identity, req UpdateProfileRequest) (*model.UserView, error) {
	if !caller.Authenticated {
		return nil, ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	var params model.UpdateUserParams
	if name := strings.TrimSpace(req.Name); name != "" {
		params.Name = &name
	}
	if req.NewPassword != "" {
		if len(req.NewPassword) < minPasswordLength {
			return nil, Validation("password must be at least 6 characters")
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
			return nil, ErrWrongPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		h := string(hash)
		params.PasswordHash = &h
	}
	if params.Name == nil && params.PasswordHash == nil {
		return nil, Validation("nothing to update")
	}

	updated, err := s.users.Update(ctx, user.ID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}
	return updated.View(), nil
}

// ResetPassword sets a new password after a confirmed reset code. The
// confirmation is single use.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = normalizeEmail(email)
	if len(newPassword) < minPasswordLength {
		return Validation("password must be at least 6 characters")
	}
	ok, err := s.verified.ConsumeResetVerified(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check reset verification: %w", err)
	}
	if !ok {
		return ErrResetNotVerified
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	h := string(hash)
	if _, err := s.users.Update(ctx, user.ID, model.UpdateUserParams{PasswordHash: &h}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.notifier.SendPasswordChanged(user.Email, user.Name); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to send password changed email")
	}
	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}
