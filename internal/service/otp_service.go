package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"quizroom/internal/cache"
	"quizroom/internal/config"
	"quizroom/internal/model"
	"quizroom/internal/repository"
)

// OTPService issues and checks one-time email codes for signup and password reset
type OTPService struct {
	otps     repository.OTPRepo
	users    repository.UserRepo
	verified cache.VerificationCache
	notifier Notifier
	cfg      config.OTPConfig
	log      *zerolog.Logger
	now      func() time.Time
}

// NewOTPService creates a new OTP service
func NewOTPService(
	otps repository.OTPRepo,
	users repository.UserRepo,
	verified cache.VerificationCache,
	notifier Notifier,
	cfg config.OTPConfig,
	log *zerolog.Logger,
) *OTPService {
	return &OTPService{
		otps:     otps,
		users:    users,
		verified: verified,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// SendOTP issues a fresh code. Reset requests for unknown emails succeed
// without sending anything.
func (s *OTPService) SendOTP(ctx context.Context, email string, purpose model.OTPPurpose) error {
	if !purpose.Valid() {
		return Validation("type must be signup or reset")
	}
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	switch purpose {
	case model.OTPSignup:
		if user == nil {
			return ErrUserNotFound
		}
		if user.EmailVerified {
			return ErrAlreadyVerified
		}
	case model.OTPReset:
		if user == nil {
			s.log.Debug().Msg("password reset requested for unknown email")
			return nil
		}
	}
	return s.issue(ctx, user, purpose)
}

// issue replaces any live code for (email, purpose) and emails the new one
func (s *OTPService) issue(ctx context.Context, user *model.User, purpose model.OTPPurpose) error {
	if err := s.otps.DeleteAll(ctx, user.Email, purpose); err != nil {
		return fmt.Errorf("failed to clear previous codes: %w", err)
	}
	code, err := randomDigits(s.cfg.Length)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	now := s.now()
	otp := &model.OTP{
		Email:     user.Email,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: now.Add(s.cfg.TTL),
		CreatedAt: now,
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	if err := s.notifier.SendOTP(user.Email, user.Name, code, purpose, int(s.cfg.TTL/time.Minute)); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// Verify consumes a code. A code is accepted at most once.
func (s *OTPService) Verify(ctx context.Context, email, code string, purpose model.OTPPurpose) error {
	if !purpose.Valid() {
		return Validation("type must be signup or reset")
	}
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)

	otp, err := s.otps.GetLatest(ctx, email, purpose)
	if err != nil {
		return fmt.Errorf("failed to get code: %w", err)
	}
	if otp == nil || subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		return ErrInvalidOTP
	}
	if otp.Expired(s.now()) {
		if err := s.otps.Delete(ctx, otp.ID); err != nil {
			s.log.Warn().Err(err).Msg("failed to delete expired code")
		}
		return ErrOTPExpired
	}
	if err := s.otps.Delete(ctx, otp.ID); err != nil {
		return fmt.Errorf("failed to consume code: %w", err)
	}

	switch purpose {
	case model.OTPSignup:
		user, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return ErrUserNotFound
		}
		verified := true
		if _, err := s.users.Update(ctx, user.ID, model.UpdateUserParams{EmailVerified: &verified}); err != nil {
			return fmt.Errorf("failed to verify email: %w", err)
		}
	case model.OTPReset:
		if err := s.verified.MarkResetVerified(ctx, email, s.cfg.ResetWindow); err != nil {
			return fmt.Errorf("failed to mark reset verified: %w", err)
		}
	}
	return nil
}

func randomDigits(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
