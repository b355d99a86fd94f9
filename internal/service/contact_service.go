package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"quizroom/internal/model"
	"quizroom/internal/repository"
)

// ContactService stores contact form submissions and notifies the admin
type ContactService struct {
	repo     repository.ContactRepo
	notifier Notifier
	log      *zerolog.Logger
}

func NewContactService(repo repository.ContactRepo, notifier Notifier, log *zerolog.Logger) *ContactService {
	return &ContactService{repo: repo, notifier: notifier, log: log}
}

// ContactRequest is the body of POST /contact
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Submit stores the message and emails the admin. The acknowledgement to the
// sender is best effort.
func (s *ContactService) Submit(ctx context.Context, caller model.Identity, req ContactRequest, ip string) error {
	sub := &model.ContactSubmission{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   strings.TrimSpace(req.Message),
		IPAddress: ip,
		CreatedAt: time.Now(),
	}
	if sub.Name == "" || sub.Message == "" {
		return Validation("name, email and message are required")
	}
	if !strings.Contains(sub.Email, "@") {
		return Validation("a valid email is required")
	}
	if caller.Authenticated {
		sub.UserID = caller.UserID
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return fmt.Errorf("failed to store contact submission: %w", err)
	}
	if err := s.notifier.SendContactAdmin(sub); err != nil {
		return fmt.Errorf("failed to notify admin: %w", err)
	}
	if err := s.notifier.SendContactAck(sub); err != nil {
		s.log.Warn().Err(err).Str("submission_id", sub.ID).Msg("failed to send contact acknowledgement")
	}
	return nil
}
