package service

import "quizroom/internal/model"

// Notifier sends the transactional emails services trigger.
type Notifier interface {
	SendOTP(to, name, code string, purpose model.OTPPurpose, validMinutes int) error
	SendPasswordChanged(to, name string) error
	SendContactAdmin(s *model.ContactSubmission) error
	SendContactAck(s *model.ContactSubmission) error
}
