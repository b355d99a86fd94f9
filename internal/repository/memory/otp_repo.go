package memory

import (
	"context"
	"sync"
	"time"

	"quizroom/internal/model"
	"quizroom/internal/repository"
)

type OTPRepo struct {
	mu   sync.Mutex
	otps []model.OTP
}

func NewOTPRepo() *OTPRepo {
	return &OTPRepo{}
}

func (r *OTPRepo) Create(_ context.Context, otp *model.OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if otp.ID == "" {
		otp.ID = repository.NewID()
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}
	r.otps = append(r.otps, *otp)
	return nil
}

func (r *OTPRepo) GetLatest(_ context.Context, email string, purpose model.OTPPurpose) (*model.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.otps) - 1; i >= 0; i-- {
		if o := r.otps[i]; o.Email == email && o.Purpose == purpose {
			return &o, nil
		}
	}
	return nil, nil
}

func (r *OTPRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filter(func(o model.OTP) bool { return o.ID != id })
	return nil
}

func (r *OTPRepo) DeleteAll(_ context.Context, email string, purpose model.OTPPurpose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filter(func(o model.OTP) bool { return o.Email != email || o.Purpose != purpose })
	return nil
}

// Count returns the number of stored codes.
func (r *OTPRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.otps)
}

func (r *OTPRepo) filter(keep func(model.OTP) bool) {
	kept := r.otps[:0]
	for _, o := range r.otps {
		if keep(o) {
			kept = append(kept, o)
		}
	}
	r.otps = kept
}

type ContactRepo struct {
	mu          sync.Mutex
	Submissions []model.ContactSubmission
}

func NewContactRepo() *ContactRepo {
	return &ContactRepo{}
}

func (r *ContactRepo) Create(_ context.Context, s *model.ContactSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = repository.NewID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	r.Submissions = append(r.Submissions, *s)
	return nil
}

var (
	_ repository.OTPRepo     = (*OTPRepo)(nil)
	_ repository.ContactRepo = (*ContactRepo)(nil)
)

var (
	_ repository.OTPRepo     = (*OTPRepo)(nil)
	_ repository.ContactRepo = (*ContactRepo)(nil)
)
