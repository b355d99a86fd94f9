package model

import "time"

type OTPPurpose string

const (
	OTPSignup OTPPurpose = "signup"
	OTPReset  OTPPurpose = "reset"
)

func (p OTPPurpose) Valid() bool {
	return p == OTPSignup || p == OTPReset
}

// OTP is a one-time verification code scoped by email and purpose.
type OTP struct {
	ID        string     `json:"id" bson:"_id"`
	Email     string     `json:"email" bson:"email"`
	Purpose   OTPPurpose `json:"type" bson:"type"`
	Code      string     `json:"-" bson:"otp"`
	ExpiresAt time.Time  `json:"expiresAt" bson:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
}

// Expired reports whether the code is no longer valid at now.
func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
