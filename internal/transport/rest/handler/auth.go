package handler

import (
	"net/http"
	"time"

	"quizroom/internal/model"
	"quizroom/internal/service"
	"quizroom/internal/transport/rest/middleware"
)

// AuthHandler handles account, session and verification endpoints
type AuthHandler struct {
	authSvc      *service.AuthService
	otpSvc       *service.OTPService
	cookieName   string
	cookieSecure bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService, otpSvc *service.OTPService, cookieName string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, otpSvc: otpSvc, cookieName: cookieName, cookieSecure: cookieSecure}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sendOTPRequest struct {
	Email string           `json:"email" validate:"required,email"`
	Type  model.OTPPurpose `json:"type" validate:"required,oneof=signup reset"`
}

type verifyRequest struct {
	Email string           `json:"email" validate:"required,email"`
	OTP   string           `json:"otp" validate:"required"`
	Type  model.OTPPurpose `json:"type" validate:"required,oneof=signup reset"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.authSvc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"message": "registration successful, check your email for the verification code",
		"user":    user,
	})
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    resp.Token,
		Path:     "/",
		Expires:  time.Now().Add(h.authSvc.SessionTTL()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, envelope{"token": resp.Token, "expiresIn": resp.ExpiresIn, "user": resp.User})
}

// Logout handles POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
	})
	writeJSON(w, http.StatusOK, envelope{"message": "logged out"})
}

// Profile handles GET /api/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.authSvc.Profile(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"user": user})
}

// UpdateProfile handles PUT /api/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.authSvc.UpdateProfile(r.Context(), middleware.GetIdentity(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"user": user})
}

// SendOTP handles POST /api/send-otp
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.otpSvc.SendOTP(r.Context(), req.Email, req.Type); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "verification code sent"})
}

// Verify handles POST /api/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.otpSvc.Verify(r.Context(), req.Email, req.OTP, req.Type); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "verification successful", "verified": true})
}

// ResetPassword handles POST /api/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.authSvc.ResetPassword(r.Context(), req.Email, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "password updated"})
}
