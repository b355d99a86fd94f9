package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"quizroom/internal/config"
	"quizroom/internal/model"
)

func register(t *testing.T, e *testEnv, email string) *model.UserView {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterRequest{Name: "Xavier", Email: email, Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return u
}

func TestRegisterIssuesSignupCode(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := register(t, e, "X@Example.com ")
	if u.Email != "x@example.com" || u.EmailVerified {
		t.Fatalf("expected unverified lowercased account, got %+v", u)
	}

	otp, err := e.otps.GetLatest(ctx, "x@example.com", model.OTPSignup)
	if err != nil || otp == nil {
		t.Fatalf("expected stored code, got %v", err)
	}
	if len(otp.Code) != 6 {
		t.Fatalf("expected 6 digit code, got %q", otp.Code)
	}
	for _, c := range otp.Code {
		if c < '0' || c > '9' {
			t.Fatalf("expected numeric code, got %q", otp.Code)
		}
	}
	if got := otp.ExpiresAt.Sub(otp.CreatedAt); got != 600*time.Second {
		t.Fatalf("expected 600s validity, got %v", got)
	}
	if e.notifier.lastCode(t) != otp.Code || e.notifier.otps[0].minutes != 10 {
		t.Fatalf("expected the stored code to be emailed")
	}

	if _, err := e.auth.Register(ctx, RegisterRequest{Name: "Other", Email: "x@example.com", Password: "secret1"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := e.auth.Register(ctx, RegisterRequest{Name: "Short", Email: "s@example.com", Password: "123"}); KindOf(err) != KindValidation {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	e := newTestEnv(t)
	e.notifier.failOTP = true
	register(t, e, "x@example.com")
	if e.otps.Count() != 1 {
		t.Fatalf("expected the code to be stored even though sending failed")
	}
}

func TestVerifySignupCode(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	register(t, e, "x@example.com")
	code := e.notifier.lastCode(t)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	if err := e.otp.Verify(ctx, "x@example.com", wrong, model.OTPSignup); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP for wrong code, got %v", err)
	}
	if err := e.otp.Verify(ctx, "x@example.com", code, model.OTPSignup); err != nil {
		t.Fatalf("verify: %v", err)
	}
	u, _ := e.users.GetByEmail(ctx, "x@example.com")
	if !u.EmailVerified {
		t.Fatalf("expected email to be verified")
	}
	if e.otps.Count() != 0 {
		t.Fatalf("expected code to be deleted after use")
	}
	if err := e.otp.Verify(ctx, "x@example.com", code, model.OTPSignup); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected reused code to fail, got %v", err)
	}
	if err := e.otp.SendOTP(ctx, "x@example.com", model.OTPSignup); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	register(t, e, "x@example.com")
	code := e.notifier.lastCode(t)

	later := time.Now().Add(10*time.Minute + time.Second)
	e.otp.now = func() time.Time { return later }
	if err := e.otp.Verify(ctx, "x@example.com", code, model.OTPSignup); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
	if e.otps.Count() != 0 {
		t.Fatalf("expected expired code to be deleted")
	}
}

func TestSendOTPReplacesPreviousCode(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	register(t, e, "x@example.com")
	first := e.notifier.lastCode(t)

	if err := e.otp.SendOTP(ctx, "x@example.com", model.OTPSignup); err != nil {
		t.Fatalf("send otp: %v", err)
	}
	if e.otps.Count() != 1 {
		t.Fatalf("expected a single live code, got %d", e.otps.Count())
	}
	second := e.notifier.lastCode(t)
	if first != second {
		if err := e.otp.Verify(ctx, "x@example.com", first, model.OTPSignup); !errors.Is(err, ErrInvalidOTP) {
			t.Fatalf("expected the replaced code to fail, got %v", err)
		}
	}

	if err := e.otp.SendOTP(ctx, "nobody@example.com", model.OTPSignup); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := e.otp.SendOTP(ctx, "x@example.com", "login"); KindOf(err) != KindValidation {
		t.Fatalf("expected validation error for unknown type, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	register(t, e, "x@example.com")

	if _, err := e.auth.Login(ctx, "x@example.com", "secret1"); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
	e.verifyUser(t, "x@example.com")

	if _, err := e.auth.Login(ctx, "x@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := e.auth.Login(ctx, "y@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	resp, err := e.auth.Login(ctx, "X@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.ExpiresIn != int64((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("unexpected expiry %d", resp.ExpiresIn)
	}
	claims, err := e.auth.ParseSession(resp.Token)
	if err != nil {
		t.Fatalf("parse session: %v", err)
	}
	if claims.Subject != resp.User.ID || claims.Email != "x@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := e.auth.ParseGuestToken(resp.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected a session token to be rejected as a guest token, got %v", err)
	}
}

func TestTokensFromAnotherSecretAreRejected(t *testing.T) {
	e := newTestEnv(t)
	log := zerolog.Nop()
	other := NewAuthService(e.users, e.otp, nil, e.notifier, config.AuthConfig{JWTSecret: "other", SessionTTL: time.Hour, GuestTTL: time.Hour}, &log)

	token, err := other.IssueGuestToken("room", "participant", "Guest")
	if err != nil {
		t.Fatalf("issue guest token: %v", err)
	}
	if _, err := e.auth.ParseGuestToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := e.auth.ParseSession("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasswordReset(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	register(t, e, "x@example.com")
	e.verifyUser(t, "x@example.com")

	sent := len(e.notifier.otps)
	if err := e.otp.SendOTP(ctx, "ghost@example.com", model.OTPReset); err != nil {
		t.Fatalf("expected silent success for unknown email, got %v", err)
	}
	if len(e.notifier.otps) != sent {
		t.Fatalf("expected no email for unknown address")
	}

	if err := e.auth.ResetPassword(ctx, "x@example.com", "newsecret"); !errors.Is(err, ErrResetNotVerified) {
		t.Fatalf("expected ErrResetNotVerified, got %v", err)
	}

	if err := e.otp.SendOTP(ctx, "x@example.com", model.OTPReset); err != nil {
		t.Fatalf("send reset code: %v", err)
	}
	if err := e.otp.Verify(ctx, "x@example.com", e.notifier.lastCode(t), model.OTPReset); err != nil {
		t.Fatalf("verify reset code: %v", err)
	}
	if !e.mr.Exists("reset:verified:x@example.com") {
		t.Fatalf("expected reset verification flag")
	}

	e.notifier.failPassword = true
	if err := e.auth.ResetPassword(ctx, "x@example.com", "newsecret"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if _, err := e.auth.Login(ctx, "x@example.com", "newsecret"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if err := e.auth.ResetPassword(ctx, "x@example.com", "another1"); !errors.Is(err, ErrResetNotVerified) {
		t.Fatalf("expected the verification to be single use, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := register(t, e, "x@example.com")
	e.verifyUser(t, "x@example.com")
	caller := model.Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Authenticated: true}

	if _, err := e.auth.UpdateProfile(ctx, caller, UpdateProfileRequest{NewPassword: "another1", CurrentPassword: "nope"}); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	view, err := e.auth.UpdateProfile(ctx, caller, UpdateProfileRequest{Name: "Xena", NewPassword: "another1", CurrentPassword: "secret1"})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if view.Name != "Xena" {
		t.Fatalf("expected new name, got %q", view.Name)
	}
	if _, err := e.auth.Login(ctx, "x@example.com", "another1"); err != nil {
		t.Fatalf("login with changed password: %v", err)
	}
	if _, err := e.auth.Profile(ctx, model.Identity{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthenticateUsesCurrentProfile(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	register(t, e, "x@example.com")
	e.verifyUser(t, "x@example.com")

	resp, err := e.auth.Login(ctx, "x@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	caller, err := e.auth.Authenticate(ctx, resp.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !caller.Authenticated || caller.UserID != resp.User.ID {
		t.Fatalf("unexpected identity: %+v", caller)
	}

	if _, err := e.auth.UpdateProfile(ctx, caller, UpdateProfileRequest{Name: "Renamed"}); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	caller, err = e.auth.Authenticate(ctx, resp.Token)
	if err != nil {
		t.Fatalf("authenticate after rename: %v", err)
	}
	if caller.Name != "Renamed" {
		t.Fatalf("expected the renamed profile, got %q", caller.Name)
	}

	room := e.createRoom(t, caller, 5)
	if room.CreatorName != "Renamed" {
		t.Fatalf("room should carry the current name, got %q", room.CreatorName)
	}

	orphan, err := e.auth.IssueSession(&model.User{ID: "missing", Name: "Ghost", Email: "ghost@example.com"})
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	if _, err := e.auth.Authenticate(ctx, orphan); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for a deleted account, got %v", err)
	}
}
