package service

import "errors"

// Kind classifies an error for the transport layer.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindUnauthorized   Kind = "unauthorized"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindTooMany        Kind = "too_many_requests"
	KindNotImplemented Kind = "not_implemented"
	KindInternal       Kind = "internal"
)

// Error is a domain error whose message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Validation returns a new validation error with msg.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// KindOf returns the kind of err, or KindInternal for errors that are not domain errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

var (
	// ErrUnauthorized is returned when an operation needs a signed-in user.
	ErrUnauthorized = &Error{KindUnauthorized, "authentication required"}
	// ErrInvalidToken is returned for malformed, expired or forged tokens.
	ErrInvalidToken = &Error{KindUnauthorized, "invalid or expired token"}
	// ErrInvalidCredentials is returned by login for an unknown email or a wrong password.
	ErrInvalidCredentials = &Error{KindUnauthorized, "invalid email or password"}
	// ErrEmailNotVerified is returned by login before the signup code is confirmed.
	ErrEmailNotVerified = &Error{KindForbidden, "email not verified"}
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken        = &Error{KindConflict, "email already registered"}
	ErrUserNotFound      = &Error{KindNotFound, "user not found"}
	ErrAlreadyVerified   = &Error{KindValidation, "email already verified"}
	ErrWrongPassword     = &Error{KindValidation, "current password is incorrect"}
	ErrResetNotVerified  = &Error{KindForbidden, "password reset not verified"}
	ErrInvalidOTP        = &Error{KindValidation, "invalid verification code"}
	ErrOTPExpired        = &Error{KindValidation, "verification code expired"}
	ErrRateLimited       = &Error{KindTooMany, "too many requests, try again later"}

	ErrRoomNotFound            = &Error{KindNotFound, "room not found"}
	ErrNotRoomCreator          = &Error{KindForbidden, "only the room creator can do this"}
	ErrRoomLocked              = &Error{KindForbidden, "room cannot be modified while active or completed"}
	ErrRoomInProgress          = &Error{KindForbidden, "room cannot be deleted while active or paused"}
	ErrInvalidTransition       = &Error{KindValidation, "invalid room status transition"}
	ErrCodeGenerationExhausted = &Error{KindConflict, "could not generate a unique room code"}
	ErrCapacityBelowCurrent    = &Error{KindValidation, "maxParticipants cannot be below current participants"}

	// Join rejections, checked in this order.
	ErrAlreadyEnded     = &Error{KindValidation, "room has already ended"}
	ErrRoomCancelled    = &Error{KindValidation, "room has been cancelled"}
	ErrLateJoinDisabled = &Error{KindForbidden, "room has started and late join is disabled"}
	ErrRoomFull         = &Error{KindConflict, "room is full"}
	ErrAlreadyJoined    = &Error{KindConflict, "already joined this room"}
	ErrJoinConflict     = &Error{KindConflict, "room changed while joining, try again"}

	ErrNotParticipant      = &Error{KindForbidden, "not a participant of this room"}
	ErrRoomNotActive       = &Error{KindValidation, "room is not active"}
	ErrQuestionNotInRoom   = &Error{KindNotFound, "question is not part of this room"}
	ErrAlreadyAnswered     = &Error{KindConflict, "question already answered"}
	ErrInvalidOption       = &Error{KindValidation, "selected option is out of range"}
	ErrQuestionInRoom      = &Error{KindConflict, "question already added to this room"}
	ErrRoomQuestionsLocked = &Error{KindForbidden, "questions can only be changed while the room is waiting or paused"}

	ErrQuestionNotFound = &Error{KindNotFound, "question not found or unauthorized"}
	ErrQuestionInUse    = &Error{KindConflict, "question is used by a waiting or active room"}

	ErrResultsForbidden  = &Error{KindForbidden, "results are not available to you yet"}
	ErrExportUnavailable = &Error{KindNotImplemented, "export is not yet available"}
	ErrInvalidFormat     = &Error{KindValidation, "format must be one of csv, pdf, excel"}

	ErrInvalidRating    = &Error{KindValidation, "rating must be between 1 and 5"}
	ErrAlreadyRated     = &Error{KindConflict, "you have already rated this room"}
	ErrParticipantsOnly = &Error{KindForbidden, "only participants can rate this room"}
)
