package core

import "errors"

// Error is a typed coordinator error. Code is what goes on the wire;
// handlers report it to the offending connection only, never broadcast it.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// Is matches on code so copies produced by With still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// With returns a copy carrying a more specific message.
func (e *Error) With(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

var (
	ErrRoomNotFound     = &Error{"room_not_found", "room does not exist"}
	ErrNotHost          = &Error{"not_host", "host privileges required"}
	ErrBanned           = &Error{"banned", "you are banned from this room"}
	ErrRoomLocked       = &Error{"room_locked", "room is locked"}
	ErrPasswordRequired = &Error{"password_required", "room requires a password"}
	ErrWrongPassword    = &Error{"wrong_password", "wrong password"}
	ErrRoomFull         = &Error{"room_full", "room is full"}
	ErrRateLimited      = &Error{"rate_limited", "slow mode is active"}
	ErrContentRejected  = &Error{"content_rejected", "message rejected"}
	ErrTargetNotFound   = &Error{"target_not_found", "target is not a member"}
	ErrBadPayload       = &Error{"bad_payload", "malformed payload"}

	// ErrStaleIntent is a deliberate no-op, never surfaced to the actor.
	ErrStaleIntent = &Error{"stale_intent", "intent older than last applied action"}
)

// CodeOf extracts the wire code of any error, defaulting to bad_payload.
func CodeOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrBadPayload.Code
}

// MessageOf extracts the user-visible message of any error.
func MessageOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return "malformed payload"
}
