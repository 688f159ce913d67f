package domain

import (
	"errors"
	"strings"
)

// Kind classifies an Error for the transport boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified failure carrying a client-facing message.
type Error struct {
	Kind    Kind
	Message string
	Details []string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// BadRequest reports invalid input.
func BadRequest(msg string) *Error { return newError(KindBadRequest, msg) }

// Unauthorized reports a missing or rejected identity.
func Unauthorized(msg string) *Error { return newError(KindUnauthorized, msg) }

// NotFound reports an absent resource, or one the caller does not own.
func NotFound(msg string) *Error { return newError(KindNotFound, msg) }

// Conflict reports a uniqueness violation.
func Conflict(msg string) *Error { return newError(KindConflict, msg) }

// ValidationFailed joins accumulated field messages into one BadRequest.
func ValidationFailed(messages []string) *Error {
	return &Error{
		Kind:    KindBadRequest,
		Message: strings.Join(messages, ", "),
		Details: messages,
	}
}

var (
	// ErrQuizNotFound covers both a missing quiz and one owned by someone else.
	ErrQuizNotFound = NotFound("Quiz not found")
	// ErrNoQuizFound is returned by owner listings that match nothing.
	ErrNoQuizFound = NotFound("No quiz found")
	// ErrUserNotFound indicates the session subject no longer exists.
	ErrUserNotFound = NotFound("User does not exist")
	// ErrEmailTaken is returned on signup with a registered email.
	ErrEmailTaken = Conflict("User with this email already exists")
	// ErrEmailInUse is returned when a profile update targets another account's email.
	ErrEmailInUse = Conflict("Email is already in use")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = Unauthorized("Invalid user credentials")
	// ErrSessionRequired is returned when no session token accompanies the request.
	ErrSessionRequired = Unauthorized("Please log in again")
	// ErrInvalidSession is returned for a malformed, forged or expired token.
	ErrInvalidSession = Unauthorized("Invalid or expired session")
	// ErrStaleQuiz signals the quiz was replaced after a tally was computed.
	ErrStaleQuiz = Conflict("quiz was modified concurrently")
)

// KindOf extracts the kind of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
