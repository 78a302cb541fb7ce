// Package errs defines the error taxonomy shared by the repository, service and
// HTTP layers. Lower layers return sentinels or *Error values; the HTTP error
// handler is the only place that turns them into status codes.
package errs

import "errors"

// Kind classifies an error for translation at the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindRateLimited
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstream:
		return "upstream"
	}
	return "internal"
}

// Sentinels used across layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailExists is returned when the unique email index rejects an insert.
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated means no session token was presented at all.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrInvalidToken covers bad signature, malformed payload and expiry alike.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrForbidden means a valid identity lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrResetTokenInvalid covers wrong, expired and already consumed reset secrets.
	ErrResetTokenInvalid = errors.New("token invalid or expired")

	// ErrRateLimited indicates the caller exceeded its request budget.
	ErrRateLimited = errors.New("rate limited")
)

var publicMessages = map[error]string{
	ErrNotFound:           "Not found",
	ErrEmailExists:        "Email already registered",
	ErrInvalidCredentials: "Invalid credentials",
	ErrUnauthenticated:    "Not authenticated",
	ErrInvalidToken:       "Invalid or expired token",
	ErrForbidden:          "Forbidden",
	ErrResetTokenInvalid:  "Token invalid or expired",
	ErrRateLimited:        "Too many requests",
}

// Error carries a kind, a client-safe message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports missing or malformed input.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFound reports a missing entity with a specific message. errors.Is(err,
// ErrNotFound) holds for the result.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg, Err: ErrNotFound}
}

// Upstream wraps a failure of an external provider (mail, image storage).
func Upstream(msg string, err error) error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// KindOf resolves the kind of err. Unknown errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrEmailExists):
		return KindConflict
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInvalidToken):
		return KindAuthentication
	case errors.Is(err, ErrForbidden):
		return KindAuthorization
	case errors.Is(err, ErrResetTokenInvalid):
		return KindValidation
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	}
	return KindInternal
}

// PublicMessage returns the message that may be shown to API clients.
// Internal and upstream failures never expose their cause.
func PublicMessage(err error) string {
	switch KindOf(err) {
	case KindInternal, KindUpstream:
		return "Server error"
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	for sentinel, msg := range publicMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return "Server error"
}
