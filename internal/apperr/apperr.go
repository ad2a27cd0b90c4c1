package apperr

import (
	"errors"
	"net/http"
)

// Sentinel failures surfaced by the services. The HTTP boundary maps each
// one to a status code and the response envelope; services never touch
// status codes themselves.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountBlocked     = errors.New("your account has been blocked. Please contact support")
	ErrInvalidAge         = errors.New("age must be between 18 and 120 years")
	ErrInvalidRole        = errors.New("invalid role, must be either \"user\" or \"admin\"")
	ErrSelfAction         = errors.New("you cannot perform this action on your own account")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrInvalidQuery       = errors.New("search query is required")
	ErrInvalidInput       = errors.New("invalid input")
	ErrOutOfStock         = errors.New("not enough stock")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("access token required")
	ErrForbidden          = errors.New("admin access required")
)

// Status resolves a service error to its HTTP status. Unknown errors are
// treated as internal. Duplicate email is 400 rather than 409 to keep the
// observable contract of the original API.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrAccountBlocked),
		errors.Is(err, ErrSelfAction):
		return http.StatusForbidden
	case errors.Is(err, ErrDuplicateEmail), errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrInvalidAge), errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrWrongPassword), errors.Is(err, ErrInvalidRating),
		errors.Is(err, ErrInvalidQuery), errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrOutOfStock):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
