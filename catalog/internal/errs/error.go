package errs

import (
	"errors"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrUnknownAuthor      = errors.New("unknown author")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooLong    = errors.New("password is longer than 72 bytes")
	ErrRatingUnavailable  = errors.New("rating unavailable")
)
