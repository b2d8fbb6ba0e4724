package service

import (
	"errors"
	"fmt"
)

// Errors returned to the HTTP layer. Handlers map them to status codes with
// errors.Is; wrapped causes stay available for logging.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrMissingCredential = errors.New("missing or invalid Authorization header")
	ErrInvalidCredential = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
	ErrNotFound          = errors.New("not found")
	ErrMissingFile       = errors.New("no receipt file provided")
	ErrValidation        = errors.New("validation failed")
	ErrExternalService   = errors.New("external service error")
	ErrConfiguration     = errors.New("configuration error")
	ErrSigning           = errors.New("failed to sign token")

	// ErrFileTooLarge and ErrNotAReceipt refine ErrValidation.
	ErrFileTooLarge = fmt.Errorf("%w: file too large", ErrValidation)
	ErrNotAReceipt  = fmt.Errorf("%w: not a receipt", ErrValidation)

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)
