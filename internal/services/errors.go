package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")

	ErrMissingCredentials = fmt.Errorf("%w: email and password are required", ErrValidation)
	ErrMissingEmail       = fmt.Errorf("%w: email is required", ErrValidation)
	ErrMissingFields      = fmt.Errorf("%w: email and otp are required", ErrValidation)
	ErrMissingToken       = fmt.Errorf("%w: reset token is missing", ErrValidation)
	ErrPasswordsRequired  = fmt.Errorf("%w: new password and confirmation are required", ErrValidation)
	ErrPasswordTooLong    = fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, MaxPasswordBytes)

	ErrAlreadyExists         = errors.New("user already exists")
	ErrInvalidOrExpiredCode  = errors.New("invalid or expired verification code")
	ErrInvalidOrExpiredOTP   = errors.New("invalid or expired otp")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrNotFound              = errors.New("not found")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrForbidden             = errors.New("forbidden")

	// ErrUpstream marks store and mail transport failures.
	ErrUpstream = errors.New("upstream failure")

	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}
