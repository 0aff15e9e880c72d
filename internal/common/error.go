// Package common defines shared constants and sentinel errors used across
// client and server layers of taskhive. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Authentication and session errors.
	ErrAuth             = errors.New("invalid credentials")
	ErrSessionExpired   = errors.New("session expired")
	ErrWrongAccessLevel = errors.New("wrong access level")

	// Input and state errors.
	ErrValidation = errors.New("validation error")
	ErrState      = errors.New("state error")

	// Generic/internal flow control.
	ErrInternal = errors.New("internal error")
)
