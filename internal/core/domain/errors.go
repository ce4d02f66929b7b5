package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Workflow errors
var (
	ErrInvalidTransition = errors.New("invalid stage transition")
	ErrNotPermitted      = errors.New("action not permitted for this user")
	ErrUnknownStage      = errors.New("unknown stage")
)
