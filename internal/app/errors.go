package service

import "errors"

// Service errors.
var (
	// ErrSessionExists is returned when creating a session whose id is
	// already in use.
	ErrSessionExists = errors.New("session already exists")

	// ErrSessionNotFound is returned when operating on an unknown session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySessions is returned when the live session cap is reached.
	ErrTooManySessions = errors.New("session limit reached")
)
