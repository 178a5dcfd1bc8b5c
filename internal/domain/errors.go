package domain

import "errors"

var (
	// ErrNoActiveSession is returned when a user has no session in the active state.
	ErrNoActiveSession = errors.New("no active quiz session")
	// ErrSessionNotFound is returned when a session ID does not exist.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotActive is returned by terminal transitions on a session that
	// has already left the active state.
	ErrSessionNotActive = errors.New("quiz session is not active")
	// ErrSessionExpired signals that the time limit elapsed before submission.
	ErrSessionExpired = errors.New("quiz time has expired")
	// ErrInvalidTimeLimit indicates a time limit outside the allowed range.
	ErrInvalidTimeLimit = errors.New("invalid time limit")
	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned on registration with a duplicate username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
)
