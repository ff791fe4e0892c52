package billing

import "errors"

var (
	ErrNoActiveSession = errors.New("no active session on table")
	ErrSessionNotTimed = errors.New("session has no time limit")
)
