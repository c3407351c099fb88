package session

import "errors"

// Sentinel errors for the session.
var (
	ErrBusy   = errors.New("session queue is full")
	ErrClosed = errors.New("session closed")
)
