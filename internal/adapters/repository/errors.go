package repository

import "errors"

// Sentinel kinds for high score errors.
var (
	ErrNotFound      = errors.New("player not found")
	ErrInvalidLimit  = errors.New("invalid high score limit")
	ErrInvalidPlayer = errors.New("invalid player name")
	ErrInvalidScore  = errors.New("score must not be negative")
)
