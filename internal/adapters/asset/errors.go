package asset

import "errors"

// Sentinel errors for model loading.
var (
	ErrInvalidModel = errors.New("invalid note model")
	ErrNodeNotFound = errors.New("note model has no base node")
)
