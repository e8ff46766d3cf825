package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound    = errors.New("record not found")
	ErrInvalidUser = errors.New("invalid user id")
	ErrInvalidGame = errors.New("invalid game id")
	ErrClosed      = errors.New("store closed")
)
