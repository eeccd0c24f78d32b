package domain

import "errors"

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrAccountNotFound     = errors.New("credit account not found")
	ErrInvalidAmount       = errors.New("credit amount must be positive")
)
