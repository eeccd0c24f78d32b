package domain

import "errors"

var (
	ErrNotFound     = errors.New("project not found")
	ErrNameRequired = errors.New("project name required")
	ErrUserRequired = errors.New("user id required")
)
