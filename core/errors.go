package core

import "errors"

// Common errors
var (
	ErrEmptyQuery      = errors.New("empty query vector")
	ErrInvalidQuery    = errors.New("invalid query vector")
	ErrInvalidDistance = errors.New("invalid distance metric")
)
