package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every error that must stop startup
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError reports a required or malformed setting
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}
