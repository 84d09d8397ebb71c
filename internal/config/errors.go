package config

import (
	"errors"
)

var (
	// ErrInvalidConfig marks a loaded configuration that failed validation.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrLoadConfig wraps failures reading the file or environment layers.
	ErrLoadConfig = errors.New("load config failed")
)
