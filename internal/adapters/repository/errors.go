package repository

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrTournamentApplied is returned when an identity key is marked twice.
	ErrTournamentApplied = errors.New("tournament already applied")
)
