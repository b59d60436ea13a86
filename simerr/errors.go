// Package simerr defines the error kinds surfaced by the simulator.
// Callers classify failures with errors.Is against the exported
// sentinels rather than matching message text.
package simerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks fatal setup problems: missing classifier blobs,
	// missing schedule or stlat files, unrecognized weather codes or
	// blood strings. Surfaced to the caller and mapped to a nonzero
	// exit code at the CLI boundary.
	ErrConfig = errors.New("config error")

	// ErrDomain marks an invariant violation inside a simulation:
	// negative multipliers, base-map collisions, rotation exhaustion,
	// an empty probability vector. Fatal to the current run.
	ErrDomain = errors.New("domain error")

	// ErrTransient marks a retryable remote failure, e.g. a stlat
	// snapshot fetch. Retried before degrading to ErrConfig.
	ErrTransient = errors.New("transient error")

	// ErrSkippedGame marks a scheduled game the sim must not play,
	// e.g. one shuffled in the Reverb. Silently skipped by drivers.
	ErrSkippedGame = errors.New("skipped game")
)

// Config wraps a formatted message as an ErrConfig.
func Config(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// Domain wraps a formatted message as an ErrDomain.
func Domain(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDomain, fmt.Sprintf(format, args...))
}

// Transient wraps a formatted message as an ErrTransient.
func Transient(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrTransient, fmt.Sprintf(format, args...))
}

// Skipped wraps a formatted message as an ErrSkippedGame.
func Skipped(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSkippedGame, fmt.Sprintf(format, args...))
}
