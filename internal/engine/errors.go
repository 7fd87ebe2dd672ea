package engine

import (
	"errors"
	"fmt"
)

// Step-failure taxonomy. The orchestrator records these into the per-account
// result; they never propagate past the account boundary.

// ErrLocatorExhausted signals that no candidate in a locator chain resolved.
// Recoverable at step granularity by trying the next higher-level fallback.
var ErrLocatorExhausted = errors.New("no locator candidate resolved")

// VerificationError reports that the active account did not match the
// requested one even after the one-shot switcher correction. Fatal for the
// account: proceeding would silently corrupt the output.
type VerificationError struct {
	Want string
	Got  string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("active account %q does not match requested %q", e.Got, e.Want)
}

// ConfigurationError reports that the export format or date range could not
// be set. Fatal for the account; there is no meaningful partial state to
// continue from.
type ConfigurationError struct {
	Stage string // "file_type" or "date_range"
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("failed to configure %s: %v", e.Stage, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// TransferTimeoutError reports that the download never materialized.
type TransferTimeoutError struct {
	Account string
}

func (e *TransferTimeoutError) Error() string {
	return fmt.Sprintf("no download arrived for account %s", e.Account)
}

// NavigationError reports that the recovery step could not restore a usable
// state. Fatal for the account; the next account's overview probe guards
// against the session being left mid-flow.
type NavigationError struct {
	Reason string
	Err    error
}

func (e *NavigationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("navigation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("navigation failed: %s", e.Reason)
}

func (e *NavigationError) Unwrap() error { return e.Err }
