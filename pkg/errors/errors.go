// Package errors provides structured error handling for dotledger.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes.
const (
	ExitSuccess  = 0 // Successful execution
	ExitGeneral  = 1 // General/unknown error
	ExitInput    = 2 // Invalid input
	ExitNoDevice = 3 // No hardware device attached
	ExitDevice   = 4 // Device present but the operation failed
	ExitBusy     = 5 // Another device task sequence is in flight
)

// DeviceError is the structured error type for dotledger.
type DeviceError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *DeviceError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *DeviceError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for DeviceError.
func (e *DeviceError) Is(target error) bool {
	var t *DeviceError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &DeviceError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &DeviceError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	// Device session errors. These two codes are the complete failure
	// taxonomy for device task sequences: anything that is not literally
	// "no device attached" is reported as the app being closed.
	ErrDeviceNotConnected = &DeviceError{
		Code:       "DEVICE_NOT_CONNECTED",
		Message:    "no Ledger device connected",
		Suggestion: "connect and unlock the device, then retry",
		ExitCode:   ExitNoDevice,
	}

	ErrAppNotOpen = &DeviceError{
		Code:       "APP_NOT_OPEN",
		Message:    "device operation failed - the Polkadot app may be closed",
		Suggestion: "open the Polkadot app on the device, then retry",
		ExitCode:   ExitDevice,
	}

	ErrTaskInFlight = &DeviceError{
		Code:       "TASK_IN_FLIGHT",
		Message:    "another device task sequence is already running",
		Suggestion: "wait for the current operation to finish",
		ExitCode:   ExitBusy,
	}

	ErrNoTasks = &DeviceError{
		Code:     "NO_TASKS",
		Message:  "no device tasks requested",
		ExitCode: ExitInput,
	}

	ErrUnknownTask = &DeviceError{
		Code:     "UNKNOWN_TASK",
		Message:  "unknown device task",
		ExitCode: ExitInput,
	}

	ErrInvalidDerivationPath = &DeviceError{
		Code:     "INVALID_DERIVATION_PATH",
		Message:  "invalid derivation path",
		ExitCode: ExitInput,
	}

	ErrResponseTooShort = &DeviceError{
		Code:     "RESPONSE_TOO_SHORT",
		Message:  "device response shorter than a status word",
		ExitCode: ExitDevice,
	}

	ErrStateCorrupted = &DeviceError{
		Code:     "STATE_CORRUPTED",
		Message:  "session state file is corrupted",
		ExitCode: ExitGeneral,
	}

	// Config-specific errors.
	ErrConfigNotFound = &DeviceError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitGeneral,
	}

	ErrConfigInvalid = &DeviceError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}
)

// New creates a new DeviceError with the given code and message.
func New(code, message string) *DeviceError {
	return &DeviceError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var de *DeviceError
	if errors.As(err, &de) {
		return &DeviceError{
			Code:       de.Code,
			Message:    fmt.Sprintf("%s: %s", msg, de.Message),
			Details:    de.Details,
			Suggestion: de.Suggestion,
			Cause:      err,
			ExitCode:   de.ExitCode,
		}
	}

	return &DeviceError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var de *DeviceError
	if errors.As(err, &de) {
		return &DeviceError{
			Code:       de.Code,
			Message:    de.Message,
			Details:    details,
			Suggestion: de.Suggestion,
			Cause:      de.Cause,
			ExitCode:   de.ExitCode,
		}
	}

	return &DeviceError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var de *DeviceError
	if errors.As(err, &de) {
		return &DeviceError{
			Code:       de.Code,
			Message:    de.Message,
			Details:    de.Details,
			Suggestion: suggestion,
			Cause:      de.Cause,
			ExitCode:   de.ExitCode,
		}
	}

	return &DeviceError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var de *DeviceError
	if errors.As(err, &de) {
		return de.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var de *DeviceError
	if errors.As(err, &de) {
		return de.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
