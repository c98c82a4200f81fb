// Unified error handling for the BrickLayers host modules
//
// Copyright (C) 2025 Justin Hayes
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import "fmt"

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Configuration errors
	ErrConfigSection ErrorCode = "CONFIG_SECTION"
	ErrConfigOption  ErrorCode = "CONFIG_OPTION"
	ErrConfigValue   ErrorCode = "CONFIG_VALUE"

	// G-code parsing errors
	ErrGCodeParse ErrorCode = "GCODE_PARSE"

	// Toolpath scan errors
	ErrScanSource ErrorCode = "SCAN_SOURCE"
	ErrScanBusy   ErrorCode = "SCAN_BUSY"

	// Move interception errors
	ErrRewriteEmit ErrorCode = "REWRITE_EMIT"
)

// EngineError is the unified error type for the transform engine.
type EngineError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Section is the config section or other context name
	Section string

	// Option is the config option name (if applicable)
	Option string

	// Err wraps the underlying error
	Err error
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Option, e.Message)
	}
	if e.Section != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Section, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Err
}

// SetSection sets the context section
func (e *EngineError) SetSection(section string) *EngineError {
	e.Section = section
	return e
}

// SetOption sets the config option
func (e *EngineError) SetOption(option string) *EngineError {
	e.Option = option
	return e
}

// New creates a new EngineError
func New(code ErrorCode, message string) *EngineError {
	return &EngineError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *EngineError {
	return &EngineError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Config errors

// ConfigSectionError creates an error for a missing config section
func ConfigSectionError(section string) *EngineError {
	return New(ErrConfigSection, fmt.Sprintf("section '%s' not found", section)).
		SetSection(section)
}

// MissingOptionError creates an error for a missing config option
func MissingOptionError(section, option string) *EngineError {
	return New(ErrConfigOption, fmt.Sprintf("option '%s' not found in section '%s'", option, section)).
		SetSection(section).
		SetOption(option)
}

// InvalidValueError creates an error for a config value that failed conversion
func InvalidValueError(section, option, value, targetType string) *EngineError {
	return New(ErrConfigValue, fmt.Sprintf("option '%s' in section '%s': failed to parse '%s' as %s", option, section, value, targetType)).
		SetSection(section).
		SetOption(option)
}

// G-code errors

// GCodeParseError creates an error for a G-code parsing failure
func GCodeParseError(line string, reason string) *EngineError {
	return New(ErrGCodeParse, fmt.Sprintf("failed to parse G-code: %s (reason: %s)", line, reason))
}

// Scan errors

// ScanSourceError creates an error for an unreadable toolpath source
func ScanSourceError(path string, err error) *EngineError {
	return Wrap(err, ErrScanSource, fmt.Sprintf("toolpath source unavailable: %s", path))
}

// ScanBusyError creates an error for a scan requested while one is running
func ScanBusyError(path string) *EngineError {
	return New(ErrScanBusy, fmt.Sprintf("scan already in progress for %s", path))
}

// Interception errors

// RewriteEmitError creates an error for a rewritten move that could not be submitted
func RewriteEmitError(ordinal int, err error) *EngineError {
	return Wrap(err, ErrRewriteEmit, fmt.Sprintf("failed to emit rewritten move #%d", ordinal))
}

// Is checks if the error matches the given error code
func Is(err error, code ErrorCode) bool {
	if ee, ok := err.(*EngineError); ok {
		return ee.Code == code
	}
	return false
}

// IsConfig checks if the error is a config error
func IsConfig(err error) bool {
	return Is(err, ErrConfigSection) ||
		Is(err, ErrConfigOption) ||
		Is(err, ErrConfigValue)
}
