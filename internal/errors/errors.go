// Package errors provides structured error handling for Mentora.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================
// Error Categories
// ============================================================

// Category defines the type of error for handling decisions.
type Category int

const (
	// CategoryTemporary errors may succeed on a later call (network, engine busy)
	CategoryTemporary Category = iota

	// CategoryPermanent errors will not succeed on a later call (not found, unsupported)
	CategoryPermanent

	// CategoryUser errors are due to caller input (bad params, bad URL)
	CategoryUser

	// CategorySystem errors are environment-level (engine not initialized, disk)
	CategorySystem
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTemporary:
		return "temporary"
	case CategoryPermanent:
		return "permanent"
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	default:
		return "unknown"
	}
}

// ============================================================
// AppError - Main Error Type
// ============================================================

// AppError is the main error type for all Mentora errors.
type AppError struct {
	// Code is a unique error code for programmatic handling
	Code string

	// Message is a user-friendly error message
	Message string

	// Category determines how the error should be handled
	Category Category

	// Inner is the underlying error
	Inner error

	// Suggestions are recovery suggestions for the user
	Suggestions []string

	// Context is additional debugging information
	Context map[string]any
}

// Error returns the error message.
func (e *AppError) Error() string {
	var sb strings.Builder

	if e.Code != "" {
		sb.WriteString("[")
		sb.WriteString(e.Code)
		sb.WriteString("] ")
	}

	sb.WriteString(e.Message)

	if e.Inner != nil {
		innerMsg := e.Inner.Error()
		if innerMsg != "" && innerMsg != e.Message {
			sb.WriteString(": ")
			sb.WriteString(innerMsg)
		}
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Inner
}

// ============================================================
// Error Constructors
// ============================================================

// New creates a new AppError.
func New(code, message string, category Category) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Category: category,
	}
}

// Wrap wraps an existing error with context.
func Wrap(err error, code, message string, category Category) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:        code,
			Message:     message,
			Category:    category,
			Inner:       appErr,
			Suggestions: appErr.Suggestions,
			Context:     appErr.Context,
		}
	}

	return &AppError{
		Code:     code,
		Message:  message,
		Category: category,
		Inner:    err,
	}
}

// Temporary creates a temporary error.
func Temporary(code, message string) *AppError {
	return New(code, message, CategoryTemporary)
}

// Permanent creates a permanent error.
func Permanent(code, message string) *AppError {
	return New(code, message, CategoryPermanent)
}

// User creates a caller input error.
func User(code, message string) *AppError {
	return New(code, message, CategoryUser)
}

// System creates a system-level error.
func System(code, message string) *AppError {
	return New(code, message, CategorySystem)
}

// ============================================================
// Builder Pattern for Fluent Error Construction
// ============================================================

// Builder provides fluent error construction.
type Builder struct {
	err *AppError
}

// NewBuilder starts building a new error.
func NewBuilder(code, message string) *Builder {
	return &Builder{
		err: &AppError{
			Code:     code,
			Message:  message,
			Category: CategoryTemporary,
			Context:  make(map[string]any),
		},
	}
}

// Permanent marks the error as permanent.
func (b *Builder) Permanent() *Builder {
	b.err.Category = CategoryPermanent
	return b
}

// User marks the error as a caller input error.
func (b *Builder) User() *Builder {
	b.err.Category = CategoryUser
	return b
}

// System marks the error as a system error.
func (b *Builder) System() *Builder {
	b.err.Category = CategorySystem
	return b
}

// Wrap sets the underlying error.
func (b *Builder) Wrap(err error) *Builder {
	b.err.Inner = err
	return b
}

// WithSuggestion adds a recovery suggestion.
func (b *Builder) WithSuggestion(suggestion string) *Builder {
	b.err.Suggestions = append(b.err.Suggestions, suggestion)
	return b
}

// WithContext adds context information.
func (b *Builder) WithContext(key string, value any) *Builder {
	b.err.Context[key] = value
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *AppError {
	return b.err
}

// ============================================================
// Error Codes
// ============================================================

const (
	// Model errors
	CodeModelUnavailable    = "MODEL_UNAVAILABLE"
	CodeModelNotInitialized = "MODEL_NOT_INITIALIZED"
	CodeModelNotLoaded      = "MODEL_NOT_LOADED"
	CodeModelNotFound       = "MODEL_NOT_FOUND"
	CodeModelInvalidOutput  = "MODEL_INVALID_OUTPUT"
	CodeDownloadFailed      = "DOWNLOAD_FAILED"
	CodeUnsupported         = "UNSUPPORTED"

	// Backend errors
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	CodeBackendStatus      = "BACKEND_STATUS"
	CodeBackendDecode      = "BACKEND_DECODE"
	CodeBackendDisabled    = "BACKEND_DISABLED"

	// Extraction errors
	CodeExtractFailed   = "EXTRACT_FAILED"
	CodeUnsupportedFile = "UNSUPPORTED_FILE"

	// Preference errors
	CodePrefsFailed = "PREFS_FAILED"

	// Bridge errors
	CodeBridgeBadRequest    = "BRIDGE_BAD_REQUEST"
	CodeBridgeUnknownMethod = "BRIDGE_UNKNOWN_METHOD"
	CodeBridgeClosed        = "BRIDGE_CLOSED"
	CodeBridgeInternal      = "BRIDGE_INTERNAL"

	// Config errors
	CodeConfigInvalid = "CONFIG_INVALID"

	// Validation errors
	CodeInvalidInput = "INVALID_INPUT"
)

// ErrNotInitialized is the sentinel for an on-device engine that has not
// been initialized (no server, no SDK key). Callers recover from it with
// fallback content.
var ErrNotInitialized = errors.New("SDK not initialized")

// ============================================================
// Helpers
// ============================================================

// GetCategory extracts the category from an error.
// Returns CategoryTemporary for non-AppError errors.
func GetCategory(err error) Category {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Category
	}
	return CategoryTemporary
}

// GetCode returns the outermost AppError code, or "" for foreign errors.
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether any AppError in the chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				if HasCode(e, code) {
					return true
				}
			}
			return false
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotInitialized reports whether err means the on-device engine was never
// initialized. Engines that only report a message are matched on the text.
func IsNotInitialized(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotInitialized) || HasCode(err, CodeModelNotInitialized) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not initialized") || strings.Contains(msg, "initialize()")
}

// GetSuggestions returns recovery suggestions for an error.
func GetSuggestions(err error) []string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Suggestions
	}
	return nil
}

// Message returns the user-facing part of err: the AppError message chain
// without codes, or err.Error() for foreign errors.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	if appErr.Inner == nil {
		return appErr.Message
	}
	inner := Message(appErr.Inner)
	if inner == "" || inner == appErr.Message {
		return appErr.Message
	}
	return fmt.Sprintf("%s: %s", appErr.Message, inner)
}

// Is, As, Join and Unwrap re-export the standard library helpers so callers
// need a single errors import.
var (
	Is     = errors.Is
	As     = errors.As
	Join   = errors.Join
	Unwrap = errors.Unwrap
)
