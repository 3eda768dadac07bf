// Package errors provides custom error types for the airsync system.
// These errors enable programmatic error checking across the import,
// reconciliation and notification layers.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is is an alias for the standard library errors.Is.
var Is = errors.Is

// As is an alias for the standard library errors.As.
var As = errors.As

// Join is an alias for the standard library errors.Join.
var Join = errors.Join

// Common sentinel errors for the airsync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrAPIKeyRequired indicates that an API key is required but not provided
	ErrAPIKeyRequired = errors.New("API key required")

	// ErrAPIKeyInvalid indicates that the provided API key is invalid
	ErrAPIKeyInvalid = errors.New("API key invalid")

	// ErrServiceUnavailable indicates that a remote service is temporarily unavailable
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrRateLimited indicates that the API rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents an error response from a remote HTTP API
// (Airtable, Slack, SendGrid, GitHub).
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Service, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
// 422 is how Airtable reports a malformed field value.
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return target == ErrRateLimited
	case e.StatusCode >= 500:
		return target == ErrServiceUnavailable
	case e.StatusCode == http.StatusUnprocessableEntity:
		return target == ErrInvalidInput
	case e.StatusCode == http.StatusNotFound:
		return target == ErrNotFound
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return target == ErrAPIKeyInvalid
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{
		Service:    service,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// RemoteFetchError is returned when a remote table cannot be fully listed.
// It is fatal to a reconciliation run: a partial index is never trusted.
type RemoteFetchError struct {
	Table string
	Page  int
	Err   error
}

// Error implements the error interface
func (e *RemoteFetchError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("fetching remote table %s failed on page %d: %v", e.Table, e.Page, e.Err)
	}
	return fmt.Sprintf("fetching remote table %s failed: %v", e.Table, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}

// NewRemoteFetchError creates a new RemoteFetchError
func NewRemoteFetchError(table string, page int, err error) *RemoteFetchError {
	return &RemoteFetchError{Table: table, Page: page, Err: err}
}

// RemoteWriteError is returned when a create or update call against the
// remote store fails.
type RemoteWriteError struct {
	Table     string
	Operation string // "create" or "update"
	LocalID   int
	RecordID  string
	Err       error
}

// Error implements the error interface
func (e *RemoteWriteError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("%s of %s record %s (id %d) failed: %v", e.Operation, e.Table, e.RecordID, e.LocalID, e.Err)
	}
	return fmt.Sprintf("%s of %s record (id %d) failed: %v", e.Operation, e.Table, e.LocalID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// Permanent reports whether retrying the same payload cannot succeed.
func (e *RemoteWriteError) Permanent() bool {
	return IsPermanent(e.Err)
}

// NewRemoteWriteError creates a new RemoteWriteError
func NewRemoteWriteError(table, operation string, localID int, recordID string, err error) *RemoteWriteError {
	return &RemoteWriteError{
		Table:     table,
		Operation: operation,
		LocalID:   localID,
		RecordID:  recordID,
		Err:       err,
	}
}

// DecodeError indicates that a fetched remote record could not be parsed
// into the expected shape.
type DecodeError struct {
	Table    string
	RecordID string
	Field    string
	Err      error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decoding %s record %s: field %s: %v", e.Table, e.RecordID, e.Field, e.Err)
	}
	return fmt.Sprintf("decoding %s record %s: %v", e.Table, e.RecordID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *DecodeError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewDecodeError creates a new DecodeError
func NewDecodeError(table, recordID, field string, err error) *DecodeError {
	return &DecodeError{Table: table, RecordID: recordID, Field: field, Err: err}
}

// SyncError represents an error during an entity sync
type SyncError struct {
	Entity string
	Stage  string
	Err    error
}

// Error implements the error interface
func (e *SyncError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("sync of %s failed at %s: %v", e.Entity, e.Stage, e.Err)
	}
	return fmt.Sprintf("sync of %s failed: %v", e.Entity, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError creates a new SyncError
func NewSyncError(entity, stage string, err error) *SyncError {
	return &SyncError{
		Entity: entity,
		Stage:  stage,
		Err:    err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsAPIKeyError checks if an error is related to API keys
func IsAPIKeyError(err error) bool {
	return errors.Is(err, ErrAPIKeyRequired) || errors.Is(err, ErrAPIKeyInvalid)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error, including the
// caller's context being canceled or running out of time.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsServiceUnavailable checks if an error indicates service unavailability
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsTransient reports whether err is worth retrying with backoff.
func IsTransient(err error) bool {
	return IsRateLimited(err) || IsTimeout(err) || IsServiceUnavailable(err)
}

// IsPermanent reports whether err is a validation failure that will
// fail again on retry.
func IsPermanent(err error) bool {
	return err != nil && !IsTransient(err) && IsValidationError(err)
}

// IsRemoteFetch checks if an error is a RemoteFetchError
func IsRemoteFetch(err error) bool {
	var target *RemoteFetchError
	return errors.As(err, &target)
}

// IsRemoteWrite checks if an error is a RemoteWriteError
func IsRemoteWrite(err error) bool {
	var target *RemoteWriteError
	return errors.As(err, &target)
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "csv", etc.
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d:%d: %s", e.Format, e.File, e.Line, e.Column, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during local store operations
type ResourceError struct {
	Operation string // "list", "get", "upsert", "migrate"
	Resource  string // "meetings", "papers", "rfds", ...
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// TimeoutError represents an operation timeout
type TimeoutError struct {
	Operation string
	Duration  string
	Message   string
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	if e.Duration != "" {
		return fmt.Sprintf("operation %s timed out after %s: %s", e.Operation, e.Duration, e.Message)
	}
	return fmt.Sprintf("operation %s timed out: %s", e.Operation, e.Message)
}

// Is implements errors.Is support
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(operation, duration, message string) *TimeoutError {
	return &TimeoutError{
		Operation: operation,
		Duration:  duration,
		Message:   message,
	}
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapAPI wraps an error as an APIError
func WrapAPI(service string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Service:    service,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}
