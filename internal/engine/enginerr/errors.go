// Package enginerr provides the engine's single structured error type,
// mirroring the taxonomy of kinds the execution engine can surface to
// callers and handlers.
package enginerr

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the engine's error taxonomy.
type ErrorKind string

const (
	ConfigurationError ErrorKind = "CONFIGURATION"
	ArgumentError      ErrorKind = "ARGUMENT"
	RuntimeError       ErrorKind = "RUNTIME"
	LLMError           ErrorKind = "LLM"
	AgentError         ErrorKind = "AGENT"
	AnonymizerError    ErrorKind = "ANONYMIZER"
	SerializerError    ErrorKind = "SERIALIZER"
	IOError            ErrorKind = "IO"
	DBError            ErrorKind = "DB"
	AuthenticationError ErrorKind = "AUTHENTICATION"
	ValidationError    ErrorKind = "VALIDATION"
	SecretNotFound     ErrorKind = "SECRET_NOT_FOUND"
	SecretManager      ErrorKind = "SECRET_MANAGER"
	CryptographyError  ErrorKind = "CRYPTOGRAPHY"
	LanceDBError       ErrorKind = "LANCEDB"
	DatabaseError      ErrorKind = "DATABASE"
	CancellationError  ErrorKind = "CANCELLATION"
	TimeoutError       ErrorKind = "TIMEOUT"
)

// EngineError is the engine's single error type. Every failure surfaced
// across the Executable/FSM/Agent stack is one of these, carrying a kind,
// a human message, an optional wrapped cause, and structured details.
type EngineError struct {
	Kind    ErrorKind
	Message string
	Err     error
	Details map[string]any
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// WithDetail attaches a structured detail and returns the error for chaining.
func (e *EngineError) WithDetail(key string, value any) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an EngineError with no wrapped cause.
func New(kind ErrorKind, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message}
}

// Wrap creates an EngineError around an existing cause.
func Wrap(kind ErrorKind, message string, err error) *EngineError {
	return &EngineError{Kind: kind, Message: message, Err: err}
}

// Is reports whether err is an *EngineError of the given kind.
func Is(err error, kind ErrorKind) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind == kind
	}
	return false
}

// As extracts an *EngineError from err's chain, if present.
func As(err error) (*EngineError, bool) {
	var ee *EngineError
	ok := errors.As(err, &ee)
	return ee, ok
}

// Kind returns the ErrorKind of err, or RuntimeError if err is not an
// *EngineError.
func Kind(err error) ErrorKind {
	if ee, ok := As(err); ok {
		return ee.Kind
	}
	return RuntimeError
}

// Convenience constructors mirroring the per-kind helpers of the teacher's
// error package.

func Configuration(message string, err error) *EngineError {
	return Wrap(ConfigurationError, message, err)
}

func Argument(field, reason string) *EngineError {
	return New(ArgumentError, "invalid argument").WithDetail("field", field).WithDetail("reason", reason)
}

func Runtime(message string, err error) *EngineError {
	return Wrap(RuntimeError, message, err)
}

func LLM(provider string, err error) *EngineError {
	return Wrap(LLMError, "LLM call failed", err).WithDetail("provider", provider)
}

func Agent(message string, err error) *EngineError {
	return Wrap(AgentError, message, err)
}

func Serializer(message string, err error) *EngineError {
	return Wrap(SerializerError, message, err)
}

func IO(message string, err error) *EngineError {
	return Wrap(IOError, message, err)
}

func DB(operation string, err error) *EngineError {
	return Wrap(DBError, "database operation failed", err).WithDetail("operation", operation)
}

func Validation(field, reason string) *EngineError {
	return New(ValidationError, "validation failed").WithDetail("field", field).WithDetail("reason", reason)
}

func NotFoundSecret(name string) *EngineError {
	return New(SecretNotFound, "secret not found").WithDetail("name", name)
}

func SecretManagerFailure(message string, err error) *EngineError {
	return Wrap(SecretManager, message, err)
}

func Cryptography(message string, err error) *EngineError {
	return Wrap(CryptographyError, message, err)
}

func Cancellation(message string) *EngineError {
	return New(CancellationError, message)
}

func Timeout(operation string) *EngineError {
	return New(TimeoutError, "operation timed out").WithDetail("operation", operation)
}
