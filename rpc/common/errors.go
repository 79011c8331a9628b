package common

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Kinds
// --------------------------------------------------------------------------

// ErrorKind classifies a client side failure
type ErrorKind uint8

const (
	KindUnknown          ErrorKind = iota
	KindInvalidArgument            // Invalid constructor input, nothing was sent
	KindMalformedRequest           // Request could not be encoded, nothing was sent
	KindFramingError               // Corrupt or truncated frame, fatal to the connection
	KindProtocolMismatch           // Unexpected response code, fatal to the connection
	KindDecodeError                // Response payload could not be interpreted
	KindPoolTimeout                // No permit within the acquire timeout
	KindPoolExhausted              // Permit granted but no connection could be established
	KindPoolClosed                 // Pool was closed
	KindIOFault                    // Transport level read or write failure
)

// String returns the string representation of an ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindMalformedRequest:
		return "MalformedRequest"
	case KindFramingError:
		return "FramingError"
	case KindProtocolMismatch:
		return "ProtocolMismatch"
	case KindDecodeError:
		return "DecodeError"
	case KindPoolTimeout:
		return "PoolTimeout"
	case KindPoolExhausted:
		return "PoolExhausted"
	case KindPoolClosed:
		return "PoolClosed"
	case KindIOFault:
		return "IOFault"
	default:
		return "Unknown"
	}
}

// Retryable reports whether an operation failing with this kind may be
// resubmitted, possibly on another connection or node.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindFramingError, KindPoolTimeout, KindPoolExhausted, KindIOFault:
		return true
	default:
		return false
	}
}

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Error is the error type returned by all client components.
// It carries the kind of the failure, a message and an optional cause.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return e.Kind.String()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Msg == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
}

// Unwrap returns the cause of the error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below can be used
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError creates a new Error with the given kind and formatted message
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError creates a new Error with the given kind that wraps err
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Sentinel errors for errors.Is comparisons (matching is done by kind)
var (
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument}
	ErrMalformedRequest = &Error{Kind: KindMalformedRequest}
	ErrFraming          = &Error{Kind: KindFramingError}
	ErrProtocolMismatch = &Error{Kind: KindProtocolMismatch}
	ErrDecode           = &Error{Kind: KindDecodeError}
	ErrPoolTimeout      = &Error{Kind: KindPoolTimeout}
	ErrPoolExhausted    = &Error{Kind: KindPoolExhausted}
	ErrPoolClosed       = &Error{Kind: KindPoolClosed}
	ErrIOFault          = &Error{Kind: KindIOFault}
)

// KindOf returns the kind of err, or KindUnknown if err is not an *Error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether err may be resolved by resubmitting the operation
func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}

// --------------------------------------------------------------------------
// Server Error
// --------------------------------------------------------------------------

// ServerError is an error response sent by the server (MsgErrorResp).
// The connection that delivered it is still healthy.
type ServerError struct {
	Code    uint32
	Message string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (code %d): %s", e.Code, e.Message)
}
