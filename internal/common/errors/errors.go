// Package errors provides standardized error handling for the realtime
// notification gateway.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Admission boundary
	ErrCodeUnauthorized             ErrorCode = "UNAUTHORIZED"
	ErrCodeMissingToken             ErrorCode = "MISSING_TOKEN"
	ErrCodeIdentityResolutionFailed ErrorCode = "IDENTITY_RESOLUTION_FAILED"
	ErrCodeConnectionAlreadyClosed  ErrorCode = "CONNECTION_ALREADY_CLOSED"

	// Delivery path
	ErrCodeDeliveryWriteFailed ErrorCode = "DELIVERY_WRITE_FAILED"
	ErrCodePersistenceFailed   ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeChannelSendFailed   ErrorCode = "CHANNEL_SEND_FAILED"

	// Inbound messages
	ErrCodeMalformedMessage ErrorCode = "MALFORMED_MESSAGE"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is allows errors.Is matching on the code.
func (e *StandardError) Is(target error) bool {
	se, ok := target.(*StandardError)
	return ok && se.Code == e.Code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewUnauthorizedError creates a non-retryable admission refusal. The client
// must reconnect with fresh credentials.
func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Identity token rejected",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingTokenError creates a non-retryable admission refusal for a
// handshake that carried no identity token at all.
func NewMissingTokenError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingToken,
		Message:   "Connection handshake missing identity token",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIdentityResolutionFailedError creates a retryable error for a failure of
// the identity collaborator itself (as opposed to a bad token).
func NewIdentityResolutionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIdentityResolutionFailed,
		Message:   "Identity collaborator error during token resolution",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewConnectionAlreadyClosedError creates a non-retryable admission error:
// the underlying channel was already closed when Admit ran.
func NewConnectionAlreadyClosedError(connectionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConnectionAlreadyClosed,
		Message:   "Connection channel closed before admission",
		Details:   fmt.Sprintf("connectionId: %s", connectionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeliveryWriteFailedError creates a retryable per-connection write error.
// The liveness sweep reconciles the connection on its next pass.
func NewDeliveryWriteFailedError(connectionID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDeliveryWriteFailed,
		Message:   "Write to connection failed",
		Details:   fmt.Sprintf("connectionId: %s, error: %s", connectionID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceFailedError creates a retryable history-store error.
func NewPersistenceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Notification history store call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewChannelSendFailedError creates a retryable external channel error
// (email/SMS).
func NewChannelSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeChannelSendFailed,
		Message:   "External channel send failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedMessageError creates a non-retryable inbound message error.
// Tolerant-reader policy: the connection is not dropped for one bad message.
func NewMalformedMessageError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedMessage,
		Message:   "Unparseable or unknown inbound message",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitedError creates a non-retryable error for a connection
// exceeding its inbound message budget.
func NewRateLimitedError(connectionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   "Inbound message rate limit exceeded",
		Details:   fmt.Sprintf("connectionId: %s", connectionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
