package client

import (
	"errors"
	"fmt"
)

// Standard error types that can be used with errors.Is()
var (
	ErrNotConnected       = errors.New("adapter is not connected")
	ErrAlreadyConnected   = errors.New("adapter is already connected")
	ErrConnectTimeout     = errors.New("connect handshake timed out")
	ErrUnsupportedFeature = errors.New("feature not supported by host")
	ErrHostDeclined       = errors.New("host declined the request")
	ErrHostUnavailable    = errors.New("host is unavailable")
	ErrUnknownToolSurface = errors.New("unknown tool call surface")
)

// AdapterError carries the adapter kind and operation that failed.
type AdapterError struct {
	Adapter HostType
	Op      string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *AdapterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s adapter: %s: %s: %v", e.Adapter, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s adapter: %s: %s", e.Adapter, e.Op, e.Message)
}

// Unwrap returns the underlying cause
func (e *AdapterError) Unwrap() error {
	return e.Cause
}

// NewAdapterError creates a new AdapterError
func NewAdapterError(adapter HostType, op, message string, cause error) error {
	return &AdapterError{Adapter: adapter, Op: op, Message: message, Cause: cause}
}

// NewNotConnectedError reports an operation attempted before Connect completed.
func NewNotConnectedError(adapter HostType, op string) error {
	return NewAdapterError(adapter, op, "call Connect before host-mediated operations", ErrNotConnected)
}

// NewUnsupportedError reports an explicit feature call the host cannot serve.
func NewUnsupportedError(adapter HostType, op string) error {
	return NewAdapterError(adapter, op, "host does not advertise this capability", ErrUnsupportedFeature)
}

// NewHostUnavailableError reports an operation attempted in degraded/offline
// mode, after connect resolved without a live host.
func NewHostUnavailableError(adapter HostType, op string) error {
	return NewAdapterError(adapter, op, "connected in degraded mode without a live host", ErrHostUnavailable)
}

// IsNotConnectedError checks if an error means the adapter was not connected
func IsNotConnectedError(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// IsUnsupportedError checks if an error means the host lacks the feature
func IsUnsupportedError(err error) bool {
	return errors.Is(err, ErrUnsupportedFeature)
}
