package agent

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("agent: API key required")

	// ErrNotConnected is returned when sending before Connect succeeds.
	ErrNotConnected = errors.New("agent: not connected")

	// ErrClosed is returned when using a client after Close.
	ErrClosed = errors.New("agent: client closed")
)

// Error codes the converse endpoint is known to emit.
const (
	CodeInvalidSettings         = "INVALID_SETTINGS"
	CodeUnparsableClientMessage = "UNPARSABLE_CLIENT_MESSAGE"
	CodeClientMessageTimeout    = "CLIENT_MESSAGE_TIMEOUT"
)

// ServerError is an Error event received from the agent.
type ServerError struct {
	Code        string
	Description string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("agent: server error %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("agent: server error: %s", e.Description)
}

// Terminal reports whether the session cannot continue after this error.
// The endpoint closes or stops responding after rejecting settings or an
// unparsable message.
func (e *ServerError) Terminal() bool {
	return e.Code == CodeInvalidSettings || e.Code == CodeUnparsableClientMessage
}

// Ignorable reports whether the error is routine noise. The endpoint emits
// CLIENT_MESSAGE_TIMEOUT whenever the client has been quiet too long, which
// the keep-alive normally prevents.
func (e *ServerError) Ignorable() bool {
	return e.Code == CodeClientMessageTimeout
}
