package text

import (
	"errors"
	"fmt"
)

// Error types for text protocol operations.
// Each kind reports whether the connection it happened on is still usable.

// ConnectionError wraps failures of the underlying connection: resolution,
// dial, write or read errors, and the peer closing the socket.
//
// Connection handling: the connection is broken, CLOSE it.
type ConnectionError struct {
	Op  string // resolve, dial, write, read
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// TransmitIncompleteError is returned when fewer bytes were written than the
// encoded request holds. The server may have received a truncated command.
//
// Connection handling: CLOSE connection.
type TransmitIncompleteError struct {
	Sent int
	Want int
}

func (e *TransmitIncompleteError) Error() string {
	return fmt.Sprintf("transmit incomplete: sent %d of %d bytes", e.Sent, e.Want)
}

func (e *TransmitIncompleteError) ShouldCloseConnection() bool {
	return true
}

// ProtocolError is returned when a response cannot be parsed: missing
// terminator, unparsable field, or a declared length outside the received
// bytes.
//
// Connection handling: stream position is unknown, CLOSE connection.
type ProtocolError struct {
	Message string
	Err     error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return "protocol error: " + e.Message + ": " + e.Err.Error()
	}
	return "protocol error: " + e.Message
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func (e *ProtocolError) ShouldCloseConnection() bool {
	return true
}

// InvalidKeyError is returned when a key fails validation. Nothing was sent.
type InvalidKeyError struct {
	Message string
}

func (e *InvalidKeyError) Error() string {
	return "invalid key: " + e.Message
}

func (e *InvalidKeyError) ShouldCloseConnection() bool {
	return false
}

// InvalidValueError is returned when a value exceeds MaxValueLength. Nothing
// was sent.
type InvalidValueError struct {
	Size int
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value: %d bytes exceeds maximum of %d", e.Size, MaxValueLength)
}

func (e *InvalidValueError) ShouldCloseConnection() bool {
	return false
}

// ClientError represents a CLIENT_ERROR line. The server rejected the
// request as malformed and may be out of sync with the client.
type ClientError struct {
	Message string
}

func (e *ClientError) Error() string {
	return ErrorClientPrefix + ": " + e.Message
}

func (e *ClientError) ShouldCloseConnection() bool {
	return true
}

// ServerError represents a SERVER_ERROR line. The protocol state is intact.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return ErrorServerPrefix + ": " + e.Message
}

func (e *ServerError) ShouldCloseConnection() bool {
	return false
}

// GenericError represents a bare ERROR line (unknown command).
type GenericError struct {
	Message string
}

func (e *GenericError) Error() string {
	return e.Message
}

func (e *GenericError) ShouldCloseConnection() bool {
	return true
}

// ErrorWithConnectionState is implemented by all error types of this package.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err leaves the connection unusable.
// Unknown error types are treated as fatal to the connection.
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	return true
}
