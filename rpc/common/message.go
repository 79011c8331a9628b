package common

import "fmt"

// --------------------------------------------------------------------------
// Wire Message
// --------------------------------------------------------------------------

// WireMessage is the unit of transmission: a message code and an opaque payload.
// A WireMessage is treated as immutable once created, the payload must not be
// modified after the message was handed to a connection or an operation.
type WireMessage struct {
	Code    MessageCode
	Payload []byte
}

// NewWireMessage creates a new WireMessage
func NewWireMessage(code MessageCode, payload []byte) WireMessage {
	return WireMessage{Code: code, Payload: payload}
}

// Size returns the number of bytes the message occupies in a frame (code + payload)
func (m WireMessage) Size() int {
	return 1 + len(m.Payload)
}

// String returns a short description of the message (the payload is not printed)
func (m WireMessage) String() string {
	return fmt.Sprintf("%s(%d bytes)", m.Code, len(m.Payload))
}
