package transport

import (
	"context"
	"net"

	"github.com/ValentinKolb/rKV/rpc/common"
)

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IConnection is a single persistent, framed connection to one node.
// A connection serves exactly one exchange at a time: the caller sends one
// request and then receives responses until the exchange is complete.
// Implementations are not safe for concurrent use.
type IConnection interface {
	// Send writes one frame. A failure leaves the connection unusable.
	Send(msg common.WireMessage) error
	// Receive blocks until one complete frame was read or the I/O timeout expired
	Receive() (common.WireMessage, error)
	// Close closes the underlying socket, calling it more than once is harmless
	Close() error
	// Endpoint returns the address this connection was dialed to
	Endpoint() string
}

// IRPCClientTransport creates connections to nodes
type IRPCClientTransport interface {
	// Dial opens a new connection to the endpoint
	Dial(ctx context.Context, endpoint string) (IConnection, error)
	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is called by a server transport for every request frame.
// The handler writes one or more response frames with reply, in order, before
// it returns. Returning an error closes the connection.
type ServerHandleFunc func(req common.WireMessage, reply func(resp common.WireMessage) error) error

// IRPCServerTransport is the server side of the framed protocol
type IRPCServerTransport interface {
	// RegisterHandler registers the handler called for each request frame
	RegisterHandler(handler ServerHandleFunc)
	// Start creates the listener and serves connections in the background.
	// It returns the address the listener is bound to.
	Start(config common.ServerConfig) (net.Addr, error)
	// Listen is like Start but blocks until the transport is closed
	Listen(config common.ServerConfig) error
	// Close stops accepting connections and closes all open ones
	Close() error
}
