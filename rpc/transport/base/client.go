package base

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(ctx context.Context, endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientConnection is a single framed net connection
type clientConnection struct {
	conn     net.Conn
	endpoint string
	timeout  time.Duration
	maxFrame int
	closed   atomic.Bool
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector, config common.ClientConfig) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
		config:    config,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Dial(ctx context.Context, endpoint string) (transport.IConnection, error) {
	conn, err := t.connector.Connect(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", endpoint, err)
	}

	Logger.Debugf("Connected to %s using %s transport", endpoint, t.connector.GetName())

	return &clientConnection{
		conn:     conn,
		endpoint: endpoint,
		timeout:  t.config.IOTimeout(),
		maxFrame: t.config.Transport.FrameLimit(),
	}, nil
}

func (t *clientTransport) GetName() string {
	return t.connector.GetName()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IConnection)
// --------------------------------------------------------------------------

func (c *clientConnection) Send(msg common.WireMessage) error {
	if c.closed.Load() {
		return common.NewError(common.KindIOFault, "connection to %s is closed", c.endpoint)
	}

	if msg.Size() > c.maxFrame {
		return common.NewError(common.KindMalformedRequest, "%s of %d bytes exceeds the frame limit of %d bytes", msg.Code, msg.Size(), c.maxFrame)
	}

	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return common.WrapError(common.KindIOFault, err, "failed to set write deadline")
		}
	}

	if err := writeFrame(c.conn, msg); err != nil {
		return common.WrapError(common.KindIOFault, err, "failed to send %s to %s", msg.Code, c.endpoint)
	}
	return nil
}

func (c *clientConnection) Receive() (common.WireMessage, error) {
	if c.closed.Load() {
		return common.WireMessage{}, common.NewError(common.KindIOFault, "connection to %s is closed", c.endpoint)
	}

	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return common.WireMessage{}, common.WrapError(common.KindIOFault, err, "failed to set read deadline")
		}
	}

	msg, err := readFrame(c.conn, c.maxFrame)
	switch {
	case err == nil:
		return msg, nil
	case common.KindOf(err) == common.KindFramingError:
		return common.WireMessage{}, err
	case errors.Is(err, io.EOF):
		return common.WireMessage{}, common.WrapError(common.KindIOFault, err, "connection closed by %s", c.endpoint)
	default:
		return common.WireMessage{}, common.WrapError(common.KindIOFault, err, "failed to receive from %s", c.endpoint)
	}
}

func (c *clientConnection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

func (c *clientConnection) Endpoint() string {
	return c.endpoint
}
