package base

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality.
// Every connection is served by one goroutine that handles its requests
// strictly in order, matching the one exchange per connection protocol.
type serverTransport struct {
	connector IServerConnector
	handler   transport.ServerHandleFunc
	config    common.ServerConfig
	listener  net.Listener
	conns     *xsync.MapOf[net.Conn, struct{}]
	wg        sync.WaitGroup
	closing   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
		conns:     xsync.NewMapOf[net.Conn, struct{}](),
		done:      make(chan struct{}),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Start(config common.ServerConfig) (net.Addr, error) {
	if t.handler == nil {
		return nil, fmt.Errorf("no handler registered")
	}
	t.config = config

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}
	t.listener = listener

	Logger.Infof("Starting %s server on %s", t.connector.GetName(), listener.Addr())

	t.wg.Add(1)
	go t.acceptLoop()

	return listener.Addr(), nil
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if _, err := t.Start(config); err != nil {
		return err
	}
	<-t.done
	return nil
}

func (t *serverTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.closing.Store(true)
		if t.listener != nil {
			err = t.listener.Close()
		}
		t.conns.Range(func(conn net.Conn, _ struct{}) bool {
			conn.Close()
			return true
		})
		t.wg.Wait()
		close(t.done)
	})
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// acceptLoop accepts connections until the listener is closed
func (t *serverTransport) acceptLoop() {
	defer t.wg.Done()

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if t.closing.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
			Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
			conn.Close()
			continue
		}

		t.conns.Store(conn, struct{}{})
		t.wg.Add(1)
		go t.handleConnection(conn)
	}
}

// handleConnection serves the requests of one connection in order
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer func() {
		t.conns.Delete(conn)
		conn.Close()
		t.wg.Done()
	}()

	// Timeout in seconds
	timeout := time.Duration(t.config.TimeoutSecond) * time.Second
	maxFrame := t.config.Transport.MaxFrameSize
	if maxFrame <= 0 {
		maxFrame = common.DefaultMaxFrameSize
	}

	reply := func(resp common.WireMessage) error {
		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				return fmt.Errorf("failed to set write deadline: %w", err)
			}
		}
		return writeFrame(conn, resp)
	}

	for {
		// The read deadline doubles as idle timeout for the connection
		if timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("Failed to set read deadline: %v", err)
				return
			}
		}

		req, err := readFrame(conn, maxFrame)

		// Case EOF: Connection closed by client
		if errors.Is(err, io.EOF) || (err != nil && t.closing.Load()) {
			Logger.Debugf("Connection from %s closed", conn.RemoteAddr())
			return
		}

		// Case error: log and close connection
		if err != nil {
			Logger.Warningf("Error reading request from %s: %v", conn.RemoteAddr(), err)
			return
		}

		start := time.Now()
		if err := t.handler(req, reply); err != nil {
			Logger.Warningf("Closing connection from %s after %s: %v", conn.RemoteAddr(), req.Code, err)
			return
		}
		Logger.Debugf("Processed %s in %s", req.Code, time.Since(start))
	}
}
