package cluster

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
)

// handlerFunc returns the responses of a node to one request. A returned error
// is reported by Receive once all responses are consumed.
type handlerFunc func(endpoint string, req common.WireMessage) ([]common.WireMessage, error)

// fakeTransport connects to in-memory nodes answering through a handler
type fakeTransport struct {
	handler  handlerFunc
	down     *sync.Map // endpoints that refuse connections
	dials    atomic.Int32
	requests atomic.Int32
	// violations counts exchanges that overlapped on one connection
	violations atomic.Int32
}

func newFakeTransport(handler handlerFunc) *fakeTransport {
	return &fakeTransport{handler: handler, down: &sync.Map{}}
}

func (t *fakeTransport) Dial(_ context.Context, endpoint string) (transport.IConnection, error) {
	if _, down := t.down.Load(endpoint); down {
		return nil, errors.New("connection refused")
	}
	t.dials.Add(1)
	return &fakeConn{transport: t, endpoint: endpoint}, nil
}

func (t *fakeTransport) GetName() string { return "fake" }

type fakeConn struct {
	transport *fakeTransport
	endpoint  string
	busy      atomic.Bool
	pending   []common.WireMessage
	err       error
	closed    atomic.Bool
}

func (c *fakeConn) Send(msg common.WireMessage) error {
	if c.closed.Load() {
		return common.NewError(common.KindIOFault, "closed")
	}
	if !c.busy.CompareAndSwap(false, true) {
		c.transport.violations.Add(1)
	}
	c.transport.requests.Add(1)

	// Widen the window for overlapping exchanges
	time.Sleep(time.Millisecond)

	c.pending, c.err = c.transport.handler(c.endpoint, msg)
	return nil
}

func (c *fakeConn) Receive() (common.WireMessage, error) {
	if len(c.pending) == 0 {
		c.busy.Store(false)
		if c.err != nil {
			return common.WireMessage{}, c.err
		}
		return common.WireMessage{}, common.NewError(common.KindIOFault, "no response")
	}
	msg := c.pending[0]
	c.pending = c.pending[1:]
	if len(c.pending) == 0 && c.err == nil {
		c.busy.Store(false)
	}
	return msg, nil
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *fakeConn) Endpoint() string { return c.endpoint }
