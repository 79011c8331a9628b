package pool

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
)

// fakeConn is an in-memory connection that only records its state
type fakeConn struct {
	id       int
	endpoint string
	closed   atomic.Bool
}

func (c *fakeConn) Send(common.WireMessage) error        { return nil }
func (c *fakeConn) Receive() (common.WireMessage, error) { return common.WireMessage{}, errors.New("not supported") }
func (c *fakeConn) Close() error                         { c.closed.Store(true); return nil }
func (c *fakeConn) Endpoint() string                     { return c.endpoint }

// fakeTransport dials fake connections and can be told to fail
type fakeTransport struct {
	dials atomic.Int32
	fail  atomic.Bool
}

func (t *fakeTransport) Dial(_ context.Context, endpoint string) (transport.IConnection, error) {
	if t.fail.Load() {
		return nil, errors.New("connection refused")
	}
	id := t.dials.Add(1)
	return &fakeConn{id: int(id), endpoint: endpoint}, nil
}

func (t *fakeTransport) GetName() string { return "fake" }
