package cluster

import (
	"context"
	"errors"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/operation"
	"github.com/ValentinKolb/rKV/rpc/pool"
	"github.com/ValentinKolb/rKV/rpc/transport"
)

// --------------------------------------------------------------------------
// Node
// --------------------------------------------------------------------------

// Node executes operations against a single endpoint through its own
// connection pool.
type Node struct {
	endpoint string
	pool     *pool.ConnectionPool
}

// NewNode creates a node with its own pool. The pool shares the cluster limiter.
func NewNode(endpoint string, t transport.IRPCClientTransport, limiter *pool.ClusterLimiter, config pool.Config) *Node {
	return &Node{
		endpoint: endpoint,
		pool:     pool.NewConnectionPool(endpoint, t, limiter, config),
	}
}

// Endpoint returns the address of the node
func (n *Node) Endpoint() string {
	return n.endpoint
}

// Stats returns a snapshot of the node's pool
func (n *Node) Stats() pool.Stats {
	return n.pool.Stats()
}

// Close closes the node's pool
func (n *Node) Close() error {
	return n.pool.Close()
}

// Execute runs op on this node and resolves it. The returned error is the
// same error the operation's future is resolved with.
func (n *Node) Execute(ctx context.Context, op operation.Operation) error {
	return resolve(op, n.run(ctx, op))
}

// run performs one attempt of op without resolving it
func (n *Node) run(ctx context.Context, op operation.Operation) error {
	msg, err := op.Encode()
	if err != nil {
		return err
	}

	lease, err := n.pool.Acquire(ctx)
	if err != nil {
		return err
	}

	healthy, err := n.exchange(lease.Conn(), msg, op)
	lease.Release(healthy)
	return err
}

// exchange sends the request and feeds responses to op until it is done.
// It reports whether the connection can be used for another exchange.
func (n *Node) exchange(conn transport.IConnection, msg common.WireMessage, op operation.Operation) (bool, error) {
	if err := conn.Send(msg); err != nil {
		// Nothing was written if the request was rejected before sending
		healthy := common.KindOf(err) == common.KindMalformedRequest
		if !healthy {
			Logger.Warningf("Failed to send %s to %s: %v", op.Name(), n.endpoint, err)
		}
		return healthy, err
	}

	for {
		resp, err := conn.Receive()
		if err != nil {
			Logger.Warningf("Failed to receive response to %s from %s: %v", op.Name(), n.endpoint, err)
			return false, err
		}

		done, err := op.OnResponse(resp)
		if err != nil {
			var serverErr *common.ServerError
			if errors.As(err, &serverErr) {
				Logger.Debugf("%s on %s failed on the server: %v", op.Name(), n.endpoint, err)
				return true, err
			}
			if common.KindOf(err) == common.KindProtocolMismatch {
				Logger.Errorf("Protocol mismatch with %s: %v", n.endpoint, err)
			} else {
				Logger.Warningf("Invalid response to %s from %s: %v", op.Name(), n.endpoint, err)
			}
			return false, err
		}
		if done {
			return true, nil
		}
	}
}

// resolve completes op if err is nil and fails it otherwise
func resolve(op operation.Operation, err error) error {
	if err != nil {
		op.Fail(err)
		return err
	}
	return op.Complete()
}
