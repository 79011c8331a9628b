package cluster

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/operation"
	"github.com/ValentinKolb/rKV/rpc/pool"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("cluster")

// --------------------------------------------------------------------------
// Cluster
// --------------------------------------------------------------------------

// Cluster executes operations on a set of nodes. It owns the cluster limiter
// shared by the pools of all nodes, selects nodes round robin and retries
// retryable failures on the next node.
type Cluster struct {
	config    common.ClientConfig
	transport transport.IRPCClientTransport
	limiter   *pool.ClusterLimiter

	nodes   *xsync.MapOf[string, *Node]
	order   []string // round robin order, protected by orderMu
	orderMu sync.RWMutex
	next    atomic.Uint64

	inFlight sync.WaitGroup
	closed   atomic.Bool
}

// NewCluster creates a cluster with one node per configured endpoint
func NewCluster(config common.ClientConfig, t transport.IRPCClientTransport) (*Cluster, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	c := &Cluster{
		config:    config,
		transport: t,
		limiter:   pool.NewClusterLimiter(config.Pool.ClusterCapacity),
		nodes:     xsync.NewMapOf[string, *Node](),
	}

	for _, endpoint := range config.Transport.Endpoints {
		if err := c.AddNode(endpoint); err != nil {
			c.Close()
			return nil, err
		}
	}

	Logger.Infof("Created cluster with %d nodes using %s transport", len(config.Transport.Endpoints), t.GetName())
	return c, nil
}

// AddNode adds a node for the endpoint. Adding an existing endpoint is an error.
func (c *Cluster) AddNode(endpoint string) error {
	if c.closed.Load() {
		return common.NewError(common.KindPoolClosed, "cluster is closed")
	}

	node := NewNode(endpoint, c.transport, c.limiter, pool.ConfigFromClientConfig(c.config))
	if _, loaded := c.nodes.LoadOrStore(endpoint, node); loaded {
		node.Close()
		return fmt.Errorf("node %s already exists", endpoint)
	}

	c.orderMu.Lock()
	c.order = append(c.order, endpoint)
	c.orderMu.Unlock()

	Logger.Debugf("Added node %s", endpoint)
	return nil
}

// RemoveNode removes a node and closes its pool. Operations running on the
// node finish, their connections are closed on release.
func (c *Cluster) RemoveNode(endpoint string) error {
	node, ok := c.nodes.LoadAndDelete(endpoint)
	if !ok {
		return fmt.Errorf("node %s does not exist", endpoint)
	}

	c.orderMu.Lock()
	for i, e := range c.order {
		if e == endpoint {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.orderMu.Unlock()

	Logger.Debugf("Removed node %s", endpoint)
	return node.Close()
}

// Nodes returns the endpoints of all nodes, sorted
func (c *Cluster) Nodes() []string {
	endpoints := make([]string, 0, c.nodes.Size())
	c.nodes.Range(func(endpoint string, _ *Node) bool {
		endpoints = append(endpoints, endpoint)
		return true
	})
	sort.Strings(endpoints)
	return endpoints
}

// Stats returns a pool snapshot per node
func (c *Cluster) Stats() map[string]pool.Stats {
	stats := make(map[string]pool.Stats)
	c.nodes.Range(func(endpoint string, node *Node) bool {
		stats[endpoint] = node.Stats()
		return true
	})
	return stats
}

// Limiter returns the cluster wide permit set
func (c *Cluster) Limiter() *pool.ClusterLimiter {
	return c.limiter
}

// Execute runs op and blocks until it is resolved. A retryable failure
// (PoolTimeout, PoolExhausted, FramingError, IOFault) is retried on the next
// node with exponential backoff, as long as op has not accepted a response.
// The returned error is the error the operation's future is resolved with.
func (c *Cluster) Execute(ctx context.Context, op operation.Operation) error {
	if c.closed.Load() {
		return resolve(op, common.NewError(common.KindPoolClosed, "cluster is closed"))
	}
	c.inFlight.Add(1)
	defer c.inFlight.Done()

	// We always try at least once, and up to RetryCount times
	maxAttempts := c.config.Transport.RetryCount
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	// Initial backoff duration in milliseconds
	backoffMs := 50

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		node := c.nextNode()
		if node == nil {
			lastErr = common.NewError(common.KindPoolClosed, "no nodes available")
			break
		}

		err := node.run(ctx, op)
		if err == nil {
			return op.Complete()
		}
		lastErr = err

		if !common.IsRetryable(err) || op.Received() > 0 || attempt == maxAttempts {
			break
		}
		Logger.Debugf("Attempt %d/%d of %s on %s failed: %v", attempt, maxAttempts, op.Name(), node.Endpoint(), err)

		// Exponential backoff with a small random jitter (+-10%)
		jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
		select {
		case <-time.After(time.Duration(jitter) * time.Millisecond):
		case <-ctx.Done():
			return resolve(op, fmt.Errorf("%s cancelled after %d attempts: %w", op.Name(), attempt, ctx.Err()))
		}
		backoffMs *= 2
	}

	return resolve(op, lastErr)
}

// Submit runs op in the background and returns immediately. The outcome is
// delivered through the operation's future.
func (c *Cluster) Submit(ctx context.Context, op operation.Operation) {
	go c.Execute(ctx, op)
}

// Close waits for running operations and closes all pools
func (c *Cluster) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.inFlight.Wait()

	c.nodes.Range(func(endpoint string, node *Node) bool {
		if err := node.Close(); err != nil {
			Logger.Warningf("Failed to close node %s: %v", endpoint, err)
		}
		c.nodes.Delete(endpoint)
		return true
	})

	c.orderMu.Lock()
	c.order = nil
	c.orderMu.Unlock()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// nextNode selects the next node via Round Robin
func (c *Cluster) nextNode() *Node {
	c.orderMu.RLock()
	defer c.orderMu.RUnlock()

	for range c.order {
		// Simple Round Robin algorithm
		index := (c.next.Add(1) - 1) % uint64(len(c.order))
		if node, ok := c.nodes.Load(c.order[index]); ok {
			return node
		}
	}
	return nil
}
