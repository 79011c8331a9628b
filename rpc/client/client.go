package client

import (
	"context"
	"time"

	"github.com/ValentinKolb/rKV/rpc/cluster"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/operation"
	"github.com/ValentinKolb/rKV/rpc/pool"
	"github.com/ValentinKolb/rKV/rpc/query"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// Client is the blocking facade over a Cluster. Every method builds one
// operation, executes it and returns its result. It is safe for concurrent use.
type Client struct {
	cluster *cluster.Cluster
}

// NewClient creates a new client for the configured endpoints
func NewClient(config common.ClientConfig, t transport.IRPCClientTransport) (*Client, error) {
	c, err := cluster.NewCluster(config, t)
	if err != nil {
		return nil, err
	}
	return &Client{cluster: c}, nil
}

// Cluster returns the underlying cluster, e.g. to submit operations asynchronously
func (c *Client) Cluster() *cluster.Cluster {
	return c.cluster
}

// Stats returns a pool snapshot per node
func (c *Client) Stats() map[string]pool.Stats {
	return c.cluster.Stats()
}

// Close waits for running operations and closes all connections
func (c *Client) Close() error {
	return c.cluster.Close()
}

// --------------------------------------------------------------------------
// Server
// --------------------------------------------------------------------------

// Ping checks that a node answers
func (c *Client) Ping(ctx context.Context) error {
	_, err := invoke(ctx, c.cluster, operation.NewPing())
	return err
}

// ServerInfo returns the name and version of a node
func (c *Client) ServerInfo(ctx context.Context) (operation.ServerInfo, error) {
	return invoke(ctx, c.cluster, operation.NewFetchServerInfo())
}

// --------------------------------------------------------------------------
// Key-Value
// --------------------------------------------------------------------------

func (c *Client) Fetch(ctx context.Context, loc query.Location, opts operation.FetchOptions) (*query.FetchResult, error) {
	op, err := operation.NewFetch(loc, opts)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, c.cluster, op)
}

// Store writes obj. If loc has no key the server generates one and returns it
// in the result.
func (c *Client) Store(ctx context.Context, loc query.Location, obj *query.RiakObject, opts operation.StoreOptions) (*query.StoreResult, error) {
	op, err := operation.NewStore(loc, obj, opts)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, c.cluster, op)
}

func (c *Client) Delete(ctx context.Context, loc query.Location, opts operation.DeleteOptions) error {
	op, err := operation.NewDelete(loc, opts)
	if err != nil {
		return err
	}
	_, err = invoke(ctx, c.cluster, op)
	return err
}

// ListKeys returns all keys of a bucket. This is expensive on a real cluster.
func (c *Client) ListKeys(ctx context.Context, ns query.Namespace, timeout time.Duration) ([]string, error) {
	op, err := operation.NewListKeys(ns, timeout)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, c.cluster, op)
}

// --------------------------------------------------------------------------
// Bucket Properties
// --------------------------------------------------------------------------

func (c *Client) FetchBucketProps(ctx context.Context, ns query.Namespace) (*query.BucketProperties, error) {
	op, err := operation.NewFetchBucketProps(ns)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, c.cluster, op)
}

// StoreBucketProps sets the properties that are set in props, all others keep their value
func (c *Client) StoreBucketProps(ctx context.Context, ns query.Namespace, props *query.BucketProperties) error {
	op, err := operation.NewStoreBucketProps(ns, props)
	if err != nil {
		return err
	}
	_, err = invoke(ctx, c.cluster, op)
	return err
}

func (c *Client) ResetBucketProps(ctx context.Context, ns query.Namespace) error {
	op, err := operation.NewResetBucketProps(ns)
	if err != nil {
		return err
	}
	_, err = invoke(ctx, c.cluster, op)
	return err
}

// --------------------------------------------------------------------------
// Search
// --------------------------------------------------------------------------

func (c *Client) Search(ctx context.Context, index, q string, opts operation.SearchOptions) (*query.SearchResult, error) {
	op, err := operation.NewSearch(index, q, opts)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, c.cluster, op)
}

func (c *Client) StoreIndex(ctx context.Context, index query.YokozunaIndex, timeout time.Duration) error {
	op, err := operation.NewStoreIndex(index, timeout)
	if err != nil {
		return err
	}
	_, err = invoke(ctx, c.cluster, op)
	return err
}

// FetchIndex returns the named index, or all indexes if name is empty
func (c *Client) FetchIndex(ctx context.Context, name string) ([]query.YokozunaIndex, error) {
	return invoke(ctx, c.cluster, operation.NewFetchIndex(name))
}

func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	op, err := operation.NewDeleteIndex(name)
	if err != nil {
		return err
	}
	_, err = invoke(ctx, c.cluster, op)
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// resultOperation is an operation that exposes its typed result
type resultOperation[T any] interface {
	operation.Operation
	Get() (T, error)
}

// invoke executes op on the cluster and returns its result
func invoke[T any](ctx context.Context, c *cluster.Cluster, op resultOperation[T]) (T, error) {
	if err := c.Execute(ctx, op); err != nil {
		Logger.Debugf("%s failed: %v", op.Name(), err)
		var zero T
		return zero, err
	}
	return op.Get()
}
