/*
Package cluster executes operations on a set of nodes.

A Node owns one ConnectionPool for its endpoint. Executing an operation on a
node encodes the request, leases a connection, sends the request and feeds
every response to the operation until it reports done. The lease is then
released as healthy or unhealthy:

	| outcome                        | connection |
	|--------------------------------|------------|
	| completed                      | reused     |
	| server error response          | reused     |
	| request rejected before send   | reused     |
	| send or receive failure        | closed     |
	| framing error                  | closed     |
	| unexpected response code       | closed     |
	| undecodable response payload   | closed     |

The Cluster selects nodes round robin. All node pools share one
ClusterLimiter, so the number of connections in use across the cluster is
bounded as well. Retryable failures (PoolTimeout, PoolExhausted, FramingError,
IOFault) are retried on the next node with exponential backoff (50ms, doubled
per attempt, +-10% jitter) up to RetryCount attempts. An operation that has
already accepted a response is never retried, streamed results are not
replayed.

	c, err := cluster.NewCluster(config, tcp.NewTCPClientTransport(config))
	if err != nil {
		return err
	}
	defer c.Close()

	op, _ := operation.NewFetch(query.NewNamespace("users").Location("alice"), operation.FetchOptions{})
	if err := c.Execute(ctx, op); err != nil {
		return err
	}
	result, _ := op.Get()

Submit starts the execution in the background, the result is delivered
through the operation's future.
*/
package cluster
