// Package client provides a blocking client for the rKV wire protocol.
//
// The Client wraps a cluster.Cluster. Every method builds an operation,
// executes it with the cluster's retry policy and returns the converted
// result. The operation and cluster packages can be used directly for
// asynchronous execution.
//
// Usage Example:
//
//	config := common.ClientConfig{
//		TimeoutSecond: 5,
//		Transport: common.ClientTransportConfig{
//			Endpoints:  []string{"localhost:8087"},
//			RetryCount: 3,
//		},
//		Pool: common.ClientPoolConfig{
//			Capacity:         16,
//			ClusterCapacity:  64,
//			AcquireTimeoutMs: 1000,
//		},
//	}
//
//	c, err := client.NewClient(config, tcp.NewTCPClientTransport(config))
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	loc := query.NewNamespace("users").Location("alice")
//	obj := query.NewRiakObject([]byte(`{"name":"alice"}`), "application/json")
//	if _, err := c.Store(ctx, loc, obj, operation.StoreOptions{}); err != nil {
//		return err
//	}
//
//	result, err := c.Fetch(ctx, loc, operation.FetchOptions{})
//	if err != nil {
//		return err
//	}
//	if result.NotFound {
//		...
//	}
//
// Errors are *common.Error values (match them with errors.Is and the common
// sentinels) or *common.ServerError if the node answered with an error response.
//
// Thread Safety:
//
//	The client is thread-safe and can be used concurrently from multiple
//	goroutines. Concurrency is bounded by the pool capacities.
package client
