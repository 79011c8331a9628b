/*
Package pool implements admission control and connection pooling for the
nodes of a cluster.

Admission happens on two levels. Every pool has an AdmissionGate with its own
permit set (the per node limit) and all gates of a cluster share one
ClusterLimiter (the cluster wide limit). A caller first obtains a cluster
permit and then a pool permit, waiting up to the acquire timeout for each. If
the pool permit cannot be obtained in time, the cluster permit is released
again. A cluster permit is therefore never held without a pool permit outside
of this short rollback window, and a timed out caller holds nothing.

The ConnectionPool hands out Leases. A lease holds one permit and one
connection. Idle connections are reused last in first out, new ones are
dialed outside the pool lock. Releasing a lease as unhealthy closes the
connection, it is never leased again. An optional reaper closes connections
that were idle for longer than the idle timeout.

	cluster := pool.NewClusterLimiter(64)
	p := pool.NewConnectionPool("127.0.0.1:8087", tcp.NewTCPClientTransport(cfg), cluster, pool.Config{
		Capacity:       16,
		AcquireTimeout: time.Second,
	})

	lease, err := p.Acquire(ctx)
	if err != nil {
		return err // PoolTimeout, PoolExhausted or PoolClosed
	}
	healthy := exchange(lease.Conn())
	lease.Release(healthy)

Both the gate and the pool export VictoriaMetrics counters labelled with the
pool name (rkv_gate_*, rkv_pool_*).
*/
package pool
