package pool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"golang.org/x/sync/semaphore"
)

// --------------------------------------------------------------------------
// Cluster Limiter
// --------------------------------------------------------------------------

// ClusterLimiter is the cluster wide permit set shared by all admission gates
// of one cluster. It bounds the number of connections checked out across all
// nodes.
type ClusterLimiter struct {
	sem      *semaphore.Weighted
	capacity int
	inUse    atomic.Int64
}

// NewClusterLimiter creates a cluster permit set with the given capacity
func NewClusterLimiter(capacity int) *ClusterLimiter {
	if capacity < 1 {
		capacity = 1
	}
	return &ClusterLimiter{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// Capacity returns the total number of cluster permits
func (l *ClusterLimiter) Capacity() int {
	return l.capacity
}

// InUse returns the number of cluster permits currently held
func (l *ClusterLimiter) InUse() int {
	return int(l.inUse.Load())
}

func (l *ClusterLimiter) acquire(ctx context.Context, timeout time.Duration) error {
	if err := acquireWithin(ctx, l.sem, timeout); err != nil {
		return err
	}
	l.inUse.Add(1)
	return nil
}

func (l *ClusterLimiter) release() {
	l.inUse.Add(-1)
	l.sem.Release(1)
}

// --------------------------------------------------------------------------
// Admission Gate
// --------------------------------------------------------------------------

// AdmissionGate grants the right to check out one connection of a pool. A
// permit always holds one pool permit and one cluster permit.
type AdmissionGate struct {
	name     string
	sem      *semaphore.Weighted
	capacity int
	inUse    atomic.Int64
	cluster  *ClusterLimiter

	acquired        *metrics.Counter
	clusterTimeouts *metrics.Counter
	poolTimeouts    *metrics.Counter
	rollbacks       *metrics.Counter
}

// NewAdmissionGate creates a gate with the given pool capacity that shares the
// cluster limiter with all other gates of the cluster. A pool capacity larger
// than the cluster capacity is allowed, the cluster capacity then dominates.
func NewAdmissionGate(name string, capacity int, cluster *ClusterLimiter) *AdmissionGate {
	if capacity < 1 {
		capacity = 1
	}
	if capacity > cluster.Capacity() {
		Logger.Warningf("Pool capacity %d of %s exceeds the cluster capacity %d", capacity, name, cluster.Capacity())
	}

	return &AdmissionGate{
		name:            name,
		sem:             semaphore.NewWeighted(int64(capacity)),
		capacity:        capacity,
		cluster:         cluster,
		acquired:        metrics.GetOrCreateCounter(fmt.Sprintf(`rkv_gate_acquired_total{pool=%q}`, name)),
		clusterTimeouts: metrics.GetOrCreateCounter(fmt.Sprintf(`rkv_gate_timeouts_total{pool=%q,level="cluster"}`, name)),
		poolTimeouts:    metrics.GetOrCreateCounter(fmt.Sprintf(`rkv_gate_timeouts_total{pool=%q,level="pool"}`, name)),
		rollbacks:       metrics.GetOrCreateCounter(fmt.Sprintf(`rkv_gate_rollbacks_total{pool=%q}`, name)),
	}
}

// Acquire obtains a cluster permit and then a pool permit. Each of the two
// waits may take up to timeout, so the call can block for about twice the
// timeout. If the pool permit cannot be obtained the cluster permit is
// released again before returning.
//
// A timeout of zero or less tries both permits without waiting. A timed out
// acquire returns a PoolTimeout error, a cancelled ctx returns the context
// error.
func (g *AdmissionGate) Acquire(ctx context.Context, timeout time.Duration) (*Permit, error) {
	if err := g.cluster.acquire(ctx, timeout); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("acquire on %s cancelled: %w", g.name, ctxErr)
		}
		g.clusterTimeouts.Inc()
		return nil, common.NewError(common.KindPoolTimeout, "no cluster permit for %s within %s", g.name, timeout)
	}

	if err := acquireWithin(ctx, g.sem, timeout); err != nil {
		// Rollback, never hold a cluster permit without a pool permit
		g.cluster.release()
		g.rollbacks.Inc()

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("acquire on %s cancelled: %w", g.name, ctxErr)
		}
		g.poolTimeouts.Inc()
		return nil, common.NewError(common.KindPoolTimeout, "no pool permit for %s within %s", g.name, timeout)
	}

	g.inUse.Add(1)
	g.acquired.Inc()
	return &Permit{gate: g}, nil
}

// Capacity returns the pool capacity
func (g *AdmissionGate) Capacity() int {
	return g.capacity
}

// InUse returns the number of permits currently held on this gate
func (g *AdmissionGate) InUse() int {
	return int(g.inUse.Load())
}

// --------------------------------------------------------------------------
// Permit
// --------------------------------------------------------------------------

// Permit is a granted admission. It must be released exactly once.
type Permit struct {
	gate     *AdmissionGate
	released atomic.Bool
}

// Release returns the pool permit and then the cluster permit. Releasing a
// permit a second time has no effect.
func (p *Permit) Release() {
	if !p.released.CompareAndSwap(false, true) {
		Logger.Warningf("Permit of %s released twice", p.gate.name)
		return
	}
	p.gate.inUse.Add(-1)
	p.gate.sem.Release(1)
	p.gate.cluster.release()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// errNoPermit is returned by acquireWithin if the timeout expired
var errNoPermit = errors.New("no permit available")

// acquireWithin acquires one permit of sem waiting at most timeout
func acquireWithin(ctx context.Context, sem *semaphore.Weighted, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		if sem.TryAcquire(1) {
			return nil
		}
		return errNoPermit
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errNoPermit
	}
	return nil
}
