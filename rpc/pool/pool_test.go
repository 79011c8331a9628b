package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
)

func newTestPool(t *testing.T, capacity int, ft *fakeTransport) (*ConnectionPool, *ClusterLimiter) {
	t.Helper()
	cluster := NewClusterLimiter(10)
	p := NewConnectionPool("node-1", ft, cluster, Config{Capacity: capacity, AcquireTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { p.Close() })
	return p, cluster
}

func TestPoolReusesHealthyConnections(t *testing.T) {
	ft := &fakeTransport{}
	p, _ := newTestPool(t, 2, ft)

	lease, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	first := lease.Conn()
	lease.Release(true)

	if s := p.Stats(); s.Idle != 1 || s.Leased != 0 || s.Permits != 0 {
		t.Errorf("stats after release = %+v", s)
	}

	lease, err = p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lease.Release(true)

	if lease.Conn() != first {
		t.Errorf("idle connection was not reused")
	}
	if ft.dials.Load() != 1 {
		t.Errorf("dials = %d, want 1", ft.dials.Load())
	}
}

func TestPoolReusesLastReturnedConnection(t *testing.T) {
	ft := &fakeTransport{}
	p, _ := newTestPool(t, 2, ft)

	a, _ := p.Acquire(context.Background())
	b, _ := p.Acquire(context.Background())
	a.Release(true)
	b.Release(true)

	lease, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lease.Release(true)
	if lease.Conn() != b.Conn() {
		t.Errorf("expected the most recently returned connection")
	}
}

func TestPoolDiscardsUnhealthyConnections(t *testing.T) {
	ft := &fakeTransport{}
	p, cluster := newTestPool(t, 2, ft)

	lease, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	conn := lease.Conn().(*fakeConn)
	lease.Release(false)

	if !conn.closed.Load() {
		t.Errorf("unhealthy connection was not closed")
	}
	if s := p.Stats(); s.Open() != 0 {
		t.Errorf("open connections = %d, want 0", s.Open())
	}
	if cluster.InUse() != 0 {
		t.Errorf("cluster permit leaked")
	}

	lease, err = p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lease.Release(true)
	if lease.Conn() == conn {
		t.Errorf("a closed connection was leased again")
	}
	if ft.dials.Load() != 2 {
		t.Errorf("dials = %d, want 2", ft.dials.Load())
	}
}

func TestPoolDialFailureReleasesPermit(t *testing.T) {
	ft := &fakeTransport{}
	ft.fail.Store(true)
	p, cluster := newTestPool(t, 1, ft)

	_, err := p.Acquire(context.Background())
	if !errors.Is(err, common.ErrPoolExhausted) {
		t.Fatalf("expected PoolExhausted, got %v", err)
	}
	if cluster.InUse() != 0 || p.Gate().InUse() != 0 {
		t.Errorf("permits leaked after dial failure: %d/%d", p.Gate().InUse(), cluster.InUse())
	}
	if s := p.Stats(); s.Leased != 0 {
		t.Errorf("leased = %d, want 0", s.Leased)
	}

	// The pool recovers once the node is reachable
	ft.fail.Store(false)
	lease, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	lease.Release(true)
}

func TestPoolTimeoutWhenFull(t *testing.T) {
	ft := &fakeTransport{}
	p, cluster := newTestPool(t, 1, ft)

	lease, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lease.Release(true)

	if _, err := p.Acquire(context.Background()); !errors.Is(err, common.ErrPoolTimeout) {
		t.Errorf("expected PoolTimeout, got %v", err)
	}
	if cluster.InUse() != 1 {
		t.Errorf("cluster permits in use = %d, want 1", cluster.InUse())
	}
	if s := p.Stats(); s.Open() != 1 {
		t.Errorf("open connections = %d, want 1", s.Open())
	}
}

func TestPoolClose(t *testing.T) {
	ft := &fakeTransport{}
	p, cluster := newTestPool(t, 2, ft)

	idle, _ := p.Acquire(context.Background())
	leased, _ := p.Acquire(context.Background())
	idleConn := idle.Conn().(*fakeConn)
	leasedConn := leased.Conn().(*fakeConn)
	idle.Release(true)

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !idleConn.closed.Load() {
		t.Errorf("idle connection not closed by Close")
	}
	if leasedConn.closed.Load() {
		t.Errorf("leased connection closed while in use")
	}

	leased.Release(true)
	if !leasedConn.closed.Load() {
		t.Errorf("leased connection not closed on release after Close")
	}

	if _, err := p.Acquire(context.Background()); !errors.Is(err, common.ErrPoolClosed) {
		t.Errorf("expected PoolClosed, got %v", err)
	}
	if cluster.InUse() != 0 {
		t.Errorf("cluster permits leaked: %d", cluster.InUse())
	}
}

func TestLeaseDoubleReleaseIsIgnored(t *testing.T) {
	ft := &fakeTransport{}
	p, cluster := newTestPool(t, 2, ft)

	lease, _ := p.Acquire(context.Background())
	lease.Release(true)
	lease.Release(false)

	if s := p.Stats(); s.Idle != 1 || s.Leased != 0 {
		t.Errorf("stats = %+v, want one idle connection", s)
	}
	if cluster.InUse() != 0 {
		t.Errorf("cluster permits in use = %d", cluster.InUse())
	}
}

func TestPoolReapsIdleConnections(t *testing.T) {
	ft := &fakeTransport{}
	cluster := NewClusterLimiter(10)
	p := NewConnectionPool("node-1", ft, cluster, Config{Capacity: 3, AcquireTimeout: time.Second, IdleTimeout: time.Minute})
	defer p.Close()

	a, _ := p.Acquire(context.Background())
	b, _ := p.Acquire(context.Background())
	a.Release(true)
	b.Release(true)

	if n := p.reapIdle(time.Now()); n != 0 {
		t.Errorf("reaped %d fresh connections", n)
	}
	if n := p.reapIdle(time.Now().Add(2 * time.Minute)); n != 2 {
		t.Errorf("reaped %d connections, want 2", n)
	}
	if !a.Conn().(*fakeConn).closed.Load() || !b.Conn().(*fakeConn).closed.Load() {
		t.Errorf("reaped connections were not closed")
	}
	if s := p.Stats(); s.Idle != 0 {
		t.Errorf("idle = %d, want 0", s.Idle)
	}
}

func TestPoolReaperRunsInBackground(t *testing.T) {
	ft := &fakeTransport{}
	cluster := NewClusterLimiter(10)
	p := NewConnectionPool("node-1", ft, cluster, Config{Capacity: 1, AcquireTimeout: time.Second, IdleTimeout: 20 * time.Millisecond})
	defer p.Close()

	lease, _ := p.Acquire(context.Background())
	lease.Release(true)

	deadline := time.Now().Add(2 * time.Second)
	for p.Stats().Idle != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("idle connection was not reaped")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
