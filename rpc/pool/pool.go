package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("pool")

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// Config holds the settings of a single connection pool
type Config struct {
	// Capacity is the number of connections that may be checked out at once
	Capacity int
	// AcquireTimeout bounds each of the two permit waits
	AcquireTimeout time.Duration
	// IdleTimeout closes connections that were idle for longer (0 disables)
	IdleTimeout time.Duration
}

// ConfigFromClientConfig extracts the pool settings of the client configuration
func ConfigFromClientConfig(config common.ClientConfig) Config {
	return Config{
		Capacity:       config.Pool.Capacity,
		AcquireTimeout: config.AcquireTimeout(),
		IdleTimeout:    config.IdleTimeout(),
	}
}

// --------------------------------------------------------------------------
// Connection Pool
// --------------------------------------------------------------------------

// idleConn is a connection waiting in the pool
type idleConn struct {
	conn  transport.IConnection
	since time.Time
}

// ConnectionPool manages the connections to one node. Every connection is
// either idle, leased to exactly one caller, or closed. Idle connections are
// reused last in first out, new connections are dialed on demand.
type ConnectionPool struct {
	endpoint  string
	transport transport.IRPCClientTransport
	gate      *AdmissionGate
	config    Config

	mu     sync.Mutex
	idle   []idleConn // ordered by since, the newest is last
	leased int
	closed bool

	stopReaper chan struct{}
	reaperDone sync.WaitGroup

	dials        *metrics.Counter
	dialFailures *metrics.Counter
	discarded    *metrics.Counter
	reaped       *metrics.Counter
}

// NewConnectionPool creates a pool for the endpoint. The pool shares the
// cluster limiter with all other pools of the cluster.
func NewConnectionPool(endpoint string, t transport.IRPCClientTransport, cluster *ClusterLimiter, config Config) *ConnectionPool {
	p := &ConnectionPool{
		endpoint:     endpoint,
		transport:    t,
		gate:         NewAdmissionGate(endpoint, config.Capacity, cluster),
		config:       config,
		stopReaper:   make(chan struct{}),
		dials:        metrics.GetOrCreateCounter(fmt.Sprintf(`rkv_pool_dials_total{pool=%q}`, endpoint)),
		dialFailures: metrics.GetOrCreateCounter(fmt.Sprintf(`rkv_pool_dial_failures_total{pool=%q}`, endpoint)),
		discarded:    metrics.GetOrCreateCounter(fmt.Sprintf(`rkv_pool_discarded_total{pool=%q}`, endpoint)),
		reaped:       metrics.GetOrCreateCounter(fmt.Sprintf(`rkv_pool_reaped_total{pool=%q}`, endpoint)),
	}

	if config.IdleTimeout > 0 {
		p.reaperDone.Add(1)
		go p.reapLoop()
	}

	return p
}

// Acquire leases a connection. It waits for admission (see AdmissionGate.Acquire),
// then reuses an idle connection or dials a new one. The returned lease must be
// released exactly once.
func (p *ConnectionPool) Acquire(ctx context.Context) (*Lease, error) {
	permit, err := p.gate.Acquire(ctx, p.config.AcquireTimeout)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		permit.Release()
		return nil, common.NewError(common.KindPoolClosed, "pool for %s is closed", p.endpoint)
	}

	// Reuse the most recently returned connection
	if n := len(p.idle); n > 0 {
		c := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.leased++
		p.mu.Unlock()
		return &Lease{pool: p, conn: c.conn, permit: permit}, nil
	}

	// Reserve the slot and dial without holding the lock
	p.leased++
	p.mu.Unlock()

	p.dials.Inc()
	conn, err := p.transport.Dial(ctx, p.endpoint)
	if err != nil {
		p.mu.Lock()
		p.leased--
		p.mu.Unlock()
		permit.Release()

		p.dialFailures.Inc()
		Logger.Warningf("Failed to open connection to %s: %v", p.endpoint, err)
		return nil, common.WrapError(common.KindPoolExhausted, err, "no connection to %s", p.endpoint)
	}

	Logger.Debugf("Opened new connection to %s", p.endpoint)
	return &Lease{pool: p, conn: conn, permit: permit}, nil
}

// Stats is a snapshot of the pool state
type Stats struct {
	Idle   int
	Leased int
	// Permits is the number of admission permits currently held on the pool
	Permits int
}

// Open returns the number of open connections
func (s Stats) Open() int {
	return s.Idle + s.Leased
}

// Stats returns a snapshot of the pool state
func (p *ConnectionPool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Idle: len(p.idle), Leased: p.leased, Permits: p.gate.InUse()}
}

// Endpoint returns the endpoint of the node
func (p *ConnectionPool) Endpoint() string {
	return p.endpoint
}

// Gate returns the admission gate of the pool
func (p *ConnectionPool) Gate() *AdmissionGate {
	return p.gate
}

// Close closes all idle connections and rejects new acquisitions. Leased
// connections are closed when they are released.
func (p *ConnectionPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	close(p.stopReaper)
	p.reaperDone.Wait()

	for _, c := range idle {
		c.conn.Close()
	}
	Logger.Debugf("Closed pool for %s (%d idle connections)", p.endpoint, len(idle))
	return nil
}

// --------------------------------------------------------------------------
// Idle Reaper
// --------------------------------------------------------------------------

func (p *ConnectionPool) reapLoop() {
	defer p.reaperDone.Done()

	interval := p.config.IdleTimeout / 2
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopReaper:
			return
		case now := <-ticker.C:
			if n := p.reapIdle(now); n > 0 {
				Logger.Debugf("Closed %d idle connections to %s", n, p.endpoint)
			}
		}
	}
}

// reapIdle closes all connections idle since before now - IdleTimeout
func (p *ConnectionPool) reapIdle(now time.Time) int {
	cutoff := now.Add(-p.config.IdleTimeout)

	p.mu.Lock()
	n := 0
	for n < len(p.idle) && p.idle[n].since.Before(cutoff) {
		n++
	}
	expired := make([]idleConn, n)
	copy(expired, p.idle[:n])
	p.idle = append(p.idle[:0], p.idle[n:]...)
	p.mu.Unlock()

	for _, c := range expired {
		c.conn.Close()
		p.reaped.Inc()
	}
	return n
}

// --------------------------------------------------------------------------
// Lease
// --------------------------------------------------------------------------

// Lease is the exclusive use of one connection
type Lease struct {
	pool     *ConnectionPool
	conn     transport.IConnection
	permit   *Permit
	released atomic.Bool
}

// Conn returns the leased connection
func (l *Lease) Conn() transport.IConnection {
	return l.conn
}

// Release returns the connection. A healthy connection goes back to the idle
// set, an unhealthy one is closed and never leased again. The admission permit
// is released in both cases.
func (l *Lease) Release(healthy bool) {
	if !l.released.CompareAndSwap(false, true) {
		Logger.Warningf("Lease on %s released twice", l.pool.endpoint)
		return
	}

	p := l.pool
	p.mu.Lock()
	p.leased--
	keep := healthy && !p.closed
	if keep {
		p.idle = append(p.idle, idleConn{conn: l.conn, since: time.Now()})
	}
	p.mu.Unlock()

	if !keep {
		l.conn.Close()
		p.discarded.Inc()
	}
	l.permit.Release()
}
