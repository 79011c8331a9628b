package cluster

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/operation"
	"github.com/ValentinKolb/rKV/rpc/pb"
	"github.com/ValentinKolb/rKV/rpc/query"
)

func testConfig(endpoints ...string) common.ClientConfig {
	return common.ClientConfig{
		TimeoutSecond: 1,
		Transport: common.ClientTransportConfig{
			Endpoints:  endpoints,
			RetryCount: 3,
		},
		Pool: common.ClientPoolConfig{
			Capacity:         3,
			ClusterCapacity:  10,
			AcquireTimeoutMs: 500,
		},
	}
}

// pingHandler answers every ping
func pingHandler(_ string, req common.WireMessage) ([]common.WireMessage, error) {
	if req.Code != common.MsgPingReq {
		return nil, fmt.Errorf("unexpected %s", req.Code)
	}
	return []common.WireMessage{common.NewWireMessage(common.MsgPingResp, nil)}, nil
}

func newTestCluster(t *testing.T, ft *fakeTransport, config common.ClientConfig) *Cluster {
	t.Helper()
	c, err := NewCluster(config, ft)
	if err != nil {
		t.Fatalf("NewCluster failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestExecuteResolvesOperation(t *testing.T) {
	ft := newFakeTransport(pingHandler)
	c := newTestCluster(t, ft, testConfig("node-1"))

	op := operation.NewPing()
	if err := c.Execute(context.Background(), op); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if _, err := op.Get(); err != nil {
		t.Errorf("future resolved with %v", err)
	}

	stats := c.Stats()["node-1"]
	if stats.Idle != 1 || stats.Leased != 0 || stats.Permits != 0 {
		t.Errorf("pool stats after execute = %+v", stats)
	}
	if c.Limiter().InUse() != 0 {
		t.Errorf("cluster permits leaked")
	}
}

func TestServerErrorKeepsConnection(t *testing.T) {
	ft := newFakeTransport(func(string, common.WireMessage) ([]common.WireMessage, error) {
		payload := (&pb.ErrorResp{Errmsg: []byte("not allowed"), Errcode: 1}).Marshal()
		return []common.WireMessage{common.NewWireMessage(common.MsgErrorResp, payload)}, nil
	})
	c := newTestCluster(t, ft, testConfig("node-1"))

	for i := 0; i < 2; i++ {
		op := operation.NewPing()
		err := c.Execute(context.Background(), op)
		var serverErr *common.ServerError
		if !errors.As(err, &serverErr) || serverErr.Message != "not allowed" {
			t.Fatalf("expected a ServerError, got %v", err)
		}
		if _, err := op.Get(); !errors.As(err, &serverErr) {
			t.Errorf("future resolved with %v", err)
		}
	}

	if ft.dials.Load() != 1 {
		t.Errorf("dials = %d, the connection should have been reused", ft.dials.Load())
	}
	if ft.requests.Load() != 2 {
		t.Errorf("server errors must not be retried, requests = %d", ft.requests.Load())
	}
}

func TestProtocolMismatchDiscardsConnection(t *testing.T) {
	ft := newFakeTransport(func(string, common.WireMessage) ([]common.WireMessage, error) {
		return []common.WireMessage{common.NewWireMessage(common.MsgGetResp, nil)}, nil
	})
	c := newTestCluster(t, ft, testConfig("node-1"))

	for i := 0; i < 2; i++ {
		err := c.Execute(context.Background(), operation.NewPing())
		if !errors.Is(err, common.ErrProtocolMismatch) {
			t.Fatalf("expected ProtocolMismatch, got %v", err)
		}
	}

	if ft.dials.Load() != 2 {
		t.Errorf("dials = %d, a mismatched connection must not be reused", ft.dials.Load())
	}
	if s := c.Stats()["node-1"]; s.Open() != 0 {
		t.Errorf("open connections = %d, want 0", s.Open())
	}
}

func TestRetryOnNextNode(t *testing.T) {
	ft := newFakeTransport(pingHandler)
	ft.down.Store("node-1", true)
	c := newTestCluster(t, ft, testConfig("node-1", "node-2"))

	for i := 0; i < 4; i++ {
		op := operation.NewPing()
		if err := c.Execute(context.Background(), op); err != nil {
			t.Fatalf("Execute %d failed: %v", i, err)
		}
	}
	if c.Limiter().InUse() != 0 {
		t.Errorf("cluster permits leaked: %d", c.Limiter().InUse())
	}
}

func TestRetryGivesUp(t *testing.T) {
	ft := newFakeTransport(pingHandler)
	ft.down.Store("node-1", true)
	config := testConfig("node-1")
	config.Transport.RetryCount = 2
	c := newTestCluster(t, ft, config)

	op := operation.NewPing()
	err := c.Execute(context.Background(), op)
	if !errors.Is(err, common.ErrPoolExhausted) {
		t.Fatalf("expected PoolExhausted, got %v", err)
	}
	if _, err := op.Get(); !errors.Is(err, common.ErrPoolExhausted) {
		t.Errorf("future resolved with %v", err)
	}
}

func TestNoRetryAfterPartialStream(t *testing.T) {
	ft := newFakeTransport(func(string, common.WireMessage) ([]common.WireMessage, error) {
		batch := (&pb.ListKeysResp{Keys: [][]byte{[]byte("a")}}).Marshal()
		return []common.WireMessage{common.NewWireMessage(common.MsgListKeysResp, batch)},
			common.NewError(common.KindIOFault, "connection reset")
	})
	c := newTestCluster(t, ft, testConfig("node-1", "node-2"))

	op, err := operation.NewListKeys(query.NewNamespace("users"), 0)
	if err != nil {
		t.Fatalf("NewListKeys failed: %v", err)
	}
	if err := c.Execute(context.Background(), op); !errors.Is(err, common.ErrIOFault) {
		t.Fatalf("expected IOFault, got %v", err)
	}
	if ft.requests.Load() != 1 {
		t.Errorf("requests = %d, a partially received stream must not be retried", ft.requests.Load())
	}
}

func TestUnclassifiedFailureIsNotRetried(t *testing.T) {
	ft := newFakeTransport(pingHandler)
	c := newTestCluster(t, ft, testConfig("node-1", "node-2"))

	obj := query.NewRiakObject([]byte("v"), "text/plain")
	op, err := operation.NewStore(query.NewNamespace("users").Location("k"), obj, operation.StoreOptions{})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	// The handler only understands pings and fails the store exchange
	if err := c.Execute(context.Background(), op); err == nil {
		t.Fatalf("expected an error")
	}
	if ft.requests.Load() != 1 {
		t.Errorf("requests = %d, want 1", ft.requests.Load())
	}
	if c.Limiter().InUse() != 0 {
		t.Errorf("cluster permits leaked")
	}
}

func TestConnectionExclusivity(t *testing.T) {
	ft := newFakeTransport(pingHandler)
	c := newTestCluster(t, ft, testConfig("node-1"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Execute(context.Background(), operation.NewPing()); err != nil {
				t.Errorf("Execute failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if v := ft.violations.Load(); v != 0 {
		t.Errorf("%d exchanges overlapped on one connection", v)
	}
	if d := ft.dials.Load(); d > 3 {
		t.Errorf("dials = %d, pool capacity is 3", d)
	}
}

func TestSubmitIsAsynchronous(t *testing.T) {
	release := make(chan struct{})
	ft := newFakeTransport(func(endpoint string, req common.WireMessage) ([]common.WireMessage, error) {
		<-release
		return pingHandler(endpoint, req)
	})
	c := newTestCluster(t, ft, testConfig("node-1"))

	op := operation.NewPing()
	c.Submit(context.Background(), op)

	if op.Future().IsDone() {
		t.Fatalf("operation resolved before the server answered")
	}
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := op.Future().Await(ctx); err != nil {
		t.Errorf("Await failed: %v", err)
	}
}

func TestNodeManagement(t *testing.T) {
	ft := newFakeTransport(pingHandler)
	c := newTestCluster(t, ft, testConfig("node-1"))

	if err := c.AddNode("node-2"); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	if err := c.AddNode("node-2"); err == nil {
		t.Errorf("adding an existing node should fail")
	}
	if nodes := c.Nodes(); len(nodes) != 2 || nodes[1] != "node-2" {
		t.Errorf("Nodes() = %v", nodes)
	}

	if err := c.RemoveNode("node-1"); err != nil {
		t.Fatalf("RemoveNode failed: %v", err)
	}
	if err := c.RemoveNode("node-1"); err == nil {
		t.Errorf("removing a missing node should fail")
	}

	for i := 0; i < 3; i++ {
		if err := c.Execute(context.Background(), operation.NewPing()); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
	}
	if _, ok := c.Stats()["node-2"]; !ok {
		t.Errorf("node-2 missing from stats")
	}

	if err := c.RemoveNode("node-2"); err != nil {
		t.Fatalf("RemoveNode failed: %v", err)
	}
	if err := c.Execute(context.Background(), operation.NewPing()); !errors.Is(err, common.ErrPoolClosed) {
		t.Errorf("expected PoolClosed without nodes, got %v", err)
	}
}

func TestClosedCluster(t *testing.T) {
	ft := newFakeTransport(pingHandler)
	c := newTestCluster(t, ft, testConfig("node-1"))
	c.Close()

	op := operation.NewPing()
	if err := c.Execute(context.Background(), op); !errors.Is(err, common.ErrPoolClosed) {
		t.Errorf("expected PoolClosed, got %v", err)
	}
	if !op.Future().IsDone() {
		t.Errorf("the operation must be resolved")
	}
}

func TestInvalidConfiguration(t *testing.T) {
	config := testConfig()
	if _, err := NewCluster(config, newFakeTransport(pingHandler)); err == nil {
		t.Errorf("expected an error without endpoints")
	}
}
