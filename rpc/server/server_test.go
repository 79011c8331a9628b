package server

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/rpc/client"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/operation"
	"github.com/ValentinKolb/rKV/rpc/query"
	"github.com/ValentinKolb/rKV/rpc/transport/unix"
)

// startNode starts a development node on a unix socket and returns a client for it
func startNode(t *testing.T, listKeysBatch int) (*DevNode, *client.Client) {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "rkv.sock")
	node := NewDevNode(common.ServerConfig{
		NodeName:      "test@127.0.0.1",
		TimeoutSecond: 5,
		ListKeysBatch: listKeysBatch,
		Transport:     common.ServerTransportConfig{Endpoint: socket},
	}, unix.NewUnixServerTransport())
	if _, err := node.Start(); err != nil {
		t.Fatalf("failed to start node: %v", err)
	}
	t.Cleanup(func() { node.Close() })

	config := common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:  []string{socket},
			RetryCount: 2,
		},
		Pool: common.ClientPoolConfig{
			Capacity:         4,
			ClusterCapacity:  8,
			AcquireTimeoutMs: 1000,
		},
	}
	c, err := client.NewClient(config, unix.NewUnixClientTransport(config))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return node, c
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestPingAndServerInfo(t *testing.T) {
	_, c := startNode(t, 0)
	ctx := testContext(t)

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	info, err := c.ServerInfo(ctx)
	if err != nil {
		t.Fatalf("ServerInfo failed: %v", err)
	}
	if info.Node != "test@127.0.0.1" || info.ServerVersion != ServerVersion {
		t.Errorf("ServerInfo() = %+v", info)
	}
}

func TestStoreFetchDelete(t *testing.T) {
	_, c := startNode(t, 0)
	ctx := testContext(t)
	loc := query.NewNamespace("users").Location("alice")

	t.Run("missing object", func(t *testing.T) {
		result, err := c.Fetch(ctx, loc, operation.FetchOptions{})
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if !result.NotFound || result.Object() != nil {
			t.Errorf("expected not found, got %+v", result)
		}
	})

	obj := query.NewRiakObject([]byte(`{"name":"alice"}`), "application/json").
		WithUserMeta("owner", "test").
		WithIndex("email_bin", "alice@example.com")

	stored, err := c.Store(ctx, loc, obj, operation.StoreOptions{ReturnBody: true})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if len(stored.VClock) == 0 || len(stored.Objects) != 1 {
		t.Fatalf("return body missing: %+v", stored)
	}
	if stored.GeneratedKey != "" {
		t.Errorf("no key should be generated, got %q", stored.GeneratedKey)
	}

	t.Run("fetch stored object", func(t *testing.T) {
		result, err := c.Fetch(ctx, loc, operation.FetchOptions{})
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		got := result.Object()
		if got == nil {
			t.Fatalf("object not found")
		}
		if string(got.Value) != `{"name":"alice"}` || got.ContentType != "application/json" {
			t.Errorf("object = %+v", got)
		}
		if got.UserMeta["owner"] != "test" {
			t.Errorf("user meta = %v", got.UserMeta)
		}
		if len(got.Indexes["email_bin"]) != 1 {
			t.Errorf("indexes = %v", got.Indexes)
		}
		if string(result.VClock) != string(stored.VClock) {
			t.Errorf("vclock = %q, want %q", result.VClock, stored.VClock)
		}
	})

	t.Run("head only", func(t *testing.T) {
		result, err := c.Fetch(ctx, loc, operation.FetchOptions{Head: true})
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if got := result.Object(); got == nil || len(got.Value) != 0 || got.ContentType != "application/json" {
			t.Errorf("head = %+v", got)
		}
	})

	t.Run("if modified", func(t *testing.T) {
		result, err := c.Fetch(ctx, loc, operation.FetchOptions{IfModified: stored.VClock})
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if !result.Unchanged || result.NotFound {
			t.Errorf("expected unchanged, got %+v", result)
		}
	})

	if err := c.Delete(ctx, loc, operation.DeleteOptions{}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	result, err := c.Fetch(ctx, loc, operation.FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !result.NotFound {
		t.Errorf("object still present after delete")
	}
}

func TestStoreConditions(t *testing.T) {
	_, c := startNode(t, 0)
	ctx := testContext(t)
	loc := query.NewNamespace("users").Location("bob")
	obj := query.NewRiakObject([]byte("v1"), "text/plain")

	first, err := c.Store(ctx, loc, obj, operation.StoreOptions{IfNoneMatch: true, ReturnHead: true})
	if err != nil {
		t.Fatalf("first Store failed: %v", err)
	}

	tests := []struct {
		name string
		opts operation.StoreOptions
		msg  string
	}{
		{"if none match on existing key", operation.StoreOptions{IfNoneMatch: true}, "match_found"},
		{"if not modified with stale vclock", operation.StoreOptions{IfNotModified: true, VClock: []byte("stale")}, "modified"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Store(ctx, loc, obj, tt.opts)
			var serverErr *common.ServerError
			if !errors.As(err, &serverErr) || serverErr.Message != tt.msg {
				t.Errorf("expected server error %q, got %v", tt.msg, err)
			}
		})
	}

	// The connection survives server errors, the next write succeeds
	if _, err := c.Store(ctx, loc, obj, operation.StoreOptions{IfNotModified: true, VClock: first.VClock}); err != nil {
		t.Errorf("Store with current vclock failed: %v", err)
	}
}

func TestGeneratedKey(t *testing.T) {
	node, c := startNode(t, 0)
	ctx := testContext(t)

	ns := query.NewNamespace("events").WithType("logs")
	stored, err := c.Store(ctx, ns.Location(""), query.NewRiakObject([]byte("e"), "text/plain"), operation.StoreOptions{})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if stored.GeneratedKey == "" || stored.Location.Key != stored.GeneratedKey {
		t.Fatalf("no key generated: %+v", stored)
	}
	if _, ok := node.Store().Get("logs", "events", stored.GeneratedKey); !ok {
		t.Errorf("object not stored under the generated key in the bucket type")
	}
	if _, ok := node.Store().Get("", "events", stored.GeneratedKey); ok {
		t.Errorf("object must not be visible in the default bucket type")
	}
}

func TestCompressedObject(t *testing.T) {
	_, c := startNode(t, 0)
	ctx := testContext(t)
	loc := query.NewNamespace("blobs").Location("b1")

	value := make([]byte, 4096)
	for i := range value {
		value[i] = byte('a' + i%4)
	}
	obj := query.NewRiakObject(value, "application/octet-stream")
	obj.Compress()

	if _, err := c.Store(ctx, loc, obj, operation.StoreOptions{}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	result, err := c.Fetch(ctx, loc, operation.FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got := result.Object(); got == nil || string(got.Value) != string(value) {
		t.Errorf("fetched value differs from the stored value")
	}
}

func TestListKeysStreaming(t *testing.T) {
	_, c := startNode(t, 3)
	ctx := testContext(t)
	ns := query.NewNamespace("many")

	keys, err := c.ListKeys(ctx, ns, 0)
	if err != nil {
		t.Fatalf("ListKeys on empty bucket failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("keys = %v, want none", keys)
	}

	const count = 10
	for i := 0; i < count; i++ {
		key := fmt.Sprintf("key-%02d", i)
		if _, err := c.Store(ctx, ns.Location(key), query.NewRiakObject([]byte(key), "text/plain"), operation.StoreOptions{}); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}

	keys, err = c.ListKeys(ctx, ns, time.Second)
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if len(keys) != count {
		t.Fatalf("got %d keys, want %d", len(keys), count)
	}
	for i, key := range keys {
		if want := fmt.Sprintf("key-%02d", i); key != want {
			t.Errorf("keys[%d] = %q, want %q", i, key, want)
		}
	}

	// The connection is reusable after a completed stream
	if err := c.Ping(ctx); err != nil {
		t.Errorf("Ping after list keys failed: %v", err)
	}
}

func TestBucketProperties(t *testing.T) {
	_, c := startNode(t, 0)
	ctx := testContext(t)
	ns := query.NewNamespace("configured")

	props, err := c.FetchBucketProps(ctx, ns)
	if err != nil {
		t.Fatalf("FetchBucketProps failed: %v", err)
	}
	if props.NVal == nil || *props.NVal != 3 {
		t.Errorf("default n_val = %v, want 3", props.NVal)
	}

	update := query.NewBucketProperties().
		WithNVal(5).
		WithAllowMulti(true).
		WithPrecommitHook(query.NewNamedFunction("validate")).
		WithR(query.QuorumAll)
	if err := c.StoreBucketProps(ctx, ns, update); err != nil {
		t.Fatalf("StoreBucketProps failed: %v", err)
	}

	props, err = c.FetchBucketProps(ctx, ns)
	if err != nil {
		t.Fatalf("FetchBucketProps failed: %v", err)
	}
	if *props.NVal != 5 || !*props.AllowMulti || *props.R != query.QuorumAll {
		t.Errorf("props after update = %s", props)
	}
	if len(props.Precommit) != 1 || props.Precommit[0].Name != "validate" {
		t.Errorf("precommit = %v", props.Precommit)
	}
	if props.LastWriteWins == nil || *props.LastWriteWins {
		t.Errorf("unset properties must keep their value, last_write_wins = %v", props.LastWriteWins)
	}

	if err := c.ResetBucketProps(ctx, ns); err != nil {
		t.Fatalf("ResetBucketProps failed: %v", err)
	}
	props, err = c.FetchBucketProps(ctx, ns)
	if err != nil {
		t.Fatalf("FetchBucketProps failed: %v", err)
	}
	if *props.NVal != 3 || *props.AllowMulti {
		t.Errorf("props after reset = %s", props)
	}
}

func TestSearch(t *testing.T) {
	_, c := startNode(t, 0)
	ctx := testContext(t)
	ns := query.NewNamespace("people")

	if err := c.StoreIndex(ctx, query.YokozunaIndex{Name: "people_idx"}, 0); err != nil {
		t.Fatalf("StoreIndex failed: %v", err)
	}
	if err := c.StoreBucketProps(ctx, ns, query.NewBucketProperties().WithSearchIndex("people_idx")); err != nil {
		t.Fatalf("StoreBucketProps failed: %v", err)
	}

	people := map[string]string{
		"p1": `{"name":"alice","city":"berlin","age":31}`,
		"p2": `{"name":"bob","city":"bern","age":42}`,
		"p3": `{"name":"carol","city":"paris","age":27}`,
	}
	for key, value := range people {
		if _, err := c.Store(ctx, ns.Location(key), query.NewRiakObject([]byte(value), "application/json"), operation.StoreOptions{}); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}

	tests := []struct {
		name  string
		q     string
		opts  operation.SearchOptions
		found uint32
		keys  []string
	}{
		{"all documents", "*:*", operation.SearchOptions{Sort: "_yz_rk asc"}, 3, []string{"p1", "p2", "p3"}},
		{"exact match", "name:bob", operation.SearchOptions{}, 1, []string{"p2"}},
		{"prefix match", "city:ber*", operation.SearchOptions{Sort: "name desc"}, 2, []string{"p2", "p1"}},
		{"default field", "paris", operation.SearchOptions{DefaultField: "city"}, 1, []string{"p3"}},
		{"filter", "*:*", operation.SearchOptions{Filter: "age:42"}, 1, []string{"p2"}},
		{"pagination", "*:*", operation.SearchOptions{Sort: "_yz_rk asc", Start: 1, Rows: 1}, 3, []string{"p2"}},
		{"no match", "name:dave", operation.SearchOptions{}, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Search(ctx, "people_idx", tt.q, tt.opts)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if result.NumFound != tt.found {
				t.Errorf("NumFound = %d, want %d", result.NumFound, tt.found)
			}
			if len(result.Documents) != len(tt.keys) {
				t.Fatalf("got %d documents, want %d", len(result.Documents), len(tt.keys))
			}
			for i, doc := range result.Documents {
				if got := doc.First("_yz_rk"); got != tt.keys[i] {
					t.Errorf("document %d has key %q, want %q", i, got, tt.keys[i])
				}
			}
		})
	}

	t.Run("field list", func(t *testing.T) {
		result, err := c.Search(ctx, "people_idx", "name:alice", operation.SearchOptions{ReturnFields: []string{"city"}})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(result.Documents) != 1 || len(result.Documents[0]) != 1 || result.Documents[0].First("city") != "berlin" {
			t.Errorf("documents = %v", result.Documents)
		}
	})

	t.Run("unknown index", func(t *testing.T) {
		_, err := c.Search(ctx, "missing", "*:*", operation.SearchOptions{})
		var serverErr *common.ServerError
		if !errors.As(err, &serverErr) {
			t.Errorf("expected a server error, got %v", err)
		}
	})
}

func TestSearchIndexes(t *testing.T) {
	_, c := startNode(t, 0)
	ctx := testContext(t)

	for _, name := range []string{"b_idx", "a_idx"} {
		if err := c.StoreIndex(ctx, query.YokozunaIndex{Name: name}, time.Second); err != nil {
			t.Fatalf("StoreIndex failed: %v", err)
		}
	}

	all, err := c.FetchIndex(ctx, "")
	if err != nil {
		t.Fatalf("FetchIndex failed: %v", err)
	}
	if len(all) != 2 || all[0].Name != "a_idx" || all[1].Name != "b_idx" {
		t.Fatalf("indexes = %+v", all)
	}
	if all[0].Schema != DefaultSchema || all[0].NVal != 3 {
		t.Errorf("defaults not applied: %+v", all[0])
	}

	one, err := c.FetchIndex(ctx, "b_idx")
	if err != nil || len(one) != 1 || one[0].Name != "b_idx" {
		t.Errorf("FetchIndex(b_idx) = %+v, %v", one, err)
	}

	if err := c.DeleteIndex(ctx, "b_idx"); err != nil {
		t.Fatalf("DeleteIndex failed: %v", err)
	}
	var serverErr *common.ServerError
	if _, err := c.FetchIndex(ctx, "b_idx"); !errors.As(err, &serverErr) || serverErr.Message != "notfound" {
		t.Errorf("expected notfound, got %v", err)
	}
	if err := c.DeleteIndex(ctx, "b_idx"); !errors.As(err, &serverErr) {
		t.Errorf("deleting a missing index should fail, got %v", err)
	}
}

func TestUnsupportedCode(t *testing.T) {
	node, _ := startNode(t, 0)

	var replies []common.WireMessage
	reply := func(resp common.WireMessage) error {
		replies = append(replies, resp)
		return nil
	}
	if err := node.handle(common.NewWireMessage(common.MsgMapRedReq, nil), reply); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(replies) != 1 || replies[0].Code != common.MsgErrorResp {
		t.Errorf("replies = %v, want one error response", replies)
	}
}

func TestConcurrentClients(t *testing.T) {
	_, c := startNode(t, 0)
	ctx := testContext(t)
	ns := query.NewNamespace("concurrent")

	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func(i int) {
			loc := ns.Location(fmt.Sprintf("k%d", i))
			if _, err := c.Store(ctx, loc, query.NewRiakObject([]byte("v"), "text/plain"), operation.StoreOptions{}); err != nil {
				errs <- err
				return
			}
			_, err := c.Fetch(ctx, loc, operation.FetchOptions{})
			errs <- err
		}(i)
	}
	for i := 0; i < 20; i++ {
		if err := <-errs; err != nil {
			t.Errorf("operation failed: %v", err)
		}
	}

	keys, err := c.ListKeys(ctx, ns, 0)
	if err != nil || len(keys) != 20 {
		t.Errorf("ListKeys() = %d keys, %v", len(keys), err)
	}
	for endpoint, stats := range c.Stats() {
		if stats.Open() > 4 {
			t.Errorf("%s has %d open connections, capacity is 4", endpoint, stats.Open())
		}
	}
}
