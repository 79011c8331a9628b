package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/pb"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("devnode")

// ServerVersion is reported by the server info request
const ServerVersion = "rkv-devnode-1.0"

// DevNode is an in-memory server speaking the wire protocol. It is meant for
// tests and local development, nothing is persisted or replicated.
//
// Usage:
//
//	node := server.NewDevNode(config, tcp.NewTCPServerTransport())
//	if err := node.Serve(); err != nil {
//		panic(err)
//	}
type DevNode struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport
	store     *Store
	adapters  map[common.MessageCode]IRPCServerAdapter

	metricsServer *http.Server
}

// NewDevNode creates a development node with an empty store
func NewDevNode(config common.ServerConfig, t transport.IRPCServerTransport) *DevNode {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	if config.NodeName == "" {
		config.NodeName = "rkv@127.0.0.1"
	}

	n := &DevNode{
		config:    config,
		transport: t,
		store:     NewStore(),
		adapters:  make(map[common.MessageCode]IRPCServerAdapter),
	}

	for _, adapter := range []IRPCServerAdapter{
		&nodeServerAdapterImpl{name: config.NodeName},
		NewKVServerAdapter(config.ListKeysBatch),
		NewBucketServerAdapter(),
		NewSearchServerAdapter(),
	} {
		for _, code := range adapter.Codes() {
			n.adapters[code] = adapter
		}
	}

	t.RegisterHandler(n.handle)

	Logger.Infof("Created development node %s", config.NodeName)
	Logger.Infof(config.String())
	return n
}

// Store returns the data of the node
func (n *DevNode) Store() *Store {
	return n.store
}

// Start starts the transport (and the metrics endpoint if configured) and
// returns the listen address
func (n *DevNode) Start() (net.Addr, error) {
	if n.config.MetricsEndpoint != "" {
		if err := n.startMetrics(); err != nil {
			return nil, err
		}
	}

	addr, err := n.transport.Start(n.config)
	if err != nil {
		n.stopMetrics()
		return nil, err
	}
	return addr, nil
}

// Serve starts the node and blocks until it is closed or the process receives
// SIGINT or SIGTERM
func (n *DevNode) Serve() error {
	if _, err := n.Start(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	<-sig
	Logger.Infof("Shutting down development node %s", n.config.NodeName)
	return n.Close()
}

// Close stops the transport and the metrics endpoint
func (n *DevNode) Close() error {
	n.stopMetrics()
	return n.transport.Close()
}

// handle dispatches a request to the adapter of its code
func (n *DevNode) handle(req common.WireMessage, reply func(common.WireMessage) error) error {
	start := time.Now()

	adapter, ok := n.adapters[req.Code]
	var err error
	if !ok {
		Logger.Warningf("Received unsupported message %s", req)
		err = replyError(reply, fmt.Sprintf("unsupported message code %s", req.Code))
	} else {
		err = adapter.Handle(req, n.store, reply)
	}

	metrics.GetOrCreateCounter(fmt.Sprintf(`rkv_devnode_requests_total{code=%q}`, req.Code)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(`rkv_devnode_request_duration_seconds{code=%q}`, req.Code)).UpdateDuration(start)
	return err
}

// --------------------------------------------------------------------------
// Metrics Endpoint
// --------------------------------------------------------------------------

func (n *DevNode) startMetrics() error {
	listener, err := net.Listen("tcp", n.config.MetricsEndpoint)
	if err != nil {
		return fmt.Errorf("failed to listen on metrics endpoint: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	n.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		Logger.Infof("Serving metrics on http://%s/metrics", listener.Addr())
		if err := n.metricsServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("Metrics endpoint failed: %v", err)
		}
	}()
	return nil
}

func (n *DevNode) stopMetrics() {
	if n.metricsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := n.metricsServer.Shutdown(ctx); err != nil {
		Logger.Warningf("Failed to stop metrics endpoint: %v", err)
	}
	n.metricsServer = nil
}

// --------------------------------------------------------------------------
// Node Adapter
// --------------------------------------------------------------------------

// nodeServerAdapterImpl answers requests about the node itself
type nodeServerAdapterImpl struct {
	name string
}

func (adapter *nodeServerAdapterImpl) Codes() []common.MessageCode {
	return []common.MessageCode{common.MsgPingReq, common.MsgGetServerInfoReq}
}

func (adapter *nodeServerAdapterImpl) Handle(req common.WireMessage, _ *Store, reply Reply) error {
	switch req.Code {
	case common.MsgPingReq:
		return replyEmpty(reply, common.MsgPingResp)
	case common.MsgGetServerInfoReq:
		return replyMessage(reply, common.MsgGetServerInfoResp, &pb.GetServerInfoResp{
			Node:          []byte(adapter.name),
			ServerVersion: []byte(ServerVersion),
		})
	default:
		return replyError(reply, fmt.Sprintf("node adapter: unsupported message code %s", req.Code))
	}
}
