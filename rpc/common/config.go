package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Shared transport configuration
// --------------------------------------------------------------------------

// SocketConf holds socket buffer settings (ignored if zero)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific socket settings
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig configures the connections to the nodes
type ClientTransportConfig struct {
	Endpoints    []string
	RetryCount   int
	MaxFrameSize int // Largest accepted frame in bytes, 0 means DefaultMaxFrameSize
	SocketConf
	TCPConf
}

// ClientPoolConfig configures connection pooling and admission control
type ClientPoolConfig struct {
	// Capacity is the number of connections that may be checked out per node
	Capacity int
	// ClusterCapacity is the number of connections that may be checked out across all nodes
	ClusterCapacity int
	// AcquireTimeoutMs bounds each of the two permit waits (cluster and pool)
	AcquireTimeoutMs int
	// IdleTimeoutSecond closes idle connections after this duration (0 disables the reaper)
	IdleTimeoutSecond int
}

// ClientConfig holds all configuration parameters of the client
type ClientConfig struct {
	// TimeoutSecond is the I/O timeout of a single send or receive
	TimeoutSecond int
	Transport     ClientTransportConfig
	Pool          ClientPoolConfig
}

// DefaultMaxFrameSize is used if no maximum frame size is configured
const DefaultMaxFrameSize = 64 * 1024 * 1024

// IOTimeout returns the configured I/O timeout (0 means no deadline)
func (c *ClientConfig) IOTimeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// AcquireTimeout returns the configured permit acquire timeout
func (c *ClientConfig) AcquireTimeout() time.Duration {
	return time.Duration(c.Pool.AcquireTimeoutMs) * time.Millisecond
}

// IdleTimeout returns the configured idle connection timeout
func (c *ClientConfig) IdleTimeout() time.Duration {
	return time.Duration(c.Pool.IdleTimeoutSecond) * time.Second
}

// FrameLimit returns the effective maximum frame size
func (c *ClientTransportConfig) FrameLimit() int {
	if c.MaxFrameSize <= 0 {
		return DefaultMaxFrameSize
	}
	return c.MaxFrameSize
}

// Validate checks the configuration for values the client cannot work with
func (c *ClientConfig) Validate() error {
	if len(c.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}
	for i, endpoint := range c.Transport.Endpoints {
		if strings.TrimSpace(endpoint) == "" {
			return fmt.Errorf("endpoint %d is empty", i)
		}
	}
	if c.Pool.Capacity <= 0 {
		return fmt.Errorf("pool capacity must be positive, got %d", c.Pool.Capacity)
	}
	if c.Pool.ClusterCapacity <= 0 {
		return fmt.Errorf("cluster capacity must be positive, got %d", c.Pool.ClusterCapacity)
	}
	if c.Pool.AcquireTimeoutMs < 0 {
		return fmt.Errorf("acquire timeout must not be negative, got %d", c.Pool.AcquireTimeoutMs)
	}
	return nil
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("I/O Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Max Frame Size", fmt.Sprintf("%d bytes", c.Transport.FrameLimit()))

	// Pool Settings
	addSection("Connection Pool")
	addField("Pool Capacity", strconv.Itoa(c.Pool.Capacity))
	addField("Cluster Capacity", strconv.Itoa(c.Pool.ClusterCapacity))
	addField("Acquire Timeout", fmt.Sprintf("%d ms", c.Pool.AcquireTimeoutMs))
	addField("Idle Timeout", fmt.Sprintf("%d sec", c.Pool.IdleTimeoutSecond))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// Development node configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig configures the listener of the development node
type ServerTransportConfig struct {
	Endpoint     string
	MaxFrameSize int
	SocketConf
	TCPConf
}

// ServerConfig holds the configuration of the in-memory development node
type ServerConfig struct {
	// NodeName is reported by the server info request
	NodeName string
	// TimeoutSecond is the read/write timeout per frame (0 disables deadlines)
	TimeoutSecond int64
	// ListKeysBatch is the number of keys sent per streamed list keys response
	ListKeysBatch int
	// MetricsEndpoint exposes the metrics via http if not empty
	MetricsEndpoint string
	Transport       ServerTransportConfig
	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Development Node")
	addField("Node Name", c.NodeName)
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("List Keys Batch", strconv.Itoa(c.ListKeysBatch))
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
