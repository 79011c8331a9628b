package util

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/ValentinKolb/rKV/rpc/transport/tcp"
	"github.com/ValentinKolb/rKV/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (e.g. RKV_TIMEOUT=15)
	EnvPrefix = "rkv"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupRPCClientFlags adds common RPC connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The I/O timeout in seconds of a single send or receive"))

	key = "transport-endpoints"
	cmd.PersistentFlags().String(key, "localhost:8087", WrapString("The addresses of the nodes as a comma-separated list (host:port for tcp, socket path for unix)"))

	key = "transport-retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times a request is attempted before giving up"))

	key = "transport-max-frame"
	cmd.PersistentFlags().Int(key, 64*1024, WrapString("The largest accepted frame (in KB)"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the socket write buffer (in KB)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the socket read buffer (in KB)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval (in seconds, only for tcp)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, -1, WrapString("The linger time (in seconds, only for tcp, -1 keeps the system default)"))

	key = "pool-capacity"
	cmd.PersistentFlags().Int(key, 16, WrapString("How many connections may be checked out per node"))

	key = "pool-cluster-capacity"
	cmd.PersistentFlags().Int(key, 64, WrapString("How many connections may be checked out across all nodes"))

	key = "pool-acquire-timeout"
	cmd.PersistentFlags().Int(key, 1000, WrapString("How long to wait for a free connection (in milliseconds, applies to the node and the cluster limit each)"))

	key = "pool-idle-timeout"
	cmd.PersistentFlags().Int(key, 60, WrapString("Idle connections are closed after this time (in seconds, 0 keeps them open)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("The level at which logs will be output (debug, info, warn, error)"))
}

// InitConfig loads the env files and configures viper to read environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	conf := &common.ClientConfig{
		TimeoutSecond: viper.GetInt("timeout"),
		Transport: common.ClientTransportConfig{
			RetryCount:   viper.GetInt("transport-retries"),
			Endpoints:    strings.Split(viper.GetString("transport-endpoints"), ","),
			MaxFrameSize: viper.GetInt("transport-max-frame") * 1024,
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
				TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			},
		},
		Pool: common.ClientPoolConfig{
			Capacity:          viper.GetInt("pool-capacity"),
			ClusterCapacity:   viper.GetInt("pool-cluster-capacity"),
			AcquireTimeoutMs:  viper.GetInt("pool-acquire-timeout"),
			IdleTimeoutSecond: viper.GetInt("pool-idle-timeout"),
		},
	}

	return conf
}

// GetTransport creates the client transport based on configuration
func GetTransport(config common.ClientConfig) (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientTransport(config), nil
	case "unix":
		return unix.NewUnixClientTransport(config), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerTransport creates the server transport based on configuration
func GetServerTransport() (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix":
		return unix.NewUnixServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// InitLogging applies the configured log level to all loggers
func InitLogging() error {
	return common.InitLoggers(viper.GetString("log-level"))
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// CommandContext returns the context of a command bounded by the request timeout.
// The timeout covers all retries, so it is a multiple of the I/O timeout.
func CommandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	retries := max(viper.GetInt("transport-retries"), 1)
	timeout := time.Duration(viper.GetInt("timeout")*retries*2) * time.Second
	if timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), timeout)
}
