package serve

import (
	"strings"

	cmdUtil "github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start an in-memory development node",
		Long:    `Start an in-memory development node speaking the rKV wire protocol. Nothing is persisted. The configuration can be set via command line flags or environment variables. The format of the environment variables is RKV_<flag> (e.g. RKV_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "node-name"
	ServeCmd.PersistentFlags().String(key, "rkv@127.0.0.1", cmdUtil.WrapString("The node name reported by the server info request"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 60, cmdUtil.WrapString("Read and write timeout per frame in seconds, an idle connection is closed after this time (0 disables the timeout)"))

	key = "list-keys-batch"
	ServeCmd.PersistentFlags().Int(key, server.DefaultListKeysBatch, cmdUtil.WrapString("Number of keys per streamed list keys response"))

	key = "max-frame"
	ServeCmd.PersistentFlags().Int(key, 64*1024, cmdUtil.WrapString("The largest accepted frame (in KB)"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8087", cmdUtil.WrapString("The address on which the node will listen (e.g. localhost:8087 for tcp, /tmp/rkv.sock for unix)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address of the http endpoint serving /metrics (disabled if empty)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval (in seconds, only for tcp)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.NodeName = viper.GetString("node-name")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.ListKeysBatch = viper.GetInt("list-keys-batch")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Transport = common.ServerTransportConfig{
		Endpoint:     viper.GetString("endpoint"),
		MaxFrameSize: viper.GetInt("max-frame") * 1024,
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
			TCPLingerSec:    -1,
		},
	}

	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// run starts the development node
func run(_ *cobra.Command, _ []string) error {
	// Parse the transport
	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	return server.NewDevNode(*serveCmdConfig, t).Serve()
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(cmdUtil.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
