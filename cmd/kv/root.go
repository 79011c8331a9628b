package kv

import (
	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcClient *client.Client

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value operations",
		PersistentPreRunE:  setupClient,
		PersistentPostRunE: closeClient,
	}

	// BucketCommands represents the bucket properties command group
	BucketCommands = &cobra.Command{
		Use:                "bucket",
		Short:              "Read and modify bucket properties",
		PersistentPreRunE:  setupClient,
		PersistentPostRunE: closeClient,
	}

	// SearchCommands represents the search command group
	SearchCommands = &cobra.Command{
		Use:                "search",
		Short:              "Query search indexes and manage them",
		PersistentPreRunE:  setupClient,
		PersistentPostRunE: closeClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	for _, group := range []*cobra.Command{KeyValueCommands, BucketCommands, SearchCommands} {
		// Add common RPC flags
		util.SetupRPCClientFlags(group)
		group.PersistentFlags().String("type", "", util.WrapString("The bucket type (empty for the default type)"))
	}

	// Add subcommands
	KeyValueCommands.AddCommand(pingCmd)
	KeyValueCommands.AddCommand(infoCmd)
	KeyValueCommands.AddCommand(putCmd)
	KeyValueCommands.AddCommand(postCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(keysCmd)
	KeyValueCommands.AddCommand(perfTestCmd)

	BucketCommands.AddCommand(bucketGetCmd)
	BucketCommands.AddCommand(bucketSetCmd)
	BucketCommands.AddCommand(bucketResetCmd)

	SearchCommands.AddCommand(queryCmd)
	SearchCommands.AddCommand(indexPutCmd)
	SearchCommands.AddCommand(indexGetCmd)
	SearchCommands.AddCommand(indexDelCmd)
}

// setupClient initializes the client
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := util.InitLogging(); err != nil {
		return err
	}

	// Get client configuration and transport
	config := util.GetClientConfig()
	t, err := util.GetTransport(*config)
	if err != nil {
		return err
	}

	// Create the client
	rpcClient, err = client.NewClient(*config, t)
	return err
}

// closeClient waits for running operations and closes all connections
func closeClient(_ *cobra.Command, _ []string) error {
	if rpcClient == nil {
		return nil
	}
	return rpcClient.Close()
}
