package kv

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/operation"
	"github.com/ValentinKolb/rKV/rpc/query"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Checks that a node answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := util.CommandContext(cmd)
			defer cancel()
			if err := rpcClient.Ping(ctx); err != nil {
				return err
			}
			fmt.Println("pong")
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints the name and version of a node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := util.CommandContext(cmd)
			defer cancel()
			info, err := rpcClient.ServerInfo(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("node=%s, version=%s\n", info.Node, info.ServerVersion)
			return nil
		},
	}
	putCmd = &cobra.Command{
		Use:   "put [bucket] [key] [value]",
		Short: "Stores a value under a key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return store(cmd, namespace(args[0]).Location(args[1]), args[2])
		},
	}
	postCmd = &cobra.Command{
		Use:   "post [bucket] [value]",
		Short: "Stores a value under a key generated by the server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return store(cmd, namespace(args[0]).Location(""), args[1])
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [bucket] [key]",
		Short: "Reads the value of a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := operation.FetchOptions{Head: viper.GetBool("head")}
			var err error
			if opts.R, err = quorumFlag("r"); err != nil {
				return err
			}
			if opts.PR, err = quorumFlag("pr"); err != nil {
				return err
			}

			ctx, cancel := util.CommandContext(cmd)
			defer cancel()
			result, err := rpcClient.Fetch(ctx, namespace(args[0]).Location(args[1]), opts)
			if err != nil {
				return err
			}
			if result.NotFound {
				fmt.Printf("key=%s, found=false\n", result.Location)
				return nil
			}
			for i, obj := range result.Objects {
				fmt.Printf("key=%s, found=true, sibling=%d, content-type=%s, vclock=%x, value=%s\n",
					result.Location, i, obj.ContentType, result.VClock, obj.Value)
			}
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [bucket] [key]",
		Short: "Deletes a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := util.CommandContext(cmd)
			defer cancel()
			if err := rpcClient.Delete(ctx, namespace(args[0]).Location(args[1]), operation.DeleteOptions{}); err != nil {
				return err
			}
			fmt.Println("deleted successfully")
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys [bucket]",
		Short: "Lists all keys of a bucket (expensive on large buckets)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := util.CommandContext(cmd)
			defer cancel()
			keys, err := rpcClient.ListKeys(ctx, namespace(args[0]), 0)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Println(key)
			}
			return nil
		},
	}
)

func init() {
	for _, cmd := range []*cobra.Command{putCmd, postCmd} {
		cmd.Flags().String("content-type", "text/plain", util.WrapString("The content type of the value"))
		cmd.Flags().Bool("compress", false, util.WrapString("Compress the value with zstd before storing it"))
		cmd.Flags().Bool("if-none-match", false, util.WrapString("Only store the value if the key does not exist"))
		cmd.Flags().String("w", "", util.WrapString("Write quorum (one, quorum, all, default or a number)"))
		cmd.Flags().String("dw", "", util.WrapString("Durable write quorum (one, quorum, all, default or a number)"))
		cmd.Flags().StringSlice("meta", nil, util.WrapString("User metadata as key=value pairs"))
		cmd.Flags().StringSlice("index", nil, util.WrapString("Secondary indexes as name=value pairs (names end in _bin or _int)"))
	}
	getCmd.Flags().Bool("head", false, util.WrapString("Only fetch the metadata of the object"))
	getCmd.Flags().String("r", "", util.WrapString("Read quorum (one, quorum, all, default or a number)"))
	getCmd.Flags().String("pr", "", util.WrapString("Primary read quorum (one, quorum, all, default or a number)"))
}

// store implements the put and post commands
func store(cmd *cobra.Command, loc query.Location, value string) error {
	obj := query.NewRiakObject([]byte(value), viper.GetString("content-type"))
	for _, pair := range viper.GetStringSlice("meta") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid metadata %q (expected key=value)", pair)
		}
		obj.WithUserMeta(k, v)
	}
	for _, pair := range viper.GetStringSlice("index") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid index %q (expected name=value)", pair)
		}
		obj.WithIndex(k, v)
	}
	if viper.GetBool("compress") {
		obj.Compress()
	}

	opts := operation.StoreOptions{IfNoneMatch: viper.GetBool("if-none-match")}
	var err error
	if opts.W, err = quorumFlag("w"); err != nil {
		return err
	}
	if opts.DW, err = quorumFlag("dw"); err != nil {
		return err
	}

	ctx, cancel := util.CommandContext(cmd)
	defer cancel()
	result, err := rpcClient.Store(ctx, loc, obj, opts)
	if err != nil {
		return err
	}
	fmt.Printf("stored successfully, key=%s\n", result.Location)
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// namespace returns the namespace of bucket using the --type flag
func namespace(bucket string) query.Namespace {
	return query.NewNamespace(bucket).WithType(viper.GetString("type"))
}

// quorumFlag parses an optional quorum flag, nil if it is not set
func quorumFlag(key string) (*query.Quorum, error) {
	s := viper.GetString(key)
	if s == "" {
		return nil, nil
	}
	q, err := query.ParseQuorum(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &q, nil
}
