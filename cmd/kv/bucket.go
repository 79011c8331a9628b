package kv

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/query"
	"github.com/spf13/cobra"
)

var (
	bucketGetCmd = &cobra.Command{
		Use:   "get [bucket]",
		Short: "Prints the properties of a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := util.CommandContext(cmd)
			defer cancel()
			props, err := rpcClient.FetchBucketProps(ctx, namespace(args[0]))
			if err != nil {
				return err
			}
			fmt.Print(props.String())
			return nil
		},
	}
	bucketSetCmd = &cobra.Command{
		Use:   "set [bucket]",
		Short: "Sets bucket properties, properties without a flag keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := propsFromFlags(cmd)
			if err != nil {
				return err
			}
			if props.IsEmpty() {
				return fmt.Errorf("no properties given")
			}

			ctx, cancel := util.CommandContext(cmd)
			defer cancel()
			if err := rpcClient.StoreBucketProps(ctx, namespace(args[0]), props); err != nil {
				return err
			}
			fmt.Println("properties set successfully")
			return nil
		},
	}
	bucketResetCmd = &cobra.Command{
		Use:   "reset [bucket]",
		Short: "Restores the default properties of a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := util.CommandContext(cmd)
			defer cancel()
			if err := rpcClient.ResetBucketProps(ctx, namespace(args[0])); err != nil {
				return err
			}
			fmt.Println("properties reset successfully")
			return nil
		},
	}
)

func init() {
	flags := bucketSetCmd.Flags()
	flags.Uint32("n-val", 0, util.WrapString("Number of replicas"))
	flags.Bool("allow-mult", false, util.WrapString("Keep concurrent writes as siblings"))
	flags.Bool("last-write-wins", false, util.WrapString("Ignore vclocks on write"))
	flags.StringSlice("precommit", nil, util.WrapString("Precommit hooks (name or module:function), an empty value removes all hooks"))
	flags.StringSlice("postcommit", nil, util.WrapString("Postcommit hooks (name or module:function), an empty value removes all hooks"))
	flags.String("backend", "", util.WrapString("Storage backend of the bucket"))
	flags.String("search-index", "", util.WrapString("Search index the objects of the bucket are indexed in"))
	for _, q := range []string{"r", "w", "pr", "pw", "dw", "rw"} {
		flags.String(q, "", util.WrapString(fmt.Sprintf("Default %s quorum (one, quorum, all, default or a number)", strings.ToUpper(q))))
	}
}

// propsFromFlags builds a sparse property set from the flags that were set
func propsFromFlags(cmd *cobra.Command) (*query.BucketProperties, error) {
	flags := cmd.Flags()
	props := query.NewBucketProperties()

	if flags.Changed("n-val") {
		v, _ := flags.GetUint32("n-val")
		props.WithNVal(v)
	}
	if flags.Changed("allow-mult") {
		v, _ := flags.GetBool("allow-mult")
		props.WithAllowMulti(v)
	}
	if flags.Changed("last-write-wins") {
		v, _ := flags.GetBool("last-write-wins")
		props.WithLastWriteWins(v)
	}
	if flags.Changed("backend") {
		v, _ := flags.GetString("backend")
		props.WithBackend(v)
	}
	if flags.Changed("search-index") {
		v, _ := flags.GetString("search-index")
		props.WithSearchIndex(v)
	}

	if flags.Changed("precommit") {
		values, _ := flags.GetStringSlice("precommit")
		props.Precommit = parseHooks(values)
	}
	if flags.Changed("postcommit") {
		values, _ := flags.GetStringSlice("postcommit")
		props.Postcommit = parseHooks(values)
	}

	for _, q := range []struct {
		flag string
		set  func(query.Quorum) *query.BucketProperties
	}{
		{"r", props.WithR},
		{"w", props.WithW},
		{"pr", props.WithPR},
		{"pw", props.WithPW},
		{"dw", props.WithDW},
		{"rw", props.WithRW},
	} {
		quorum, err := quorumFlag(q.flag)
		if err != nil {
			return nil, err
		}
		if quorum != nil {
			q.set(*quorum)
		}
	}

	return props, props.Validate()
}

// parseHooks parses a hook list, the result is never nil so an empty list
// removes all hooks
func parseHooks(values []string) []query.Function {
	hooks := []query.Function{}
	for _, v := range values {
		if v != "" {
			hooks = append(hooks, parseFunction(v))
		}
	}
	return hooks
}

// parseFunction parses "module:function" or a function name
func parseFunction(s string) query.Function {
	if module, function, ok := strings.Cut(s, ":"); ok {
		return query.NewModFun(module, function)
	}
	return query.NewNamedFunction(s)
}
