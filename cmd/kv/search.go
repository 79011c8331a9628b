package kv

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/operation"
	"github.com/ValentinKolb/rKV/rpc/query"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	queryCmd = &cobra.Command{
		Use:   "query [index] [query]",
		Short: "Runs a search query (e.g. name:alice or *:*)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := operation.SearchOptions{
				Rows:         viper.GetUint32("rows"),
				Start:        viper.GetUint32("start"),
				Sort:         viper.GetString("sort"),
				Filter:       viper.GetString("filter"),
				DefaultField: viper.GetString("df"),
				ReturnFields: viper.GetStringSlice("fl"),
			}

			ctx, cancel := util.CommandContext(cmd)
			defer cancel()
			result, err := rpcClient.Search(ctx, args[0], args[1], opts)
			if err != nil {
				return err
			}

			fmt.Printf("found=%d, max-score=%.2f\n", result.NumFound, result.MaxScore)
			for _, doc := range result.Documents {
				fields := make([]string, 0, len(doc))
				for name, values := range doc {
					fields = append(fields, fmt.Sprintf("%s=%s", name, strings.Join(values, "|")))
				}
				sort.Strings(fields)
				fmt.Println(strings.Join(fields, ", "))
			}
			return nil
		},
	}
	indexPutCmd = &cobra.Command{
		Use:   "index-put [name]",
		Short: "Creates or replaces a search index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := query.YokozunaIndex{
				Name:   args[0],
				Schema: viper.GetString("schema"),
				NVal:   viper.GetUint32("n-val"),
			}

			ctx, cancel := util.CommandContext(cmd)
			defer cancel()
			if err := rpcClient.StoreIndex(ctx, index, 0); err != nil {
				return err
			}
			fmt.Println("index stored successfully")
			return nil
		},
	}
	indexGetCmd = &cobra.Command{
		Use:   "index-get [name]",
		Short: "Prints a search index, or all indexes if no name is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			ctx, cancel := util.CommandContext(cmd)
			defer cancel()
			indexes, err := rpcClient.FetchIndex(ctx, name)
			if err != nil {
				return err
			}
			for _, index := range indexes {
				fmt.Printf("name=%s, schema=%s, n-val=%d\n", index.Name, index.Schema, index.NVal)
			}
			return nil
		},
	}
	indexDelCmd = &cobra.Command{
		Use:   "index-del [name]",
		Short: "Deletes a search index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := util.CommandContext(cmd)
			defer cancel()
			if err := rpcClient.DeleteIndex(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("index deleted successfully")
			return nil
		},
	}
)

func init() {
	queryCmd.Flags().Uint32("rows", 10, util.WrapString("Maximum number of documents to return"))
	queryCmd.Flags().Uint32("start", 0, util.WrapString("Offset of the first document"))
	queryCmd.Flags().String("sort", "", util.WrapString("Sort order (e.g. 'name asc')"))
	queryCmd.Flags().String("filter", "", util.WrapString("Filter query applied in addition to the query"))
	queryCmd.Flags().String("df", "", util.WrapString("Default field for query terms without a field"))
	queryCmd.Flags().StringSlice("fl", nil, util.WrapString("Fields to return (all if empty)"))

	indexPutCmd.Flags().String("schema", "", util.WrapString("Schema of the index (server default if empty)"))
	indexPutCmd.Flags().Uint32("n-val", 0, util.WrapString("Number of replicas (server default if 0)"))
}
