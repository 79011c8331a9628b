package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/operation"
	"github.com/ValentinKolb/rKV/rpc/query"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for rKV nodes",
		Long:    "",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfBucket           = "__perf"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)

	// perfLatencies holds one timer per test
	perfLatencies = gometrics.NewRegistry()
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. store,fetch)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the store-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// perfTest is one benchmark. If prepare is set the keys are stored before the
// timed section.
type perfTest struct {
	name    string
	prepare bool
	op      func(ctx context.Context, key string) error
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	fmt.Println("Performance testing tool for rKV nodes")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	value := []byte("test")
	largeValue := make([]byte, perfLargeValueSizeKB*1024)
	ns := query.NewNamespace(perfBucket)

	tests := []perfTest{
		{name: "store", op: func(ctx context.Context, key string) error {
			_, err := rpcClient.Store(ctx, ns.Location(key), query.NewRiakObject(value, "text/plain"), operation.StoreOptions{})
			return err
		}},
		{name: "store-large", op: func(ctx context.Context, key string) error {
			_, err := rpcClient.Store(ctx, ns.Location(key), query.NewRiakObject(largeValue, "application/octet-stream"), operation.StoreOptions{})
			return err
		}},
		{name: "fetch", prepare: true, op: func(ctx context.Context, key string) error {
			_, err := rpcClient.Fetch(ctx, ns.Location(key), operation.FetchOptions{})
			return err
		}},
		{name: "fetch-missing", op: func(ctx context.Context, key string) error {
			_, err := rpcClient.Fetch(ctx, ns.Location(key+"-missing"), operation.FetchOptions{})
			return err
		}},
		{name: "delete", prepare: true, op: func(ctx context.Context, key string) error {
			return rpcClient.Delete(ctx, ns.Location(key), operation.DeleteOptions{})
		}},
		{name: "ping", op: func(ctx context.Context, _ string) error {
			return rpcClient.Ping(ctx)
		}},
	}

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	for _, test := range tests {
		timer := gometrics.GetOrRegisterTimer(test.name, perfLatencies)
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(test.name) {
				return
			}

			// prepare keys
			getKey, iter := getKeys(test.name)

			// set keys
			if test.prepare {
				iter(func(k string) {
					if _, err := rpcClient.Store(ctx, ns.Location(k), query.NewRiakObject(value, "text/plain"), operation.StoreOptions{}); err != nil {
						log.Printf("(%s) - error storing key: %v\n", test.name, err)
					}
				})
			}

			// cleanup
			b.Cleanup(func() {
				iter(func(k string) {
					if err := rpcClient.Delete(ctx, ns.Location(k), operation.DeleteOptions{}); err != nil {
						log.Printf("(%s) - error deleting key: %v\n", test.name, err)
					}
				})
			})

			b.SetParallelism(perfNumThreads)

			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				counter := 0
				for pb.Next() {
					start := time.Now()
					if err := test.op(ctx, getKey(counter)); err != nil {
						log.Printf("(%s) - error: %v\n", test.name, err)
					}
					timer.UpdateSince(start)
					counter++
				}
			})
		})

		results[test.name] = result
		printResult(test.name, result, timer)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%d", prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult, timer gometrics.Timer) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Latency percentiles over all runs of the benchmark
	ps := timer.Percentiles([]float64{0.5, 0.99})

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p99=%s\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, time.Duration(ps[0]), time.Duration(ps[1]))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50Ns", "P99Ns", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "PoolCapacity", "ClusterCapacity",
		"Transport", "Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		ps := gometrics.GetOrRegisterTimer(test, perfLatencies).Percentiles([]float64{0.5, 0.99})

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			skipped,
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Pool.Capacity),
			strconv.Itoa(config.Pool.ClusterCapacity),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
