// Package cmd implements the command-line interface of rKV. It provides a
// hierarchical command structure with operations for running a development
// node and interacting with a cluster as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Client commands for objects (kv), bucket properties (bucket) and search (search)
//   - serve: Command for starting the in-memory development node
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set via environment variables with the RKV_ prefix
// (e.g. RKV_TRANSPORT_ENDPOINTS=node1:8087,node2:8087). .env and .env.local
// files in the working directory are loaded as well.
//
// See rkv -help for a list of all commands.
package cmd
