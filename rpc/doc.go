// Package rpc provides the client execution core for clusters speaking a
// length prefixed binary protocol with protobuf encoded payloads. It turns
// requests into wire messages, sends them over pooled connections and
// converts the responses into results.
//
// The package is organized into several subpackages:
//
//   - common: The fixed message code table, wire messages, error kinds,
//     configuration structures and logging.
//
//   - pb: Protocol buffer encoding of the request and response payloads.
//
//   - query: Domain types (namespaces, objects, bucket properties, quorums,
//     search results) and their conversion to and from the wire representation.
//
//   - transport: Framed connections with pluggable implementations (TCP, Unix sockets).
//
//   - operation: One operation per request type, each resolving a future with its result.
//
//   - pool: Two level admission control and per node connection pools.
//
//   - cluster: Operation execution on a set of nodes with retries.
//
//   - client: A blocking facade over the cluster.
//
//   - server: An in-memory development node for tests and local use.
package rpc
