// Package server implements an in-memory development node for the rKV wire
// protocol. It is used by the integration tests and by the serve command, it
// does not persist or replicate anything.
//
// The package focuses on:
//   - Answering every request the client core can send with the expected response code
//   - Reporting request level failures as error responses on a healthy connection
//   - Streaming list keys responses in batches
//
// Key Components:
//
//   - IRPCServerAdapter: Interface for a group of request codes. The node routes every
//     request to the adapter registered for its code, unknown codes are answered with
//     an error response.
//
//   - NewKVServerAdapter, NewBucketServerAdapter, NewSearchServerAdapter: Adapters for
//     object, bucket property and search requests.
//
//   - Store: The in-memory data (objects with vclocks, bucket properties and search
//     indexes), built on xsync maps. Writes support the if_none_match and
//     if_not_modified preconditions, a write without key gets a generated key.
//
//   - DevNode: Binds the adapters to a server transport and optionally serves the
//     VictoriaMetrics metrics on an http endpoint.
//
// Usage Example:
//
//	config := common.ServerConfig{
//		NodeName:      "dev@127.0.0.1",
//		TimeoutSecond: 30,
//		ListKeysBatch: 100,
//		Transport:     common.ServerTransportConfig{Endpoint: "127.0.0.1:8087"},
//	}
//
//	node := server.NewDevNode(config, tcp.NewTCPServerTransport())
//	if err := node.Serve(); err != nil {
//		panic(err)
//	}
//
// Search:
//
//	Documents are the JSON objects stored in buckets whose search_index property names
//	the queried index. Queries have the form "field:value", a trailing * matches any
//	suffix and "*:*" matches all documents. Every document carries the _yz_rt, _yz_rb,
//	_yz_rk and _yz_id fields.
package server
