// Package transport defines the interfaces of the framed RPC transport used to
// talk to the nodes of the key-value store.
//
// The package focuses on:
//   - A connection abstraction that carries exactly one exchange at a time
//   - Keeping the connection pool independent of the socket type
//   - Multiple transport implementations (TCP, Unix sockets)
//
// Key Components:
//
//   - IConnection: A persistent connection that sends and receives whole frames.
//
//   - IRPCClientTransport: Dials new connections, used by the connection pool.
//
//   - IRPCServerTransport: Server side used by the development node, which accepts
//     connections and passes every request frame to a ServerHandleFunc.
package transport
