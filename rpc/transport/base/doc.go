// Package base implements the framing and the connection handling shared by all
// socket based transports. Protocol specific details (how to dial, how to
// listen, socket options) are provided by connectors.
//
// Wire Format:
//
//	+----------------------+-----------+-------------------+
//	| length (uint32, BE)  | code (u8) | payload (length-1) |
//	+----------------------+-----------+-------------------+
//
// The length covers the code byte and the payload. A frame with length zero, a
// frame larger than the configured maximum, or a stream that ends inside a frame
// is a framing error and the connection must be discarded.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     that allow extending the base transport with different network protocols.
//
//   - clientTransport: Dials connections through the connector. Every returned
//     connection applies the configured I/O timeout as deadline to each send and
//     receive and maps failures to typed errors (IOFault, FramingError).
//
//   - serverTransport: Accepts connections and serves each one with a single
//     goroutine, handling its requests strictly in order.
//
// Frames are written with net.Buffers, combining header and payload into a single
// write operation.
package base
