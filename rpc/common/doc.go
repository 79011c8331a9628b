// Package common provides core data structures and utilities shared across
// the rKV client, its transports and the development node.
//
// The package focuses on:
//   - The wire message unit and the fixed message code table
//   - The error taxonomy shared by all client components
//   - Configuration structures for client and development node
//   - Custom logging implementation on top of Dragonboat's logger package
//
// Key Components:
//
//   - WireMessage: A message code and an opaque payload, the unit every
//     connection sends and receives.
//
//   - MessageCode: The fixed enumeration of request and response codes. Every
//     request code maps to exactly one expected response code (see ResponseCode),
//     an error response (MsgErrorResp) is valid as the answer to any request.
//
//   - Error / ErrorKind: Typed failures (InvalidArgument, MalformedRequest,
//     FramingError, ProtocolMismatch, DecodeError, PoolTimeout, PoolExhausted,
//     PoolClosed, IOFault). Sentinels such as ErrPoolTimeout match by kind with
//     errors.Is. IsRetryable reports whether a failure may be resubmitted.
//
//   - ServerError: A decoded error response of the server.
//
//   - ClientConfig: Endpoints, pool capacities, acquire and I/O timeouts.
//
//   - Logger: Custom logging implementation that integrates with Dragonboat's
//     logging system while providing consistent formatting across the application.
package common
