// Package tcp implements the TCP socket transport. It provides the TCP specific
// connectors for the base package and applies the SocketConf and TCPConf options
// (no delay, keep alive, linger, buffer sizes) to every connection.
package tcp
