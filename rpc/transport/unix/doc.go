// Package unix implements a transport using Unix domain sockets, for clients and
// nodes running on the same machine. Existing socket files are removed before
// the server starts listening.
package unix
