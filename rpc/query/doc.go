// Package query contains the domain types exchanged with the key-value store:
// objects and their locations, sparse bucket properties, quorum values, server
// side function references, search results and search indexes.
//
// All types convert to and from the wire schemas of the pb package. Bucket
// properties keep track of which fields are set, so only those are sent and a
// fetched property set reports exactly what the server returned.
//
// Values can be transparently compressed with zstd (content encoding "zstd").
package query
