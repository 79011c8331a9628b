package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Quorum is a replica count used by read and write options. Besides plain
// numbers the symbolic values below are understood by the server.
type Quorum uint32

const (
	QuorumOne      Quorum = 4294967294 // a single replica
	QuorumMajority Quorum = 4294967293 // a majority of the replicas (n_val/2 + 1)
	QuorumAll      Quorum = 4294967292 // all replicas
	QuorumDefault  Quorum = 4294967291 // the bucket default
)

// IsSymbolic reports whether q is one of the symbolic values
func (q Quorum) IsSymbolic() bool {
	return q >= QuorumDefault
}

// Resolve returns the number of replicas q stands for, given the bucket's n_val
func (q Quorum) Resolve(nVal uint32) uint32 {
	switch q {
	case QuorumOne:
		return 1
	case QuorumMajority, QuorumDefault:
		return nVal/2 + 1
	case QuorumAll:
		return nVal
	default:
		return uint32(q)
	}
}

// String returns "one", "quorum", "all", "default" or the number
func (q Quorum) String() string {
	switch q {
	case QuorumOne:
		return "one"
	case QuorumMajority:
		return "quorum"
	case QuorumAll:
		return "all"
	case QuorumDefault:
		return "default"
	default:
		return strconv.FormatUint(uint64(q), 10)
	}
}

// ParseQuorum parses the output of Quorum.String
func ParseQuorum(s string) (Quorum, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one":
		return QuorumOne, nil
	case "quorum":
		return QuorumMajority, nil
	case "all":
		return QuorumAll, nil
	case "default":
		return QuorumDefault, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid quorum %q: %w", s, err)
	}
	if Quorum(n).IsSymbolic() {
		return 0, fmt.Errorf("invalid quorum %q: out of range", s)
	}
	return Quorum(n), nil
}
