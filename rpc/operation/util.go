package operation

import (
	"strings"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/pb"
	"github.com/ValentinKolb/rKV/rpc/query"
)

// --------------------------------------------------------------------------
// Validation
// --------------------------------------------------------------------------

func validateNamespace(ns query.Namespace) error {
	if ns.Bucket == "" {
		return common.NewError(common.KindInvalidArgument, "bucket name cannot be empty")
	}
	if strings.TrimSpace(ns.BucketType) != ns.BucketType {
		return common.NewError(common.KindInvalidArgument, "bucket type %q has surrounding whitespace", ns.BucketType)
	}
	return nil
}

func validateLocation(loc query.Location) error {
	if err := validateNamespace(loc.Namespace); err != nil {
		return err
	}
	if loc.Key == "" {
		return common.NewError(common.KindInvalidArgument, "key cannot be empty")
	}
	return nil
}

// --------------------------------------------------------------------------
// Field Helpers
// --------------------------------------------------------------------------

// bucketType returns the bucket type field, nil for the default type
func bucketType(ns query.Namespace) []byte {
	if ns.BucketType == "" {
		return nil
	}
	return []byte(ns.BucketType)
}

// quorum converts an optional quorum
func quorum(q *query.Quorum) *uint32 {
	if q == nil {
		return nil
	}
	return pb.Uint32(uint32(*q))
}

// timeoutMs converts an optional server side timeout (0 means unset)
func timeoutMs(d time.Duration) *uint32 {
	if d <= 0 {
		return nil
	}
	return pb.Uint32(uint32(d / time.Millisecond))
}

// flag converts an optional boolean that is only sent if true
func flag(v bool) *bool {
	if !v {
		return nil
	}
	return pb.Bool(true)
}

// optBytes returns nil for an empty string
func optBytes(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}

// objectsFromContent converts siblings and removes the zstd content encoding
func objectsFromContent(contents []pb.Content) ([]*query.RiakObject, error) {
	objects := make([]*query.RiakObject, 0, len(contents))
	for i := range contents {
		obj := query.RiakObjectFromPB(&contents[i])
		if err := obj.Decompress(); err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}
