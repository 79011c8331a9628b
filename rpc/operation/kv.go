package operation

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/pb"
	"github.com/ValentinKolb/rKV/rpc/query"
)

// --------------------------------------------------------------------------
// Fetch
// --------------------------------------------------------------------------

// FetchOptions are the optional parameters of a fetch
type FetchOptions struct {
	R           *query.Quorum
	PR          *query.Quorum
	BasicQuorum *bool
	NotFoundOk  *bool
	// Head returns the metadata only, values are empty
	Head bool
	// IfModified makes the fetch conditional on the given vclock
	IfModified []byte
	// DeletedVClock returns the vclock of tombstones
	DeletedVClock bool
	Timeout       time.Duration
}

// Fetch reads the object stored at a location
type Fetch struct {
	*FutureOperation[*pb.GetResp, *query.FetchResult]
	Location query.Location
}

// NewFetch creates a new fetch operation
func NewFetch(loc query.Location, opts FetchOptions) (*Fetch, error) {
	if err := validateLocation(loc); err != nil {
		return nil, err
	}

	req := &pb.GetReq{
		Bucket:        []byte(loc.Bucket),
		Key:           []byte(loc.Key),
		R:             quorum(opts.R),
		PR:            quorum(opts.PR),
		BasicQuorum:   opts.BasicQuorum,
		NotfoundOk:    opts.NotFoundOk,
		Head:          flag(opts.Head),
		IfModified:    opts.IfModified,
		DeletedVclock: flag(opts.DeletedVClock),
		Timeout:       timeoutMs(opts.Timeout),
		Type:          bucketType(loc.Namespace),
	}

	return &Fetch{
		FutureOperation: newFutureOperation("fetch", common.MsgGetReq,
			func() ([]byte, error) { return req.Marshal(), nil },
			decodePB[pb.GetResp],
			func(resp []*pb.GetResp) (*query.FetchResult, error) {
				r, err := single(resp)
				if err != nil {
					return nil, err
				}
				objects, err := objectsFromContent(r.Content)
				if err != nil {
					return nil, err
				}
				unchanged := r.Unchanged != nil && *r.Unchanged
				return &query.FetchResult{
					Location:  loc,
					Objects:   objects,
					VClock:    r.Vclock,
					NotFound:  len(objects) == 0 && !unchanged,
					Unchanged: unchanged,
				}, nil
			},
		),
		Location: loc,
	}, nil
}

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// StoreOptions are the optional parameters of a store
type StoreOptions struct {
	W  *query.Quorum
	DW *query.Quorum
	PW *query.Quorum
	// VClock of the object that is replaced, nil for a blind write
	VClock     []byte
	ReturnBody bool
	ReturnHead bool
	// IfNoneMatch fails the store if the key exists
	IfNoneMatch bool
	// IfNotModified fails the store if the vclock does not match
	IfNotModified bool
	Timeout       time.Duration
}

// Store writes an object. If the location has no key, the server generates one.
type Store struct {
	*FutureOperation[*pb.PutResp, *query.StoreResult]
	Location query.Location
}

// NewStore creates a new store operation. The object must not be modified
// until the operation is complete.
func NewStore(loc query.Location, obj *query.RiakObject, opts StoreOptions) (*Store, error) {
	if err := validateNamespace(loc.Namespace); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, common.NewError(common.KindInvalidArgument, "object cannot be nil")
	}
	if opts.IfNotModified && opts.VClock == nil {
		return nil, common.NewError(common.KindInvalidArgument, "if not modified requires a vclock")
	}

	encode := func() ([]byte, error) {
		req := &pb.PutReq{
			Bucket:        []byte(loc.Bucket),
			Key:           optBytes(loc.Key),
			Vclock:        opts.VClock,
			Content:       obj.ToPB(),
			W:             quorum(opts.W),
			DW:            quorum(opts.DW),
			PW:            quorum(opts.PW),
			ReturnBody:    flag(opts.ReturnBody),
			ReturnHead:    flag(opts.ReturnHead),
			IfNoneMatch:   flag(opts.IfNoneMatch),
			IfNotModified: flag(opts.IfNotModified),
			Timeout:       timeoutMs(opts.Timeout),
			Type:          bucketType(loc.Namespace),
		}
		return req.Marshal(), nil
	}

	return &Store{
		FutureOperation: newFutureOperation("store", common.MsgPutReq,
			encode,
			decodePB[pb.PutResp],
			func(resp []*pb.PutResp) (*query.StoreResult, error) {
				r, err := single(resp)
				if err != nil {
					return nil, err
				}
				objects, err := objectsFromContent(r.Content)
				if err != nil {
					return nil, err
				}
				result := &query.StoreResult{
					Location: loc,
					Objects:  objects,
					VClock:   r.Vclock,
				}
				if r.Key != nil {
					result.GeneratedKey = string(r.Key)
					result.Location.Key = result.GeneratedKey
				}
				return result, nil
			},
		),
		Location: loc,
	}, nil
}

// --------------------------------------------------------------------------
// Delete
// --------------------------------------------------------------------------

// DeleteOptions are the optional parameters of a delete
type DeleteOptions struct {
	RW      *query.Quorum
	R       *query.Quorum
	W       *query.Quorum
	PR      *query.Quorum
	PW      *query.Quorum
	DW      *query.Quorum
	VClock  []byte
	Timeout time.Duration
}

// Delete removes the object stored at a location
type Delete struct {
	*FutureOperation[struct{}, struct{}]
	Location query.Location
}

// NewDelete creates a new delete operation
func NewDelete(loc query.Location, opts DeleteOptions) (*Delete, error) {
	if err := validateLocation(loc); err != nil {
		return nil, err
	}

	req := &pb.DelReq{
		Bucket:  []byte(loc.Bucket),
		Key:     []byte(loc.Key),
		RW:      quorum(opts.RW),
		Vclock:  opts.VClock,
		R:       quorum(opts.R),
		W:       quorum(opts.W),
		PR:      quorum(opts.PR),
		PW:      quorum(opts.PW),
		DW:      quorum(opts.DW),
		Timeout: timeoutMs(opts.Timeout),
		Type:    bucketType(loc.Namespace),
	}

	return &Delete{
		FutureOperation: newFutureOperation("delete", common.MsgDelReq,
			func() ([]byte, error) { return req.Marshal(), nil },
			decodeEmpty,
			convertUnit,
		),
		Location: loc,
	}, nil
}

// --------------------------------------------------------------------------
// List Keys
// --------------------------------------------------------------------------

// ListKeys streams all keys of a bucket. The server sends the keys in any
// number of messages, the last one carries the done flag.
type ListKeys struct {
	*FutureOperation[*pb.ListKeysResp, []string]
	Namespace query.Namespace
}

// NewListKeys creates a new list keys operation
func NewListKeys(ns query.Namespace, timeout time.Duration) (*ListKeys, error) {
	if err := validateNamespace(ns); err != nil {
		return nil, err
	}

	req := &pb.ListKeysReq{
		Bucket:  []byte(ns.Bucket),
		Timeout: timeoutMs(timeout),
		Type:    bucketType(ns),
	}

	op := newFutureOperation("list_keys", common.MsgListKeysReq,
		func() ([]byte, error) { return req.Marshal(), nil },
		decodePB[pb.ListKeysResp],
		func(resp []*pb.ListKeysResp) ([]string, error) {
			if len(resp) == 0 {
				return nil, fmt.Errorf("no response received")
			}
			keys := make([]string, 0)
			for _, r := range resp {
				for _, k := range r.Keys {
					keys = append(keys, string(k))
				}
			}
			return keys, nil
		},
	).streaming(func(resp *pb.ListKeysResp) bool {
		return resp.Done != nil && *resp.Done
	})

	return &ListKeys{FutureOperation: op, Namespace: ns}, nil
}
