package operation

import (
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/pb"
	"github.com/ValentinKolb/rKV/rpc/query"
)

// --------------------------------------------------------------------------
// Fetch Bucket Properties
// --------------------------------------------------------------------------

// FetchBucketProps reads the properties of a bucket
type FetchBucketProps struct {
	*FutureOperation[*pb.GetBucketResp, *query.BucketProperties]
	Namespace query.Namespace
}

// NewFetchBucketProps creates a new fetch bucket properties operation
func NewFetchBucketProps(ns query.Namespace) (*FetchBucketProps, error) {
	if err := validateNamespace(ns); err != nil {
		return nil, err
	}

	req := &pb.GetBucketReq{Bucket: []byte(ns.Bucket), Type: bucketType(ns)}

	return &FetchBucketProps{
		FutureOperation: newFutureOperation("fetch_bucket_props", common.MsgGetBucketReq,
			func() ([]byte, error) { return req.Marshal(), nil },
			decodePB[pb.GetBucketResp],
			func(resp []*pb.GetBucketResp) (*query.BucketProperties, error) {
				r, err := single(resp)
				if err != nil {
					return nil, err
				}
				return query.BucketPropertiesFromPB(&r.Props), nil
			},
		),
		Namespace: ns,
	}, nil
}

// --------------------------------------------------------------------------
// Store Bucket Properties
// --------------------------------------------------------------------------

// StoreBucketProps changes the properties of a bucket. Only the properties
// that are set are sent, all others keep their current value.
type StoreBucketProps struct {
	*FutureOperation[struct{}, struct{}]
	Namespace query.Namespace
}

// NewStoreBucketProps creates a new store bucket properties operation
func NewStoreBucketProps(ns query.Namespace, props *query.BucketProperties) (*StoreBucketProps, error) {
	if err := validateNamespace(ns); err != nil {
		return nil, err
	}
	if props == nil {
		return nil, common.NewError(common.KindInvalidArgument, "bucket properties cannot be nil")
	}
	if err := props.Validate(); err != nil {
		return nil, common.WrapError(common.KindInvalidArgument, err, "invalid bucket properties")
	}

	req := &pb.SetBucketReq{
		Bucket: []byte(ns.Bucket),
		Props:  props.ToPB(),
		Type:   bucketType(ns),
	}

	return &StoreBucketProps{
		FutureOperation: newFutureOperation("store_bucket_props", common.MsgSetBucketReq,
			func() ([]byte, error) { return req.Marshal(), nil },
			decodeEmpty,
			convertUnit,
		),
		Namespace: ns,
	}, nil
}

// --------------------------------------------------------------------------
// Reset Bucket Properties
// --------------------------------------------------------------------------

// ResetBucketProps resets the properties of a bucket to the type defaults
type ResetBucketProps struct {
	*FutureOperation[struct{}, struct{}]
	Namespace query.Namespace
}

// NewResetBucketProps creates a new reset bucket properties operation
func NewResetBucketProps(ns query.Namespace) (*ResetBucketProps, error) {
	if err := validateNamespace(ns); err != nil {
		return nil, err
	}

	req := &pb.ResetBucketReq{Bucket: []byte(ns.Bucket), Type: bucketType(ns)}

	return &ResetBucketProps{
		FutureOperation: newFutureOperation("reset_bucket_props", common.MsgResetBucketReq,
			func() ([]byte, error) { return req.Marshal(), nil },
			decodeEmpty,
			convertUnit,
		),
		Namespace: ns,
	}, nil
}
