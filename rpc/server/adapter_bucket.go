package server

import (
	"fmt"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/pb"
)

// NewBucketServerAdapter creates the adapter for bucket property requests
func NewBucketServerAdapter() IRPCServerAdapter {
	return &bucketServerAdapterImpl{}
}

type bucketServerAdapterImpl struct{}

func (adapter *bucketServerAdapterImpl) Codes() []common.MessageCode {
	return []common.MessageCode{common.MsgGetBucketReq, common.MsgSetBucketReq, common.MsgResetBucketReq}
}

func (adapter *bucketServerAdapterImpl) Handle(req common.WireMessage, store *Store, reply Reply) error {
	switch req.Code {
	case common.MsgGetBucketReq:
		var get pb.GetBucketReq
		if err := get.Unmarshal(req.Payload); err != nil {
			return replyError(reply, fmt.Sprintf("invalid get bucket request: %v", err))
		}
		if len(get.Bucket) == 0 {
			return replyError(reply, "bucket is required")
		}
		props := store.Props(string(get.Type), string(get.Bucket))
		return replyMessage(reply, common.MsgGetBucketResp, &pb.GetBucketResp{Props: props})

	case common.MsgSetBucketReq:
		var set pb.SetBucketReq
		if err := set.Unmarshal(req.Payload); err != nil {
			return replyError(reply, fmt.Sprintf("invalid set bucket request: %v", err))
		}
		if len(set.Bucket) == 0 {
			return replyError(reply, "bucket is required")
		}
		if set.Props.NVal != nil && *set.Props.NVal == 0 {
			return replyError(reply, "n_val must be positive")
		}
		store.SetProps(string(set.Type), string(set.Bucket), &set.Props)
		return replyEmpty(reply, common.MsgSetBucketResp)

	case common.MsgResetBucketReq:
		var reset pb.ResetBucketReq
		if err := reset.Unmarshal(req.Payload); err != nil {
			return replyError(reply, fmt.Sprintf("invalid reset bucket request: %v", err))
		}
		if len(reset.Bucket) == 0 {
			return replyError(reply, "bucket is required")
		}
		store.ResetProps(string(reset.Type), string(reset.Bucket))
		return replyEmpty(reply, common.MsgResetBucketResp)

	default:
		return replyError(reply, fmt.Sprintf("bucket adapter: unsupported message code %s", req.Code))
	}
}
