package server

import (
	"fmt"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/pb"
)

// DefaultListKeysBatch is the number of keys per list keys response if none is configured
const DefaultListKeysBatch = 100

// NewKVServerAdapter creates the adapter for object requests
func NewKVServerAdapter(listKeysBatch int) IRPCServerAdapter {
	if listKeysBatch <= 0 {
		listKeysBatch = DefaultListKeysBatch
	}
	return &kvServerAdapterImpl{listKeysBatch: listKeysBatch}
}

type kvServerAdapterImpl struct {
	listKeysBatch int
}

func (adapter *kvServerAdapterImpl) Codes() []common.MessageCode {
	return []common.MessageCode{common.MsgGetReq, common.MsgPutReq, common.MsgDelReq, common.MsgListKeysReq}
}

func (adapter *kvServerAdapterImpl) Handle(req common.WireMessage, store *Store, reply Reply) error {
	switch req.Code {
	case common.MsgGetReq:
		return adapter.get(req.Payload, store, reply)
	case common.MsgPutReq:
		return adapter.put(req.Payload, store, reply)
	case common.MsgDelReq:
		return adapter.del(req.Payload, store, reply)
	case common.MsgListKeysReq:
		return adapter.listKeys(req.Payload, store, reply)
	default:
		return replyError(reply, fmt.Sprintf("kv adapter: unsupported message code %s", req.Code))
	}
}

func (adapter *kvServerAdapterImpl) get(payload []byte, store *Store, reply Reply) error {
	var req pb.GetReq
	if err := req.Unmarshal(payload); err != nil {
		return replyError(reply, fmt.Sprintf("invalid get request: %v", err))
	}
	if len(req.Bucket) == 0 || len(req.Key) == 0 {
		return replyError(reply, "bucket and key are required")
	}

	obj, ok := store.Get(string(req.Type), string(req.Bucket), string(req.Key))
	if !ok {
		return replyMessage(reply, common.MsgGetResp, &pb.GetResp{})
	}

	if req.IfModified != nil && string(req.IfModified) == string(obj.VClock) {
		return replyMessage(reply, common.MsgGetResp, &pb.GetResp{Vclock: obj.VClock, Unchanged: pb.Bool(true)})
	}

	content := obj.Content
	if req.Head != nil && *req.Head {
		content.Value = []byte{}
	}
	return replyMessage(reply, common.MsgGetResp, &pb.GetResp{Content: []pb.Content{content}, Vclock: obj.VClock})
}

func (adapter *kvServerAdapterImpl) put(payload []byte, store *Store, reply Reply) error {
	var req pb.PutReq
	if err := req.Unmarshal(payload); err != nil {
		return replyError(reply, fmt.Sprintf("invalid put request: %v", err))
	}
	if len(req.Bucket) == 0 {
		return replyError(reply, "bucket is required")
	}

	key, obj, err := store.Put(string(req.Type), string(req.Bucket), string(req.Key), req.Content, PutConditions{
		IfNoneMatch:   req.IfNoneMatch != nil && *req.IfNoneMatch,
		IfNotModified: req.IfNotModified != nil && *req.IfNotModified,
		VClock:        req.Vclock,
	})
	if err != nil {
		return replyError(reply, err.Error())
	}

	resp := &pb.PutResp{}
	if len(req.Key) == 0 {
		resp.Key = []byte(key)
	}
	switch {
	case req.ReturnBody != nil && *req.ReturnBody:
		resp.Content = []pb.Content{obj.Content}
		resp.Vclock = obj.VClock
	case req.ReturnHead != nil && *req.ReturnHead:
		head := obj.Content
		head.Value = []byte{}
		resp.Content = []pb.Content{head}
		resp.Vclock = obj.VClock
	}
	return replyMessage(reply, common.MsgPutResp, resp)
}

func (adapter *kvServerAdapterImpl) del(payload []byte, store *Store, reply Reply) error {
	var req pb.DelReq
	if err := req.Unmarshal(payload); err != nil {
		return replyError(reply, fmt.Sprintf("invalid delete request: %v", err))
	}
	if len(req.Bucket) == 0 || len(req.Key) == 0 {
		return replyError(reply, "bucket and key are required")
	}

	store.Delete(string(req.Type), string(req.Bucket), string(req.Key))
	return replyEmpty(reply, common.MsgDelResp)
}

// listKeys streams the keys in batches, the last response carries the done flag
func (adapter *kvServerAdapterImpl) listKeys(payload []byte, store *Store, reply Reply) error {
	var req pb.ListKeysReq
	if err := req.Unmarshal(payload); err != nil {
		return replyError(reply, fmt.Sprintf("invalid list keys request: %v", err))
	}
	if len(req.Bucket) == 0 {
		return replyError(reply, "bucket is required")
	}

	keys := store.Keys(string(req.Type), string(req.Bucket))
	for start := 0; start < len(keys); start += adapter.listKeysBatch {
		end := min(start+adapter.listKeysBatch, len(keys))

		batch := make([][]byte, 0, end-start)
		for _, key := range keys[start:end] {
			batch = append(batch, []byte(key))
		}
		if err := replyMessage(reply, common.MsgListKeysResp, &pb.ListKeysResp{Keys: batch}); err != nil {
			return err
		}
	}
	return replyMessage(reply, common.MsgListKeysResp, &pb.ListKeysResp{Done: pb.Bool(true)})
}
