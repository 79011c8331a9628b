package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Code Definition
// --------------------------------------------------------------------------

// MessageCode is the one byte code that identifies the schema of a frame payload.
// The set of codes is fixed and shared by client and server.
type MessageCode uint8

const (
	// General message codes

	MsgErrorResp MessageCode = 0 // Error response, valid as the answer to any request
	MsgPingReq   MessageCode = 1
	MsgPingResp  MessageCode = 2

	// Client and server information

	MsgGetClientIdReq    MessageCode = 3
	MsgGetClientIdResp   MessageCode = 4
	MsgSetClientIdReq    MessageCode = 5
	MsgSetClientIdResp   MessageCode = 6
	MsgGetServerInfoReq  MessageCode = 7
	MsgGetServerInfoResp MessageCode = 8

	// Key-value operations

	MsgGetReq          MessageCode = 9
	MsgGetResp         MessageCode = 10
	MsgPutReq          MessageCode = 11
	MsgPutResp         MessageCode = 12
	MsgDelReq          MessageCode = 13
	MsgDelResp         MessageCode = 14
	MsgListBucketsReq  MessageCode = 15
	MsgListBucketsResp MessageCode = 16
	MsgListKeysReq     MessageCode = 17
	MsgListKeysResp    MessageCode = 18

	// Bucket properties

	MsgGetBucketReq     MessageCode = 19
	MsgGetBucketResp    MessageCode = 20
	MsgSetBucketReq     MessageCode = 21
	MsgSetBucketResp    MessageCode = 22
	MsgMapRedReq        MessageCode = 23
	MsgMapRedResp       MessageCode = 24
	MsgIndexReq         MessageCode = 25
	MsgIndexResp        MessageCode = 26
	MsgSearchQueryReq   MessageCode = 27
	MsgSearchQueryResp  MessageCode = 28
	MsgResetBucketReq   MessageCode = 29
	MsgResetBucketResp  MessageCode = 30
	MsgGetBucketTypeReq MessageCode = 31
	MsgSetBucketTypeReq MessageCode = 32

	// Search index administration

	MsgYokozunaIndexGetReq    MessageCode = 54
	MsgYokozunaIndexGetResp   MessageCode = 55
	MsgYokozunaIndexPutReq    MessageCode = 56
	MsgYokozunaIndexDeleteReq MessageCode = 57
)

// codeNames holds the string representation of every known code
var codeNames = map[MessageCode]string{
	MsgErrorResp:              "ErrorResp",
	MsgPingReq:                "PingReq",
	MsgPingResp:               "PingResp",
	MsgGetClientIdReq:         "GetClientIdReq",
	MsgGetClientIdResp:        "GetClientIdResp",
	MsgSetClientIdReq:         "SetClientIdReq",
	MsgSetClientIdResp:        "SetClientIdResp",
	MsgGetServerInfoReq:       "GetServerInfoReq",
	MsgGetServerInfoResp:      "GetServerInfoResp",
	MsgGetReq:                 "GetReq",
	MsgGetResp:                "GetResp",
	MsgPutReq:                 "PutReq",
	MsgPutResp:                "PutResp",
	MsgDelReq:                 "DelReq",
	MsgDelResp:                "DelResp",
	MsgListBucketsReq:         "ListBucketsReq",
	MsgListBucketsResp:        "ListBucketsResp",
	MsgListKeysReq:            "ListKeysReq",
	MsgListKeysResp:           "ListKeysResp",
	MsgGetBucketReq:           "GetBucketReq",
	MsgGetBucketResp:          "GetBucketResp",
	MsgSetBucketReq:           "SetBucketReq",
	MsgSetBucketResp:          "SetBucketResp",
	MsgMapRedReq:              "MapRedReq",
	MsgMapRedResp:             "MapRedResp",
	MsgIndexReq:               "IndexReq",
	MsgIndexResp:              "IndexResp",
	MsgSearchQueryReq:         "SearchQueryReq",
	MsgSearchQueryResp:        "SearchQueryResp",
	MsgResetBucketReq:         "ResetBucketReq",
	MsgResetBucketResp:        "ResetBucketResp",
	MsgGetBucketTypeReq:       "GetBucketTypeReq",
	MsgSetBucketTypeReq:       "SetBucketTypeReq",
	MsgYokozunaIndexGetReq:    "YokozunaIndexGetReq",
	MsgYokozunaIndexGetResp:   "YokozunaIndexGetResp",
	MsgYokozunaIndexPutReq:    "YokozunaIndexPutReq",
	MsgYokozunaIndexDeleteReq: "YokozunaIndexDeleteReq",
}

// responseCodes maps every request code to the only response code (besides
// MsgErrorResp) a server may answer it with.
var responseCodes = map[MessageCode]MessageCode{
	MsgPingReq:                MsgPingResp,
	MsgGetClientIdReq:         MsgGetClientIdResp,
	MsgSetClientIdReq:         MsgSetClientIdResp,
	MsgGetServerInfoReq:       MsgGetServerInfoResp,
	MsgGetReq:                 MsgGetResp,
	MsgPutReq:                 MsgPutResp,
	MsgDelReq:                 MsgDelResp,
	MsgListBucketsReq:         MsgListBucketsResp,
	MsgListKeysReq:            MsgListKeysResp,
	MsgGetBucketReq:           MsgGetBucketResp,
	MsgSetBucketReq:           MsgSetBucketResp,
	MsgMapRedReq:              MsgMapRedResp,
	MsgIndexReq:               MsgIndexResp,
	MsgSearchQueryReq:         MsgSearchQueryResp,
	MsgResetBucketReq:         MsgResetBucketResp,
	MsgGetBucketTypeReq:       MsgGetBucketResp,
	MsgSetBucketTypeReq:       MsgSetBucketResp,
	MsgYokozunaIndexGetReq:    MsgYokozunaIndexGetResp,
	MsgYokozunaIndexPutReq:    MsgPutResp,
	MsgYokozunaIndexDeleteReq: MsgDelResp,
}

// String returns the string representation of a MessageCode.
func (c MessageCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// Known reports whether the code is part of the fixed code table.
func (c MessageCode) Known() bool {
	_, ok := codeNames[c]
	return ok
}

// IsRequest reports whether the code is a request code.
func (c MessageCode) IsRequest() bool {
	_, ok := responseCodes[c]
	return ok
}

// ResponseCode returns the response code expected for a request code.
// ok is false if c is not a request code.
func ResponseCode(request MessageCode) (resp MessageCode, ok bool) {
	resp, ok = responseCodes[request]
	return resp, ok
}

// MarshalJSON implements the json.Marshaller interface for MessageCode.
// This allows MessageCode to be serialized as a string in JSON.
func (c MessageCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}
