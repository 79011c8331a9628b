/*
Package pb contains the protocol buffer schemas of the rKV wire protocol.

Every frame payload is a protocol buffer message. The messages are encoded and
decoded by hand with google.golang.org/protobuf/encoding/protowire, so no
generated code and no reflection is involved. Field numbers follow the
established Riak schema (RpbGetReq, RpbPutReq, ...), which keeps the client
compatible with existing servers.

Optional scalar fields are pointers and optional bytes fields are nil when
absent. Only fields that are set are written, which gives every request sparse
update semantics:

	props := pb.BucketProps{NVal: pb.Uint32(3)}
	payload := (&pb.SetBucketReq{Bucket: []byte("users"), Props: props}).Marshal()

Unknown fields are skipped on decode. All decoded byte slices are copies and do
not alias the input buffer.
*/
package pb
