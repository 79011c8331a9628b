package pb

import (
	"bytes"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestBucketPropsSparseEncoding(t *testing.T) {
	tests := []struct {
		name  string
		props BucketProps
		want  []byte
	}{
		{
			name:  "empty",
			props: BucketProps{},
			want:  nil,
		},
		{
			name:  "n_val only",
			props: BucketProps{NVal: Uint32(3)},
			want:  []byte{0x08, 0x03},
		},
		{
			name:  "allow_mult false is still written",
			props: BucketProps{AllowMult: Bool(false)},
			want:  []byte{0x10, 0x00},
		},
		{
			name:  "search index",
			props: BucketProps{SearchIndex: []byte("idx")},
			want:  []byte{0xca, 0x01, 0x03, 'i', 'd', 'x'},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.props.Marshal()
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Marshal() = %x, want %x", got, tt.want)
			}
		})
	}
}

func TestBucketPropsDecodeKeepsPresence(t *testing.T) {
	in := BucketProps{
		NVal:       Uint32(5),
		NotfoundOk: Bool(true),
		Precommit: []CommitHook{
			{Name: []byte("validate")},
			{Modfun: &ModFun{Module: []byte("mod"), Function: []byte("fun")}},
		},
		HasPrecommit: Bool(true),
		Linkfun:      &ModFun{Module: []byte("riak_kv_wm_link_walker"), Function: []byte("mapreduce_linkfun")},
	}

	var out BucketProps
	if err := out.Unmarshal(in.Marshal()); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if out.NVal == nil || *out.NVal != 5 {
		t.Errorf("NVal = %v, want 5", out.NVal)
	}
	if out.NotfoundOk == nil || !*out.NotfoundOk {
		t.Errorf("NotfoundOk = %v, want true", out.NotfoundOk)
	}
	if out.AllowMult != nil || out.R != nil || out.Backend != nil {
		t.Errorf("unset fields must stay absent, got AllowMult=%v R=%v Backend=%v", out.AllowMult, out.R, out.Backend)
	}
	if len(out.Precommit) != 2 {
		t.Fatalf("expected 2 precommit hooks, got %d", len(out.Precommit))
	}
	if string(out.Precommit[0].Name) != "validate" {
		t.Errorf("hook 0 name = %q", out.Precommit[0].Name)
	}
	if out.Precommit[1].Modfun == nil || string(out.Precommit[1].Modfun.Function) != "fun" {
		t.Errorf("hook 1 modfun = %+v", out.Precommit[1].Modfun)
	}
	if out.Linkfun == nil || string(out.Linkfun.Module) != "riak_kv_wm_link_walker" {
		t.Errorf("Linkfun = %+v", out.Linkfun)
	}
}

func TestBucketPropsMerge(t *testing.T) {
	base := BucketProps{NVal: Uint32(3), AllowMult: Bool(false)}
	base.Merge(&BucketProps{AllowMult: Bool(true), R: Uint32(2)})

	if *base.NVal != 3 {
		t.Errorf("NVal changed to %d", *base.NVal)
	}
	if !*base.AllowMult {
		t.Errorf("AllowMult not merged")
	}
	if base.R == nil || *base.R != 2 {
		t.Errorf("R not merged")
	}
}

func TestPutReqRoundTrip(t *testing.T) {
	in := PutReq{
		Bucket: []byte("users"),
		Key:    []byte("alice"),
		Content: Content{
			Value:       []byte(`{"age":30}`),
			ContentType: []byte("application/json"),
			Usermeta:    []Pair{{Key: []byte("origin"), Value: []byte("cli")}},
			Indexes:     []Pair{{Key: []byte("age_int"), Value: []byte("30")}},
		},
		W:          Uint32(2),
		ReturnBody: Bool(true),
		Type:       []byte("default"),
	}

	var out PutReq
	if err := out.Unmarshal(in.Marshal()); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if string(out.Bucket) != "users" || string(out.Key) != "alice" {
		t.Errorf("bucket/key = %q/%q", out.Bucket, out.Key)
	}
	if string(out.Content.Value) != `{"age":30}` {
		t.Errorf("value = %q", out.Content.Value)
	}
	if len(out.Content.Usermeta) != 1 || string(out.Content.Usermeta[0].Value) != "cli" {
		t.Errorf("usermeta = %+v", out.Content.Usermeta)
	}
	if len(out.Content.Indexes) != 1 || string(out.Content.Indexes[0].Key) != "age_int" {
		t.Errorf("indexes = %+v", out.Content.Indexes)
	}
	if out.W == nil || *out.W != 2 {
		t.Errorf("W = %v", out.W)
	}
	if out.DW != nil {
		t.Errorf("DW must be absent")
	}
	if out.ReturnBody == nil || !*out.ReturnBody {
		t.Errorf("ReturnBody = %v", out.ReturnBody)
	}
	if string(out.Type) != "default" {
		t.Errorf("Type = %q", out.Type)
	}
}

func TestDecodedBytesDoNotAliasInput(t *testing.T) {
	buf := (&GetReq{Bucket: []byte("b"), Key: []byte("k")}).Marshal()

	var req GetReq
	if err := req.Unmarshal(buf); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for i := range buf {
		buf[i] = 0
	}
	if string(req.Bucket) != "b" || string(req.Key) != "k" {
		t.Errorf("decoded values changed with the input buffer: %q/%q", req.Bucket, req.Key)
	}
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	buf := (&ListKeysResp{Keys: [][]byte{[]byte("a")}}).Marshal()
	buf = protowire.AppendTag(buf, 99, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 7)
	buf = protowire.AppendTag(buf, 98, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, 1)
	buf = (&ListKeysResp{Done: Bool(true)}).appendTo(buf)

	var resp ListKeysResp
	if err := resp.Unmarshal(buf); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(resp.Keys) != 1 || string(resp.Keys[0]) != "a" {
		t.Errorf("Keys = %q", resp.Keys)
	}
	if resp.Done == nil || !*resp.Done {
		t.Errorf("Done = %v", resp.Done)
	}
}

func TestMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"truncated varint", []byte{0x08, 0x80}},
		{"truncated bytes", []byte{0x0a, 0x05, 'a'}},
		{"wrong wire type", []byte{0x0d, 0x01, 0x02, 0x03, 0x04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req GetReq
			if err := req.Unmarshal(tt.buf); err == nil {
				t.Errorf("expected an error for %x", tt.buf)
			}
		})
	}
}

func TestSearchQueryRespFloat(t *testing.T) {
	in := SearchQueryResp{
		Docs: []SearchDoc{
			{Fields: []Pair{{Key: []byte("_yz_rk"), Value: []byte("alice")}}},
		},
		MaxScore: Float32(1.5),
		NumFound: Uint32(1),
	}

	var out SearchQueryResp
	if err := out.Unmarshal(in.Marshal()); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out.MaxScore == nil || *out.MaxScore != 1.5 {
		t.Errorf("MaxScore = %v", out.MaxScore)
	}
	if len(out.Docs) != 1 || string(out.Docs[0].Fields[0].Value) != "alice" {
		t.Errorf("Docs = %+v", out.Docs)
	}
}
