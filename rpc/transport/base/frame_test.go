package base

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/ValentinKolb/rKV/rpc/common"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  common.WireMessage
	}{
		{"empty payload", common.NewWireMessage(common.MsgPingReq, nil)},
		{"small payload", common.NewWireMessage(common.MsgPutReq, []byte("hello"))},
		{"large payload", common.NewWireMessage(common.MsgGetResp, bytes.Repeat([]byte{0xab}, 70000))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeFrame(&buf, tt.msg); err != nil {
				t.Fatalf("writeFrame failed: %v", err)
			}

			if got := binary.BigEndian.Uint32(buf.Bytes()[:4]); int(got) != tt.msg.Size() {
				t.Errorf("length prefix = %d, want %d", got, tt.msg.Size())
			}

			got, err := readFrame(&buf, common.DefaultMaxFrameSize)
			if err != nil {
				t.Fatalf("readFrame failed: %v", err)
			}
			if got.Code != tt.msg.Code {
				t.Errorf("code = %s, want %s", got.Code, tt.msg.Code)
			}
			if !bytes.Equal(got.Payload, tt.msg.Payload) {
				t.Errorf("payload mismatch (len %d vs %d)", len(got.Payload), len(tt.msg.Payload))
			}
		})
	}
}

func TestFrameWireLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrame(&buf, common.NewWireMessage(common.MsgGetReq, []byte{0x01, 0x02})); err != nil {
		t.Fatalf("writeFrame failed: %v", err)
	}
	want := []byte{0x00, 0x00, 0x00, 0x03, 0x09, 0x01, 0x02}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("frame = %x, want %x", buf.Bytes(), want)
	}
}

func TestReadFrameErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     []byte
		maxSize   int
		wantEOF   bool
		wantFrame bool
	}{
		{name: "clean eof", input: nil, wantEOF: true},
		{name: "truncated header", input: []byte{0x00, 0x00}, wantFrame: true},
		{name: "zero length", input: []byte{0x00, 0x00, 0x00, 0x00}, wantFrame: true},
		{name: "truncated body", input: []byte{0x00, 0x00, 0x00, 0x05, 0x02, 0x01}, wantFrame: true},
		{name: "missing body", input: []byte{0x00, 0x00, 0x00, 0x05}, wantFrame: true},
		{name: "exceeds limit", input: []byte{0x00, 0x00, 0x01, 0x00, 0x02}, maxSize: 16, wantFrame: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxSize := tt.maxSize
			if maxSize == 0 {
				maxSize = common.DefaultMaxFrameSize
			}
			_, err := readFrame(bytes.NewReader(tt.input), maxSize)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if tt.wantEOF && !errors.Is(err, io.EOF) {
				t.Errorf("expected io.EOF, got %v", err)
			}
			if tt.wantFrame && !errors.Is(err, common.ErrFraming) {
				t.Errorf("expected a framing error, got %v", err)
			}
		})
	}
}

func TestReadFrameConsumesExactlyOneFrame(t *testing.T) {
	var buf bytes.Buffer
	for _, code := range []common.MessageCode{common.MsgListKeysResp, common.MsgListKeysResp, common.MsgPingResp} {
		if err := writeFrame(&buf, common.NewWireMessage(code, []byte{byte(code)})); err != nil {
			t.Fatalf("writeFrame failed: %v", err)
		}
	}

	for i, want := range []common.MessageCode{common.MsgListKeysResp, common.MsgListKeysResp, common.MsgPingResp} {
		msg, err := readFrame(&buf, common.DefaultMaxFrameSize)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if msg.Code != want {
			t.Errorf("frame %d: code = %s, want %s", i, msg.Code, want)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("%d bytes left unread", buf.Len())
	}
}
