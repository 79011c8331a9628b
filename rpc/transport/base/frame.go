package base

import (
	"encoding/binary"
	"errors"
	"io"
	"net"

	"github.com/ValentinKolb/rKV/rpc/common"
)

// frameHeaderSize is the size of the length prefix
const frameHeaderSize = 4

// writeFrame writes a frame to the writer with the format:
// - 4 bytes: length of code and payload (uint32, big endian)
// - 1 byte: message code
// - N bytes: payload
func writeFrame(w io.Writer, msg common.WireMessage) error {
	header := make([]byte, frameHeaderSize+1)
	binary.BigEndian.PutUint32(header[:frameHeaderSize], uint32(msg.Size()))
	header[frameHeaderSize] = byte(msg.Code)

	b := net.Buffers{header, msg.Payload}
	_, err := b.WriteTo(w)
	return err
}

// readFrame reads exactly one frame. A clean end of stream before the first
// header byte is returned as io.EOF, every other incomplete or invalid frame is
// returned as a framing error. Other read errors are returned unchanged.
func readFrame(r io.Reader, maxSize int) (common.WireMessage, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return common.WireMessage{}, common.WrapError(common.KindFramingError, err, "truncated frame header")
		}
		return common.WireMessage{}, err
	}

	length := binary.BigEndian.Uint32(header[:])
	if length == 0 {
		return common.WireMessage{}, common.NewError(common.KindFramingError, "zero length frame")
	}
	if maxSize > 0 && uint64(length) > uint64(maxSize) {
		return common.WireMessage{}, common.NewError(common.KindFramingError, "frame of %d bytes exceeds the limit of %d bytes", length, maxSize)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return common.WireMessage{}, common.WrapError(common.KindFramingError, io.ErrUnexpectedEOF, "truncated frame, expected %d bytes", length)
		}
		return common.WireMessage{}, err
	}

	return common.NewWireMessage(common.MessageCode(body[0]), body[1:]), nil
}
