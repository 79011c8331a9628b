package query

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// EncodingZstd is the content encoding of zstd compressed values
const EncodingZstd = "zstd"

var compressEncoder, _ = zstd.NewWriter(nil)

// Create a reader that caches decompressors.
// For this operation type we supply a nil Reader.
var compressDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))

// Compress compresses the value with zstd and sets the content encoding.
// Objects that already carry a content encoding are left unchanged.
func (o *RiakObject) Compress() {
	if o.ContentEncoding != "" {
		return
	}
	o.Value = compressEncoder.EncodeAll(o.Value, make([]byte, 0, len(o.Value)))
	o.ContentEncoding = EncodingZstd
}

// Decompress reverses Compress. Objects with another content encoding are left
// unchanged.
func (o *RiakObject) Decompress() error {
	if o.ContentEncoding != EncodingZstd {
		return nil
	}
	value, err := compressDecoder.DecodeAll(o.Value, nil)
	if err != nil {
		return fmt.Errorf("failed to decompress value: %w", err)
	}
	o.Value = value
	o.ContentEncoding = ""
	return nil
}
