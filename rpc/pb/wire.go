package pb

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// --------------------------------------------------------------------------
// Encoding helpers
// --------------------------------------------------------------------------

// appender is implemented by every message so it can be nested into another one
type appender interface {
	appendTo(b []byte) []byte
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// appendOptBytes writes v only if it is not nil (an empty, non nil slice is written)
func appendOptBytes(b []byte, num protowire.Number, v []byte) []byte {
	if v == nil {
		return b
	}
	return appendBytes(b, num, v)
}

func appendOptUint32(b []byte, num protowire.Number, v *uint32) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(*v))
}

func appendOptBool(b []byte, num protowire.Number, v *bool) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(*v))
}

func appendOptFloat(b []byte, num protowire.Number, v *float32) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(*v))
}

func appendMessage(b []byte, num protowire.Number, m appender) []byte {
	return appendBytes(b, num, m.appendTo(nil))
}

// --------------------------------------------------------------------------
// Decoding helpers
// --------------------------------------------------------------------------

// field is a single decoded field of a message
type field struct {
	num     protowire.Number
	typ     protowire.Type
	varint  uint64
	fixed32 uint32
	raw     []byte
}

// walk calls fn for every field in b. Unknown wire types are skipped.
func walk(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("invalid tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.raw, n = protowire.ConsumeBytes(b)
		case protowire.Fixed32Type:
			f.fixed32, n = protowire.ConsumeFixed32(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("invalid value for field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func (f field) wrongType() error {
	return fmt.Errorf("field %d has unexpected wire type %d", f.num, f.typ)
}

// bytes returns a copy of a length delimited field, never nil
func (f field) bytes() ([]byte, error) {
	if f.typ != protowire.BytesType {
		return nil, f.wrongType()
	}
	return append([]byte{}, f.raw...), nil
}

func (f field) uint32() (*uint32, error) {
	if f.typ != protowire.VarintType {
		return nil, f.wrongType()
	}
	v := uint32(f.varint)
	return &v, nil
}

func (f field) bool() (*bool, error) {
	if f.typ != protowire.VarintType {
		return nil, f.wrongType()
	}
	v := protowire.DecodeBool(f.varint)
	return &v, nil
}

func (f field) float() (*float32, error) {
	if f.typ != protowire.Fixed32Type {
		return nil, f.wrongType()
	}
	v := math.Float32frombits(f.fixed32)
	return &v, nil
}

// --------------------------------------------------------------------------
// Value helpers
// --------------------------------------------------------------------------

// Uint32 returns a pointer to v, used to mark optional fields as present
func Uint32(v uint32) *uint32 { return &v }

// Bool returns a pointer to v, used to mark optional fields as present
func Bool(v bool) *bool { return &v }

// Float32 returns a pointer to v, used to mark optional fields as present
func Float32(v float32) *float32 { return &v }
