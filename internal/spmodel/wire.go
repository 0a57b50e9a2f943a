package spmodel

import (
	"fmt"
	"math"
)

// Protobuf wire types used by the SentencePiece model format.
const (
	wireVarint = 0
	wireI64    = 1
	wireBytes  = 2
	wireI32    = 5
)

// wireReader decodes protobuf wire-format primitives from an immutable byte
// slice. The slice is never modified; the only state is the cursor.
type wireReader struct {
	data []byte
	pos  int
}

func newWireReader(data []byte) *wireReader {
	return &wireReader{data: data}
}

func (r *wireReader) remaining() int {
	return len(r.data) - r.pos
}

// readVarint decodes a base-128 varint, 7 data bits per byte, little-endian
// groups, continuation flag in the high bit.
func (r *wireReader) readVarint() (uint64, error) {
	var v uint64
	var shift uint
	for {
		if r.pos >= len(r.data) {
			return 0, ErrTruncated
		}
		b := r.data[r.pos]
		r.pos++
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, fmt.Errorf("varint overflow at offset %d", r.pos)
		}
	}
}

// readTag reads a field tag and splits it into field number and wire type.
func (r *wireReader) readTag() (field int, wireType int, err error) {
	tag, err := r.readVarint()
	if err != nil {
		return 0, 0, err
	}
	return int(tag >> 3), int(tag & 0x7), nil
}

// readBytes reads a varint length followed by that many bytes. The returned
// slice is a view into the underlying data, not a copy.
func (r *wireReader) readBytes() ([]byte, error) {
	n, err := r.readVarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.remaining()) {
		return nil, ErrTruncated
	}
	b := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

// readFloat32 reads 4 little-endian bytes as an IEEE-754 single.
func (r *wireReader) readFloat32() (float32, error) {
	if r.remaining() < 4 {
		return 0, ErrTruncated
	}
	b := r.data[r.pos:]
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	r.pos += 4
	return math.Float32frombits(bits), nil
}

// skipField advances the cursor past one field's payload.
func (r *wireReader) skipField(wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := r.readVarint()
		return err
	case wireI64:
		if r.remaining() < 8 {
			return ErrTruncated
		}
		r.pos += 8
		return nil
	case wireBytes:
		_, err := r.readBytes()
		return err
	case wireI32:
		if r.remaining() < 4 {
			return ErrTruncated
		}
		r.pos += 4
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownWireType, wireType)
	}
}
