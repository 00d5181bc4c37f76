package binutils

import (
	"errors"
	"io"
)

var ErrVarIntTooBig = errors.New("varint is too big")

const maxVarIntBytes = 5

// AppendVarInt appends the protocol's LEB128-style encoding of a 32-bit signed integer.
// Negative values are encoded as their unsigned 32-bit two's complement, always taking 5 bytes
func AppendVarInt(buf []byte, value int32) []byte {
	uv := uint32(value) // nolint: gosec
	for uv&^0x7F != 0 {
		buf = append(buf, byte(uv&0x7F|0x80))
		uv >>= 7
	}
	return append(buf, byte(uv))
}

// ReadVarInt reads a varint encoded with AppendVarInt.
// Returns ErrVarIntTooBig if the value does not terminate within 5 bytes
func ReadVarInt(r io.ByteReader) (int32, error) {
	var result uint32
	for i := range maxVarIntBytes {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(result), nil // nolint: gosec
		}
	}
	return 0, ErrVarIntTooBig
}

// AppendString appends a varint length-prefixed UTF-8 string
func AppendString(buf []byte, s string) []byte {
	buf = AppendVarInt(buf, int32(len(s))) // nolint: gosec
	return append(buf, s...)
}

// AppendUint16 appends an unsigned short in network byte order
func AppendUint16(buf []byte, value uint16) []byte {
	return append(buf, byte(value>>8), byte(value))
}
