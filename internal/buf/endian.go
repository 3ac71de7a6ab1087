// Package buf contains endian-safe encode/decode helpers shared by the
// primitive codec and the bit-packed tag layout.
package buf

import (
	"encoding/binary"
	"math"
)

// U16LE reads a little-endian uint16 from b. Returns 0 when b is too short.
func U16LE(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U32LE reads a little-endian uint32 from b. Returns 0 when b is too short.
func U32LE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// U64LE reads a little-endian uint64 from b. Returns 0 when b is too short.
func U64LE(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// I8 reads a single signed byte from b. Returns 0 when b is empty.
func I8(b []byte) int8 {
	if len(b) < 1 {
		return 0
	}
	return int8(b[0])
}

// I16LE reads a little-endian int16 from b.
func I16LE(b []byte) int16 { return int16(U16LE(b)) }

// I32LE reads a little-endian int32 from b.
func I32LE(b []byte) int32 { return int32(U32LE(b)) }

// I64LE reads a little-endian int64 from b.
func I64LE(b []byte) int64 { return int64(U64LE(b)) }

// F32LE reads a little-endian IEEE-754 float32 from b.
func F32LE(b []byte) float32 { return math.Float32frombits(U32LE(b)) }

// F64LE reads a little-endian IEEE-754 float64 from b.
func F64LE(b []byte) float64 { return math.Float64frombits(U64LE(b)) }

// AppendU16LE appends a little-endian uint16 to dst.
func AppendU16LE(dst []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(dst, v)
}

// AppendU32LE appends a little-endian uint32 to dst.
func AppendU32LE(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

// AppendU64LE appends a little-endian uint64 to dst.
func AppendU64LE(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}
