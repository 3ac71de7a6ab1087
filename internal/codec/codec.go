// Package codec implements the primitive wire codec: fixed-width scalars,
// length-prefixed strings, and object references, each read and written
// against a byte blob the way internal/format's VK/NK decoders read fixed
// fields out of a hive cell — checked reads, explicit little-endian
// widths, no reflection at this layer.
package codec

import (
	"math"

	"github.com/k4210/dtengine/internal/buf"
	"github.com/k4210/dtengine/pkg/types"
)

// MaxStringLen is the largest string length the 16-bit length prefix can
// represent.
const MaxStringLen = 0xFFFF

// AppendScalar appends the native little-endian encoding of v (one of the
// fixed-width kinds) to dst and returns the extended slice. kind must not be
// KindString/KindObjectRef/KindStruct/KindArray/KindVector/KindMap.
func AppendScalar(dst []byte, kind types.FieldKind, v any) []byte {
	switch kind {
	case types.KindInt8:
		return append(dst, byte(v.(int8)))
	case types.KindUint8:
		return append(dst, v.(uint8))
	case types.KindInt16:
		return buf.AppendU16LE(dst, uint16(v.(int16)))
	case types.KindUint16:
		return buf.AppendU16LE(dst, v.(uint16))
	case types.KindInt32:
		return buf.AppendU32LE(dst, uint32(v.(int32)))
	case types.KindUint32:
		return buf.AppendU32LE(dst, v.(uint32))
	case types.KindInt64:
		return buf.AppendU64LE(dst, uint64(v.(int64)))
	case types.KindUint64:
		return buf.AppendU64LE(dst, v.(uint64))
	case types.KindFloat32:
		return buf.AppendU32LE(dst, math.Float32bits(v.(float32)))
	case types.KindFloat64:
		return buf.AppendU64LE(dst, math.Float64bits(v.(float64)))
	default:
		types.Invariant(false, "codec: %s is not a scalar kind", kind)
		return dst
	}
}

// DecodeScalar reads a scalar of the given kind from the front of src and
// returns it boxed as the matching Go type.
func DecodeScalar(kind types.FieldKind, src []byte) any {
	switch kind {
	case types.KindInt8:
		return buf.I8(src)
	case types.KindUint8:
		if len(src) < 1 {
			return uint8(0)
		}
		return src[0]
	case types.KindInt16:
		return buf.I16LE(src)
	case types.KindUint16:
		return buf.U16LE(src)
	case types.KindInt32:
		return buf.I32LE(src)
	case types.KindUint32:
		return buf.U32LE(src)
	case types.KindInt64:
		return buf.I64LE(src)
	case types.KindUint64:
		return buf.U64LE(src)
	case types.KindFloat32:
		return buf.F32LE(src)
	case types.KindFloat64:
		return buf.F64LE(src)
	default:
		types.Invariant(false, "codec: %s is not a scalar kind", kind)
		return nil
	}
}

// ScalarSize returns the on-wire byte width of a scalar kind.
func ScalarSize(kind types.FieldKind) int {
	switch kind {
	case types.KindInt8, types.KindUint8:
		return 1
	case types.KindInt16, types.KindUint16:
		return 2
	case types.KindInt32, types.KindUint32, types.KindFloat32:
		return 4
	case types.KindInt64, types.KindUint64, types.KindFloat64:
		return 8
	default:
		types.Invariant(false, "codec: %s is not a scalar kind", kind)
		return 0
	}
}

// AppendString appends a u16-length-prefixed UTF-8 string.
func AppendString(dst []byte, s string) []byte {
	types.Invariant(types.FitsInBits(uint64(len(s)), 16), "codec: string of length %d does not fit in 16 bits", len(s))
	dst = buf.AppendU16LE(dst, uint16(len(s)))
	return append(dst, s...)
}

// DecodeString reads a u16-length-prefixed UTF-8 string from the front of
// src and returns the string plus the number of bytes consumed.
func DecodeString(src []byte) (string, int) {
	n := int(buf.U16LE(src))
	if len(src) < 2+n {
		return "", len(src)
	}
	return string(src[2 : 2+n]), 2 + n
}

// StringWireSize returns the number of bytes AppendString would add for s.
func StringWireSize(s string) int { return 2 + len(s) }

// AppendObjectRef appends a (StructID, ObjectID) pair.
func AppendObjectRef(dst []byte, sid types.StructID, oid types.ObjectID) []byte {
	dst = buf.AppendU32LE(dst, uint32(sid))
	return buf.AppendU64LE(dst, uint64(oid))
}

// DecodeObjectRef reads a (StructID, ObjectID) pair from the front of src.
func DecodeObjectRef(src []byte) (types.StructID, types.ObjectID) {
	return types.StructID(buf.U32LE(src)), types.ObjectID(buf.U64LE(src[4:]))
}

// ObjectRefWireSize is the fixed wire size of an object reference.
const ObjectRefWireSize = 4 + 8

// AppendLength16 appends a u16 container-length prefix.
func AppendLength16(dst []byte, n int) []byte {
	types.Invariant(types.FitsInBits(uint64(n), 16), "codec: length %d does not fit in 16 bits", n)
	return buf.AppendU16LE(dst, uint16(n))
}

// DecodeLength16 reads a u16 container-length prefix from the front of src.
func DecodeLength16(src []byte) int { return int(buf.U16LE(src)) }
