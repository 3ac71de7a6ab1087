package buf

import "testing"

func TestEndianHelpers(t *testing.T) {
	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	if got := U16LE(data); got != 0x2301 {
		t.Fatalf("U16LE = 0x%x, want 0x2301", got)
	}
	if got := U32LE(data); got != 0x67452301 {
		t.Fatalf("U32LE = 0x%x, want 0x67452301", got)
	}
	if got := U64LE(data); got != 0xefcdab8967452301 {
		t.Fatalf("U64LE = 0x%x, want 0xefcdab8967452301", got)
	}
	if got := I32LE(data); got != 0x67452301 {
		t.Fatalf("I32LE = 0x%x, want 0x67452301", got)
	}
	var want64 uint64 = 0xefcdab8967452301
	if got := I64LE(data); got != int64(want64) {
		t.Fatalf("I64LE = 0x%x, want 0xefcdab8967452301", got)
	}

	short := []byte{0xAA}
	if U16LE(short) != 0 {
		t.Fatalf("U16LE short should be 0")
	}
	if U32LE(short) != 0 || U64LE(short) != 0 || I32LE(short) != 0 {
		t.Fatalf("short reads should return 0")
	}

	var dst []byte
	dst = AppendU16LE(dst, 0xABCD)
	dst = AppendU32LE(dst, 0x11223344)
	dst = AppendU64LE(dst, 0x1122334455667788)
	if got := U16LE(dst); got != 0xABCD {
		t.Fatalf("round trip U16LE = 0x%x", got)
	}
	if got := U32LE(dst[2:]); got != 0x11223344 {
		t.Fatalf("round trip U32LE = 0x%x", got)
	}
	if got := U64LE(dst[6:]); got != 0x1122334455667788 {
		t.Fatalf("round trip U64LE = 0x%x", got)
	}
}
