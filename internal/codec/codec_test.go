package codec

import (
	"testing"

	"github.com/k4210/dtengine/pkg/types"
)

func TestScalarRoundTrip(t *testing.T) {
	cases := []struct {
		kind types.FieldKind
		val  any
	}{
		{types.KindInt8, int8(-12)},
		{types.KindUint8, uint8(200)},
		{types.KindInt16, int16(-1000)},
		{types.KindUint16, uint16(40000)},
		{types.KindInt32, int32(-70000)},
		{types.KindUint32, uint32(3000000000)},
		{types.KindInt64, int64(-1) << 40},
		{types.KindUint64, uint64(1) << 60},
		{types.KindFloat32, float32(3.25)},
		{types.KindFloat64, float64(-9.5)},
	}
	for _, c := range cases {
		var dst []byte
		dst = AppendScalar(dst, c.kind, c.val)
		if len(dst) != ScalarSize(c.kind) {
			t.Fatalf("%s: wrote %d bytes, want %d", c.kind, len(dst), ScalarSize(c.kind))
		}
		got := DecodeScalar(c.kind, dst)
		if got != c.val {
			t.Fatalf("%s: round trip got %v, want %v", c.kind, got, c.val)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "a", "hello world"} {
		dst := AppendString(nil, s)
		if len(dst) != StringWireSize(s) {
			t.Fatalf("wrote %d bytes, want %d", len(dst), StringWireSize(s))
		}
		got, n := DecodeString(dst)
		if got != s || n != len(dst) {
			t.Fatalf("round trip got (%q, %d), want (%q, %d)", got, n, s, len(dst))
		}
	}
}

func TestDecodeStringTruncated(t *testing.T) {
	dst := AppendString(nil, "hello")
	got, n := DecodeString(dst[:3])
	if got != "" || n != 3 {
		t.Fatalf("truncated decode got (%q, %d), want (\"\", 3)", got, n)
	}
}

func TestObjectRefRoundTrip(t *testing.T) {
	dst := AppendObjectRef(nil, types.StructID(0xDEADBEEF), types.ObjectID(0x1122334455667788))
	if len(dst) != ObjectRefWireSize {
		t.Fatalf("wrote %d bytes, want %d", len(dst), ObjectRefWireSize)
	}
	sid, oid := DecodeObjectRef(dst)
	if sid != types.StructID(0xDEADBEEF) || oid != types.ObjectID(0x1122334455667788) {
		t.Fatalf("round trip got (%x, %x)", sid, oid)
	}
}

func TestLength16RoundTrip(t *testing.T) {
	dst := AppendLength16(nil, 1234)
	if got := DecodeLength16(dst); got != 1234 {
		t.Fatalf("DecodeLength16 = %d, want 1234", got)
	}
}
