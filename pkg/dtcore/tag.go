package dtcore

import (
	"github.com/k4210/dtengine/internal/buf"
	"github.com/k4210/dtengine/pkg/types"
)

// PackedTagSize is the on-wire size of a Tag record: a 12-byte bitfield
// payload padded to a 16-byte aligned record.
const PackedTagSize = 16

// Tag is the bit-packed record that drives every traversal in this module.
// NewTag and NewSuperStructTag assert every field-width budget on
// construction.
type Tag struct {
	PropertyID        types.PropertyID
	DataOffset        uint32 // 16 bits
	ElementIndex      uint8
	NestLevel         uint8 // 7 bits
	IsKey             bool
	FieldType         types.FieldKind         // 5 bits
	SubPropertyOffset types.SubPropertyOffset // 5 bits
	PropertyIndex     types.PropertyIndex     // 14 bits
	Flags             uint8
}

// NewTag builds a Main/SubType tag, asserting every bit-width budget.
func NewTag(propertyID types.PropertyID, dataOffset uint32, elementIndex uint8, nestLevel uint8, isKey bool, fieldType types.FieldKind, subOffset types.SubPropertyOffset, propertyIndex types.PropertyIndex, flags uint8) Tag {
	types.Invariant(types.FitsInBits(uint64(dataOffset), 16), "tag: data_offset %d exceeds 16 bits", dataOffset)
	types.Invariant(types.FitsInBits(uint64(nestLevel), 7), "tag: nest_level %d exceeds 7 bits", nestLevel)
	types.Invariant(types.FitsInBits(uint64(fieldType), 5), "tag: field_type %d exceeds 5 bits", fieldType)
	types.Invariant(types.FitsInBits(uint64(subOffset), 5), "tag: sub_property_offset %d exceeds 5 bits", subOffset)
	types.Invariant(types.FitsInBits(uint64(propertyIndex), 14) || propertyIndex == types.SuperStructPropertyIndex, "tag: property_index %d exceeds 14 bits", propertyIndex)
	return Tag{
		PropertyID:        propertyID,
		DataOffset:        dataOffset,
		ElementIndex:      elementIndex,
		NestLevel:         nestLevel,
		IsKey:             isKey,
		FieldType:         fieldType,
		SubPropertyOffset: subOffset,
		PropertyIndex:     propertyIndex,
		Flags:             flags,
	}
}

// NewSuperStructTag builds the synthetic tag marking the transition into a
// derived structure's base-class state.
func NewSuperStructTag(dataOffset uint32, nestLevel uint8) Tag {
	return NewTag(types.SuperStructPropertyID, dataOffset, 0, nestLevel, false, types.KindStruct, 0, types.SuperStructPropertyIndex, 0)
}

// IsSuperStruct reports whether t is the synthetic base-class transition tag.
func (t Tag) IsSuperStruct() bool {
	return t.PropertyIndex == types.SuperStructPropertyIndex && t.PropertyID == types.SuperStructPropertyID
}

// Pack encodes t into its 16-byte wire representation.
func (t Tag) Pack() [PackedTagSize]byte {
	var out [PackedTagSize]byte
	b := buf.AppendU32LE(out[:0], uint32(t.PropertyID))
	b = buf.AppendU16LE(b, uint16(t.DataOffset))
	b = append(b, t.ElementIndex)

	word := uint32(t.NestLevel&0x7F) |
		uint32(boolBit(t.IsKey))<<7 |
		uint32(t.FieldType&0x1F)<<8 |
		uint32(t.SubPropertyOffset&0x1F)<<13 |
		uint32(t.PropertyIndex&0x3FFF)<<18
	b = buf.AppendU32LE(b, word)
	b = append(b, t.Flags)
	b = append(b, 0, 0, 0, 0) // reserved padding to 16 bytes
	copy(out[:], b)
	return out
}

// UnpackTag decodes a Tag from its 16-byte wire representation.
func UnpackTag(b []byte) Tag {
	types.Invariant(len(b) >= PackedTagSize, "tag: short packed record (%d bytes)", len(b))
	propID := types.PropertyID(buf.U32LE(b))
	dataOffset := uint32(buf.U16LE(b[4:]))
	elementIndex := b[6]
	word := buf.U32LE(b[7:])
	flags := b[11]
	return Tag{
		PropertyID:        propID,
		DataOffset:        dataOffset,
		ElementIndex:      elementIndex,
		NestLevel:         uint8(word & 0x7F),
		IsKey:             (word>>7)&0x1 != 0,
		FieldType:         types.FieldKind((word >> 8) & 0x1F),
		SubPropertyOffset: types.SubPropertyOffset((word >> 13) & 0x1F),
		PropertyIndex:     types.PropertyIndex((word >> 18) & 0x3FFF),
		Flags:             flags,
	}
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
