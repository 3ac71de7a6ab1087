package dtcore

import (
	"encoding/binary"

	"github.com/k4210/dtengine/internal/buf"
	"github.com/k4210/dtengine/pkg/types"
)

// The persisted form of a DataTemplate is: u32 struct_id, u32 tag_count,
// tag_count packed 16-byte tag records, u32 data_len, data bytes.

// MarshalBinary implements encoding.BinaryMarshaler.
func (dt *DataTemplate) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, 8+len(dt.Tags)*PackedTagSize+4+len(dt.Data))
	out = binary.LittleEndian.AppendUint32(out, uint32(dt.StructureID))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(dt.Tags)))
	for _, t := range dt.Tags {
		packed := t.Pack()
		out = append(out, packed[:]...)
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(len(dt.Data)))
	out = append(out, dt.Data...)
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. dt must be in
// PhaseEmpty; a truncated or corrupt record yields an error, never a panic.
func (dt *DataTemplate) UnmarshalBinary(data []byte) error {
	n, err := dt.decodeFrom(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return types.Newf(types.ErrKindStructuralDrift, "data template: %d trailing bytes after record", len(data)-n)
	}
	return nil
}

// DecodeTemplate reads one persisted DataTemplate from the front of data,
// returning it plus the number of bytes consumed. Callers embedding
// templates inside a larger envelope (the object archive) use this form.
func DecodeTemplate(data []byte) (*DataTemplate, int, error) {
	dt := NewEmptyDataTemplate()
	n, err := dt.decodeFrom(data)
	if err != nil {
		return nil, 0, err
	}
	return dt, n, nil
}

func (dt *DataTemplate) decodeFrom(data []byte) (int, error) {
	types.Invariant(dt.phase == PhaseEmpty, "data template: decode into a populated template")

	hdr, ok := buf.Slice(data, 0, 8)
	if !ok {
		return 0, types.Newf(types.ErrKindStructuralDrift, "data template: truncated header")
	}
	structureID := types.StructID(binary.LittleEndian.Uint32(hdr[0:4]))
	tagCount := binary.LittleEndian.Uint32(hdr[4:8])
	off := 8

	tags := make([]Tag, 0, tagCount)
	for i := uint32(0); i < tagCount; i++ {
		rec, ok := buf.Slice(data, off, PackedTagSize)
		if !ok {
			return 0, types.Newf(types.ErrKindStructuralDrift, "data template: truncated tag %d of %d", i, tagCount)
		}
		tags = append(tags, UnpackTag(rec))
		off += PackedTagSize
	}

	lenBytes, ok := buf.Slice(data, off, 4)
	if !ok {
		return 0, types.Newf(types.ErrKindStructuralDrift, "data template: truncated data length")
	}
	dataLen := int(binary.LittleEndian.Uint32(lenBytes))
	off += 4
	blob, ok := buf.Slice(data, off, dataLen)
	if !ok {
		return 0, types.Newf(types.ErrKindStructuralDrift, "data template: truncated data blob (%d bytes wanted)", dataLen)
	}
	off += dataLen

	dt.Tags = tags
	dt.Data = append([]byte(nil), blob...)
	dt.MarkPopulated(structureID)
	return off, nil
}
