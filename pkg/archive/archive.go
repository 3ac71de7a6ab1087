// Package archive implements the object-archive envelope: a flat
// container of object entries, each carrying its identity and a
// DataTemplate diffed against a base archive entry. Framing follows the
// length-prefixed record style of hive/bigdata's writer: every record is
// appended contiguously to one growing buffer.
package archive

import (
	"bytes"
	"encoding/binary"

	"github.com/k4210/dtengine/internal/buf"
	"github.com/k4210/dtengine/internal/codec"
	"github.com/k4210/dtengine/pkg/dtcore"
	"github.com/k4210/dtengine/pkg/types"
)

// Entry is one object record within an Archive.
type Entry struct {
	ObjectID        types.ObjectID
	Name            string
	BaseArchiveID   uint64
	IDInBaseArchive uint64
	DiffAgainstBase *dtcore.DataTemplate
}

// Archive is the top-level envelope: a flags word and a flat entry list.
type Archive struct {
	Flags   types.ObjectArchiveFlags
	Entries []Entry
}

// New returns an empty Archive with the given flags.
func New(flags types.ObjectArchiveFlags) *Archive {
	return &Archive{Flags: flags}
}

// Add appends an entry to the archive.
func (a *Archive) Add(e Entry) {
	a.Entries = append(a.Entries, e)
}

// Encode serializes the archive as: u32 flags, u32 entry_count, then per
// entry { u64 object_id, length-prefixed name, u64 base_archive_id, u64
// id_in_base_archive, DataTemplate diff_against_base }.
func (a *Archive) Encode() ([]byte, error) {
	var out bytes.Buffer
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(a.Flags))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(a.Entries)))
	out.Write(hdr[:])

	for i, e := range a.Entries {
		if e.DiffAgainstBase == nil {
			return nil, types.Newf(types.ErrKindState, "archive: entry %d has no diff template", i)
		}
		var id [8]byte
		binary.LittleEndian.PutUint64(id[:], uint64(e.ObjectID))
		out.Write(id[:])

		out.Write(codec.AppendString(nil, e.Name))

		var base [16]byte
		binary.LittleEndian.PutUint64(base[0:8], e.BaseArchiveID)
		binary.LittleEndian.PutUint64(base[8:16], e.IDInBaseArchive)
		out.Write(base[:])

		rec, err := e.DiffAgainstBase.MarshalBinary()
		if err != nil {
			return nil, types.Wrap(types.ErrKindState, err, "archive: entry %d diff template", i)
		}
		out.Write(rec)
	}
	return out.Bytes(), nil
}

// Decode parses an archive envelope previously produced by Encode. Every
// field read is bounds-checked against data via buf.Slice before use, so a
// truncated or corrupt envelope yields an ErrKindSchemaDrift error rather
// than a panic.
func Decode(data []byte) (*Archive, error) {
	hdr, ok := buf.Slice(data, 0, 8)
	if !ok {
		return nil, types.Newf(types.ErrKindSchemaDrift, "archive: truncated header")
	}
	flags := types.ObjectArchiveFlags(binary.LittleEndian.Uint32(hdr[0:4]))
	count := binary.LittleEndian.Uint32(hdr[4:8])
	a := &Archive{Flags: flags}
	off := 8

	for i := uint32(0); i < count; i++ {
		idBytes, ok := buf.Slice(data, off, 8)
		if !ok {
			return nil, types.Newf(types.ErrKindSchemaDrift, "archive: truncated entry %d object_id", i)
		}
		objectID := types.ObjectID(binary.LittleEndian.Uint64(idBytes))
		off += 8

		name, n := codec.DecodeString(data[off:])
		off += n

		baseBytes, ok := buf.Slice(data, off, 16)
		if !ok {
			return nil, types.Newf(types.ErrKindSchemaDrift, "archive: truncated entry %d base ids", i)
		}
		baseArchiveID := binary.LittleEndian.Uint64(baseBytes[0:8])
		idInBase := binary.LittleEndian.Uint64(baseBytes[8:16])
		off += 16

		dt, n, err := dtcore.DecodeTemplate(data[off:])
		if err != nil {
			return nil, types.Wrap(types.ErrKindSchemaDrift, err, "archive: entry %d diff template", i)
		}
		off += n

		a.Entries = append(a.Entries, Entry{
			ObjectID:        objectID,
			Name:            name,
			BaseArchiveID:   baseArchiveID,
			IDInBaseArchive: idInBase,
			DiffAgainstBase: dt,
		})
	}
	return a, nil
}
