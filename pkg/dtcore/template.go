package dtcore

import "github.com/k4210/dtengine/pkg/types"

// Phase is a DataTemplate's observable lifecycle state.
type Phase uint8

const (
	// PhaseEmpty is the zero value: StructureID == types.WrongID.
	PhaseEmpty Phase = iota
	// PhasePopulated follows Save/Clone/Merge/Diff/RefreshAfterLayoutChanged.
	PhasePopulated
	// PhaseConsumed follows Load; the template remains valid for further
	// algebra, it is simply no longer "freshly produced".
	PhaseConsumed
)

// DataTemplate is the linearized intermediate form: an ordered tag sequence
// plus a parallel byte blob, both keyed to the StructID they were saved
// against.
type DataTemplate struct {
	Tags        []Tag
	Data        []byte
	StructureID types.StructID
	phase       Phase
}

// NewEmptyDataTemplate returns a template in PhaseEmpty.
func NewEmptyDataTemplate() *DataTemplate {
	return &DataTemplate{StructureID: types.StructID(types.WrongID)}
}

// Phase reports the template's current lifecycle phase.
func (dt *DataTemplate) Phase() Phase { return dt.phase }

// IsEmpty reports whether the template has never been populated.
func (dt *DataTemplate) IsEmpty() bool { return dt.phase == PhaseEmpty }

// MarkPopulated transitions an empty template to PhasePopulated, failing
// loudly if it was already populated.
func (dt *DataTemplate) MarkPopulated(structureID types.StructID) {
	if dt.phase != PhaseEmpty {
		panic(types.ErrAlreadyPopulated)
	}
	dt.StructureID = structureID
	dt.phase = PhasePopulated
}

// MarkConsumed transitions a populated template to PhaseConsumed. Load calls
// this; the template remains valid for further algebra afterward.
func (dt *DataTemplate) MarkConsumed() {
	if dt.phase == PhasePopulated {
		dt.phase = PhaseConsumed
	}
}

// Clone returns a deep, bytewise-equal copy of dt.
func (dt *DataTemplate) Clone() *DataTemplate {
	out := &DataTemplate{
		StructureID: dt.StructureID,
		phase:       dt.phase,
	}
	if dt.Tags != nil {
		out.Tags = append([]Tag(nil), dt.Tags...)
	}
	if dt.Data != nil {
		out.Data = append([]byte(nil), dt.Data...)
	}
	return out
}

// Equal reports whether dt and other carry identical structure id, tags and
// byte blob (used by tests asserting the round-trip/clone/merge invariants).
func (dt *DataTemplate) Equal(other *DataTemplate) bool {
	if dt.StructureID != other.StructureID {
		return false
	}
	if len(dt.Tags) != len(other.Tags) {
		return false
	}
	for i := range dt.Tags {
		if dt.Tags[i] != other.Tags[i] {
			return false
		}
	}
	if len(dt.Data) != len(other.Data) {
		return false
	}
	for i := range dt.Data {
		if dt.Data[i] != other.Data[i] {
			return false
		}
	}
	return true
}

// PayloadFor returns the byte range owned by the tag at index i: from its
// DataOffset up to the next tag's DataOffset, or the end of the blob for the
// last tag.
func (dt *DataTemplate) PayloadFor(i int) []byte {
	start := dt.Tags[i].DataOffset
	end := uint32(len(dt.Data))
	if i+1 < len(dt.Tags) {
		end = dt.Tags[i+1].DataOffset
	}
	if start > end || int(end) > len(dt.Data) {
		return nil
	}
	return dt.Data[start:end]
}
