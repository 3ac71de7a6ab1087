package dt

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/k4210/dtengine/pkg/types"
)

// The test hierarchy covers a plain value struct, an object class holding
// every composite shape, and a class derived from it.

type Sample struct {
	Integer int32 `dt:"integer"`
}

type Holder struct {
	S      string           `dt:"s"`
	O      *Holder          `dt:"o"`
	Sample Sample           `dt:"sample"`
	Vec    []Sample         `dt:"vec"`
	M      map[Sample]int64 `dt:"map"`
	Arr1   [4]Sample        `dt:"arr1"`
	Arr2   [4]*Holder       `dt:"arr2"`
}

type Advanced struct {
	Holder
	Adv string `dt:"adv"`
}

var (
	sampleID   = types.StructID(types.HashName("Sample"))
	holderID   = types.StructID(types.HashName("Holder"))
	advancedID = types.StructID(types.HashName("Advanced"))
)

func (*Holder) ReflectionStructID() types.StructID   { return holderID }
func (*Advanced) ReflectionStructID() types.StructID { return advancedID }

// stubSolver hands out sequential ObjectIDs per distinct pointer, the test
// stand-in for a real object table.
type stubSolver struct {
	byID  map[types.ObjectID]reflect.Value
	byPtr map[any]types.ObjectID
	next  types.ObjectID
}

func newStubSolver() *stubSolver {
	return &stubSolver{
		byID:  map[types.ObjectID]reflect.Value{},
		byPtr: map[any]types.ObjectID{},
	}
}

func (s *stubSolver) ToObjectID(obj reflect.Value) types.ObjectID {
	if obj.IsNil() {
		return types.NullObjectID
	}
	key := obj.Interface()
	if id, ok := s.byPtr[key]; ok {
		return id
	}
	s.next++
	s.byPtr[key] = s.next
	s.byID[s.next] = obj
	return s.next
}

func (s *stubSolver) FromObjectID(id types.ObjectID, pointerType reflect.Type) reflect.Value {
	v, ok := s.byID[id]
	if !ok || !v.Type().AssignableTo(pointerType) {
		return reflect.Value{}
	}
	return v
}

func newTestRegistry(t *testing.T) (*Registry, *stubSolver) {
	t.Helper()
	r := NewRegistry()
	solver := newStubSolver()

	sample, err := NewStructureBuilder(r, reflect.TypeOf(Sample{})).Build()
	require.NoError(t, err, "register Sample")
	require.Equal(t, sampleID, sample.ID)
	holder, err := NewStructureBuilder(r, reflect.TypeOf(Holder{})).WithSolver(solver).Build()
	require.NoError(t, err, "register Holder")
	require.Equal(t, holderID, holder.ID)
	_, err = NewStructureBuilder(r, reflect.TypeOf(Advanced{})).
		WithSuper(reflect.TypeOf(Holder{})).
		WithSolver(solver).
		Build()
	require.NoError(t, err, "register Advanced")
	return r, solver
}

func TestSaveEmptyHolderWithElision(t *testing.T) {
	r, _ := newTestRegistry(t)

	tpl, err := Save(r, holderID, &Holder{}, types.SkipNativeDefaultValues)
	require.NoError(t, err)
	require.Empty(t, tpl.Tags, "fully elided object should emit no tags")
	require.Empty(t, tpl.Data)
	require.Equal(t, holderID, tpl.StructureID)
}

func TestSaveSingleArrayElementScalar(t *testing.T) {
	r, _ := newTestRegistry(t)

	var h Holder
	h.Arr1[2].Integer = 9
	tpl, err := Save(r, holderID, &h, types.SkipNativeDefaultValues)
	require.NoError(t, err)

	structure, err := r.GetStructure(holderID)
	require.NoError(t, err)
	arrIdx := structure.GetMainPropertyIndex(types.PropertyID(types.HashName("arr1")))
	elemIdx := structure.GetSubPropertyIndex(arrIdx, types.SubTypeArrayElement)

	require.Len(t, tpl.Tags, 3)
	require.Equal(t, arrIdx, tpl.Tags[0].PropertyIndex)
	require.Equal(t, types.KindArray, tpl.Tags[0].FieldType)
	require.Equal(t, uint8(0), tpl.Tags[0].NestLevel)

	require.Equal(t, elemIdx, tpl.Tags[1].PropertyIndex)
	require.Equal(t, uint8(2), tpl.Tags[1].ElementIndex)
	require.Equal(t, uint8(1), tpl.Tags[1].NestLevel)
	require.Equal(t, types.KindStruct, tpl.Tags[1].FieldType)

	require.Equal(t, uint8(2), tpl.Tags[2].NestLevel)
	require.Equal(t, types.KindInt32, tpl.Tags[2].FieldType)
	require.Equal(t, uint32(0), tpl.Tags[2].DataOffset)
	require.Equal(t, []byte{0x09, 0x00, 0x00, 0x00}, tpl.Data)
}

func TestMapRoundTripInKeyOrder(t *testing.T) {
	r, _ := newTestRegistry(t)

	h := Holder{M: map[Sample]int64{{Integer: 3}: 16, {Integer: 1}: 4, {Integer: 2}: 8}}
	tpl, err := Save(r, holderID, &h, types.SkipNativeDefaultValues)
	require.NoError(t, err)
	require.Equal(t, []byte{0x03, 0x00}, tpl.Data[:2], "map length prefix")

	var keyOrder []int32
	for i, tag := range tpl.Tags {
		// A key tag's Sample payload is carried by its nested integer tag.
		if tag.IsKey {
			inner := tpl.Tags[i+1]
			require.Equal(t, types.KindInt32, inner.FieldType)
			keyOrder = append(keyOrder, int32(tpl.PayloadFor(i + 1)[0]))
		}
	}
	require.Equal(t, []int32{1, 2, 3}, keyOrder, "keys must serialize in ascending order")

	var out Holder
	require.NoError(t, Load(r, tpl, &out))
	require.Equal(t, h.M, out.M)
}

func TestMapKeyAtZeroValueStillSerialized(t *testing.T) {
	r, _ := newTestRegistry(t)

	h := Holder{M: map[Sample]int64{{Integer: 0}: 7}}
	tpl, err := Save(r, holderID, &h, types.SkipNativeDefaultValues)
	require.NoError(t, err)

	var sawKeyPayload bool
	for i, tag := range tpl.Tags {
		if tag.NestLevel == 2 && !tag.IsKey && tag.FieldType == types.KindInt32 {
			require.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, tpl.PayloadFor(i),
				"zero-valued key must serialize in full")
			sawKeyPayload = true
		}
	}
	require.True(t, sawKeyPayload, "expected the key's integer tag despite its zero value")

	var out Holder
	require.NoError(t, Load(r, tpl, &out))
	require.Equal(t, h.M, out.M)
}

func TestZeroLengthContainersWithoutElision(t *testing.T) {
	r, _ := newTestRegistry(t)

	tpl, err := Save(r, holderID, &Holder{}, types.SaveFlagsNone)
	require.NoError(t, err)

	structure, err := r.GetStructure(holderID)
	require.NoError(t, err)
	vecIdx := structure.GetMainPropertyIndex(types.PropertyID(types.HashName("vec")))
	mapIdx := structure.GetMainPropertyIndex(types.PropertyID(types.HashName("map")))
	for i, tag := range tpl.Tags {
		if tag.PropertyIndex == vecIdx || tag.PropertyIndex == mapIdx {
			require.Equal(t, []byte{0x00, 0x00}, tpl.PayloadFor(i), "empty container length prefix")
		}
	}

	var out Holder
	require.NoError(t, Load(r, tpl, &out))
	require.Zero(t, len(out.Vec))
	require.Zero(t, len(out.M))
}

func TestRoundTripIdempotence(t *testing.T) {
	r, _ := newTestRegistry(t)

	other := &Holder{S: "other"}
	h := Holder{
		S:      "hello",
		O:      other,
		Sample: Sample{Integer: 5},
		Vec:    []Sample{{Integer: 3}, {}},
		M:      map[Sample]int64{{Integer: 1}: 4, {Integer: 2}: 8},
	}
	h.Arr1[2].Integer = 9
	h.Arr2[1] = other

	for _, flags := range []types.SaveFlags{types.SaveFlagsNone, types.SkipNativeDefaultValues} {
		tpl, err := Save(r, holderID, &h, flags)
		require.NoError(t, err)

		var loaded Holder
		require.NoError(t, Load(r, tpl, &loaded))

		again, err := Save(r, holderID, &loaded, flags)
		require.NoError(t, err)
		require.True(t, tpl.Equal(again), "save(load(save(o))) must equal save(o) for flags %#x", uint32(flags))
	}
}

func TestDiffAcrossInheritance(t *testing.T) {
	r, _ := newTestRegistry(t)

	var h Holder
	adv := Advanced{Adv: "yay"}

	lower, err := Save(r, holderID, &h, types.SaveFlagsNone)
	require.NoError(t, err)
	higher, err := Save(r, advancedID, &adv, types.SaveFlagsNone)
	require.NoError(t, err)

	d, err := Diff(r, higher, lower)
	require.NoError(t, err)
	require.Len(t, d.Tags, 2, "diff should carry the super-struct transition and the adv string")
	require.True(t, d.Tags[0].IsSuperStruct())
	require.Equal(t, types.KindString, d.Tags[1].FieldType)
	require.Equal(t, append([]byte{0x03, 0x00}, []byte("yay")...), d.Data)
}

func TestMergeOfDiffReconstructsHigherAcrossInheritance(t *testing.T) {
	r, _ := newTestRegistry(t)

	var h Holder
	adv := Advanced{Holder: Holder{S: "hi", Sample: Sample{Integer: 3}}, Adv: "yay"}

	lower, err := Save(r, holderID, &h, types.SaveFlagsNone)
	require.NoError(t, err)
	higher, err := Save(r, advancedID, &adv, types.SaveFlagsNone)
	require.NoError(t, err)

	d, err := Diff(r, higher, lower)
	require.NoError(t, err)
	merged, err := Merge(r, lower, d)
	require.NoError(t, err)
	require.Equal(t, advancedID, merged.StructureID)

	var out Advanced
	require.NoError(t, Load(r, merged, &out))
	require.Equal(t, adv, out)
}

func TestDiffAcrossInheritanceWithElidedTemplates(t *testing.T) {
	r, _ := newTestRegistry(t)

	// With default elision the lower template is empty and higher's
	// super-struct tag was popped (nothing of the base survived), so the
	// driver has no chain to descend: higher's tags pass through verbatim.
	lower, err := Save(r, holderID, &Holder{}, types.SkipNativeDefaultValues)
	require.NoError(t, err)
	require.Empty(t, lower.Tags)
	higher, err := Save(r, advancedID, &Advanced{Adv: "yay"}, types.SkipNativeDefaultValues)
	require.NoError(t, err)
	require.Len(t, higher.Tags, 1)

	d, err := Diff(r, higher, lower)
	require.NoError(t, err)
	require.Len(t, d.Tags, 1, "the adv string is the diff's only content")
	require.False(t, d.Tags[0].IsSuperStruct())
	require.Equal(t, types.KindString, d.Tags[0].FieldType)
	require.Equal(t, append([]byte{0x03, 0x00}, []byte("yay")...), d.Data)

	merged, err := Merge(r, lower, d)
	require.NoError(t, err)
	var out Advanced
	require.NoError(t, Load(r, merged, &out))
	require.Equal(t, "yay", out.Adv)
}

func TestMergeHigherWins(t *testing.T) {
	r, _ := newTestRegistry(t)

	l := Holder{Sample: Sample{Integer: 1}}
	h := Holder{Sample: Sample{Integer: 2}}

	lower, err := Save(r, holderID, &l, types.SaveFlagsNone)
	require.NoError(t, err)
	higher, err := Save(r, holderID, &h, types.SaveFlagsNone)
	require.NoError(t, err)

	merged, err := Merge(r, lower, higher)
	require.NoError(t, err)

	var out Holder
	require.NoError(t, Load(r, merged, &out))
	require.Equal(t, int32(2), out.Sample.Integer)
}

func TestMergeIdempotentOnTheRight(t *testing.T) {
	r, _ := newTestRegistry(t)

	l := Holder{S: "low", Sample: Sample{Integer: 1}}
	h := Holder{S: "high", Vec: []Sample{{Integer: 7}}}

	lower, err := Save(r, holderID, &l, types.SaveFlagsNone)
	require.NoError(t, err)
	higher, err := Save(r, holderID, &h, types.SaveFlagsNone)
	require.NoError(t, err)

	once, err := Merge(r, lower, higher)
	require.NoError(t, err)
	twice, err := Merge(r, once, higher)
	require.NoError(t, err)
	require.True(t, once.Equal(twice), "merge(merge(l,h),h) must equal merge(l,h)")
}

func TestMergeDropsLowerElementsBeyondShrunkContainer(t *testing.T) {
	r, _ := newTestRegistry(t)

	l := Holder{Vec: []Sample{{Integer: 1}, {Integer: 2}, {Integer: 3}}}
	h := Holder{Vec: []Sample{{Integer: 9}}}

	lower, err := Save(r, holderID, &l, types.SaveFlagsNone)
	require.NoError(t, err)
	higher, err := Save(r, holderID, &h, types.SaveFlagsNone)
	require.NoError(t, err)

	merged, err := Merge(r, lower, higher)
	require.NoError(t, err)

	var out Holder
	require.NoError(t, Load(r, merged, &out))
	require.Equal(t, []Sample{{Integer: 9}}, out.Vec,
		"lower elements past higher's shrunk length must not survive the merge")
}

func TestRefreshRebindsCompositeSubtree(t *testing.T) {
	r, _ := newTestRegistry(t)

	h := Holder{Vec: []Sample{{Integer: 3}}}
	tpl, err := Save(r, holderID, &h, types.SkipNativeDefaultValues)
	require.NoError(t, err)

	structure, err := r.GetStructure(holderID)
	require.NoError(t, err)
	newReg := rebuildHolderWithout(t, structure, "s")
	_, err = NewStructureBuilder(newReg, reflect.TypeOf(Sample{})).Build()
	require.NoError(t, err)

	refreshed, err := RefreshAfterLayoutChanged(newReg, tpl)
	require.NoError(t, err)
	require.Len(t, refreshed.Tags, 3) // vec, vec element, element's integer

	newStruct, err := newReg.GetStructure(holderID)
	require.NoError(t, err)
	vecIdx := newStruct.GetMainPropertyIndex(types.PropertyID(types.HashName("vec")))
	require.Equal(t, vecIdx, refreshed.Tags[0].PropertyIndex)
	require.Equal(t, newStruct.GetSubPropertyIndex(vecIdx, types.SubTypeVectorElement),
		refreshed.Tags[1].PropertyIndex, "the element subtype must rebind through its sub-property offset")

	// Length prefix and the element's integer payload survive unchanged.
	require.Equal(t, []byte{0x01, 0x00, 0x03, 0x00, 0x00, 0x00}, refreshed.Data)
}

func TestCloneIsBytewiseEqual(t *testing.T) {
	r, _ := newTestRegistry(t)

	h := Holder{S: "x", Vec: []Sample{{Integer: 1}}}
	tpl, err := Save(r, holderID, &h, types.SaveFlagsNone)
	require.NoError(t, err)
	require.True(t, tpl.Equal(tpl.Clone()))
}

func TestSaveObjectRequiresObjectClass(t *testing.T) {
	r, _ := newTestRegistry(t)

	// Holder has a solver but no super chain; only Advanced represents a
	// full object class.
	_, err := SaveObject(r, &Holder{}, types.SaveFlagsNone)
	require.ErrorIs(t, err, types.ErrNotObjectClass)

	tpl, err := SaveObject(r, &Advanced{Adv: "a"}, types.SaveFlagsNone)
	require.NoError(t, err)
	require.Equal(t, advancedID, tpl.StructureID)
}

func TestLoadIntoDerivedDestination(t *testing.T) {
	r, _ := newTestRegistry(t)

	h := Holder{S: "base state"}
	tpl, err := Save(r, holderID, &h, types.SkipNativeDefaultValues)
	require.NoError(t, err)

	var out Advanced
	require.NoError(t, Load(r, tpl, &out))
	require.Equal(t, "base state", out.S)
}

func TestLoadIntoUnrelatedDestinationPanics(t *testing.T) {
	r, _ := newTestRegistry(t)

	tpl, err := Save(r, advancedID, &Advanced{Adv: "x"}, types.SaveFlagsNone)
	require.NoError(t, err)

	var s Sample
	require.Panics(t, func() { _ = Load(r, tpl, &s) },
		"loading an Advanced template into a Sample must trip the base-class invariant")
}

// rebuildHolderWithout registers, into a fresh registry, a Holder layout
// identical to structure's except that the named main property (and its
// children) is gone — the shape of an editor-side field removal.
func rebuildHolderWithout(t *testing.T, structure *Structure, removed string) *Registry {
	t.Helper()
	r := NewRegistry()
	mutated, err := r.CreateStructure(structure.ID, structure.Size, structure.SuperID, structure.Name)
	require.NoError(t, err)

	removedID := types.PropertyID(types.HashName(removed))
	i := types.PropertyIndex(0)
	for i < structure.NumberOfProperties() {
		next := structure.NextOnThisLevel(i)
		if structure.GetProperty(i).ID != removedID {
			for j := i; j < next; j++ {
				mutated.AddProperty(structure.GetProperty(j))
			}
		}
		i = next
	}
	return r
}

func TestRefreshAfterFieldRemoval(t *testing.T) {
	r, _ := newTestRegistry(t)

	other := &Holder{}
	h := Holder{S: "hi", O: other, Sample: Sample{Integer: 5}}
	tpl, err := Save(r, holderID, &h, types.SkipNativeDefaultValues)
	require.NoError(t, err)
	require.Len(t, tpl.Tags, 4) // s, o, sample, sample.integer

	structure, err := r.GetStructure(holderID)
	require.NoError(t, err)
	newReg := rebuildHolderWithout(t, structure, "o")
	_, err = NewStructureBuilder(newReg, reflect.TypeOf(Sample{})).Build()
	require.NoError(t, err)

	refreshed, err := RefreshAfterLayoutChanged(newReg, tpl)
	require.NoError(t, err)
	require.Len(t, refreshed.Tags, 3, "the o subtree must be dropped")

	// s keeps index 0; sample (previously after o) rebinds one slot down.
	newStruct, err := newReg.GetStructure(holderID)
	require.NoError(t, err)
	sampleIdx := newStruct.GetMainPropertyIndex(types.PropertyID(types.HashName("sample")))
	require.Equal(t, sampleIdx, refreshed.Tags[1].PropertyIndex)

	oldSampleIdx := structure.GetMainPropertyIndex(types.PropertyID(types.HashName("sample")))
	require.NotEqual(t, oldSampleIdx, sampleIdx, "removal must shift the following main property")

	// Blob shrinks to exactly the surviving payloads: "hi" and integer 5.
	want := append([]byte{0x02, 0x00}, []byte("hi")...)
	want = append(want, 0x05, 0x00, 0x00, 0x00)
	require.Equal(t, want, refreshed.Data)
}

func TestObjectReferenceRoundTrip(t *testing.T) {
	r, solver := newTestRegistry(t)

	other := &Holder{S: "pointee"}
	h := Holder{O: other}
	tpl, err := Save(r, holderID, &h, types.SkipNativeDefaultValues)
	require.NoError(t, err)
	require.Len(t, solver.byID, 1, "exactly one object id assigned")

	var out Holder
	require.NoError(t, Load(r, tpl, &out))
	require.Same(t, other, out.O, "the solver must resolve the reference back to the live object")
}

func TestToStringRendersTemplate(t *testing.T) {
	r, _ := newTestRegistry(t)

	h := Holder{S: "abc", Vec: []Sample{{Integer: 1}}}
	tpl, err := Save(r, holderID, &h, types.SkipNativeDefaultValues)
	require.NoError(t, err)

	out, err := ToString(r, tpl)
	require.NoError(t, err)
	require.Contains(t, out, "Holder")
	require.Contains(t, out, "abc")
}
