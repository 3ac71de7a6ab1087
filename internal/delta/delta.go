// Package delta implements the delta algebra: Merge and Diff over a pair
// of DataTemplates via a synchronized dual-cursor walk of their tag
// sequences.
package delta

import (
	"bytes"

	"github.com/k4210/dtengine/internal/codec"
	"github.com/k4210/dtengine/internal/typereg"
	"github.com/k4210/dtengine/pkg/dtcore"
	"github.com/k4210/dtengine/pkg/types"
)

type op uint8

const (
	opMerge op = iota
	opDiff
)

type state struct {
	registry   *typereg.Registry
	lower      *dtcore.DataTemplate
	higher     *dtcore.DataTemplate
	out        *dtcore.DataTemplate
	nestOffset uint8
	op         op
}

// Merge produces a template equivalent to "lower overlaid with higher":
// where both provide a tag, higher wins; where only one provides a tag
// within the applicable container bound, that tag is copied.
func Merge(registry *typereg.Registry, lower, higher *dtcore.DataTemplate) (*dtcore.DataTemplate, error) {
	return run(registry, lower, higher, opMerge)
}

// Diff produces a template containing exactly the tags in higher that
// differ from lower; tags present only in lower are dropped.
func Diff(registry *typereg.Registry, higher, lower *dtcore.DataTemplate) (*dtcore.DataTemplate, error) {
	return run(registry, lower, higher, opDiff)
}

func run(registry *typereg.Registry, lower, higher *dtcore.DataTemplate, o op) (*dtcore.DataTemplate, error) {
	st := &state{registry: registry, lower: lower, higher: higher, out: dtcore.NewEmptyDataTemplate(), op: o}

	// The synchronized walk only runs while both sides have tags. An empty
	// template (everything elided on Save) contributes nothing to descend
	// into; the other side's tags are then copied verbatim by the trailing
	// loops below.
	lowI, highI := 0, 0
	if len(lower.Tags) > 0 && len(higher.Tags) > 0 {
		if higher.StructureID != lower.StructureID {
			highStruct, err := registry.GetStructure(higher.StructureID)
			if err != nil {
				return nil, err
			}
			cur := highStruct
			for cur.ID != lower.StructureID {
				// Each inheritance level down to the common base must be
				// matched by the super-struct tag higher's Save emitted at
				// that depth; advancing past anything else would desync the
				// cursors from the registry's chain.
				types.Invariant(highI < len(higher.Tags),
					"delta: higher template ran out of tags descending from %#x to base %#x", uint32(higher.StructureID), uint32(lower.StructureID))
				head := higher.Tags[highI]
				types.Invariant(head.IsSuperStruct() && head.NestLevel == st.nestOffset,
					"delta: expected super-struct tag at nest %d in higher template, got property %#x", st.nestOffset, uint32(head.PropertyID))

				dataOffset := uint32(len(st.out.Data))
				st.out.Tags = append(st.out.Tags, dtcore.NewSuperStructTag(dataOffset, st.nestOffset))
				st.nestOffset++
				highI++
				super, ok := registry.TryGetStructure(cur.SuperID)
				if !ok {
					return nil, types.Newf(types.ErrKindSchemaDrift, "delta: no common base structure between %#x and %#x", uint32(higher.StructureID), uint32(lower.StructureID))
				}
				cur = super
			}
		}

		base, err := registry.GetStructure(lower.StructureID)
		if err != nil {
			return nil, err
		}
		lowI, highI = st.processInner(base, 0, lowI, highI, 1)
	}

	// The synchronized walk stops once the common base structure's tags are
	// exhausted; whatever follows belongs to higher's own derived levels
	// (copied for both operations) or to lower's trailing subtrees (copied
	// only when merging).
	for highI < len(higher.Tags) {
		highI = copySubtree(st.out, higher, highI, 0)
	}
	if o == opMerge {
		for lowI < len(lower.Tags) {
			lowI = copySubtree(st.out, lower, lowI, st.nestOffset)
		}
	}
	st.out.MarkPopulated(higher.StructureID)
	return st.out, nil
}

func tagAt(dt *dtcore.DataTemplate, idx int, wantNest uint8) (dtcore.Tag, bool) {
	if idx < len(dt.Tags) && dt.Tags[idx].NestLevel == wantNest {
		return dt.Tags[idx], true
	}
	return dtcore.Tag{}, false
}

// processInner walks synchronized cursors over structureCtx's tags at
// lowLevel (lower) / lowLevel+nestOffset (higher), dispatching pairwise
// equal tags to processValue and copying one-sided subtrees.
func (st *state) processInner(structureCtx *typereg.Structure, lowLevel uint8, lowI, highI int, maxSize int) (int, int) {
	for {
		lowTag, lowOK := tagAt(st.lower, lowI, lowLevel)
		highTag, highOK := tagAt(st.higher, highI, lowLevel+st.nestOffset)

		switch {
		case lowOK && highOK && dtcore.TagEqual(lowTag, highTag):
			lowI, highI = st.processValue(structureCtx, lowTag, highTag, lowI, highI, lowLevel)

		case lowOK && (!highOK || dtcore.IsTagFirst(lowTag, highTag)):
			if st.op == opMerge {
				if int(lowTag.ElementIndex) >= maxSize {
					lowI = skipSubtree(st.lower, lowI)
				} else {
					lowI = copySubtree(st.out, st.lower, lowI, st.nestOffset)
				}
			} else {
				lowI = skipSubtree(st.lower, lowI)
			}

		case highOK && (!lowOK || dtcore.IsTagFirst(highTag, lowTag)):
			highI = copySubtree(st.out, st.higher, highI, 0)

		default:
			return lowI, highI
		}
	}
}

// processValue handles a pair of tag-equal tags: scalars/strings/object
// refs copy higher's payload (dropping the tag entirely in Diff when the
// values agree); composites recurse.
func (st *state) processValue(structureCtx *typereg.Structure, lowTag, highTag dtcore.Tag, lowI, highI int, lowLevel uint8) (int, int) {
	if lowTag.IsSuperStruct() {
		tagIdx := len(st.out.Tags)
		dataOffset := uint32(len(st.out.Data))
		st.out.Tags = append(st.out.Tags, dtcore.NewSuperStructTag(dataOffset, lowLevel+st.nestOffset))
		super, ok := st.registry.TryGetStructure(structureCtx.SuperID)
		types.Invariant(ok, "delta: super structure %#x missing from registry", uint32(structureCtx.SuperID))
		newLowI, newHighI := st.processInner(super, lowLevel+1, lowI+1, highI+1, 1)
		if st.op == opDiff && len(st.out.Tags) == tagIdx+1 {
			st.out.Tags = st.out.Tags[:tagIdx]
		}
		return newLowI, newHighI
	}

	propIdx := lowTag.PropertyIndex
	p := structureCtx.GetProperty(propIdx)

	switch p.Kind {
	case types.KindStruct:
		sub, err := st.registry.GetStructure(p.ElemStructID)
		types.Invariant(err == nil, "delta: nested structure %#x missing from registry", uint32(p.ElemStructID))
		tagIdx := len(st.out.Tags)
		dataOffset := uint32(len(st.out.Data))
		st.out.Tags = append(st.out.Tags, dtcore.NewTag(highTag.PropertyID, dataOffset, highTag.ElementIndex, lowLevel+st.nestOffset, highTag.IsKey, p.Kind, highTag.SubPropertyOffset, propIdx, highTag.Flags))
		newLowI, newHighI := st.processInner(sub, lowLevel+1, lowI+1, highI+1, 1)
		if st.op == opDiff && len(st.out.Tags) == tagIdx+1 {
			st.out.Tags = st.out.Tags[:tagIdx]
		}
		return newLowI, newHighI

	case types.KindArray:
		tagIdx := len(st.out.Tags)
		dataOffset := uint32(len(st.out.Data))
		st.out.Tags = append(st.out.Tags, dtcore.NewTag(highTag.PropertyID, dataOffset, highTag.ElementIndex, lowLevel+st.nestOffset, highTag.IsKey, p.Kind, highTag.SubPropertyOffset, propIdx, highTag.Flags))
		newLowI, newHighI := st.processInner(structureCtx, lowLevel+1, lowI+1, highI+1, p.ArrayLen)
		if st.op == opDiff && len(st.out.Tags) == tagIdx+1 {
			st.out.Tags = st.out.Tags[:tagIdx]
		}
		return newLowI, newHighI

	case types.KindVector, types.KindMap:
		tagIdx := len(st.out.Tags)
		dataOffset := uint32(len(st.out.Data))
		length := codec.DecodeLength16(st.higher.PayloadFor(highI))
		st.out.Tags = append(st.out.Tags, dtcore.NewTag(highTag.PropertyID, dataOffset, highTag.ElementIndex, lowLevel+st.nestOffset, highTag.IsKey, p.Kind, highTag.SubPropertyOffset, propIdx, highTag.Flags))
		lengthDataIdx := len(st.out.Data)
		st.out.Data = codec.AppendLength16(st.out.Data, length)
		newLowI, newHighI := st.processInner(structureCtx, lowLevel+1, lowI+1, highI+1, length)
		if st.op == opDiff && len(st.out.Tags) == tagIdx+1 {
			st.out.Tags = st.out.Tags[:tagIdx]
			st.out.Data = st.out.Data[:lengthDataIdx]
		}
		return newLowI, newHighI

	default: // scalar/string/object-ref
		lowPayload := st.lower.PayloadFor(lowI)
		highPayload := st.higher.PayloadFor(highI)
		if st.op == opDiff && bytes.Equal(lowPayload, highPayload) {
			return lowI + 1, highI + 1
		}
		dataOffset := uint32(len(st.out.Data))
		st.out.Tags = append(st.out.Tags, dtcore.NewTag(highTag.PropertyID, dataOffset, highTag.ElementIndex, lowLevel+st.nestOffset, highTag.IsKey, p.Kind, highTag.SubPropertyOffset, propIdx, highTag.Flags))
		st.out.Data = append(st.out.Data, highPayload...)
		return lowI + 1, highI + 1
	}
}

// copySubtree copies the tag at idx and every tag nested more deeply than
// it from src into out, shifting NestLevel by nestShift and recomputing
// DataOffset contiguously.
func copySubtree(out *dtcore.DataTemplate, src *dtcore.DataTemplate, idx int, nestShift uint8) int {
	base := src.Tags[idx].NestLevel
	end := idx + 1
	for end < len(src.Tags) && src.Tags[end].NestLevel > base {
		end++
	}
	for i := idx; i < end; i++ {
		t := src.Tags[i]
		t.NestLevel += nestShift
		t.DataOffset = uint32(len(out.Data))
		out.Tags = append(out.Tags, t)
		out.Data = append(out.Data, src.PayloadFor(i)...)
	}
	return end
}

func skipSubtree(dt *dtcore.DataTemplate, idx int) int {
	base := dt.Tags[idx].NestLevel
	cur := idx + 1
	for cur < len(dt.Tags) && dt.Tags[cur].NestLevel > base {
		cur++
	}
	return cur
}
