// Package printer renders a DataTemplate as a JSON document for tests and
// diagnostics, walking tags with the same preorder grammar Save used to
// write them.
package printer

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/k4210/dtengine/internal/codec"
	"github.com/k4210/dtengine/internal/typereg"
	"github.com/k4210/dtengine/pkg/dtcore"
	"github.com/k4210/dtengine/pkg/types"
)

// Printer walks a DataTemplate against the type registry that describes it.
type Printer struct {
	registry *typereg.Registry
	dt       *dtcore.DataTemplate
}

// New returns a Printer bound to registry.
func New(registry *typereg.Registry) *Printer {
	return &Printer{registry: registry}
}

// ToString renders dt as an indented JSON document: an outer object naming
// the structure, then one entry per value tag keyed by a composed
// descriptor string.
func (p *Printer) ToString(dt *dtcore.DataTemplate) (string, error) {
	structure, err := p.registry.GetStructure(dt.StructureID)
	if err != nil {
		return "", err
	}
	p.dt = dt

	body, _ := p.printLevel(structure, 0, 0)
	root := map[string]any{
		"struct_id":   fmt.Sprintf("%#x", uint32(dt.StructureID)),
		"struct_name": structure.Name,
		"properties":  body,
	}
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *Printer) printLevel(structureCtx *typereg.Structure, idx int, nestLevel uint8) (map[string]any, int) {
	out := map[string]any{}
	for idx < len(p.dt.Tags) {
		tag := p.dt.Tags[idx]
		if tag.NestLevel != nestLevel {
			break
		}
		if tag.IsSuperStruct() {
			super, ok := p.registry.TryGetStructure(structureCtx.SuperID)
			if !ok {
				idx++
				continue
			}
			sub, next := p.printLevel(super, idx+1, nestLevel+1)
			out["@super"] = sub
			idx = next
			continue
		}

		prop := structureCtx.GetProperty(tag.PropertyIndex)
		descriptor := fmt.Sprintf("%#x/%s/%s/nest=%d/elem=%d/key=%t", uint32(tag.PropertyID), prop.Name, prop.Kind, tag.NestLevel, tag.ElementIndex, tag.IsKey)
		val, next := p.printValue(structureCtx, tag.PropertyIndex, prop, tag, idx)
		out[descriptor] = val
		idx = next
	}
	return out, idx
}

func (p *Printer) printValue(structureCtx *typereg.Structure, propIdx types.PropertyIndex, prop typereg.Property, tag dtcore.Tag, idx int) (any, int) {
	switch prop.Kind {
	case types.KindStruct:
		sub, err := p.registry.GetStructure(prop.ElemStructID)
		if err != nil {
			return nil, idx + 1
		}
		return p.printLevel(sub, idx+1, tag.NestLevel+1)

	case types.KindArray:
		elemIdx := structureCtx.GetSubPropertyIndex(propIdx, types.SubTypeArrayElement)
		elems := []any{}
		cur := idx + 1
		for cur < len(p.dt.Tags) {
			t2 := p.dt.Tags[cur]
			if t2.PropertyIndex != elemIdx || t2.NestLevel != tag.NestLevel+1 {
				break
			}
			var v any
			v, cur = p.printValue(structureCtx, elemIdx, structureCtx.GetProperty(elemIdx), t2, cur)
			elems = append(elems, v)
		}
		return map[string]any{"length": prop.ArrayLen, "elements": elems}, cur

	case types.KindVector:
		length := codec.DecodeLength16(p.dt.PayloadFor(idx))
		elemIdx := structureCtx.GetSubPropertyIndex(propIdx, types.SubTypeVectorElement)
		elems := []any{}
		cur := idx + 1
		for cur < len(p.dt.Tags) {
			t2 := p.dt.Tags[cur]
			if t2.PropertyIndex != elemIdx || t2.NestLevel != tag.NestLevel+1 {
				break
			}
			var v any
			v, cur = p.printValue(structureCtx, elemIdx, structureCtx.GetProperty(elemIdx), t2, cur)
			elems = append(elems, v)
		}
		return map[string]any{"length": length, "elements": elems}, cur

	case types.KindMap:
		length := codec.DecodeLength16(p.dt.PayloadFor(idx))
		keyIdx := structureCtx.GetSubPropertyIndex(propIdx, types.SubTypeKey)
		valIdx := structureCtx.GetSubPropertyIndex(propIdx, types.SubTypeMapValue)
		entries := []any{}
		cur := idx + 1
		for cur < len(p.dt.Tags) {
			t2 := p.dt.Tags[cur]
			if t2.NestLevel != tag.NestLevel+1 || !t2.IsKey || t2.PropertyIndex != keyIdx {
				break
			}
			var keyVal, valVal any
			keyVal, cur = p.printValue(structureCtx, keyIdx, structureCtx.GetProperty(keyIdx), t2, cur)
			if cur < len(p.dt.Tags) {
				t3 := p.dt.Tags[cur]
				if !t3.IsKey && t3.NestLevel == tag.NestLevel+1 && t3.PropertyIndex == valIdx {
					valVal, cur = p.printValue(structureCtx, valIdx, structureCtx.GetProperty(valIdx), t3, cur)
				}
			}
			entries = append(entries, map[string]any{"key": keyVal, "value": valVal})
		}
		return map[string]any{"length": length, "entries": entries}, cur

	case types.KindString:
		s, _ := codec.DecodeString(p.dt.PayloadFor(idx))
		return sanitizeForDisplay(s), idx + 1

	case types.KindObjectRef:
		sid, oid := codec.DecodeObjectRef(p.dt.PayloadFor(idx))
		return map[string]any{"struct_id": fmt.Sprintf("%#x", uint32(sid)), "object_id": fmt.Sprintf("%#x", uint64(oid))}, idx + 1

	default: // scalar
		return codec.DecodeScalar(prop.Kind, p.dt.PayloadFor(idx)), idx + 1
	}
}

// sanitizeForDisplay guards against structural drift producing a string
// payload that is not valid UTF-8 (e.g. a layout change reinterpreting a
// byte-oriented field as KindString): the raw bytes are re-decoded as
// Windows-1252 rather than letting json.Marshal replace them with U+FFFD
// silently.
func sanitizeForDisplay(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return decoded
}
