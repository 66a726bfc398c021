package snapshot

import (
	"github.com/vk/walkgrid/internal/arch"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// objectType is the declared shape of an architype's field set.
func objectType(a *arch.Architype) cty.Type {
	fields := a.EffectiveFields()
	attrs := make(map[string]cty.Type, len(fields))
	for _, f := range fields {
		attrs[f.Name] = f.Type
	}
	return cty.Object(attrs)
}

func encodeFields(a *arch.Architype, fields *arch.Fields) ([]byte, error) {
	vals := fields.Map()
	if len(vals) == 0 {
		return ctyjson.Marshal(cty.EmptyObjectVal, cty.EmptyObject)
	}
	return ctyjson.Marshal(cty.ObjectVal(vals), objectType(a))
}

func decodeFields(a *arch.Architype, raw []byte) (map[string]cty.Value, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	v, err := ctyjson.Unmarshal(raw, objectType(a))
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	return v.AsValueMap(), nil
}
