package typedesc

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// Schema renders d as a JSON Schema. Dynamic becomes the empty (accept-all) schema;
// mapping keys are not represented because JSON object keys are always strings.
func (d Descriptor) Schema() *jsonschema.Schema {
	switch d.kind {
	case KindString:
		return &jsonschema.Schema{Type: "string"}
	case KindInt:
		return &jsonschema.Schema{Type: "integer"}
	case KindFloat:
		return &jsonschema.Schema{Type: "number"}
	case KindBool:
		return &jsonschema.Schema{Type: "boolean"}
	case KindSequence:
		s := &jsonschema.Schema{Type: "array"}
		if d.elem != nil {
			s.Items = d.elem.Schema()
		}
		return s
	case KindMapping:
		s := &jsonschema.Schema{Type: "object"}
		if d.elem != nil && d.elem.kind != KindDynamic {
			s.AdditionalProperties = d.elem.Schema()
		}
		return s
	case KindUnion:
		s := &jsonschema.Schema{}
		for _, alt := range d.alts {
			s.AnyOf = append(s.AnyOf, alt.Schema())
		}
		return s
	case KindRecord:
		s := &jsonschema.Schema{
			Type:       "object",
			Title:      d.name,
			Properties: make(map[string]*jsonschema.Schema, len(d.fields)),
		}
		for _, f := range d.fields {
			s.Properties[f.Name] = f.Type.Schema()
			if f.Required {
				s.Required = append(s.Required, f.Name)
			}
		}
		return s
	case KindCustom:
		return &jsonschema.Schema{Title: d.name}
	}
	return &jsonschema.Schema{}
}

// SchemaMap returns Schema as a generic JSON map (the shape LLM providers accept).
func (d Descriptor) SchemaMap() map[string]any {
	return schemaToMap(d.Schema())
}

func schemaToMap(s *jsonschema.Schema) map[string]any {
	data, err := json.Marshal(s)
	if err != nil {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return map[string]any{}
	}
	// The accept-all schema marshals as the literal true.
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

// ObjectSchema builds an object schema from named properties, listing required names
// in the given order. It describes argument lists of tools and tasks.
func ObjectSchema(fields []FieldSpec) map[string]any {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(fields)),
	}
	for _, f := range fields {
		s.Properties[f.Name] = f.Type.Schema()
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
	}
	return schemaToMap(s)
}
