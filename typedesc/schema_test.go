package typedesc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaMap(t *testing.T) {
	t.Parallel()
	got := SequenceOf(item).SchemaMap()
	assert.Equal(t, "array", got["type"])
	items, ok := got["items"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", items["type"])
	assert.Equal(t, "Item", items["title"])
	assert.Equal(t, []any{"name"}, items["required"])
	props, ok := items["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"type": "string"}, props["name"])
	assert.Equal(t, map[string]any{"type": "number"}, props["price"])
}

func TestSchemaMap_Variants(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Dynamic().SchemaMap())
	assert.Equal(t, map[string]any{"type": "integer"}, Int().SchemaMap())
	assert.Equal(t, map[string]any{"type": "boolean"}, Bool().SchemaMap())
	assert.Equal(t, map[string]any{"type": "object"}, Mapping().SchemaMap())
	assert.Equal(t, map[string]any{
		"type":                 "object",
		"additionalProperties": map[string]any{"type": "number"},
	}, MappingOf(String(), Float()).SchemaMap())
	assert.Equal(t, map[string]any{
		"anyOf": []any{map[string]any{"type": "integer"}, map[string]any{"type": "string"}},
	}, UnionOf(Int(), String()).SchemaMap())
}

func TestSchema_ValidatesModelOutput(t *testing.T) {
	t.Parallel()
	resolved, err := SequenceOf(item).Schema().Resolve(nil)
	require.NoError(t, err)

	var good any
	require.NoError(t, json.Unmarshal([]byte(`[{"name":"apple","price":3.5}]`), &good))
	require.NoError(t, resolved.Validate(good))

	var bad any
	require.NoError(t, json.Unmarshal([]byte(`[{"price":3.5}]`), &bad))
	require.Error(t, resolved.Validate(bad))
}

func TestObjectSchema(t *testing.T) {
	t.Parallel()
	got := ObjectSchema([]FieldSpec{
		Field("country_code", String()),
		OptionalField("year", Int()),
	})
	assert.Equal(t, "object", got["type"])
	assert.Equal(t, []any{"country_code"}, got["required"])
	props, ok := got["properties"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, props, 2)
}
