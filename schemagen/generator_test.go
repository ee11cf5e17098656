package schemagen_test

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tylerbryy/stream-schema/schemagen"
)

func TestGenerateObject(t *testing.T) {
	t.Parallel()

	gen := schemagen.NewGenerator()

	s, err := gen.Generate([]byte(`{"name": "John", "age": 30, "score": 1.5, "ok": true, "note": null}`))
	require.NoError(t, err)

	assert.Equal(t, "http://json-schema.org/draft-07/schema#", s.Schema)
	assert.Equal(t, "object", s.Type)
	assert.Equal(t, []string{"name", "age", "score", "ok", "note"}, s.PropertyOrder)

	require.Contains(t, s.Properties, "name")
	assert.Equal(t, "string", s.Properties["name"].Type)

	// Whole numbers infer as integer, fractions as number.
	assert.Equal(t, "integer", s.Properties["age"].Type)
	assert.Equal(t, "number", s.Properties["score"].Type)
	assert.Equal(t, "boolean", s.Properties["ok"].Type)

	// Null emits no type constraint.
	assert.Empty(t, s.Properties["note"].Type)

	// Fail open: nothing is required.
	assert.Nil(t, s.Required)
}

func TestGenerateArrays(t *testing.T) {
	t.Parallel()

	gen := schemagen.NewGenerator()

	tcs := map[string]struct {
		input    string
		wantType string
		wantNil  bool
	}{
		"uniform scalars": {input: `[1, 2, 3]`, wantType: "integer"},
		"widened numbers": {input: `[1, 2.5]`, wantType: "number"},
		"mixed kinds":     {input: `[1, "x"]`, wantNil: true},
		"empty":           {input: `[]`, wantNil: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, err := gen.Generate([]byte(tc.input))
			require.NoError(t, err)

			assert.Equal(t, "array", s.Type)

			if tc.wantNil {
				assert.Nil(t, s.Items)

				return
			}

			require.NotNil(t, s.Items)
			assert.Equal(t, tc.wantType, s.Items.Type)
		})
	}
}

func TestGenerateObjectArrayMergesItems(t *testing.T) {
	t.Parallel()

	gen := schemagen.NewGenerator()

	s, err := gen.Generate([]byte(`[{"a": 1}, {"b": "x"}]`))
	require.NoError(t, err)

	require.NotNil(t, s.Items)
	assert.Equal(t, "object", s.Items.Type)
	assert.Contains(t, s.Items.Properties, "a")
	assert.Contains(t, s.Items.Properties, "b")
}

func TestGenerateMergeUnion(t *testing.T) {
	t.Parallel()

	gen := schemagen.NewGenerator()

	s, err := gen.Generate(
		[]byte(`{"a": 1, "b": "hello"}`),
		[]byte(`{"b": "world", "c": true}`),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, s.PropertyOrder)
	assert.Equal(t, "integer", s.Properties["a"].Type)
	assert.Equal(t, "string", s.Properties["b"].Type)
	assert.Equal(t, "boolean", s.Properties["c"].Type)
}

func TestGenerateMergeWidening(t *testing.T) {
	t.Parallel()

	gen := schemagen.NewGenerator()

	tcs := map[string]struct {
		inputA string
		inputB string
		want   string
	}{
		"integer + number -> number":      {inputA: `{"v": 1}`, inputB: `{"v": 1.5}`, want: "number"},
		"same type preserved":             {inputA: `{"v": 1}`, inputB: `{"v": 5}`, want: "integer"},
		"incompatible drops constraint":   {inputA: `{"v": "x"}`, inputB: `{"v": 1}`, want: ""},
		"null merges transparently":       {inputA: `{"v": null}`, inputB: `{"v": "x"}`, want: "string"},
		"object + scalar drops constraint": {inputA: `{"v": {"a": 1}}`, inputB: `{"v": 3}`, want: ""},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, err := gen.Generate([]byte(tc.inputA), []byte(tc.inputB))
			require.NoError(t, err)

			require.Contains(t, s.Properties, "v")
			assert.Equal(t, tc.want, s.Properties["v"].Type)
		})
	}
}

func TestMergeSchemasRequiredIntersection(t *testing.T) {
	t.Parallel()

	a := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"name", "age"},
	}
	b := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"age", "email"},
	}

	merged := schemagen.MergeSchemas(a, b)

	// A property stays required only if required in every input.
	assert.Equal(t, []string{"age"}, merged.Required)

	// One side without required empties the intersection.
	merged = schemagen.MergeSchemas(a, &jsonschema.Schema{Type: "object"})
	assert.Nil(t, merged.Required)
}

func TestMergeSchemasNilSides(t *testing.T) {
	t.Parallel()

	s := &jsonschema.Schema{Type: "string"}

	assert.Same(t, s, schemagen.MergeSchemas(nil, s))
	assert.Same(t, s, schemagen.MergeSchemas(s, nil))
}

func TestGenerateLenientInput(t *testing.T) {
	t.Parallel()

	gen := schemagen.NewGenerator()

	// Raw model output with unquoted keys and a trailing comma still
	// infers.
	s, err := gen.Generate([]byte(`{name: 'John', age: 30,}`))
	require.NoError(t, err)

	assert.Equal(t, "object", s.Type)
	assert.Equal(t, []string{"name", "age"}, s.PropertyOrder)
}

func TestGenerateScalarRoot(t *testing.T) {
	t.Parallel()

	gen := schemagen.NewGenerator()

	s, err := gen.Generate([]byte(`42`))
	require.NoError(t, err)
	assert.Equal(t, "integer", s.Type)
}

func TestGenerateOptions(t *testing.T) {
	t.Parallel()

	gen := schemagen.NewGenerator(
		schemagen.WithTitle("Sample"),
		schemagen.WithDescription("desc"),
		schemagen.WithID("https://example.com/schema.json"),
		schemagen.WithStrict(true),
	)

	s, err := gen.Generate([]byte(`{"a": 1}`))
	require.NoError(t, err)

	assert.Equal(t, "Sample", s.Title)
	assert.Equal(t, "desc", s.Description)
	assert.Equal(t, "https://example.com/schema.json", s.ID)

	// Strict mode denies unknown properties.
	require.NotNil(t, s.AdditionalProperties)
	assert.NotNil(t, s.AdditionalProperties.Not)
}

func TestGenerateEmptyInputs(t *testing.T) {
	t.Parallel()

	gen := schemagen.NewGenerator()

	s, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, "http://json-schema.org/draft-07/schema#", s.Schema)
	assert.Empty(t, s.Type)

	s, err = gen.Generate([]byte("   \n"))
	require.NoError(t, err)
	assert.Empty(t, s.Type)
}
