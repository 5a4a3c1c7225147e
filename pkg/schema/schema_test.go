package schema_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/exportable/pkg/record"
	"mercator-hq/exportable/pkg/schema"
)

func loadTypes(t *testing.T, v record.Validator) *schema.Registry {
	t.Helper()
	reg, err := schema.LoadFile("testdata/types.yaml", v)
	require.NoError(t, err)
	return reg
}

func mustGet(t *testing.T, reg *schema.Registry, name string) *record.Type {
	t.Helper()
	typ, err := reg.Get(name)
	require.NoError(t, err)
	return typ
}

func TestLoadFile(t *testing.T) {
	reg := loadTypes(t, nil)
	assert.Equal(t, []string{"legacy_tank", "tank", "tank_stats"}, reg.Names())

	tank := mustGet(t, reg, "tank")
	stats := mustGet(t, reg, "tank_stats")

	assert.Equal(t, []string{"tank_id"}, tank.Index())
	assert.Equal(t, []string{"tank_id", "name", "tier"}, tank.Columns())
	assert.Equal(t, []string{"legacy_tank"}, tank.Conversions())

	f, ok := tank.Field("stats")
	require.True(t, ok)
	assert.Equal(t, record.KindRecord, f.Kind)
	assert.Same(t, stats, f.Type, "nested types resolve to the registered type")

	f, _ = tank.Field("tags")
	assert.Equal(t, record.KindList, f.Kind)
	assert.Equal(t, record.KindString, f.Elem)

	legacy := mustGet(t, reg, "legacy_tank")
	assert.False(t, legacy.Policy().DBByAlias)
	assert.False(t, legacy.Policy().ExcludeDefaults)
	assert.True(t, legacy.Policy().ExcludeNone, "unset policy flags keep their default")

	rec, err := tank.Read(`{"_id": 7, "n": "T-34"}`)
	require.NoError(t, err)
	row, err := rec.TextRow("")
	require.NoError(t, err)
	assert.Equal(t, "7 T-34", row)

	_, err = reg.Get("missing")
	assert.ErrorIs(t, err, schema.ErrUnknownType)
}

func TestDefine_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown nested type",
			yaml: "types:\n  - name: a\n    fields:\n      - {name: b, type: nope}\n",
			want: "unknown nested type",
		},
		{
			name: "cycle",
			yaml: "types:\n  - name: a\n    fields:\n      - {name: b, type: b}\n  - name: b\n    fields:\n      - {name: a, type: a}\n",
			want: "cycle",
		},
		{
			name: "duplicate type",
			yaml: "types:\n  - name: a\n  - name: a\n",
			want: "defined twice",
		},
		{
			name: "unknown kind",
			yaml: "types:\n  - name: a\n    fields:\n      - {name: b, kind: decimal}\n",
			want: "unknown field kind",
		},
		{
			name: "bad index",
			yaml: "types:\n  - name: a\n    index: [b]\n    fields:\n      - {name: c}\n",
			want: "index field",
		},
		{
			name: "conversion without source",
			yaml: "types:\n  - name: a\n    conversions:\n      - fields: {a: b}\n",
			want: "conversion without from",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := schema.Parse(strings.NewReader(tt.yaml))
			require.NoError(t, err)

			err = schema.NewRegistry().Define(f, nil)
			require.Error(t, err)
			var defErr *schema.DefinitionError
			assert.ErrorAs(t, err, &defErr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := schema.Parse(strings.NewReader("types:\n  - name: a\n    colour: red\n"))
	assert.Error(t, err)

	f, err := schema.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Types)
}

func TestDefine_ExistingNestedType(t *testing.T) {
	reg := loadTypes(t, nil)
	f, err := schema.Parse(strings.NewReader("types:\n  - name: garage\n    fields:\n      - {name: favourite, type: tank}\n"))
	require.NoError(t, err)

	require.NoError(t, reg.Define(f, nil))
	garage := mustGet(t, reg, "garage")
	field, _ := garage.Field("favourite")
	assert.Same(t, mustGet(t, reg, "tank"), field.Type)

	assert.Error(t, reg.Define(f, nil), "types cannot be redefined")
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	garage := filepath.Join(dir, "garage.yaml")
	require.NoError(t, os.WriteFile(garage, []byte("types:\n  - name: garage\n    fields:\n      - {name: favourite, type: tank}\n"), 0o644))

	reg, err := schema.LoadFiles([]string{"testdata/types.yaml", garage}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, reg.Len())

	_, err = schema.LoadFiles([]string{garage}, nil)
	var defErr *schema.DefinitionError
	assert.True(t, errors.As(err, &defErr), "nested types must be defined first")

	_, err = schema.LoadFiles([]string{filepath.Join(dir, "missing.yaml")}, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)

	reg, err = schema.LoadFiles(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, reg.Len())
}

func TestMappedConversion(t *testing.T) {
	reg := loadTypes(t, nil)
	tank := mustGet(t, reg, "tank")
	legacy := mustGet(t, reg, "legacy_tank")

	rec, err := tank.ReadVia(legacy, `{"id": 5, "title": "KV-1", "tier": 3}`)
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.GetInt("tank_id"))
	assert.Equal(t, "KV-1", rec.GetString("name"))
	assert.False(t, rec.IsSet("tier"), "unmapped fields are not carried over")

	f, err := schema.Parse(strings.NewReader(`
types:
  - name: copied
    fields:
      - {name: id, kind: int}
      - {name: tier, kind: int}
      - {name: label, kind: string}
    conversions:
      - from: legacy_tank
        copy: true
        fields: {label: title}
`))
	require.NoError(t, err)
	require.NoError(t, reg.Define(f, nil))
	copied := mustGet(t, reg, "copied")

	rec, err = copied.ReadVia(legacy, `{"id": 9, "title": "IS", "tier": 7}`)
	require.NoError(t, err)
	assert.Equal(t, int64(9), rec.GetInt("id"))
	assert.Equal(t, int64(7), rec.GetInt("tier"))
	assert.Equal(t, "IS", rec.GetString("label"))
}

func TestCUESchema(t *testing.T) {
	reg := loadTypes(t, nil)
	src := schema.CUESchema(mustGet(t, reg, "tank"))

	assert.Contains(t, src, `import "time"`)
	assert.Contains(t, src, `"tank_id"!: int`)
	assert.Contains(t, src, `"premium"?: null | bool`)
	assert.Contains(t, src, `"released"?: null | time.Time`)
	assert.Contains(t, src, `"tags"?: [...string]`)
	assert.Contains(t, src, `"battles"?: int`)
}

func TestJSONSchema(t *testing.T) {
	reg := loadTypes(t, nil)
	data, err := schema.JSONSchemaBytes(mustGet(t, reg, "tank_stats"))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	want := map[string]any{
		"$schema":              schema.JSONSchemaDraft,
		"title":                "tank_stats",
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"battles": map[string]any{"type": "integer"},
			"wins":    map[string]any{"type": "integer"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("JSONSchema mismatch (-want +got):\n%s", diff)
	}

	doc := schema.JSONSchema(mustGet(t, reg, "tank"))
	assert.Equal(t, []string{"tank_id"}, doc["required"])
	props := doc["properties"].(map[string]any)
	assert.Equal(t, []any{"boolean", "null"}, props["premium"].(map[string]any)["type"])
}

// mentions reports whether any field error refers to field.
func mentions(err error, field string) bool {
	var verr *record.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	for _, fe := range verr.Errors {
		if fe.Path == field || strings.HasPrefix(fe.Path, field+".") || strings.Contains(fe.Message, field) {
			return true
		}
	}
	return false
}

func TestValidators(t *testing.T) {
	validators := map[string]record.Validator{
		"cue":        schema.NewCUEValidator(),
		"jsonschema": schema.NewJSONSchemaValidator(),
	}

	for name, v := range validators {
		t.Run(name, func(t *testing.T) {
			reg := loadTypes(t, v)
			tank := mustGet(t, reg, "tank")

			rec, err := tank.Read(`{"_id": 1, "n": "T-34", "premium": null, "released": "2024-01-02T03:04:05Z", "tags": ["a"], "stats": {"battles": 3}, "extra": true}`)
			require.NoError(t, err)
			assert.Equal(t, int64(3), rec.GetRecord("stats").GetInt("battles"))

			bad := []struct {
				input string
				field string
			}{
				{`{"name": "no id"}`, "tank_id"},
				{`{"tank_id": "one"}`, "tank_id"},
				{`{"tank_id": 1, "name": null}`, "name"},
				{`{"tank_id": 1, "tags": [1]}`, "tags"},
				{`{"tank_id": 1, "released": "yesterday"}`, "released"},
				{`{"tank_id": 1, "stats": {"battles": "many"}}`, "stats"},
			}
			for _, tc := range bad {
				_, err := tank.Read(tc.input)
				require.Error(t, err, tc.input)

				var readErr *record.ReadError
				require.True(t, errors.As(err, &readErr), tc.input)
				assert.True(t, mentions(err, tc.field), "%s: %v", tc.input, err)
			}
		})
	}
}

func TestJSONSchemaValidator_Paths(t *testing.T) {
	reg := loadTypes(t, schema.NewJSONSchemaValidator())
	tank := mustGet(t, reg, "tank")

	_, err := tank.Read(`{"stats": {"battles": "many"}}`)
	var verr *record.ValidationError
	require.True(t, errors.As(err, &verr))

	paths := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		paths = append(paths, fe.Path)
	}
	assert.Contains(t, paths, "tank_id")
	assert.Contains(t, paths, "stats.battles")
}

func TestNewValidator(t *testing.T) {
	v, err := schema.NewValidator("none")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = schema.NewValidator("CUE")
	require.NoError(t, err)
	assert.IsType(t, &schema.CUEValidator{}, v)

	v, err = schema.NewValidator("jsonschema")
	require.NoError(t, err)
	assert.IsType(t, &schema.JSONSchemaValidator{}, v)

	_, err = schema.NewValidator("xsd")
	assert.Error(t, err)
}
