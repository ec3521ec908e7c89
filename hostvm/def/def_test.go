package def

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/wippyai/hostref/errors"
)

func TestLoad_FormatsAgree(t *testing.T) {
	y, err := Load(filepath.Join("testdata", "foo.yaml"))
	require.NoError(t, err)
	tm, err := Load(filepath.Join("testdata", "foo.toml"))
	require.NoError(t, err)

	for _, d := range []*Definition{y, tm} {
		require.Len(t, d.Classes, 2)
		require.Len(t, d.Objects, 3)

		foo := d.Class("com/example/Foo")
		require.NotNil(t, foo)
		assert.Equal(t, "com/example/Base", foo.Super)
		assert.Len(t, foo.Fields, 5)
		assert.Len(t, foo.Methods, 2)

		obj := d.Object("foo")
		require.NotNil(t, obj)
		assert.Equal(t, KindObject, obj.ObjectKind())

		f, ok := d.LookupField("com/example/Foo", "bar")
		require.True(t, ok)
		v, err := Coerce(f.Sig, obj.Fields["bar"])
		require.NoError(t, err)
		assert.Equal(t, int32(42), v)

		inherited, ok := d.LookupField("com/example/Foo", "id")
		require.True(t, ok)
		assert.Equal(t, "J", inherited.Sig)

		arr := d.Object("all")
		require.NotNil(t, arr)
		assert.Equal(t, []string{"foo", ""}, arr.Elements)
	}

	assert.Equal(t, filepath.Join("testdata", "foo.yaml"), y.Source)
	assert.Equal(t, y.Classes, tm.Classes)
}

func TestLoad_UnknownExtension(t *testing.T) {
	_, err := Load("host.json")
	require.Error(t, err)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.PhaseConfig, e.Phase)
	assert.Equal(t, errors.KindInvalidInput, e.Kind)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_Empty(t *testing.T) {
	d, err := Parse(nil, FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, d.Classes)

	d, err = Parse(nil, FormatTOML)
	require.NoError(t, err)
	assert.Empty(t, d.Objects)
}

func TestParse_UnknownKeys(t *testing.T) {
	_, err := Parse([]byte("classez: []\n"), FormatYAML)
	assert.Error(t, err)

	_, err = Parse([]byte("[[classes]]\nname = \"A\"\ncolour = \"red\"\n"), FormatTOML)
	assert.Error(t, err)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	d := &Definition{
		Classes: []Class{
			{Name: "A", Super: "Missing", Fields: []Field{
				{Name: "x", Sig: "Q"},
				{Name: "x", Sig: "I"},
			}, Methods: []Method{{Name: "m", Sig: "V"}}},
			{Name: "A"},
			{},
		},
		Objects: []Object{
			{Name: "a", Class: "A", Fields: map[string]any{"x": "nope", "y": 1}},
			{Name: "a", Kind: "widget"},
			{Name: "s", Kind: KindString, Elements: []string{"a"}},
			{Name: "arr", Kind: KindArray, Elements: []string{"ghost"}},
			{Name: "b", Class: "B"},
		},
	}

	err := d.Validate()
	require.Error(t, err)

	errs := multierr.Errors(err)
	assert.Len(t, errs, 13)
	for _, e := range errs {
		var se *errors.Error
		require.ErrorAs(t, e, &se)
		assert.Equal(t, errors.PhaseConfig, se.Phase)
		assert.Equal(t, errors.KindInvalidData, se.Kind)
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		sig     string
		in      any
		want    any
		wantErr bool
	}{
		{"I", 42, int32(42), false},
		{"I", int64(-3), int32(-3), false},
		{"I", int64(1) << 40, nil, true},
		{"I", "42", nil, true},
		{"J", int64(1) << 40, int64(1) << 40, false},
		{"Z", true, true, false},
		{"Z", 1, nil, true},
		{"F", 1.5, float32(1.5), false},
		{"F", 2, float32(2), false},
		{"D", int64(3), float64(3), false},
		{"Lcom/example/Foo;", "foo", "foo", false},
		{"Lcom/example/Foo;", nil, "", false},
		{"[I", 1, nil, true},
		{"V", 1, nil, true},
	}

	for _, tt := range tests {
		got, err := Coerce(tt.sig, tt.in)
		if tt.wantErr {
			assert.Error(t, err, "%s %v", tt.sig, tt.in)
			continue
		}
		require.NoError(t, err, "%s %v", tt.sig, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestSignatures(t *testing.T) {
	for _, sig := range []string{"I", "J", "Z", "F", "D", "Lcom/Foo;", "[I", "[[B", "[Lcom/Foo;"} {
		assert.True(t, ValidFieldSig(sig), sig)
	}
	for _, sig := range []string{"", "V", "B", "L;", "Lcom/Foo", "[", "[V", "Lcom;Foo;"} {
		assert.False(t, ValidFieldSig(sig), sig)
	}
	for _, sig := range []string{"()V", "(I)J", "(Lcom/Foo;[I)Lcom/Foo;", "()B"} {
		assert.True(t, ValidMethodSig(sig), sig)
	}
	for _, sig := range []string{"V", "(I", "()", "()Q"} {
		assert.False(t, ValidMethodSig(sig), sig)
	}
}

func TestValidate_CyclicHierarchy(t *testing.T) {
	d := &Definition{Classes: []Class{
		{Name: "A", Super: "B"},
		{Name: "B", Super: "A"},
		{Name: "C", Super: "A"},
	}}

	errs := multierr.Errors(d.Validate())
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "A")
	assert.Contains(t, errs[1].Error(), "B")
	for _, e := range errs {
		assert.Contains(t, e.Error(), "cyclic super chain")
	}
}
