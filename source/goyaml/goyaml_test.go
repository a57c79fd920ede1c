package goyaml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	salad "github.com/reoring/salad"
	"github.com/reoring/salad/compiler"
	"github.com/reoring/salad/schema"
	"github.com/reoring/salad/source/goyaml"
)

func TestParse_TreeAndPositions(t *testing.T) {
	src := "name: demo\ncount: 3\nratio: 0.5\nok: true\nnothing: null\nitems:\n  - x\n  - y\n"
	doc, locs, err := goyaml.Parser().Parse([]byte(src), "file:///tmp/a.yml")
	require.NoError(t, err)

	m := doc.(map[string]any)
	assert.Equal(t, "demo", m["name"])
	assert.EqualValues(t, 3, m["count"])
	assert.Equal(t, 0.5, m["ratio"])
	assert.Equal(t, true, m["ok"])
	assert.Nil(t, m["nothing"])
	assert.Contains(t, m, "nothing")
	assert.Equal(t, []any{"x", "y"}, m["items"])

	loc := locs.Locate("/items/1")
	require.NotNil(t, loc)
	assert.Equal(t, "file:///tmp/a.yml", loc.File)
	assert.Equal(t, 8, loc.Line)

	loc = locs.Locate("/count")
	require.NotNil(t, loc)
	assert.Equal(t, 2, loc.Line)
	assert.Equal(t, 1, loc.Column)
}

func TestParse_AnchorsAndMerge(t *testing.T) {
	src := "base: &b\n  a: 1\n  b: 2\nderived:\n  <<: *b\n  b: 3\ncopy: *b\n"
	doc, _, err := goyaml.Parser().Parse([]byte(src), "mem")
	require.NoError(t, err)

	m := doc.(map[string]any)
	derived := m["derived"].(map[string]any)
	assert.EqualValues(t, 1, derived["a"])
	assert.EqualValues(t, 3, derived["b"])
	assert.Equal(t, m["base"], m["copy"])
}

func TestParse_Errors(t *testing.T) {
	_, _, err := goyaml.Parser().Parse([]byte("a: *missing\n"), "mem")
	assert.Error(t, err)

	_, _, err = goyaml.Parser().Parse([]byte("? [1, 2]\n: x\n"), "mem")
	assert.Error(t, err)
}

func TestParser_WithProgram(t *testing.T) {
	types, _, err := schema.Import([]any{map[string]any{
		"name": "http://x/#Note", "type": "record",
		"fields": []any{
			map[string]any{"name": "text", "type": "string"},
			map[string]any{"name": "stars", "type": []any{"null", "int"}},
		},
	}}, schema.Options{})
	require.NoError(t, err)
	prog, err := compiler.Compile(types, compiler.Options{})
	require.NoError(t, err)

	salad.SetParser(goyaml.Parser())
	t.Cleanup(salad.UseDefaultParser)
	assert.Equal(t, "go-yaml", salad.CurrentParser().Name())

	v, err := prog.LoadDocumentFromText([]byte("text: hi\nstars: 4\n"), "file:///tmp/n.yml", nil)
	require.NoError(t, err)
	stars, _ := v.(*salad.Record).Get("stars")
	assert.Equal(t, int64(4), stars)

	_, err = prog.LoadDocumentFromText([]byte("text: hi\nstars: many\n"), "file:///tmp/n.yml", nil)
	iss, ok := salad.AsIssues(err)
	require.True(t, ok)
	var line int
	for _, it := range iss {
		if it.Path == "/stars" {
			line = it.Line
		}
	}
	assert.Equal(t, 2, line)
}
