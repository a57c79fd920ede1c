package salad_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	salad "github.com/reoring/salad"
	"github.com/reoring/salad/compiler"
	"github.com/reoring/salad/schema"
)

const workflowSchema = `
- name: http://example.com/#Color
  type: enum
  symbols:
    - http://example.com/#red
    - http://example.com/#blue
- name: http://example.com/#PrimitiveType
  type: enum
  symbols:
    - https://w3id.org/cwl/salad#null
    - http://www.w3.org/2001/XMLSchema#string
    - http://www.w3.org/2001/XMLSchema#int
- name: http://example.com/#ArraySchema
  type: record
  fields:
    - name: type
      type:
        type: enum
        name: http://example.com/#ArrayTag
        symbols: [https://w3id.org/cwl/salad#array]
      jsonldPredicate:
        _type: "@vocab"
    - name: items
      type: http://example.com/#PrimitiveType
      jsonldPredicate:
        _type: "@vocab"
- name: http://example.com/#Parameter
  type: record
  fields:
    - name: id
      type: string
      jsonldPredicate: "@id"
    - name: label
      type: ["null", string]
    - name: type
      type:
        - "null"
        - http://example.com/#PrimitiveType
        - http://example.com/#ArraySchema
        - type: array
          items: [http://example.com/#PrimitiveType, http://example.com/#ArraySchema]
      jsonldPredicate:
        typeDSL: true
- name: http://example.com/#Process
  type: record
  abstract: true
  fields: []
- name: http://example.com/#Workflow
  type: record
  extends: http://example.com/#Process
  documentRoot: true
  fields:
    - name: class
      type: string
    - name: id
      type: ["null", string]
      jsonldPredicate: "@id"
    - name: label
      type: ["null", string]
    - name: color
      type: ["null", http://example.com/#Color]
      jsonldPredicate:
        _type: "@vocab"
    - name: version
      type: ["null", int]
    - name: inputs
      type:
        type: array
        items: http://example.com/#Parameter
      jsonldPredicate:
        mapSubject: id
        mapPredicate: label
    - name: source
      type: ["null", string, {type: array, items: string}]
      jsonldPredicate:
        _type: "@id"
        refScope: 1
    - name: steps
      type: ["null", {type: array, items: http://example.com/#Process}]
- name: http://example.com/#Tool
  type: record
  extends: http://example.com/#Process
  documentRoot: true
  fields:
    - name: class
      type: string
    - name: id
      type: ["null", string]
      jsonldPredicate: "@id"
    - name: label
      type: string
`

const docURI = "file:///tmp/wf.yml"

const workflowDoc = `
class: Workflow
id: main
label: demo
color: red
version: 2
$namespaces:
  ex: http://example.com/ext#
ex:note: hello
inputs:
  a: first
  b:
    type: string[]?
source: [a, b]
steps:
  - class: Tool
    label: t1
  - class: Tool
    id: t2
    label: t2
`

func compileWorkflow(t *testing.T) *salad.Program {
	t.Helper()
	types, _, err := schema.ImportYAML([]byte(workflowSchema), schema.Options{})
	require.NoError(t, err)
	prog, err := compiler.Compile(types, compiler.Options{})
	require.NoError(t, err)
	return prog
}

func loadText(t *testing.T, prog *salad.Program, text string) any {
	t.Helper()
	doc, err := prog.LoadDocumentFromText([]byte(text), docURI, nil)
	require.NoError(t, err)
	return doc
}

func get(t *testing.T, rec *salad.Record, field string) any {
	t.Helper()
	v, ok := rec.Get(field)
	require.True(t, ok, "field %s", field)
	return v
}

func TestLoadDocument_Workflow(t *testing.T) {
	prog := compileWorkflow(t)
	wf, ok := loadText(t, prog, workflowDoc).(*salad.Record)
	require.True(t, ok)

	assert.Equal(t, "Workflow", wf.Class())
	assert.Equal(t, docURI+"#main", wf.ID())
	assert.Equal(t, "demo", get(t, wf, "label"))
	assert.Equal(t, "http://example.com/#red", get(t, wf, "color"))
	assert.Equal(t, int64(2), get(t, wf, "version"))
	assert.Equal(t, map[string]any{"http://example.com/ext#note": "hello"}, wf.Extensions)
	assert.Equal(t, []any{docURI + "#a", docURI + "#b"}, get(t, wf, "source"))

	inputs := get(t, wf, "inputs").([]any)
	require.Len(t, inputs, 2)
	a := inputs[0].(*salad.Record)
	assert.Equal(t, docURI+"#main/a", a.ID())
	assert.Equal(t, "first", get(t, a, "label"))

	b := inputs[1].(*salad.Record)
	assert.Equal(t, docURI+"#main/b", b.ID())
	typ := get(t, b, "type").([]any)
	require.Len(t, typ, 2)
	assert.Equal(t, "https://w3id.org/cwl/salad#null", typ[0])
	arr := typ[1].(*salad.Record)
	assert.Equal(t, "https://w3id.org/cwl/salad#array", get(t, arr, "type"))
	assert.Equal(t, "http://www.w3.org/2001/XMLSchema#string", get(t, arr, "items"))

	steps := get(t, wf, "steps").([]any)
	require.Len(t, steps, 2)
	t1, t2 := steps[0].(*salad.Record), steps[1].(*salad.Record)
	assert.Equal(t, "Tool", t1.Class())
	assert.True(t, strings.HasPrefix(t1.ID(), "_:"), t1.ID())
	assert.Equal(t, docURI+"#main/t2", t2.ID())
}

func TestSaveDocument_Relative(t *testing.T) {
	prog := compileWorkflow(t)
	doc := loadText(t, prog, workflowDoc)

	out, err := prog.SaveDocument(doc, docURI, true)
	require.NoError(t, err)
	m := out.(map[string]any)

	assert.Equal(t, "Workflow", m["class"])
	assert.Equal(t, "main", m["id"])
	assert.Equal(t, "red", m["color"])
	assert.Equal(t, []any{"a", "b"}, m["source"])
	assert.Equal(t, "hello", m["http://example.com/ext#note"])
	assert.Equal(t, map[string]any{"ex": "http://example.com/ext#"}, m["$namespaces"])

	want := []any{
		map[string]any{"id": "a", "label": "first"},
		map[string]any{"id": "b", "type": []any{"null", map[string]any{"type": "array", "items": "string"}}},
	}
	if diff := cmp.Diff(want, m["inputs"]); diff != "" {
		t.Fatalf("inputs mismatch (-want +got):\n%s", diff)
	}
	steps := m["steps"].([]any)
	assert.Equal(t, "t2", steps[1].(map[string]any)["id"])
}

func TestSaveDocument_Absolute(t *testing.T) {
	prog := compileWorkflow(t)
	doc := loadText(t, prog, workflowDoc)

	out, err := prog.SaveDocument(doc, docURI, false)
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Equal(t, docURI+"#main", m["id"])
	assert.Equal(t, "http://example.com/#red", m["color"])
	assert.Equal(t, []any{docURI + "#a", docURI + "#b"}, m["source"])
}

func TestRoundTrip_SaveLoadSave(t *testing.T) {
	prog := compileWorkflow(t)
	for _, relative := range []bool{true, false} {
		doc := loadText(t, prog, workflowDoc)
		first, err := prog.SaveDocument(doc, docURI, relative)
		require.NoError(t, err)

		again, err := prog.LoadDocument(first, docURI, nil)
		require.NoError(t, err)
		second, err := prog.SaveDocument(again, docURI, relative)
		require.NoError(t, err)

		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("relative=%v: save(load(save(doc))) differs (-first +second):\n%s", relative, diff)
		}
	}
}

func TestRegistry_SharesTypeDefs(t *testing.T) {
	prog := compileWorkflow(t)

	wf, ok := prog.Record("Workflow")
	require.True(t, ok)
	param, ok := prog.Record("http://example.com/#Parameter")
	require.True(t, ok)

	wfLabel, _ := wf.Field("label")
	paramLabel, _ := param.Field("label")
	assert.Same(t, wfLabel.Type, paramLabel.Type)
	assert.Equal(t, "union<null,string>", wfLabel.Type.Name)

	seen := map[string]bool{}
	for _, td := range prog.Registry().TypeDefs() {
		assert.False(t, seen[td.Name], "duplicate TypeDef %s", td.Name)
		seen[td.Name] = true
	}

	td, ok := prog.Registry().Lookup("record:http://example.com/#Tool")
	require.True(t, ok)
	again, _ := prog.Registry().Lookup("record:http://example.com/#Tool")
	assert.Same(t, td, again)

	for _, k := range []salad.PrimitiveKind{salad.KindString, salad.KindInt, salad.KindBoolean} {
		td, ok := prog.Registry().Lookup(k.String())
		require.True(t, ok, k.String())
		assert.Same(t, prog.Registry().Primitive(k), td)
	}
	v, err := prog.Load("string", "x", docURI, nil)
	require.NoError(t, err)
	assert.Equal(t, "x", v)
	_, err = prog.Load("int", "x", docURI, nil)
	assert.Error(t, err)
	v, err = prog.Load("boolean", true, docURI, nil)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestUnion_NullWinsForNull(t *testing.T) {
	prog := compileWorkflow(t)
	v, err := prog.Load("union<null,string>", nil, docURI, nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = prog.Load("union<null,string>", 3, docURI, nil)
	ve, ok := salad.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, salad.CodeNoMatch, ve.Code)
	assert.Len(t, ve.Children, 2)
}

func TestRecord_ErrorsAreAggregated(t *testing.T) {
	prog := compileWorkflow(t)

	_, err := prog.Load("Tool", map[string]any{"class": "Tool", "label": 5, "bogus": true}, docURI, nil)
	ve, ok := salad.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, salad.CodeRecordInvalid, ve.Code)
	require.Len(t, ve.Children, 2)
	assert.Equal(t, salad.CodeFieldInvalid, ve.Children[0].Code)
	assert.Equal(t, "/label", ve.Children[0].Path)
	assert.Equal(t, salad.CodeInvalidField, ve.Children[1].Code)
	assert.Equal(t, "/bogus", ve.Children[1].Path)

	_, err = prog.Load("Tool", map[string]any{"class": "Tool", "label": 5}, docURI, nil)
	ve, ok = salad.AsValidationError(err)
	require.True(t, ok)
	require.Len(t, ve.Children, 1)
	assert.Contains(t, err.Error(), "the `label` field is not valid because:")
	assert.Contains(t, err.Error(), "Trying 'Tool'")
}

func TestRecord_MissingRequiredField(t *testing.T) {
	prog := compileWorkflow(t)
	_, err := prog.Load("Parameter", map[string]any{"label": "x"}, docURI, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field `id`")

	iss, ok := salad.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, salad.CodeRequired, iss[0].Code)
	assert.Equal(t, "/id", iss[0].Path)
}

func TestRecord_ExtensionFields(t *testing.T) {
	prog := compileWorkflow(t)

	v, err := prog.Load("Tool", map[string]any{
		"class":                      "Tool",
		"label":                      "x",
		"http://example.com/foo:bar": 1,
	}, docURI, nil)
	require.NoError(t, err)
	rec := v.(*salad.Record)
	assert.Equal(t, map[string]any{"http://example.com/foo:bar": 1}, rec.Extensions)

	out, err := salad.Save(rec, salad.SaveOptions{BaseURL: docURI})
	require.NoError(t, err)
	assert.Equal(t, 1, out.(map[string]any)["http://example.com/foo:bar"])

	_, err = prog.Load("Tool", map[string]any{"class": "Tool", "label": "x", "bogus": 1}, docURI, nil)
	ve, ok := salad.AsValidationError(err)
	require.True(t, ok)
	require.Len(t, ve.Children, 1)
	assert.Equal(t, salad.CodeInvalidField, ve.Children[0].Code)
}

func TestRecord_FreshBlankIDs(t *testing.T) {
	prog := compileWorkflow(t)
	doc := map[string]any{"class": "Tool", "label": "x"}

	a, err := prog.Load("Tool", doc, docURI, nil)
	require.NoError(t, err)
	b, err := prog.Load("Tool", doc, docURI, nil)
	require.NoError(t, err)

	idA, idB := a.(*salad.Record).ID(), b.(*salad.Record).ID()
	assert.True(t, strings.HasPrefix(idA, "_:"))
	assert.True(t, strings.HasPrefix(idB, "_:"))
	assert.NotEqual(t, idA, idB)
	assert.NotContains(t, doc, "id")
}

func TestRootUnion_DispatchesOnClass(t *testing.T) {
	prog := compileWorkflow(t)

	v, err := prog.LoadDocument(map[string]any{"class": "Tool", "label": "x"}, docURI, nil)
	require.NoError(t, err)
	rec := v.(*salad.Record)
	assert.Equal(t, "Tool", rec.Class())
	assert.Equal(t, docURI, rec.ID())

	_, err = prog.LoadDocument(map[string]any{"class": "Nope"}, docURI, nil)
	ve, ok := salad.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, salad.CodeNoMatch, ve.Code)
	require.Len(t, ve.Children, 3)
	assert.Equal(t, salad.CodeClassMismatch, ve.Children[0].Code)
	assert.Equal(t, "/class", ve.Children[0].Path)
	assert.Equal(t, salad.CodeClassMismatch, ve.Children[1].Code)
	assert.Equal(t, salad.CodeInvalidType, ve.Children[2].Code)
}

func TestIDMap(t *testing.T) {
	prog := compileWorkflow(t)

	_, err := prog.LoadDocument(map[string]any{
		"class":  "Workflow",
		"inputs": map[string]any{"x": map[string]any{"label": 5}},
	}, docURI, nil)
	require.Error(t, err)
	iss, ok := salad.AsIssues(err)
	require.True(t, ok)
	paths := make([]string, 0, len(iss))
	for _, it := range iss {
		paths = append(paths, it.Path)
	}
	assert.Contains(t, paths, "/inputs/x/label")
}

func TestLoadDocument_Locations(t *testing.T) {
	prog := compileWorkflow(t)
	_, err := prog.LoadDocumentFromText([]byte("class: Tool\nlabel: [1]\n"), docURI, nil)
	iss, ok := salad.AsIssues(err)
	require.True(t, ok)

	var found bool
	for _, it := range iss {
		if it.Path == "/label" && it.Code == salad.CodeInvalidType {
			found = true
			assert.Equal(t, salad.Issue{Path: "/label", Code: salad.CodeInvalidType, Message: it.Message, Line: 2, Column: 1}, it)
		}
	}
	assert.True(t, found, "no /label issue in %v", iss)
	assert.Contains(t, err.Error(), docURI+":2:1: ")
}

func TestLoadDocumentFromText_ParseError(t *testing.T) {
	prog := compileWorkflow(t)
	_, err := prog.LoadDocumentFromText([]byte("class: Tool\nclass: Tool\n"), docURI, nil)
	ve, ok := salad.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, salad.CodeParseError, ve.Code)
	require.NotNil(t, ve.Location)
	assert.Equal(t, 2, ve.Location.Line)
}

func TestLoadDocument_Directives(t *testing.T) {
	prog := compileWorkflow(t)

	v, err := prog.LoadDocument(map[string]any{
		"$base": "http://example.com/base/",
		"class": "Tool",
		"label": "x",
	}, docURI, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/base/", v.(*salad.Record).ID())

	v, err = prog.LoadDocument(map[string]any{
		"$graph": []any{
			map[string]any{"class": "Tool", "id": "one", "label": "1"},
			map[string]any{"class": "Tool", "id": "two", "label": "2"},
		},
	}, docURI, nil)
	require.NoError(t, err)
	list := v.([]any)
	require.Len(t, list, 2)
	assert.Equal(t, docURI+"#two", list[1].(*salad.Record).ID())

	_, err = prog.LoadDocument(map[string]any{
		"$graph": []any{map[string]any{"class": "Tool"}},
	}, docURI, nil)
	iss, ok := salad.AsIssues(err)
	require.True(t, ok)
	var paths []string
	for _, it := range iss {
		paths = append(paths, it.Path)
	}
	assert.Contains(t, paths, "/$graph/0/label")
}

func TestLoadDocument_StringReference(t *testing.T) {
	prog := compileWorkflow(t)

	lo := prog.NewLoadingOptions()
	lo.Index.Put("file:///tmp/tool.yml", map[string]any{"class": "Tool", "label": "x"})
	v, err := prog.LoadDocument("tool.yml", docURI, lo)
	require.NoError(t, err)
	assert.Equal(t, "file:///tmp/tool.yml", v.(*salad.Record).ID())

	_, err = prog.LoadDocument("missing.yml", docURI, lo)
	require.Error(t, err)
	assert.True(t, errors.Is(err, salad.ErrDocumentNotFound))
}

func TestLoadingOptions_NotMutated(t *testing.T) {
	prog := compileWorkflow(t)
	lo := prog.NewLoadingOptions()

	_, err := prog.LoadDocumentFromText([]byte(workflowDoc), docURI, lo)
	require.NoError(t, err)
	assert.Empty(t, lo.Namespaces)
	assert.Empty(t, lo.FileURI)
	assert.Nil(t, lo.Locations)
	assert.Equal(t, 1, lo.Index.Len())
}

func TestEnum_AcceptsTermsAndRejectsOthers(t *testing.T) {
	prog := compileWorkflow(t)

	for _, in := range []string{"blue", "http://example.com/#blue"} {
		v, err := prog.Load("enum:http://example.com/#Color", in, docURI, nil)
		require.NoError(t, err, in)
		assert.Equal(t, "http://example.com/#blue", v)
	}
	_, err := prog.Load("enum:http://example.com/#Color", "green", docURI, nil)
	ve, ok := salad.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, salad.CodeInvalidEnum, ve.Code)
}
