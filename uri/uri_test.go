package uri_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/salad/uri"
)

func intp(n int) *int { return &n }

func TestJoin_RFC3986(t *testing.T) {
	base := "http://a/b/c/d;p?q"
	cases := map[string]string{
		"g":          "http://a/b/c/g",
		"./g":        "http://a/b/c/g",
		"g/":         "http://a/b/c/g/",
		"/g":         "http://a/g",
		"//g":        "http://g",
		"?y":         "http://a/b/c/d;p?y",
		"#s":         "http://a/b/c/d;p?q#s",
		"..":         "http://a/b/",
		"../g":       "http://a/b/g",
		"../../../g": "http://a/g",
		"g;x=1/../y": "http://a/b/c/y",
		"urn:x:y":    "urn:x:y",
	}
	for ref, want := range cases {
		assert.Equal(t, want, uri.Join(base, ref), "ref %q", ref)
	}
	assert.Equal(t, "rel", uri.Join("", "rel"))
}

func TestJoin_KeepsEscapes(t *testing.T) {
	got := uri.Join("file:///tmp/a%20b/doc.yml", "other%2Fx.yml#frag%20x")
	assert.Equal(t, "file:///tmp/a%20b/other%2Fx.yml#frag%20x", got)
}

func TestExpand(t *testing.T) {
	vocab := uri.NewVocabulary()
	require.NoError(t, vocab.Register("File", "https://w3id.org/cwl/cwl#File"))
	ns := vocab.WithNamespaces(map[string]string{"edam": "http://edamontology.org/"})

	cases := []struct {
		name  string
		value string
		base  string
		vocab *uri.Vocabulary
		opt   uri.ExpandOptions
		want  string
	}{
		{name: "absolute", value: "http://other/x", base: "http://x/doc", want: "http://other/x"},
		{name: "keyword", value: "@id", base: "http://x/doc", want: "@id"},
		{name: "expression", value: "$(inputs.x)", base: "http://x/doc", want: "$(inputs.x)"},
		{name: "blank node", value: "_:b0", base: "http://x/doc#main", opt: uri.ExpandOptions{ScopedID: true}, want: "_:b0"},
		{name: "relative", value: "other.yml", base: "http://x/dir/doc.yml", want: "http://x/dir/other.yml"},
		{name: "fragment", value: "#main", base: "http://x/doc.yml", want: "http://x/doc.yml#main"},
		{name: "scoped top", value: "main", base: "http://x/doc.yml", opt: uri.ExpandOptions{ScopedID: true}, want: "http://x/doc.yml#main"},
		{name: "scoped nested", value: "step1", base: "http://x/doc.yml#main", opt: uri.ExpandOptions{ScopedID: true}, want: "http://x/doc.yml#main/step1"},
		{name: "scoped empty path", value: "a", base: "http://x", opt: uri.ExpandOptions{ScopedID: true}, want: "http://x/#a"},
		{name: "refScope zero", value: "b", base: "http://x/#a", opt: uri.ExpandOptions{RefScope: intp(0)}, want: "http://x/#a/b"},
		{name: "refScope one", value: "inp", base: "http://x/d#main/step1", opt: uri.ExpandOptions{RefScope: intp(1)}, want: "http://x/d#main/inp"},
		{name: "refScope pops past root", value: "inp", base: "http://x/d#main", opt: uri.ExpandOptions{RefScope: intp(3)}, want: "http://x/d#inp"},
		{name: "vocab term", value: "File", base: "http://x/doc", vocab: vocab, opt: uri.ExpandOptions{VocabTerm: true}, want: "https://w3id.org/cwl/cwl#File"},
		{name: "term without vocab flag", value: "File", base: "http://x/doc", vocab: vocab, want: "http://x/File"},
		{name: "namespace prefix", value: "edam:format_1930", base: "http://x/doc", vocab: ns, want: "http://edamontology.org/format_1930"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := uri.Expand(tc.value, tc.base, tc.vocab, tc.opt)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExpand_UnknownTerm(t *testing.T) {
	_, err := uri.Expand("Nope", "", uri.NewVocabulary(), uri.ExpandOptions{VocabTerm: true})
	require.ErrorIs(t, err, uri.ErrUnknownTerm)
}

func TestCompact(t *testing.T) {
	vocab := uri.NewVocabulary()
	require.NoError(t, vocab.Register("File", "https://w3id.org/cwl/cwl#File"))

	cases := []struct {
		name  string
		value string
		base  string
		opt   uri.CompactOptions
		want  string
	}{
		{name: "scoped id", value: "http://x/doc.yml#main/step1", base: "http://x/doc.yml#main", opt: uri.CompactOptions{ScopedID: true}, want: "step1"},
		{name: "same document", value: "http://x/doc.yml#foo", base: "http://x/doc.yml#bar", want: "#foo"},
		{name: "sibling file", value: "http://x/a/b.yml", base: "http://x/a/c.yml", want: "b.yml"},
		{name: "parent dir", value: "http://x/b/c.yml", base: "http://x/a/d.yml", want: "../b/c.yml"},
		{name: "vocab term", value: "https://w3id.org/cwl/cwl#File", base: "http://x/doc", opt: uri.CompactOptions{VocabTerm: true}, want: "File"},
		{name: "refScope", value: "http://x/d#main/inp", base: "http://x/d#main/step1", opt: uri.CompactOptions{RefScope: intp(1)}, want: "inp"},
		{name: "other host", value: "http://y/doc.yml", base: "http://x/doc.yml", want: "http://y/doc.yml"},
		{name: "equal to base", value: "http://x/doc.yml", base: "http://x/doc.yml", want: "http://x/doc.yml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.opt.Relative = true
			got := uri.Compact(tc.value, tc.base, vocab, tc.opt)
			assert.Equal(t, tc.want, got)

			back, err := uri.Expand(got, tc.base, vocab, uri.ExpandOptions{ScopedID: tc.opt.ScopedID, VocabTerm: tc.opt.VocabTerm, RefScope: tc.opt.RefScope})
			require.NoError(t, err)
			assert.Equal(t, tc.value, back)
		})
	}
}

func TestCompact_NotRelative(t *testing.T) {
	got := uri.Compact("http://x/doc.yml#foo", "http://x/doc.yml", nil, uri.CompactOptions{})
	assert.Equal(t, "http://x/doc.yml#foo", got)
}

func TestCompactExpand_Inverse(t *testing.T) {
	bases := []string{"file:///work/wf.cwl", "file:///work/wf.cwl#main", "file:///work/wf.cwl#main/step", "http://x"}
	values := []string{
		"file:///work/wf.cwl#main/step/in",
		"file:///work/wf.cwl#main",
		"file:///work/tools/echo.cwl",
		"file:///other/a:b.cwl",
		"file:///work/",
		"http://x/#a",
		"https://elsewhere/doc",
	}
	flags := []uri.CompactOptions{
		{Relative: true},
		{Relative: true, ScopedID: true},
		{Relative: true, RefScope: intp(0)},
		{Relative: true, RefScope: intp(1)},
	}
	for _, b := range bases {
		for _, v := range values {
			for _, f := range flags {
				c := uri.Compact(v, b, nil, f)
				back, err := uri.Expand(c, b, nil, uri.ExpandOptions{ScopedID: f.ScopedID, RefScope: f.RefScope})
				require.NoError(t, err)
				assert.Equal(t, v, back, "value %q base %q compact %q", v, b, c)
			}
		}
	}
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "bar", uri.ShortName("http://x/#Foo/bar"))
	assert.Equal(t, "z", uri.ShortName("http://x/y/z"))
	assert.Equal(t, "string", uri.ShortName("string"))
	assert.Equal(t, "Foo", uri.ShortName("#Foo"))
}

func TestVocabulary(t *testing.T) {
	v := uri.NewVocabulary()
	require.NoError(t, v.Register("a", "http://x/#a"))
	require.NoError(t, v.Register("a", "http://x/#a"))
	err := v.Register("a", "http://y/#a")
	require.ErrorIs(t, err, uri.ErrTermConflict)

	term, ok := v.Term("http://x/#a")
	require.True(t, ok)
	assert.Equal(t, "a", term)

	overlay := v.WithNamespaces(map[string]string{"ex": "http://example.com/"})
	_, ok = v.Lookup("ex")
	assert.False(t, ok)
	full, ok := overlay.Lookup("ex")
	require.True(t, ok)
	assert.Equal(t, "http://example.com/", full)
	assert.Equal(t, []string{"a", "ex"}, overlay.Terms())

	var empty *uri.Vocabulary
	assert.Equal(t, 0, empty.Len())
}
