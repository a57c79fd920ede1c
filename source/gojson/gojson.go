// Package gojson is a JSON-only salad.Parser backed by
// github.com/goccy/go-json. It records no source positions.
package gojson

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	j "github.com/goccy/go-json"

	salad "github.com/reoring/salad"
)

// Parser returns a salad.Parser backed by goccy/go-json.
func Parser() salad.Parser { return driverGoJSON{} }

type driverGoJSON struct{}

func (driverGoJSON) Name() string { return "go-json" }

// Parse decodes a single JSON value. Numbers are kept as json.Number so
// integers survive unchanged; trailing data is rejected.
func (driverGoJSON) Parse(data []byte, uri string) (any, *salad.Locations, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, salad.NewLocations(uri, nil), nil
		}
		return nil, nil, err
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, nil, errors.New("gojson: unexpected data after top-level value")
	}
	return normalize(v), salad.NewLocations(uri, nil), nil
}

// normalize rewrites decoded numbers as encoding/json Numbers, the form
// the salad loaders convert.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	case j.Number:
		return json.Number(t.String())
	}
	return v
}
